package http

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/smarttrack/internal/core/domain"
)

// ListBoundariesHandler returns all boundaries, newest first.
func ListBoundariesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		boundaries, err := deps.Boundaries.List(c.UserContext())
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("list boundaries", "error", err)
			return errInternal(c, "failed to fetch boundaries")
		}

		page, pg := paginate(c, boundaries, 100, 500)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// GetBoundaryHandler returns a single boundary by ID.
func GetBoundaryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "boundary id is required")
		}
		b, err := deps.Boundaries.Get(c.UserContext(), id)
		if errors.Is(err, domain.ErrNotFound) {
			return errNotFound(c, "boundary not found")
		}
		if err != nil {
			return errInternal(c, "failed to fetch boundary")
		}
		return c.JSON(b)
	}
}

type boundaryRequest struct {
	Name   string          `json:"name" validate:"max=120"`
	Coords []domain.LatLng `json:"coords" validate:"required,min=3,dive"`
	Color  string          `json:"color" validate:"omitempty,hexcolor"`
}

// CreateBoundaryHandler stores a boundary. Color defaults to #3388ff.
func CreateBoundaryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req boundaryRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := validateBody(&req); err != nil {
			return errBadRequest(c, err.Error())
		}

		draft := domain.BoundaryDraft{Name: req.Name, Coords: req.Coords, Color: req.Color}
		b, err := deps.Boundaries.Create(c.UserContext(), draft)
		if errors.Is(err, domain.ErrInvalidBoundary) {
			return errBadRequest(c, err.Error())
		}
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("create boundary", "error", err)
			return errInternal(c, "failed to create boundary")
		}
		return c.Status(fiber.StatusCreated).JSON(b)
	}
}

// DeleteBoundaryHandler removes a boundary. The ID comes from the path or
// from the id query parameter.
func DeleteBoundaryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			id = strings.TrimSpace(c.Query("id"))
		}
		if id == "" {
			return errBadRequest(c, "boundary id is required")
		}

		err := deps.Boundaries.Delete(c.UserContext(), id)
		if errors.Is(err, domain.ErrNotFound) {
			return errNotFound(c, "boundary not found")
		}
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("delete boundary", "id", id, "error", err)
			return errInternal(c, "failed to delete boundary")
		}
		return c.JSON(fiber.Map{"success": true})
	}
}

// ListUsersHandler returns tracked users, optionally filtered by a
// case-insensitive name or email substring in q.
func ListUsersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := c.Query("q")
		if len(q) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}
		users, err := deps.Users.Filter(c.UserContext(), q)
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("list users", "error", err)
			return errInternal(c, "failed to fetch users")
		}
		if users == nil {
			users = []domain.User{}
		}
		c.Set("Cache-Control", "no-cache")
		return c.JSON(users)
	}
}

// GetUserHandler returns a single user by ID.
func GetUserHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "user id is required")
		}
		u, err := deps.Users.Get(c.UserContext(), id)
		if errors.Is(err, domain.ErrNotFound) {
			return errNotFound(c, "user not found")
		}
		if err != nil {
			return errInternal(c, "failed to fetch user")
		}
		c.Set("Cache-Control", "no-cache")
		return c.JSON(u)
	}
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	IsOnline  *bool    `json:"isOnline"`
}

// ReportLocationHandler accepts a position report for a user.
func ReportLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req locationRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := validateBody(&req); err != nil {
			return errBadRequest(c, err.Error())
		}

		update := &domain.LocationUpdate{
			UserID:    c.Params("id"),
			Latitude:  *req.Latitude,
			Longitude: *req.Longitude,
			IsOnline:  req.IsOnline == nil || *req.IsOnline,
			Time:      time.Now().UTC(),
		}

		err := deps.Locations.Report(c.UserContext(), update)
		switch {
		case errors.Is(err, domain.ErrInvalidLocation):
			return errBadRequest(c, err.Error())
		case errors.Is(err, domain.ErrNotFound):
			return errNotFound(c, "user not found")
		case err != nil:
			LoggerFromCtx(c.UserContext()).Error("report location", "user", update.UserID, "error", err)
			return errInternal(c, "failed to record location")
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"accepted": true})
	}
}

// SearchPlacesHandler geocodes a free-text place query.
func SearchPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Search == nil {
			return errUnavailable(c, "place search is not configured")
		}
		results, err := deps.Search.Search(c.UserContext(), c.Query("q"))
		if errors.Is(err, domain.ErrInvalidQuery) {
			return errBadRequest(c, "q must be between 1 and 200 characters")
		}
		if err != nil {
			LoggerFromCtx(c.UserContext()).Warn("place search", "error", err)
			return errUnavailable(c, "geocoder unavailable")
		}
		if results == nil {
			results = []domain.GeocodeResult{}
		}
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(results)
	}
}

// LegacyListBoundariesHandler returns every boundary as a bare array,
// newest first.
func LegacyListBoundariesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		boundaries, err := deps.Boundaries.List(c.UserContext())
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("list boundaries", "error", err)
			return errInternal(c, "failed to fetch boundaries")
		}
		if boundaries == nil {
			boundaries = []domain.Boundary{}
		}
		return c.JSON(boundaries)
	}
}
