package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultBoundaryColor is used when a boundary is created without a color.
const DefaultBoundaryColor = "#3388ff"

// MinBoundaryVertices is the smallest vertex count that forms a polygon.
const MinBoundaryVertices = 3

// MaxBoundaryNameLength bounds user-supplied boundary names.
const MaxBoundaryNameLength = 120

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidBoundary = errors.New("invalid boundary")
	ErrNoLocation      = errors.New("user has no location")
	ErrSurfaceClosed   = errors.New("surface closed")
	ErrInvalidQuery    = errors.New("invalid search query")
	ErrInvalidLocation = errors.New("invalid location")
)

// User is a tracked person. Latitude and Longitude are nil until the
// user has reported a position.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar,omitempty"`
	IsOnline  bool      `json:"isOnline"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Location returns the user's position and whether both coordinates are known.
func (u User) Location() (LatLng, bool) {
	if u.Latitude == nil || u.Longitude == nil {
		return LatLng{}, false
	}
	return LatLng{Lat: *u.Latitude, Lng: *u.Longitude}, true
}

// Boundary is a named, colored closed polygon drawn by a user.
// Coords keep the winding order they were drawn in.
type Boundary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Coords    []LatLng  `json:"coords"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
}

// Renderable reports whether the boundary has enough vertices to draw.
func (b Boundary) Renderable() bool {
	return len(b.Coords) >= MinBoundaryVertices
}

// BoundaryDraft is a client-proposed boundary that has not been persisted yet.
type BoundaryDraft struct {
	Name   string   `json:"name"`
	Coords []LatLng `json:"coords"`
	Color  string   `json:"color,omitempty"`
}

// Normalize trims the name and fills in the default color.
func (d BoundaryDraft) Normalize() BoundaryDraft {
	d.Name = strings.TrimSpace(d.Name)
	d.Color = strings.TrimSpace(d.Color)
	if d.Color == "" {
		d.Color = DefaultBoundaryColor
	}
	return d
}

// Validate checks the draft. Errors wrap ErrInvalidBoundary.
func (d BoundaryDraft) Validate() error {
	name := strings.TrimSpace(d.Name)
	switch {
	case name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidBoundary)
	case len(name) > MaxBoundaryNameLength:
		return fmt.Errorf("%w: name longer than %d characters", ErrInvalidBoundary, MaxBoundaryNameLength)
	case len(d.Coords) < MinBoundaryVertices:
		return fmt.Errorf("%w: need at least %d vertices, got %d", ErrInvalidBoundary, MinBoundaryVertices, len(d.Coords))
	}
	for i, p := range d.Coords {
		if !p.Valid() {
			return fmt.Errorf("%w: vertex %d out of range", ErrInvalidBoundary, i)
		}
	}
	return nil
}

// BoundaryEventType names a boundary change.
type BoundaryEventType string

const (
	BoundaryCreated BoundaryEventType = "created"
	BoundaryDeleted BoundaryEventType = "deleted"
)

// BoundaryEvent announces a boundary change to other instances.
type BoundaryEvent struct {
	Type     BoundaryEventType `json:"type"`
	ID       string            `json:"id"`
	Boundary *Boundary         `json:"boundary,omitempty"`
	Time     time.Time         `json:"time"`
}

// LocationUpdate is a position report for a single user.
type LocationUpdate struct {
	UserID    string    `json:"userId"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	IsOnline  bool      `json:"isOnline"`
	Time      time.Time `json:"time"`
}

// Validate checks the update has a user and an in-range position.
func (u LocationUpdate) Validate() error {
	if strings.TrimSpace(u.UserID) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidLocation)
	}
	if !(LatLng{Lat: u.Latitude, Lng: u.Longitude}).Valid() {
		return fmt.Errorf("%w: %.6f,%.6f out of range", ErrInvalidLocation, u.Latitude, u.Longitude)
	}
	return nil
}

// GeocodeResult is one candidate returned by a place search.
type GeocodeResult struct {
	DisplayName string  `json:"displayName"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

// ShortName is the first comma-separated component of the display name.
func (r GeocodeResult) ShortName() string {
	name, _, _ := strings.Cut(r.DisplayName, ",")
	return strings.TrimSpace(name)
}
