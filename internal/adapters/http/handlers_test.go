package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/smarttrack/internal/adapters/http"
	"github.com/samirrijal/smarttrack/internal/core/domain"
	"github.com/samirrijal/smarttrack/internal/core/usecases"
)

// ---- Mock repositories ----

type mockBoundaryRepo struct {
	listFn    func(ctx context.Context) ([]domain.Boundary, error)
	getByIDFn func(ctx context.Context, id string) (*domain.Boundary, error)
	createFn  func(ctx context.Context, draft domain.BoundaryDraft) (*domain.Boundary, error)
	deleteFn  func(ctx context.Context, id string) error
}

func (m *mockBoundaryRepo) List(ctx context.Context) ([]domain.Boundary, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}
func (m *mockBoundaryRepo) GetByID(ctx context.Context, id string) (*domain.Boundary, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}
func (m *mockBoundaryRepo) Create(ctx context.Context, draft domain.BoundaryDraft) (*domain.Boundary, error) {
	if m.createFn != nil {
		return m.createFn(ctx, draft)
	}
	return &domain.Boundary{ID: "b-new", Name: draft.Name, Coords: draft.Coords, Color: draft.Color}, nil
}
func (m *mockBoundaryRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockUserRepo struct {
	listFn           func(ctx context.Context) ([]domain.User, error)
	getByIDFn        func(ctx context.Context, id string) (*domain.User, error)
	updateLocationFn func(ctx context.Context, update domain.LocationUpdate) error
}

func (m *mockUserRepo) List(ctx context.Context) ([]domain.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}
func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}
func (m *mockUserRepo) Upsert(ctx context.Context, user *domain.User) error { return nil }
func (m *mockUserRepo) UpdateLocation(ctx context.Context, update domain.LocationUpdate) error {
	if m.updateLocationFn != nil {
		return m.updateLocationFn(ctx, update)
	}
	return nil
}

type mockGeocoder struct {
	searchFn func(ctx context.Context, query string, limit int) ([]domain.GeocodeResult, error)
}

func (m *mockGeocoder) Search(ctx context.Context, query string, limit int) ([]domain.GeocodeResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return nil, nil
}

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	users := &mockUserRepo{}
	d := &handler.Dependencies{
		Boundaries: usecases.NewBoundaryService(&mockBoundaryRepo{}, nil, nil, nil),
		Users:      usecases.NewUserService(users),
		Locations:  usecases.NewLocationService(users, nil, nil),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func withBoundaries(repo *mockBoundaryRepo) func(*handler.Dependencies) {
	return func(d *handler.Dependencies) {
		d.Boundaries = usecases.NewBoundaryService(repo, nil, nil, nil)
	}
}

func withUsers(repo *mockUserRepo) func(*handler.Dependencies) {
	return func(d *handler.Dependencies) {
		d.Users = usecases.NewUserService(repo)
		d.Locations = usecases.NewLocationService(repo, nil, nil)
	}
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, []byte, map[string]string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	headers := map[string]string{}
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}
	return resp.StatusCode, readBody(t, resp.Body), headers
}

func ptr(f float64) *float64 { return &f }

var triangleJSON = `[{"lat":28.60,"lng":77.20},{"lat":28.61,"lng":77.22},{"lat":28.62,"lng":77.20}]`

func sampleBoundaries(n int) []domain.Boundary {
	out := make([]domain.Boundary, n)
	for i := range out {
		out[i] = domain.Boundary{
			ID:     fmt.Sprintf("b%d", i),
			Name:   fmt.Sprintf("Zone %d", i),
			Coords: []domain.LatLng{{Lat: 28.60, Lng: 77.20}, {Lat: 28.61, Lng: 77.22}, {Lat: 28.62, Lng: 77.20}},
			Color:  domain.DefaultBoundaryColor,
		}
	}
	return out
}

// ---- Boundary handler tests ----

func TestListBoundaries_Success(t *testing.T) {
	app := setupApp(makeDeps(withBoundaries(&mockBoundaryRepo{
		listFn: func(ctx context.Context) ([]domain.Boundary, error) { return sampleBoundaries(2), nil },
	})))

	status, body, _ := do(t, app, "GET", "/v1/boundaries", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}

	var result struct {
		Data       []domain.Boundary `json:"data"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatal(err)
	}
	if result.Pagination.Total != 2 || len(result.Data) != 2 {
		t.Errorf("expected 2 boundaries, got %d (total %d)", len(result.Data), result.Pagination.Total)
	}
	if result.Data[0].ID != "b0" {
		t.Errorf("expected repository order to be kept, got %s first", result.Data[0].ID)
	}
}

func TestListBoundaries_Pagination(t *testing.T) {
	app := setupApp(makeDeps(withBoundaries(&mockBoundaryRepo{
		listFn: func(ctx context.Context) ([]domain.Boundary, error) { return sampleBoundaries(5), nil },
	})))

	status, body, headers := do(t, app, "GET", "/v1/boundaries?offset=2&limit=2", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}

	var result struct {
		Data       []domain.Boundary `json:"data"`
		Pagination struct {
			Offset int `json:"offset"`
			Limit  int `json:"limit"`
			Total  int `json:"total"`
		} `json:"pagination"`
	}
	_ = json.Unmarshal(body, &result)
	if result.Pagination.Total != 5 || result.Pagination.Offset != 2 || len(result.Data) != 2 {
		t.Errorf("unexpected page %+v with %d items", result.Pagination, len(result.Data))
	}
	if !strings.Contains(headers["Link"], `rel="next"`) {
		t.Errorf("expected next link, got %q", headers["Link"])
	}
}

func TestListBoundaries_EmptyIsArray(t *testing.T) {
	app := setupApp(makeDeps())

	status, body, _ := do(t, app, "GET", "/v1/boundaries", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.Contains(string(body), `"data":[]`) {
		t.Errorf("expected empty data array, got %s", body)
	}
}

func TestListBoundaries_RepoError(t *testing.T) {
	app := setupApp(makeDeps(withBoundaries(&mockBoundaryRepo{
		listFn: func(ctx context.Context) ([]domain.Boundary, error) { return nil, fmt.Errorf("connection refused") },
	})))

	status, body, _ := do(t, app, "GET", "/v1/boundaries", "")
	if status != 500 {
		t.Fatalf("expected 500, got %d", status)
	}
	if strings.Contains(string(body), "connection refused") {
		t.Error("internal error details should not leak")
	}
}

func TestCreateBoundary_Success(t *testing.T) {
	var got domain.BoundaryDraft
	app := setupApp(makeDeps(withBoundaries(&mockBoundaryRepo{
		createFn: func(ctx context.Context, draft domain.BoundaryDraft) (*domain.Boundary, error) {
			got = draft
			return &domain.Boundary{ID: "b-new", Name: draft.Name, Coords: draft.Coords, Color: draft.Color, CreatedAt: time.Now()}, nil
		},
	})))

	status, body, _ := do(t, app, "POST", "/v1/boundaries", `{"name":"  Zone A ","coords":`+triangleJSON+`}`)
	if status != 201 {
		t.Fatalf("expected 201, got %d: %s", status, body)
	}

	var b domain.Boundary
	if err := json.Unmarshal(body, &b); err != nil {
		t.Fatal(err)
	}
	if b.ID != "b-new" || b.Name != "Zone A" || b.Color != domain.DefaultBoundaryColor {
		t.Errorf("unexpected boundary %+v", b)
	}
	if len(got.Coords) != 3 || got.Coords[1] != (domain.LatLng{Lat: 28.61, Lng: 77.22}) {
		t.Errorf("vertices not passed through in order: %v", got.Coords)
	}
}

func TestCreateBoundary_Invalid(t *testing.T) {
	called := false
	app := setupApp(makeDeps(withBoundaries(&mockBoundaryRepo{
		createFn: func(ctx context.Context, draft domain.BoundaryDraft) (*domain.Boundary, error) {
			called = true
			return nil, nil
		},
	})))

	cases := map[string]string{
		"no name":      `{"name":"  ","coords":` + triangleJSON + `}`,
		"two vertices": `{"name":"Line","coords":[{"lat":1,"lng":1},{"lat":2,"lng":2}]}`,
		"out of range": `{"name":"Far","coords":[{"lat":91,"lng":1},{"lat":2,"lng":2},{"lat":3,"lng":3}]}`,
		"bad json":     `{"name":`,
		"bad color":    `{"name":"Zone","color":"blue","coords":` + triangleJSON + `}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			status, resp, _ := do(t, app, "POST", "/v1/boundaries", body)
			if status != 400 {
				t.Fatalf("expected 400, got %d", status)
			}
			var apiErr handler.APIError
			_ = json.Unmarshal(resp, &apiErr)
			if apiErr.Code != "bad_request" {
				t.Errorf("expected bad_request, got %q", apiErr.Code)
			}
		})
	}
	if called {
		t.Error("repository should not be called for invalid drafts")
	}
}

func TestDeleteBoundary_QueryParam(t *testing.T) {
	var deleted string
	app := setupApp(makeDeps(withBoundaries(&mockBoundaryRepo{
		deleteFn: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	})))

	status, body, _ := do(t, app, "DELETE", "/v1/boundaries?id=b1", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if deleted != "b1" {
		t.Errorf("expected b1 deleted, got %q", deleted)
	}
	if !strings.Contains(string(body), `"success":true`) {
		t.Errorf("unexpected body %s", body)
	}
}

func TestDeleteBoundary_PathParam(t *testing.T) {
	var deleted string
	app := setupApp(makeDeps(withBoundaries(&mockBoundaryRepo{
		deleteFn: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	})))

	if status, _, _ := do(t, app, "DELETE", "/v1/boundaries/b7", ""); status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if deleted != "b7" {
		t.Errorf("expected b7 deleted, got %q", deleted)
	}
}

func TestDeleteBoundary_MissingID(t *testing.T) {
	app := setupApp(makeDeps())

	status, _, _ := do(t, app, "DELETE", "/v1/boundaries", "")
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestDeleteBoundary_NotFound(t *testing.T) {
	app := setupApp(makeDeps(withBoundaries(&mockBoundaryRepo{
		deleteFn: func(ctx context.Context, id string) error { return domain.ErrNotFound },
	})))

	status, _, _ := do(t, app, "DELETE", "/v1/boundaries?id=missing", "")
	if status != 404 {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestGetBoundary(t *testing.T) {
	app := setupApp(makeDeps(withBoundaries(&mockBoundaryRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Boundary, error) {
			if id != "b0" {
				return nil, domain.ErrNotFound
			}
			b := sampleBoundaries(1)[0]
			return &b, nil
		},
	})))

	if status, _, _ := do(t, app, "GET", "/v1/boundaries/b0", ""); status != 200 {
		t.Errorf("expected 200, got %d", status)
	}
	if status, _, _ := do(t, app, "GET", "/v1/boundaries/nope", ""); status != 404 {
		t.Errorf("expected 404, got %d", status)
	}
}

func TestLegacyBoundaries_Deprecated(t *testing.T) {
	app := setupApp(makeDeps(withBoundaries(&mockBoundaryRepo{
		listFn: func(ctx context.Context) ([]domain.Boundary, error) { return sampleBoundaries(3), nil },
	})))

	status, body, headers := do(t, app, "GET", "/api/boundaries", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if headers["Deprecation"] != "true" || headers["Sunset"] == "" {
		t.Errorf("expected deprecation headers, got %v", headers)
	}
	if !strings.Contains(headers["Link"], "/v1/boundaries") {
		t.Errorf("expected successor link, got %q", headers["Link"])
	}

	var list []domain.Boundary
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatalf("expected bare array: %v", err)
	}
	if len(list) != 3 {
		t.Errorf("expected 3 boundaries, got %d", len(list))
	}

	if status, _, _ := do(t, app, "DELETE", "/api/boundaries", ""); status != 400 {
		t.Errorf("expected 400 for legacy delete without id, got %d", status)
	}
}

// ---- User handler tests ----

func usersRepo() *mockUserRepo {
	return &mockUserRepo{
		listFn: func(ctx context.Context) ([]domain.User, error) {
			return []domain.User{
				{ID: "1", Name: "John Doe", Email: "john@example.com", IsOnline: true, Latitude: ptr(28.6139), Longitude: ptr(77.209)},
				{ID: "2", Name: "Jane Smith", Email: "jane@example.com", IsOnline: true, Latitude: ptr(28.6229), Longitude: ptr(77.219)},
				{ID: "3", Name: "Bob Johnson", Email: "bob@example.com"},
			}, nil
		},
		getByIDFn: func(ctx context.Context, id string) (*domain.User, error) {
			if id == "1" {
				return &domain.User{ID: "1", Name: "John Doe"}, nil
			}
			return nil, domain.ErrNotFound
		},
	}
}

func TestListUsers_Filter(t *testing.T) {
	app := setupApp(makeDeps(withUsers(usersRepo())))

	status, body, _ := do(t, app, "GET", "/v1/users?q=JOHN", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var users []domain.User
	_ = json.Unmarshal(body, &users)
	if len(users) != 2 {
		t.Errorf("expected John Doe and Bob Johnson, got %d users", len(users))
	}

	_, body, _ = do(t, app, "GET", "/v1/users", "")
	_ = json.Unmarshal(body, &users)
	if len(users) != 3 {
		t.Errorf("expected all 3 users without a filter, got %d", len(users))
	}
}

func TestGetUser(t *testing.T) {
	app := setupApp(makeDeps(withUsers(usersRepo())))

	if status, _, _ := do(t, app, "GET", "/v1/users/1", ""); status != 200 {
		t.Errorf("expected 200, got %d", status)
	}
	if status, _, _ := do(t, app, "GET", "/v1/users/9", ""); status != 404 {
		t.Errorf("expected 404, got %d", status)
	}
}

func TestReportLocation(t *testing.T) {
	var got domain.LocationUpdate
	repo := usersRepo()
	repo.updateLocationFn = func(ctx context.Context, update domain.LocationUpdate) error {
		if update.UserID != "1" {
			return domain.ErrNotFound
		}
		got = update
		return nil
	}
	app := setupApp(makeDeps(withUsers(repo)))

	status, _, _ := do(t, app, "POST", "/v1/users/1/location", `{"latitude":28.62,"longitude":77.21}`)
	if status != 202 {
		t.Fatalf("expected 202, got %d", status)
	}
	if got.Latitude != 28.62 || got.Longitude != 77.21 || !got.IsOnline {
		t.Errorf("unexpected update %+v", got)
	}

	if status, _, _ := do(t, app, "POST", "/v1/users/1/location", `{"latitude":128,"longitude":77.21}`); status != 400 {
		t.Errorf("expected 400 for out-of-range latitude, got %d", status)
	}
	if status, _, _ := do(t, app, "POST", "/v1/users/9/location", `{"latitude":28,"longitude":77}`); status != 404 {
		t.Errorf("expected 404 for unknown user, got %d", status)
	}

	status, body, _ := do(t, app, "POST", "/v1/users/1/location", `{"longitude":77.21}`)
	if status != 400 || !strings.Contains(string(body), "latitude is required") {
		t.Errorf("expected 400 for missing latitude, got %d: %s", status, body)
	}

	if status, _, _ := do(t, app, "POST", "/v1/users/1/location", `{"latitude":0,"longitude":0}`); status != 202 {
		t.Errorf("expected 0,0 to be accepted, got %d", status)
	}
}

// ---- Search handler tests ----

func TestSearchPlaces(t *testing.T) {
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.Search = usecases.NewSearchService(&mockGeocoder{
			searchFn: func(ctx context.Context, query string, limit int) ([]domain.GeocodeResult, error) {
				return []domain.GeocodeResult{{DisplayName: "India Gate, New Delhi", Lat: 28.6129, Lng: 77.2295}}, nil
			},
		}, nil)
	}))

	status, body, _ := do(t, app, "GET", "/v1/search?q=india+gate", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var results []domain.GeocodeResult
	_ = json.Unmarshal(body, &results)
	if len(results) != 1 || results[0].ShortName() != "India Gate" {
		t.Errorf("unexpected results %+v", results)
	}

	if status, _, _ := do(t, app, "GET", "/v1/search?q=", ""); status != 400 {
		t.Errorf("expected 400 for empty query, got %d", status)
	}
}

func TestSearchPlaces_Unconfigured(t *testing.T) {
	app := setupApp(makeDeps())

	if status, _, _ := do(t, app, "GET", "/v1/search?q=delhi", ""); status != 503 {
		t.Errorf("expected 503, got %d", status)
	}
}

// ---- Middleware and system endpoints ----

func TestETag_NotModified(t *testing.T) {
	app := setupApp(makeDeps(withBoundaries(&mockBoundaryRepo{
		listFn: func(ctx context.Context) ([]domain.Boundary, error) { return sampleBoundaries(1), nil },
	})))

	_, _, headers := do(t, app, "GET", "/v1/boundaries", "")
	etag := headers["Etag"]
	if etag == "" {
		t.Fatal("expected an ETag")
	}

	req := httptest.NewRequest("GET", "/v1/boundaries", nil)
	req.Header.Set("If-None-Match", etag)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 304 {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps())

	status, body, _ := do(t, app, "GET", "/v1/health", "")
	if status != 200 || !strings.Contains(string(body), `"healthy"`) {
		t.Errorf("unexpected health response %d %s", status, body)
	}
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

func TestReady(t *testing.T) {
	app := setupApp(makeDeps())
	if status, _, _ := do(t, app, "GET", "/v1/ready", ""); status != 503 {
		t.Errorf("expected 503 without storage, got %d", status)
	}

	app = setupApp(makeDeps(func(d *handler.Dependencies) { d.DB = fakePinger{} }))
	if status, _, _ := do(t, app, "GET", "/v1/ready", ""); status != 200 {
		t.Errorf("expected 200 with healthy storage, got %d", status)
	}

	app = setupApp(makeDeps(func(d *handler.Dependencies) {
		d.DB = fakePinger{}
		d.Cache = fakePinger{err: fmt.Errorf("dial tcp: refused")}
	}))
	if status, _, _ := do(t, app, "GET", "/v1/ready", ""); status != 503 {
		t.Errorf("expected 503 with broken cache, got %d", status)
	}
}

func TestMapSession_RequiresUpgrade(t *testing.T) {
	app := setupApp(makeDeps())

	if status, _, _ := do(t, app, "GET", "/ws/map", ""); status != fiber.StatusUpgradeRequired {
		t.Errorf("expected 426, got %d", status)
	}
}

// ---- GraphQL ----

func graphql(t *testing.T, app *fiber.App, query string) map[string]any {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"query": query})
	status, body, _ := do(t, app, "POST", "/graphql", string(payload))
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatal(err)
	}
	if errs, ok := out["errors"]; ok {
		t.Fatalf("graphql errors: %v", errs)
	}
	return out["data"].(map[string]any)
}

func TestGraphQL_Boundaries(t *testing.T) {
	app := setupApp(makeDeps(withBoundaries(&mockBoundaryRepo{
		listFn: func(ctx context.Context) ([]domain.Boundary, error) { return sampleBoundaries(2), nil },
	})))

	data := graphql(t, app, `{ boundaries { id name areaSqMeters perimeterMeters coords { lat lng } } }`)
	list := data["boundaries"].([]any)
	if len(list) != 2 {
		t.Fatalf("expected 2 boundaries, got %d", len(list))
	}
	first := list[0].(map[string]any)
	if first["areaSqMeters"].(float64) <= 0 || first["perimeterMeters"].(float64) <= 0 {
		t.Errorf("expected positive area and perimeter, got %v", first)
	}
	if len(first["coords"].([]any)) != 3 {
		t.Errorf("expected 3 coords, got %v", first["coords"])
	}
}

func TestGraphQL_UsersAndMutations(t *testing.T) {
	var created domain.BoundaryDraft
	app := setupApp(makeDeps(
		withUsers(usersRepo()),
		withBoundaries(&mockBoundaryRepo{
			createFn: func(ctx context.Context, draft domain.BoundaryDraft) (*domain.Boundary, error) {
				created = draft
				return &domain.Boundary{ID: "b-new", Name: draft.Name, Coords: draft.Coords, Color: draft.Color}, nil
			},
		}),
	))

	data := graphql(t, app, `{ users(filter: "jane") { id name isOnline latitude } onlineCount }`)
	if users := data["users"].([]any); len(users) != 1 {
		t.Errorf("expected 1 user, got %d", len(users))
	}
	if data["onlineCount"].(float64) != 2 {
		t.Errorf("expected 2 online, got %v", data["onlineCount"])
	}

	data = graphql(t, app, `mutation {
		createBoundary(name: "Zone A", coords: [{lat: 28.6, lng: 77.2}, {lat: 28.61, lng: 77.22}, {lat: 28.62, lng: 77.2}]) { id color }
	}`)
	b := data["createBoundary"].(map[string]any)
	if b["id"] != "b-new" || b["color"] != domain.DefaultBoundaryColor {
		t.Errorf("unexpected created boundary %v", b)
	}
	if len(created.Coords) != 3 || created.Coords[2].Lat != 28.62 {
		t.Errorf("unexpected draft coords %v", created.Coords)
	}

	data = graphql(t, app, `mutation { deleteBoundary(id: "b-new") }`)
	if data["deleteBoundary"] != true {
		t.Errorf("expected deleteBoundary true, got %v", data["deleteBoundary"])
	}
}
