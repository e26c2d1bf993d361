package mapview_test

import (
	"context"
	"fmt"

	"github.com/samirrijal/smarttrack/internal/core/domain"
	"github.com/samirrijal/smarttrack/internal/core/ports"
)

// --- Fake rendering surface ---

type fakeHandle string

func (h fakeHandle) LayerID() string { return string(h) }

type fakeSurface struct {
	id   string
	next int

	markers  map[string]domain.MarkerSpec
	polygons map[string]domain.PolygonSpec
	scratch  map[string]domain.PolygonSpec

	adds, updates, removes int
	views                  []domain.Viewport
	hints                  []string
	notices                []string
	destroyed              int

	listeners  map[int]ports.DrawListener
	nextListen int

	failAdd error
}

func newFakeSurface(id string) *fakeSurface {
	return &fakeSurface{
		id:        id,
		markers:   make(map[string]domain.MarkerSpec),
		polygons:  make(map[string]domain.PolygonSpec),
		scratch:   make(map[string]domain.PolygonSpec),
		listeners: make(map[int]ports.DrawListener),
	}
}

func (s *fakeSurface) ID() string { return s.id }

func (s *fakeSurface) newHandle(prefix string) fakeHandle {
	s.next++
	return fakeHandle(fmt.Sprintf("%s-%d", prefix, s.next))
}

func (s *fakeSurface) SetView(vp domain.Viewport) error {
	s.views = append(s.views, vp)
	return nil
}

func (s *fakeSurface) AddMarker(spec domain.MarkerSpec) (ports.LayerHandle, error) {
	if s.failAdd != nil {
		return nil, s.failAdd
	}
	h := s.newHandle("marker")
	s.markers[string(h)] = spec
	s.adds++
	return h, nil
}

func (s *fakeSurface) UpdateMarker(h ports.LayerHandle, spec domain.MarkerSpec) error {
	if _, ok := s.markers[h.LayerID()]; !ok {
		return fmt.Errorf("unknown marker %s", h.LayerID())
	}
	s.markers[h.LayerID()] = spec
	s.updates++
	return nil
}

func (s *fakeSurface) AddPolygon(spec domain.PolygonSpec) (ports.LayerHandle, error) {
	if s.failAdd != nil {
		return nil, s.failAdd
	}
	h := s.newHandle("polygon")
	s.polygons[string(h)] = spec
	s.adds++
	return h, nil
}

func (s *fakeSurface) AddScratch(spec domain.PolygonSpec) (ports.LayerHandle, error) {
	h := s.newHandle("scratch")
	s.scratch[string(h)] = spec
	return h, nil
}

func (s *fakeSurface) RemoveLayer(h ports.LayerHandle) error {
	id := h.LayerID()
	if _, ok := s.scratch[id]; ok {
		delete(s.scratch, id)
		return nil
	}
	_, isMarker := s.markers[id]
	_, isPolygon := s.polygons[id]
	if !isMarker && !isPolygon {
		return fmt.Errorf("unknown layer %s", id)
	}
	delete(s.markers, id)
	delete(s.polygons, id)
	s.removes++
	return nil
}

func (s *fakeSurface) SetHint(text string) error {
	s.hints = append(s.hints, text)
	return nil
}

func (s *fakeSurface) Notify(level, message string) error {
	s.notices = append(s.notices, level+": "+message)
	return nil
}

func (s *fakeSurface) OnDrawEvent(l ports.DrawListener) func() {
	s.nextListen++
	key := s.nextListen
	s.listeners[key] = l
	return func() { delete(s.listeners, key) }
}

func (s *fakeSurface) Destroy() error {
	s.destroyed++
	return nil
}

// fire delivers a native draw event to every listener.
func (s *fakeSurface) fire(ev domain.DrawEvent) {
	for _, l := range s.listeners {
		l(ev)
	}
}

func (s *fakeSurface) ops() int { return s.adds + s.updates + s.removes }

// --- Fake factory ---

type fakeFactory struct {
	created  int
	surface  *fakeSurface
	initials []domain.Viewport
}

func (f *fakeFactory) CreateSurface(ctx context.Context, initial domain.Viewport) (ports.Surface, error) {
	f.created++
	f.initials = append(f.initials, initial)
	f.surface = newFakeSurface(fmt.Sprintf("surface-%d", f.created))
	return f.surface, nil
}

// --- Fake prompter ---

type fakePrompter struct {
	answer string
	err    error
	calls  int
}

func (p *fakePrompter) Prompt(ctx context.Context, message string) (string, error) {
	p.calls++
	return p.answer, p.err
}

// heldPrompter signals on asked and blocks until an answer is sent.
type heldPrompter struct {
	asked   chan struct{}
	answers chan string
}

func newHeldPrompter() *heldPrompter {
	return &heldPrompter{asked: make(chan struct{}, 1), answers: make(chan string)}
}

func (p *heldPrompter) Prompt(ctx context.Context, message string) (string, error) {
	p.asked <- struct{}{}
	select {
	case a := <-p.answers:
		return a, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// --- Helpers ---

func ptr(f float64) *float64 { return &f }

func user(id string, lat, lng float64) domain.User {
	return domain.User{ID: id, Name: "User " + id, IsOnline: true, Latitude: ptr(lat), Longitude: ptr(lng)}
}

func square(id, name string) domain.Boundary {
	return domain.Boundary{
		ID:   id,
		Name: name,
		Coords: []domain.LatLng{
			{Lat: 28.60, Lng: 77.20},
			{Lat: 28.60, Lng: 77.22},
			{Lat: 28.62, Lng: 77.22},
			{Lat: 28.62, Lng: 77.20},
		},
		Color: domain.DefaultBoundaryColor,
	}
}
