package mapview

import (
	"fmt"

	"github.com/samirrijal/smarttrack/internal/core/domain"
	"github.com/samirrijal/smarttrack/internal/core/ports"
)

type markerEntry struct {
	handle ports.LayerHandle
	spec   domain.MarkerSpec
}

type polygonEntry struct {
	handle ports.LayerHandle
	spec   domain.PolygonSpec
}

// Registry associates entity ids with the layers drawn for them. It is the
// only writer of marker and polygon layers on its surface; handles never
// leave it.
type Registry struct {
	surface  ports.Surface
	markers  map[string]markerEntry
	polygons map[string]polygonEntry
}

// NewRegistry creates an empty registry bound to a surface.
func NewRegistry(surface ports.Surface) *Registry {
	return &Registry{
		surface:  surface,
		markers:  make(map[string]markerEntry),
		polygons: make(map[string]polygonEntry),
	}
}

// UpsertMarker creates the marker for id, or updates the existing one in
// place. changed is false when the marker already matched spec and the
// surface was not touched.
func (r *Registry) UpsertMarker(id string, spec domain.MarkerSpec) (changed bool, err error) {
	if e, ok := r.markers[id]; ok {
		if e.spec == spec {
			return false, nil
		}
		if err := r.surface.UpdateMarker(e.handle, spec); err != nil {
			return false, fmt.Errorf("update marker %s: %w", id, err)
		}
		r.markers[id] = markerEntry{handle: e.handle, spec: spec}
		return true, nil
	}

	h, err := r.surface.AddMarker(spec)
	if err != nil {
		return false, fmt.Errorf("add marker %s: %w", id, err)
	}
	r.markers[id] = markerEntry{handle: h, spec: spec}
	return true, nil
}

// UpsertPolygon draws the polygon for id if it is not on the map yet.
// Polygons are create-once: an existing id is left untouched.
func (r *Registry) UpsertPolygon(id string, spec domain.PolygonSpec) (created bool, err error) {
	if _, ok := r.polygons[id]; ok {
		return false, nil
	}
	h, err := r.surface.AddPolygon(spec)
	if err != nil {
		return false, fmt.Errorf("add polygon %s: %w", id, err)
	}
	r.polygons[id] = polygonEntry{handle: h, spec: spec}
	return true, nil
}

// ReplacePolygon redraws the polygon for id when spec differs from what is
// rendered. Returns false when nothing changed.
func (r *Registry) ReplacePolygon(id string, spec domain.PolygonSpec) (bool, error) {
	if e, ok := r.polygons[id]; ok {
		if e.spec.Equal(spec) {
			return false, nil
		}
		if err := r.Remove(id, domain.KindPolygon); err != nil {
			return false, err
		}
	}
	return r.UpsertPolygon(id, spec)
}

// Remove destroys the layer for id. Unknown ids are a no-op.
func (r *Registry) Remove(id string, kind domain.LayerKind) error {
	var h ports.LayerHandle
	switch kind {
	case domain.KindMarker:
		e, ok := r.markers[id]
		if !ok {
			return nil
		}
		h = e.handle
	case domain.KindPolygon:
		e, ok := r.polygons[id]
		if !ok {
			return nil
		}
		h = e.handle
	default:
		return fmt.Errorf("remove %s: unknown layer kind %s", id, kind)
	}

	if err := r.surface.RemoveLayer(h); err != nil {
		return fmt.Errorf("remove %s %s: %w", kind, id, err)
	}
	if kind == domain.KindMarker {
		delete(r.markers, id)
	} else {
		delete(r.polygons, id)
	}
	return nil
}

// IDsPresent returns the ids currently rendered for kind.
func (r *Registry) IDsPresent(kind domain.LayerKind) map[string]struct{} {
	ids := make(map[string]struct{}, r.Len(kind))
	switch kind {
	case domain.KindMarker:
		for id := range r.markers {
			ids[id] = struct{}{}
		}
	case domain.KindPolygon:
		for id := range r.polygons {
			ids[id] = struct{}{}
		}
	}
	return ids
}

// Has reports whether id is rendered for kind.
func (r *Registry) Has(id string, kind domain.LayerKind) bool {
	if kind == domain.KindMarker {
		_, ok := r.markers[id]
		return ok
	}
	_, ok := r.polygons[id]
	return ok
}

// Len returns the number of layers of kind.
func (r *Registry) Len(kind domain.LayerKind) int {
	if kind == domain.KindMarker {
		return len(r.markers)
	}
	return len(r.polygons)
}

// Reset forgets every layer without touching the surface. Used at
// teardown, when destroying the surface already released the layers.
func (r *Registry) Reset() {
	clear(r.markers)
	clear(r.polygons)
}
