package ports

import (
	"context"

	"github.com/samirrijal/smarttrack/internal/core/domain"
)

// LayerHandle is an opaque reference to one object on a rendering surface.
type LayerHandle interface {
	LayerID() string
}

// DrawListener receives events from the surface's native drawing tool.
type DrawListener func(ev domain.DrawEvent)

// Surface is the rendering substrate a map view draws on. Implementations
// are assumed reliable; errors only signal a dead transport.
type Surface interface {
	// ID identifies the surface for its whole lifetime.
	ID() string
	SetView(vp domain.Viewport) error

	AddMarker(spec domain.MarkerSpec) (LayerHandle, error)
	UpdateMarker(h LayerHandle, spec domain.MarkerSpec) error
	AddPolygon(spec domain.PolygonSpec) (LayerHandle, error)
	// AddScratch adds a provisional shape to the surface's scratch group.
	AddScratch(spec domain.PolygonSpec) (LayerHandle, error)
	RemoveLayer(h LayerHandle) error

	// SetHint shows a transient instruction banner; empty text hides it.
	SetHint(text string) error
	// Notify shows a user-visible message, e.g. a failed save.
	Notify(level, message string) error

	// OnDrawEvent registers a listener and returns a function that removes it.
	OnDrawEvent(l DrawListener) (unsubscribe func())
	// Destroy releases the surface and every layer on it.
	Destroy() error
}

// SurfaceFactory creates rendering surfaces.
type SurfaceFactory interface {
	CreateSurface(ctx context.Context, initial domain.Viewport) (Surface, error)
}

// Prompter asks the user a question and blocks until it is answered.
// An empty answer means the prompt was dismissed.
type Prompter interface {
	Prompt(ctx context.Context, message string) (string, error)
}
