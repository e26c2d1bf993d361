package mapview

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samirrijal/smarttrack/internal/core/domain"
	"github.com/samirrijal/smarttrack/internal/core/ports"
	"github.com/samirrijal/smarttrack/internal/pkg/geospatial"
)

// Zoom levels used when nothing else is configured.
const (
	DefaultInitialZoom = 13
	DefaultFocusZoom   = 15
	DefaultSearchZoom  = 14
)

// BoundaryCreator persists a drawn boundary and returns the stored copy.
type BoundaryCreator func(ctx context.Context, draft domain.BoundaryDraft) (*domain.Boundary, error)

// Options configure a Controller.
type Options struct {
	Initial    domain.Viewport
	FocusZoom  int // zoom used when centering on a user
	SearchZoom int // zoom used when centering on a search result
	Reconciler ReconcilerOptions
	Logger     *slog.Logger

	// Schedule runs fn on the goroutine that owns the controller. Surface
	// draw events are delivered through it. Nil calls fn directly with the
	// context Mount was given.
	Schedule func(fn func(ctx context.Context))
}

func (o Options) withDefaults() Options {
	if o.Initial.Zoom == 0 {
		o.Initial.Zoom = DefaultInitialZoom
	}
	if o.FocusZoom == 0 {
		o.FocusZoom = DefaultFocusZoom
	}
	if o.SearchZoom == 0 {
		o.SearchZoom = DefaultSearchZoom
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Controller owns one rendering surface and wires the store, registry,
// reconciler and draw machine to it. It is not safe for concurrent use;
// drive it from a single goroutine (see Session).
type Controller struct {
	factory  ports.SurfaceFactory
	prompter ports.Prompter
	create   BoundaryCreator
	opts     Options
	logger   *slog.Logger

	store      *Store
	viewport   domain.Viewport
	surface    ports.Surface
	registry   *Registry
	reconciler *Reconciler
	draw       *DrawMachine

	baseCtx     context.Context
	unsubscribe func()
	closed      bool
}

// NewController creates an unmounted controller.
func NewController(factory ports.SurfaceFactory, prompter ports.Prompter, create BoundaryCreator, opts Options) *Controller {
	opts = opts.withDefaults()
	return &Controller{
		factory:  factory,
		prompter: prompter,
		create:   create,
		opts:     opts,
		logger:   opts.Logger,
		store:    NewStore(),
		viewport: opts.Initial,
	}
}

// Mount creates the surface, registers the draw listener and renders
// whatever the store already holds. Calling Mount again is a no-op.
func (c *Controller) Mount(ctx context.Context) error {
	if c.closed {
		return domain.ErrSurfaceClosed
	}
	if c.surface != nil {
		return nil
	}

	surface, err := c.factory.CreateSurface(ctx, c.viewport)
	if err != nil {
		return fmt.Errorf("create surface: %w", err)
	}
	c.surface = surface
	c.baseCtx = context.WithoutCancel(ctx)
	c.registry = NewRegistry(surface)
	c.reconciler = NewReconciler(c.registry, c.opts.Reconciler)
	c.draw = NewDrawMachine(surface, c.prompter, c.commitBoundary, c.logger)

	schedule := c.opts.Schedule
	if schedule == nil {
		schedule = func(fn func(ctx context.Context)) { fn(c.baseCtx) }
	}
	c.unsubscribe = surface.OnDrawEvent(func(ev domain.DrawEvent) {
		schedule(func(ctx context.Context) {
			if err := c.HandleDraw(ctx, ev); err != nil {
				c.logger.Warn("draw event failed", "type", ev.Type, "error", err)
			}
		})
	})

	c.logger.Debug("map surface mounted", "surface", surface.ID())

	if _, err := c.reconciler.ReconcileUsers(c.store.Users()); err != nil {
		return err
	}
	_, err = c.reconciler.ReconcileBoundaries(c.store.Boundaries())
	return err
}

// Surface returns the mounted surface, or nil.
func (c *Controller) Surface() ports.Surface { return c.surface }

// Viewport returns the current viewport.
func (c *Controller) Viewport() domain.Viewport { return c.viewport }

// Store exposes the controller's entity snapshots for reading.
func (c *Controller) Store() *Store { return c.store }

// DrawState returns the draw interaction state.
func (c *Controller) DrawState() DrawState {
	if c.draw == nil {
		return DrawIdle
	}
	return c.draw.State()
}

// SetViewport moves the map without recreating the surface. Before Mount
// it only changes the initial viewport.
func (c *Controller) SetViewport(vp domain.Viewport) error {
	if c.closed {
		return domain.ErrSurfaceClosed
	}
	if !vp.Center.Valid() {
		return fmt.Errorf("invalid center %v", vp.Center)
	}
	if vp.Zoom < 0 || vp.Zoom > geospatial.MaxZoom {
		return fmt.Errorf("zoom %d out of range 0-%d", vp.Zoom, geospatial.MaxZoom)
	}
	c.viewport = vp
	if c.surface == nil {
		return nil
	}
	return c.surface.SetView(vp)
}

// FocusUser centers the map on a user at the focus zoom.
func (c *Controller) FocusUser(id string) error {
	u, ok := c.store.User(id)
	if !ok {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	pos, ok := u.Location()
	if !ok {
		return fmt.Errorf("user %s: %w", id, domain.ErrNoLocation)
	}
	return c.SetViewport(domain.Viewport{Center: pos, Zoom: c.opts.FocusZoom})
}

// FocusPlace centers the map on a selected search result.
func (c *Controller) FocusPlace(p domain.LatLng) error {
	return c.SetViewport(domain.Viewport{Center: p, Zoom: c.opts.SearchZoom})
}

// FocusBoundary fits the map to a boundary.
func (c *Controller) FocusBoundary(id string) error {
	b, ok := c.store.Boundary(id)
	if !ok || !b.Renderable() {
		return fmt.Errorf("boundary %s: %w", id, domain.ErrNotFound)
	}
	zoom := geospatial.FitZoom(domain.BoundsOf(b.Coords), c.opts.FocusZoom)
	return c.SetViewport(domain.Viewport{Center: geospatial.Centroid(b.Coords), Zoom: zoom})
}

// ApplyUsers stores a user snapshot and reconciles markers. Stale
// snapshots are ignored and report zero ops.
func (c *Controller) ApplyUsers(seq uint64, users []domain.User) (Ops, error) {
	if c.closed {
		return Ops{}, domain.ErrSurfaceClosed
	}
	if !c.store.ReplaceUsers(seq, users) {
		c.logger.Debug("stale user snapshot dropped", "seq", seq)
		return Ops{}, nil
	}
	if c.surface == nil {
		return Ops{}, nil
	}
	return c.reconciler.ReconcileUsers(c.store.Users())
}

// ApplyBoundaries stores a boundary snapshot and reconciles polygons.
func (c *Controller) ApplyBoundaries(seq uint64, boundaries []domain.Boundary) (Ops, error) {
	if c.closed {
		return Ops{}, domain.ErrSurfaceClosed
	}
	if !c.store.ReplaceBoundaries(seq, boundaries) {
		c.logger.Debug("stale boundary snapshot dropped", "seq", seq)
		return Ops{}, nil
	}
	return c.reconcileBoundaries()
}

// RemoveBoundary drops a deleted boundary without waiting for the next
// snapshot.
func (c *Controller) RemoveBoundary(id string) (Ops, error) {
	if c.closed {
		return Ops{}, domain.ErrSurfaceClosed
	}
	if !c.store.DropBoundary(id) {
		return Ops{}, nil
	}
	return c.reconcileBoundaries()
}

func (c *Controller) reconcileBoundaries() (Ops, error) {
	if c.surface == nil {
		return Ops{}, nil
	}
	return c.reconciler.ReconcileBoundaries(c.store.Boundaries())
}

// HandleDraw feeds a native draw event to the draw machine.
func (c *Controller) HandleDraw(ctx context.Context, ev domain.DrawEvent) error {
	if c.closed {
		return domain.ErrSurfaceClosed
	}
	if c.draw == nil {
		return fmt.Errorf("draw event %q before mount", ev.Type)
	}
	outcome, err := c.draw.Handle(ctx, ev)
	if outcome != OutcomeNone {
		c.logger.Info("boundary draw finished", "outcome", outcome.String())
	}
	return err
}

func (c *Controller) commitBoundary(ctx context.Context, vertices []domain.LatLng, name string) error {
	b, err := c.create(ctx, domain.BoundaryDraft{Name: name, Coords: vertices})
	if err != nil {
		return err
	}
	c.store.MergeBoundary(*b)
	if _, err := c.reconcileBoundaries(); err != nil {
		c.logger.Warn("render committed boundary", "id", b.ID, "error", err)
	}
	return nil
}

// Close tears the surface down. Only the first call has any effect.
func (c *Controller) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.surface == nil {
		return nil
	}
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.registry.Reset()
	err := c.surface.Destroy()
	c.logger.Debug("map surface destroyed", "surface", c.surface.ID())
	return err
}
