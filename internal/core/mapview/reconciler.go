package mapview

import (
	"errors"

	"github.com/samirrijal/smarttrack/internal/core/domain"
	"github.com/samirrijal/smarttrack/internal/pkg/metrics"
)

// Ops counts the layer operations one reconciliation pass performed.
type Ops struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}

// Total is the number of surface mutations.
func (o Ops) Total() int { return o.Added + o.Updated + o.Removed }

// ReconcilerOptions tune reconciliation policy.
type ReconcilerOptions struct {
	// ReplaceChangedBoundaries redraws a boundary whose name, color or
	// vertices changed after it was first rendered. Off by default:
	// boundaries are drawn once and never updated.
	ReplaceChangedBoundaries bool
}

// Reconciler brings a Registry in line with entity snapshots. The marker
// and polygon passes are independent.
type Reconciler struct {
	reg  *Registry
	opts ReconcilerOptions
}

// NewReconciler creates a reconciler over reg.
func NewReconciler(reg *Registry, opts ReconcilerOptions) *Reconciler {
	return &Reconciler{reg: reg, opts: opts}
}

// ReconcileUsers syncs user markers with users. Users without both
// coordinates get no marker. When the same id appears twice the last
// entry wins.
func (r *Reconciler) ReconcileUsers(users []domain.User) (Ops, error) {
	want := make(map[string]domain.MarkerSpec, len(users))
	for _, u := range users {
		if _, ok := u.Location(); ok {
			want[u.ID] = domain.MarkerSpecFor(u)
		} else {
			delete(want, u.ID)
		}
	}

	var ops Ops
	var errs []error

	for id := range r.reg.IDsPresent(domain.KindMarker) {
		if _, ok := want[id]; ok {
			continue
		}
		if err := r.reg.Remove(id, domain.KindMarker); err != nil {
			errs = append(errs, err)
			continue
		}
		ops.Removed++
	}

	for id, spec := range want {
		existed := r.reg.Has(id, domain.KindMarker)
		changed, err := r.reg.UpsertMarker(id, spec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		switch {
		case !existed:
			ops.Added++
		case changed:
			ops.Updated++
		}
	}

	record(domain.KindMarker, ops)
	return ops, errors.Join(errs...)
}

// ReconcileBoundaries syncs boundary polygons with boundaries. Boundaries
// with fewer than three vertices get no polygon.
func (r *Reconciler) ReconcileBoundaries(boundaries []domain.Boundary) (Ops, error) {
	want := make(map[string]domain.PolygonSpec, len(boundaries))
	for _, b := range boundaries {
		if b.Renderable() {
			want[b.ID] = domain.PolygonSpecFor(b)
		} else {
			delete(want, b.ID)
		}
	}

	var ops Ops
	var errs []error

	for id := range r.reg.IDsPresent(domain.KindPolygon) {
		if _, ok := want[id]; ok {
			continue
		}
		if err := r.reg.Remove(id, domain.KindPolygon); err != nil {
			errs = append(errs, err)
			continue
		}
		ops.Removed++
	}

	for id, spec := range want {
		existed := r.reg.Has(id, domain.KindPolygon)
		var (
			changed bool
			err     error
		)
		if r.opts.ReplaceChangedBoundaries {
			changed, err = r.reg.ReplacePolygon(id, spec)
		} else {
			changed, err = r.reg.UpsertPolygon(id, spec)
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		switch {
		case !existed:
			ops.Added++
		case changed:
			ops.Updated++
		}
	}

	record(domain.KindPolygon, ops)
	return ops, errors.Join(errs...)
}

func record(kind domain.LayerKind, ops Ops) {
	k := kind.String()
	if ops.Added > 0 {
		metrics.ReconcileOps.WithLabelValues(k, "add").Add(float64(ops.Added))
	}
	if ops.Updated > 0 {
		metrics.ReconcileOps.WithLabelValues(k, "update").Add(float64(ops.Updated))
	}
	if ops.Removed > 0 {
		metrics.ReconcileOps.WithLabelValues(k, "remove").Add(float64(ops.Removed))
	}
}
