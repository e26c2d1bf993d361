package postgres

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/samirrijal/smarttrack/internal/core/domain"
)

// BoundaryRepo implements ports.BoundaryRepository with pgx. Vertices are
// stored as a JSONB array of {lat,lng} in drawing order.
type BoundaryRepo struct {
	db *DB
}

// NewBoundaryRepo creates a new BoundaryRepo.
func NewBoundaryRepo(db *DB) *BoundaryRepo {
	return &BoundaryRepo{db: db}
}

// List returns all boundaries, newest first.
func (r *BoundaryRepo) List(ctx context.Context) ([]domain.Boundary, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id::text, name, coords, color, created_at
		FROM boundaries ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	boundaries := []domain.Boundary{}
	for rows.Next() {
		var (
			b   domain.Boundary
			raw []byte
		)
		if err := rows.Scan(&b.ID, &b.Name, &raw, &b.Color, &b.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &b.Coords); err != nil {
			return nil, fmt.Errorf("decode coords of %s: %w", b.ID, err)
		}
		boundaries = append(boundaries, b)
	}
	return boundaries, rows.Err()
}

// GetByID returns a boundary by UUID.
func (r *BoundaryRepo) GetByID(ctx context.Context, id string) (*domain.Boundary, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("boundary %s: %w", id, domain.ErrNotFound)
	}

	var (
		b   domain.Boundary
		raw []byte
	)
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id::text, name, coords, color, created_at
		FROM boundaries WHERE id = $1
	`, id).Scan(&b.ID, &b.Name, &raw, &b.Color, &b.CreatedAt)
	if err != nil {
		return nil, notFound(err, "boundary", id)
	}
	if err := json.Unmarshal(raw, &b.Coords); err != nil {
		return nil, fmt.Errorf("decode coords of %s: %w", id, err)
	}
	return &b, nil
}

// Create inserts a boundary and returns it with its generated id.
func (r *BoundaryRepo) Create(ctx context.Context, draft domain.BoundaryDraft) (*domain.Boundary, error) {
	raw, err := json.Marshal(draft.Coords)
	if err != nil {
		return nil, fmt.Errorf("encode coords: %w", err)
	}

	b := domain.Boundary{Name: draft.Name, Coords: draft.Coords, Color: draft.Color}
	err = r.db.Pool.QueryRow(ctx, `
		INSERT INTO boundaries (id, name, coords, color)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text, created_at
	`, uuid.NewString(), draft.Name, raw, draft.Color).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Delete removes a boundary.
func (r *BoundaryRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("boundary %s: %w", id, domain.ErrNotFound)
	}
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM boundaries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("boundary %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
