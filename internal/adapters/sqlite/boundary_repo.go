package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/samirrijal/smarttrack/internal/core/domain"
)

// BoundaryRepo implements ports.BoundaryRepository on sqlite.
type BoundaryRepo struct {
	db *DB
}

// NewBoundaryRepo creates a new BoundaryRepo.
func NewBoundaryRepo(db *DB) *BoundaryRepo {
	return &BoundaryRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBoundary(row rowScanner) (domain.Boundary, error) {
	var (
		b       domain.Boundary
		coords  string
		created string
	)
	if err := row.Scan(&b.ID, &b.Name, &coords, &b.Color, &created); err != nil {
		return b, err
	}
	if err := json.Unmarshal([]byte(coords), &b.Coords); err != nil {
		return b, fmt.Errorf("decode coords of %s: %w", b.ID, err)
	}
	t, err := parseTime(created)
	if err != nil {
		return b, fmt.Errorf("parse created_at of %s: %w", b.ID, err)
	}
	b.CreatedAt = t
	return b, nil
}

// List returns all boundaries, newest first.
func (r *BoundaryRepo) List(ctx context.Context) ([]domain.Boundary, error) {
	rows, err := r.db.SQL.QueryContext(ctx, `
		SELECT id, name, coords, color, created_at
		FROM boundaries ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	boundaries := []domain.Boundary{}
	for rows.Next() {
		b, err := scanBoundary(rows)
		if err != nil {
			return nil, err
		}
		boundaries = append(boundaries, b)
	}
	return boundaries, rows.Err()
}

// GetByID returns a boundary by id.
func (r *BoundaryRepo) GetByID(ctx context.Context, id string) (*domain.Boundary, error) {
	b, err := scanBoundary(r.db.SQL.QueryRowContext(ctx, `
		SELECT id, name, coords, color, created_at
		FROM boundaries WHERE id = ?
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("boundary %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return &b, nil
}

// Create inserts a boundary with a new UUID.
func (r *BoundaryRepo) Create(ctx context.Context, draft domain.BoundaryDraft) (*domain.Boundary, error) {
	raw, err := json.Marshal(draft.Coords)
	if err != nil {
		return nil, fmt.Errorf("encode coords: %w", err)
	}
	b := domain.Boundary{
		ID:        uuid.NewString(),
		Name:      draft.Name,
		Coords:    draft.Coords,
		Color:     draft.Color,
		CreatedAt: time.Now().UTC(),
	}
	_, err = r.db.SQL.ExecContext(ctx, `
		INSERT INTO boundaries (id, name, coords, color, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, b.ID, b.Name, string(raw), b.Color, formatTime(b.CreatedAt))
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Delete removes a boundary.
func (r *BoundaryRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.SQL.ExecContext(ctx, `DELETE FROM boundaries WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("boundary %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
