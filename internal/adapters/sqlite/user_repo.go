package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/samirrijal/smarttrack/internal/core/domain"
)

// UserRepo implements ports.UserRepository on sqlite.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, name, email, avatar, is_online, latitude, longitude, updated_at`

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u        domain.User
		lat, lng sql.NullFloat64
		updated  string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Avatar, &u.IsOnline, &lat, &lng, &updated); err != nil {
		return u, err
	}
	if lat.Valid {
		u.Latitude = &lat.Float64
	}
	if lng.Valid {
		u.Longitude = &lng.Float64
	}
	t, err := parseTime(updated)
	if err != nil {
		return u, fmt.Errorf("parse updated_at of %s: %w", u.ID, err)
	}
	u.UpdatedAt = t
	return u, nil
}

// List returns all users ordered by name.
func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.SQL.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetByID returns a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(r.db.SQL.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return &u, nil
}

// Upsert inserts or replaces a user.
func (r *UserRepo) Upsert(ctx context.Context, u *domain.User) error {
	_, err := r.db.SQL.ExecContext(ctx, `
		INSERT INTO users (id, name, email, avatar, is_online, latitude, longitude, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET name = excluded.name, email = excluded.email, avatar = excluded.avatar,
		    is_online = excluded.is_online, latitude = excluded.latitude,
		    longitude = excluded.longitude, updated_at = excluded.updated_at
	`, u.ID, u.Name, u.Email, u.Avatar, u.IsOnline, nullable(u.Latitude), nullable(u.Longitude), formatTime(time.Now()))
	return err
}

// UpdateLocation records a position report.
func (r *UserRepo) UpdateLocation(ctx context.Context, update domain.LocationUpdate) error {
	res, err := r.db.SQL.ExecContext(ctx, `
		UPDATE users SET latitude = ?, longitude = ?, is_online = ?, updated_at = ?
		WHERE id = ?
	`, update.Latitude, update.Longitude, update.IsOnline, formatTime(update.Time), update.UserID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", update.UserID, domain.ErrNotFound)
	}
	return nil
}

func nullable(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
