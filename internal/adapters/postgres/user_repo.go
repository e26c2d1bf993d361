package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/smarttrack/internal/core/domain"
)

// UserRepo implements ports.UserRepository with pgx.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, name, email, avatar, is_online, latitude, longitude, updated_at`

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Avatar, &u.IsOnline, &u.Latitude, &u.Longitude, &u.UpdatedAt)
	return u, err
}

// List returns all users ordered by name.
func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY name, id`)
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
	u, err := scanUser(r.db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return &u, nil
}

// Upsert inserts or replaces a user.
func (r *UserRepo) Upsert(ctx context.Context, u *domain.User) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO users (id, name, email, avatar, is_online, latitude, longitude, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, email = EXCLUDED.email, avatar = EXCLUDED.avatar,
		    is_online = EXCLUDED.is_online, latitude = EXCLUDED.latitude,
		    longitude = EXCLUDED.longitude, updated_at = EXCLUDED.updated_at
	`, u.ID, u.Name, u.Email, u.Avatar, u.IsOnline, u.Latitude, u.Longitude)
	return err
}

// UpdateLocation records a position report.
func (r *UserRepo) UpdateLocation(ctx context.Context, update domain.LocationUpdate) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE users
		SET latitude = $2, longitude = $3, is_online = $4, updated_at = $5
		WHERE id = $1
	`, update.UserID, update.Latitude, update.Longitude, update.IsOnline, update.Time)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", update.UserID, domain.ErrNotFound)
	}
	return nil
}
