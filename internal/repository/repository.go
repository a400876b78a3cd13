package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/derstap/backend/internal/domain"
	"github.com/derstap/backend/internal/store"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("repository: not found")

// ErrConflict indicates a uniqueness constraint was violated, such as a
// duplicate account email or a second review for the same teacher/author pair.
var ErrConflict = errors.New("repository: conflict")

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Users    *UsersRepository
	Teachers *TeachersRepository
	Reviews  *ReviewsRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Users:    &UsersRepository{pool: pool},
		Teachers: &TeachersRepository{pool: pool},
		Reviews:  &ReviewsRepository{pool: pool},
	}
}

// Stats gathers the platform counters shown on the admin dashboard.
func (r *Repository) Stats(ctx context.Context) (domain.PlatformStats, error) {
	const query = `
        SELECT
            (SELECT COUNT(*) FROM users),
            (SELECT COUNT(*) FROM teachers),
            (SELECT COUNT(*) FROM users WHERE role = 'student'),
            (SELECT COUNT(*) FROM users WHERE role = 'parent'),
            (SELECT COUNT(*) FROM reviews WHERE NOT approved),
            (SELECT COUNT(*) FROM reviews)
    `
	var stats domain.PlatformStats
	err := r.Users.pool.QueryRow(ctx, query).Scan(
		&stats.TotalUsers,
		&stats.TotalTeachers,
		&stats.TotalStudents,
		&stats.TotalParents,
		&stats.PendingReviews,
		&stats.TotalReviews,
	)
	if err != nil {
		return domain.PlatformStats{}, fmt.Errorf("platform stats: %w", err)
	}
	return stats, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
