package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/derstap/backend/internal/domain"
)

// UsersRepository provides persistence helpers for accounts.
type UsersRepository struct {
	pool *pgxpool.Pool
}

const userColumns = `
    id,
    name,
    surname,
    email,
    password_hash,
    role,
    phone,
    city,
    is_active,
    is_online,
    last_seen,
    created_at,
    updated_at
`

// UserCreateParams bundles the fields required to register an account.
type UserCreateParams struct {
	Name         string
	Surname      string
	Email        string
	PasswordHash string
	Role         domain.Role
	Phone        string
	City         string
}

// UserListFilters encapsulates the admin user-list search and pagination.
type UserListFilters struct {
	Role   *domain.Role
	Search *string
	Page   int
	Limit  int
}

// UserListResult returns one page of users plus the unpaginated total.
type UserListResult struct {
	Items []domain.User
	Total int64
}

// Create inserts a new account. A duplicate email surfaces ErrConflict.
func (r *UsersRepository) Create(ctx context.Context, params UserCreateParams) (domain.User, error) {
	query := fmt.Sprintf(`
        INSERT INTO users (id, name, surname, email, password_hash, role, phone, city)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING %s
    `, userColumns)

	row := r.pool.QueryRow(ctx, query,
		uuid.NewString(), params.Name, params.Surname, strings.ToLower(params.Email),
		params.PasswordHash, params.Role, params.Phone, params.City)
	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, ErrConflict
		}
		return domain.User{}, err
	}
	return user, nil
}

// GetByEmail fetches an account by its lowercase email, including the
// credential hash for login verification.
func (r *UsersRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)
	user, err := scanUser(r.pool.QueryRow(ctx, query, strings.ToLower(email)))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// GetByID fetches an account by its identifier.
func (r *UsersRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// SetActive toggles the account's active flag.
func (r *UsersRepository) SetActive(ctx context.Context, id string, active bool) (domain.User, error) {
	query := fmt.Sprintf(`
        UPDATE users SET is_active = $2, updated_at = now()
        WHERE id = $1
        RETURNING %s
    `, userColumns)
	user, err := scanUser(r.pool.QueryRow(ctx, query, id, active))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// SetPresence records the account's online flag and last-seen timestamp.
func (r *UsersRepository) SetPresence(ctx context.Context, id string, online bool, seenAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
        UPDATE users SET is_online = $2, last_seen = $3, updated_at = now()
        WHERE id = $1
    `, id, online, seenAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns one page of accounts matching the filters, newest first.
func (r *UsersRepository) List(ctx context.Context, filters UserListFilters) (UserListResult, error) {
	page := filters.Page
	if page < 1 {
		page = 1
	}
	limit := filters.Limit
	if limit <= 0 {
		limit = 10
	}

	where := make([]string, 0)
	args := make([]interface{}, 0)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.Role != nil {
		where = append(where, fmt.Sprintf("role = %s", arg(*filters.Role)))
	}
	if filters.Search != nil && strings.TrimSpace(*filters.Search) != "" {
		q := "%" + strings.TrimSpace(*filters.Search) + "%"
		p1 := arg(q)
		p2 := arg(q)
		p3 := arg(q)
		where = append(where, fmt.Sprintf("(name ILIKE %s OR surname ILIKE %s OR email ILIKE %s)", p1, p2, p3))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users"+clause, args...).Scan(&total); err != nil {
		return UserListResult{}, err
	}

	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		userColumns, clause, limit, (page-1)*limit)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return UserListResult{}, err
	}
	defer rows.Close()

	items := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return UserListResult{}, err
		}
		items = append(items, user)
	}
	if err := rows.Err(); err != nil {
		return UserListResult{}, err
	}

	return UserListResult{Items: items, Total: total}, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Surname,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Phone,
		&user.City,
		&user.IsActive,
		&user.IsOnline,
		&user.LastSeen,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}
