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

// TeachersRepository provides persistence helpers for teacher profiles.
type TeachersRepository struct {
	pool *pgxpool.Pool
}

const teacherColumns = `
    id,
    user_id,
    subjects,
    experience,
    education,
    teaching_mode,
    online_rate,
    offline_rate,
    grade,
    bio,
    rating,
    review_count,
    is_verified,
    is_premium,
    profile_views,
    created_at,
    updated_at
`

const teacherJoinColumns = `
    t.id, t.user_id, t.subjects, t.experience, t.education, t.teaching_mode,
    t.online_rate, t.offline_rate, t.grade, t.bio, t.rating, t.review_count,
    t.is_verified, t.is_premium, t.profile_views, t.created_at, t.updated_at,
    u.name, u.surname, u.city, u.phone, u.is_active, u.is_online, u.last_seen
`

// TeacherCreateParams bundles the fields required to open a teacher profile.
type TeacherCreateParams struct {
	UserID       string
	Subjects     []string
	Experience   int
	Education    string
	TeachingMode []string
	OnlineRate   int64
	OfflineRate  int64
	Grade        string
	Bio          string
}

// TeacherUpdateParams carries the owner-editable fields; nil means unchanged.
type TeacherUpdateParams struct {
	Subjects     []string
	Experience   *int
	Education    *string
	TeachingMode []string
	OnlineRate   *int64
	OfflineRate  *int64
	Grade        *string
	Bio          *string
}

// TeacherListFilters encapsulates directory search and pagination options.
// Limit <= 0 disables pagination.
type TeacherListFilters struct {
	City        *string
	Subject     *string
	Grade       *string
	MinPrice    *int64
	MaxPrice    *int64
	MinRating   *float32
	Verified    *bool
	OrderNewest bool
	Page        int
	Limit       int
}

// TeacherWithUser pairs a profile with its owning account's public fields.
type TeacherWithUser struct {
	domain.Teacher
	OwnerName     string
	OwnerSurname  string
	OwnerCity     string
	OwnerPhone    string
	OwnerIsActive bool
	OwnerIsOnline bool
	OwnerLastSeen time.Time
}

// Create inserts a profile for an existing teacher account.
func (r *TeachersRepository) Create(ctx context.Context, params TeacherCreateParams) (domain.Teacher, error) {
	query := fmt.Sprintf(`
        INSERT INTO teachers (id, user_id, subjects, experience, education, teaching_mode,
                              online_rate, offline_rate, grade, bio)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING %s
    `, teacherColumns)

	row := r.pool.QueryRow(ctx, query,
		uuid.NewString(), params.UserID, params.Subjects, params.Experience, params.Education,
		params.TeachingMode, params.OnlineRate, params.OfflineRate, params.Grade, params.Bio)
	teacher, err := scanTeacher(row)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Teacher{}, ErrConflict
		}
		if isForeignKeyViolation(err) {
			return domain.Teacher{}, ErrNotFound
		}
		return domain.Teacher{}, err
	}
	return teacher, nil
}

// GetByID fetches a profile together with its owner's public fields.
func (r *TeachersRepository) GetByID(ctx context.Context, id string) (TeacherWithUser, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM teachers t JOIN users u ON u.id = t.user_id WHERE t.id = $1
    `, teacherJoinColumns)
	teacher, err := scanTeacherWithUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return TeacherWithUser{}, ErrNotFound
		}
		return TeacherWithUser{}, err
	}
	return teacher, nil
}

// GetByUserID fetches the profile owned by the given account.
func (r *TeachersRepository) GetByUserID(ctx context.Context, userID string) (domain.Teacher, error) {
	query := fmt.Sprintf(`SELECT %s FROM teachers WHERE user_id = $1`, teacherColumns)
	teacher, err := scanTeacher(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Teacher{}, ErrNotFound
		}
		return domain.Teacher{}, err
	}
	return teacher, nil
}

// UpdateProfile applies the owner-editable fields, leaving nil ones unchanged.
// Rating and review count are deliberately untouched here.
func (r *TeachersRepository) UpdateProfile(ctx context.Context, id string, params TeacherUpdateParams) (domain.Teacher, error) {
	query := fmt.Sprintf(`
        UPDATE teachers
        SET subjects = COALESCE($2, subjects),
            experience = COALESCE($3, experience),
            education = COALESCE($4, education),
            teaching_mode = COALESCE($5, teaching_mode),
            online_rate = COALESCE($6, online_rate),
            offline_rate = COALESCE($7, offline_rate),
            grade = COALESCE($8, grade),
            bio = COALESCE($9, bio),
            updated_at = now()
        WHERE id = $1
        RETURNING %s
    `, teacherColumns)

	row := r.pool.QueryRow(ctx, query, id,
		params.Subjects, params.Experience, params.Education, params.TeachingMode,
		params.OnlineRate, params.OfflineRate, params.Grade, params.Bio)
	teacher, err := scanTeacher(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Teacher{}, ErrNotFound
		}
		return domain.Teacher{}, err
	}
	return teacher, nil
}

// SetVerified toggles the admin-controlled verification flag.
func (r *TeachersRepository) SetVerified(ctx context.Context, id string, verified bool) (domain.Teacher, error) {
	return r.setFlag(ctx, id, "is_verified", verified)
}

// SetPremium toggles the premium flag.
func (r *TeachersRepository) SetPremium(ctx context.Context, id string, premium bool) (domain.Teacher, error) {
	return r.setFlag(ctx, id, "is_premium", premium)
}

func (r *TeachersRepository) setFlag(ctx context.Context, id, column string, value bool) (domain.Teacher, error) {
	query := fmt.Sprintf(`
        UPDATE teachers SET %s = $2, updated_at = now()
        WHERE id = $1
        RETURNING %s
    `, column, teacherColumns)
	teacher, err := scanTeacher(r.pool.QueryRow(ctx, query, id, value))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Teacher{}, ErrNotFound
		}
		return domain.Teacher{}, err
	}
	return teacher, nil
}

// IncrementViews bumps the profile-view counter.
func (r *TeachersRepository) IncrementViews(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
        UPDATE teachers SET profile_views = profile_views + 1 WHERE id = $1
    `, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns profiles matching the filters. The directory ordering puts
// premium profiles first, then highest rating, then newest.
func (r *TeachersRepository) List(ctx context.Context, filters TeacherListFilters) ([]TeacherWithUser, error) {
	clause, args := buildTeacherWhere(filters)

	order := " ORDER BY t.is_premium DESC, t.rating DESC, t.created_at DESC"
	if filters.OrderNewest {
		order = " ORDER BY t.created_at DESC"
	}

	query := fmt.Sprintf(`SELECT %s FROM teachers t JOIN users u ON u.id = t.user_id%s%s`,
		teacherJoinColumns, clause, order)
	if filters.Limit > 0 {
		page := filters.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filters.Limit, (page-1)*filters.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]TeacherWithUser, 0)
	for rows.Next() {
		teacher, err := scanTeacherWithUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, teacher)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Count returns the unpaginated number of profiles matching the filters.
func (r *TeachersRepository) Count(ctx context.Context, filters TeacherListFilters) (int64, error) {
	clause, args := buildTeacherWhere(filters)
	var total int64
	query := "SELECT COUNT(*) FROM teachers t JOIN users u ON u.id = t.user_id" + clause
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// TopRated returns up to ten profiles with rating 4.0 or higher, best first.
func (r *TeachersRepository) TopRated(ctx context.Context) ([]TeacherWithUser, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM teachers t JOIN users u ON u.id = t.user_id
        WHERE t.rating >= 4.0
        ORDER BY t.rating DESC, t.review_count DESC
        LIMIT 10
    `, teacherJoinColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]TeacherWithUser, 0)
	for rows.Next() {
		teacher, err := scanTeacherWithUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, teacher)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func buildTeacherWhere(filters TeacherListFilters) (string, []interface{}) {
	where := make([]string, 0)
	args := make([]interface{}, 0)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.City != nil && strings.TrimSpace(*filters.City) != "" {
		where = append(where, fmt.Sprintf("u.city ILIKE %s", arg("%"+strings.TrimSpace(*filters.City)+"%")))
	}
	if filters.Subject != nil && strings.TrimSpace(*filters.Subject) != "" {
		p := arg("%" + strings.TrimSpace(*filters.Subject) + "%")
		where = append(where, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(t.subjects) s WHERE s ILIKE %s)", p))
	}
	if filters.Grade != nil && strings.TrimSpace(*filters.Grade) != "" {
		where = append(where, fmt.Sprintf("t.grade ILIKE %s", arg("%"+strings.TrimSpace(*filters.Grade)+"%")))
	}
	switch {
	case filters.MinPrice != nil && filters.MaxPrice != nil:
		lo1 := arg(*filters.MinPrice)
		hi1 := arg(*filters.MaxPrice)
		lo2 := arg(*filters.MinPrice)
		hi2 := arg(*filters.MaxPrice)
		where = append(where, fmt.Sprintf(
			"(t.online_rate BETWEEN %s AND %s OR t.offline_rate BETWEEN %s AND %s)", lo1, hi1, lo2, hi2))
	case filters.MinPrice != nil:
		p1 := arg(*filters.MinPrice)
		p2 := arg(*filters.MinPrice)
		where = append(where, fmt.Sprintf("(t.online_rate >= %s OR t.offline_rate >= %s)", p1, p2))
	case filters.MaxPrice != nil:
		p1 := arg(*filters.MaxPrice)
		p2 := arg(*filters.MaxPrice)
		where = append(where, fmt.Sprintf("(t.online_rate <= %s OR t.offline_rate <= %s)", p1, p2))
	}
	if filters.MinRating != nil {
		where = append(where, fmt.Sprintf("t.rating >= %s", arg(*filters.MinRating)))
	}
	if filters.Verified != nil {
		where = append(where, fmt.Sprintf("t.is_verified = %s", arg(*filters.Verified)))
	}

	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func scanTeacher(row pgx.Row) (domain.Teacher, error) {
	var t domain.Teacher
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Subjects,
		&t.Experience,
		&t.Education,
		&t.TeachingMode,
		&t.OnlineRate,
		&t.OfflineRate,
		&t.Grade,
		&t.Bio,
		&t.Rating,
		&t.ReviewCount,
		&t.IsVerified,
		&t.IsPremium,
		&t.ProfileViews,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return domain.Teacher{}, err
	}
	return t, nil
}

func scanTeacherWithUser(row pgx.Row) (TeacherWithUser, error) {
	var t TeacherWithUser
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Subjects,
		&t.Experience,
		&t.Education,
		&t.TeachingMode,
		&t.OnlineRate,
		&t.OfflineRate,
		&t.Grade,
		&t.Bio,
		&t.Rating,
		&t.ReviewCount,
		&t.IsVerified,
		&t.IsPremium,
		&t.ProfileViews,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.OwnerName,
		&t.OwnerSurname,
		&t.OwnerCity,
		&t.OwnerPhone,
		&t.OwnerIsActive,
		&t.OwnerIsOnline,
		&t.OwnerLastSeen,
	)
	if err != nil {
		return TeacherWithUser{}, err
	}
	return t, nil
}
