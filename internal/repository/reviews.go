package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/derstap/backend/internal/domain"
)

// ReviewsRepository owns the review lifecycle. Every write that can change a
// teacher's approved set runs in a transaction that also re-derives the
// teacher's (rating, review_count) pair, so concurrent moderation on the same
// teacher serializes on the teacher row and the cached aggregate can never
// drift from the approved set.
type ReviewsRepository struct {
	pool *pgxpool.Pool
}

const reviewColumns = `
    id,
    teacher_id,
    author_id,
    rating,
    comment,
    subject,
    lesson_date,
    approved,
    created_at,
    updated_at
`

// ReviewCreateParams bundles the fields required to submit a review.
type ReviewCreateParams struct {
	TeacherID  string
	AuthorID   string
	Rating     int
	Comment    string
	Subject    string
	LessonDate time.Time
}

// ReviewUpdateParams carries the author-editable fields; nil means unchanged.
type ReviewUpdateParams struct {
	Rating  *int
	Comment *string
}

// ReviewWithNames decorates a review with display names for listings.
type ReviewWithNames struct {
	domain.Review
	AuthorName     string
	AuthorSurname  string
	TeacherName    string
	TeacherSurname string
}

// ReviewListResult returns one page of reviews plus the unpaginated total.
type ReviewListResult struct {
	Items []ReviewWithNames
	Total int64
}

// Create submits a new pending review. A second review for the same
// (teacher, author) pair surfaces ErrConflict; a missing teacher ErrNotFound.
// The new record is never approved, so no aggregate change happens here.
func (r *ReviewsRepository) Create(ctx context.Context, params ReviewCreateParams) (domain.Review, error) {
	query := fmt.Sprintf(`
        INSERT INTO reviews (id, teacher_id, author_id, rating, comment, subject, lesson_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING %s
    `, reviewColumns)

	row := r.pool.QueryRow(ctx, query,
		uuid.NewString(), params.TeacherID, params.AuthorID, params.Rating,
		params.Comment, params.Subject, params.LessonDate)
	review, err := scanReview(row)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Review{}, ErrConflict
		}
		if isForeignKeyViolation(err) {
			return domain.Review{}, ErrNotFound
		}
		return domain.Review{}, err
	}
	return review, nil
}

// GetByID fetches a review by its identifier.
func (r *ReviewsRepository) GetByID(ctx context.Context, id string) (domain.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE id = $1`, reviewColumns)
	review, err := scanReview(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Review{}, ErrNotFound
		}
		return domain.Review{}, err
	}
	return review, nil
}

// Update applies the author's edit and unconditionally resets approval, so
// changed content always goes back through moderation. When the review was
// approved before the edit, the teacher's aggregate is recomputed in the
// same transaction.
func (r *ReviewsRepository) Update(ctx context.Context, id string, params ReviewUpdateParams) (domain.Review, error) {
	var review domain.Review
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		teacherID, wasApproved, err := lockReview(ctx, tx, id)
		if err != nil {
			return err
		}

		query := fmt.Sprintf(`
            UPDATE reviews
            SET rating = COALESCE($2, rating),
                comment = COALESCE($3, comment),
                approved = false,
                updated_at = now()
            WHERE id = $1
            RETURNING %s
        `, reviewColumns)
		review, err = scanReview(tx.QueryRow(ctx, query, id, params.Rating, params.Comment))
		if err != nil {
			return err
		}

		if wasApproved {
			return recomputeAggregate(ctx, tx, teacherID)
		}
		return nil
	})
	if err != nil {
		return domain.Review{}, err
	}
	return review, nil
}

// Delete removes a review and frees the (teacher, author) slot. When the
// deleted review was approved, the aggregate is recomputed in the same
// transaction.
func (r *ReviewsRepository) Delete(ctx context.Context, id string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		teacherID, wasApproved, err := lockReview(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id); err != nil {
			return err
		}
		if wasApproved {
			return recomputeAggregate(ctx, tx, teacherID)
		}
		return nil
	})
}

// SetApproval records a moderation decision. The aggregate is recomputed only
// when the stored value actually changed; re-approving an approved review is
// a no-op for the teacher's rating.
func (r *ReviewsRepository) SetApproval(ctx context.Context, id string, approved bool) (domain.Review, error) {
	var review domain.Review
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		teacherID, wasApproved, err := lockReview(ctx, tx, id)
		if err != nil {
			return err
		}

		query := fmt.Sprintf(`
            UPDATE reviews SET approved = $2, updated_at = now()
            WHERE id = $1
            RETURNING %s
        `, reviewColumns)
		review, err = scanReview(tx.QueryRow(ctx, query, id, approved))
		if err != nil {
			return err
		}

		if wasApproved != approved {
			return recomputeAggregate(ctx, tx, teacherID)
		}
		return nil
	})
	if err != nil {
		return domain.Review{}, err
	}
	return review, nil
}

// ListApprovedByTeacher returns a teacher's approved reviews, newest first,
// with the author's display name attached.
func (r *ReviewsRepository) ListApprovedByTeacher(ctx context.Context, teacherID string) ([]ReviewWithNames, error) {
	query := `
        SELECT r.id, r.teacher_id, r.author_id, r.rating, r.comment, r.subject,
               r.lesson_date, r.approved, r.created_at, r.updated_at,
               a.name, a.surname
        FROM reviews r
        JOIN users a ON a.id = r.author_id
        WHERE r.teacher_id = $1 AND r.approved
        ORDER BY r.created_at DESC
    `
	rows, err := r.pool.Query(ctx, query, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]ReviewWithNames, 0)
	for rows.Next() {
		var item ReviewWithNames
		if err := rows.Scan(
			&item.ID, &item.TeacherID, &item.AuthorID, &item.Rating, &item.Comment,
			&item.Subject, &item.LessonDate, &item.Approved, &item.CreatedAt, &item.UpdatedAt,
			&item.AuthorName, &item.AuthorSurname,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ListPending returns one page of the moderation queue, newest first, with
// author and teacher display names attached.
func (r *ReviewsRepository) ListPending(ctx context.Context, page, limit int) (ReviewListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE NOT approved`).Scan(&total); err != nil {
		return ReviewListResult{}, err
	}

	query := fmt.Sprintf(`
        SELECT r.id, r.teacher_id, r.author_id, r.rating, r.comment, r.subject,
               r.lesson_date, r.approved, r.created_at, r.updated_at,
               a.name, a.surname, tu.name, tu.surname
        FROM reviews r
        JOIN users a ON a.id = r.author_id
        JOIN teachers t ON t.id = r.teacher_id
        JOIN users tu ON tu.id = t.user_id
        WHERE NOT r.approved
        ORDER BY r.created_at DESC
        LIMIT %d OFFSET %d
    `, limit, (page-1)*limit)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return ReviewListResult{}, err
	}
	defer rows.Close()

	items := make([]ReviewWithNames, 0)
	for rows.Next() {
		var item ReviewWithNames
		if err := rows.Scan(
			&item.ID, &item.TeacherID, &item.AuthorID, &item.Rating, &item.Comment,
			&item.Subject, &item.LessonDate, &item.Approved, &item.CreatedAt, &item.UpdatedAt,
			&item.AuthorName, &item.AuthorSurname, &item.TeacherName, &item.TeacherSurname,
		); err != nil {
			return ReviewListResult{}, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return ReviewListResult{}, err
	}
	return ReviewListResult{Items: items, Total: total}, nil
}

// Aggregate re-derives the (rating, reviewCount) pair from the approved set
// without writing it back. Used by tests to cross-check the cached columns.
func (r *ReviewsRepository) Aggregate(ctx context.Context, teacherID string) (domain.RatingAggregate, error) {
	const query = `
        SELECT COALESCE(ROUND(AVG(rating)::numeric, 1), 0)::float4,
               COUNT(*)::int8
        FROM reviews
        WHERE teacher_id = $1 AND approved
    `
	var agg domain.RatingAggregate
	if err := r.pool.QueryRow(ctx, query, teacherID).Scan(&agg.Rating, &agg.ReviewCount); err != nil {
		return domain.RatingAggregate{}, fmt.Errorf("aggregate reviews: %w", err)
	}
	return agg, nil
}

// lockReview pins the review row for the duration of the transaction and
// returns the facts the lifecycle write needs.
func lockReview(ctx context.Context, tx pgx.Tx, id string) (teacherID string, approved bool, err error) {
	err = tx.QueryRow(ctx, `
        SELECT teacher_id, approved FROM reviews WHERE id = $1 FOR UPDATE
    `, id).Scan(&teacherID, &approved)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", false, ErrNotFound
		}
		return "", false, err
	}
	return teacherID, approved, nil
}

// recomputeAggregate fully re-derives the teacher's cached pair from the
// approved set. ROUND on numeric rounds half away from zero; the empty set
// yields (0, 0).
//
// The teacher row is locked in a statement of its own before the aggregate
// runs. Folding the lock into the aggregate UPDATE is not enough: a writer
// that queues on the teacher row resumes with its statement's original
// snapshot, in which the competing approval flips are invisible, and would
// write back a pair computed from stale rows. With the lock taken first,
// the aggregate statement only starts once every earlier writer for this
// teacher has committed, so its snapshot includes their review changes.
func recomputeAggregate(ctx context.Context, tx pgx.Tx, teacherID string) error {
	if _, err := tx.Exec(ctx, `
        SELECT id FROM teachers WHERE id = $1 FOR UPDATE
    `, teacherID); err != nil {
		return fmt.Errorf("lock teacher %s: %w", teacherID, err)
	}

	_, err := tx.Exec(ctx, `
        UPDATE teachers AS t
        SET rating = agg.avg_rating,
            review_count = agg.total,
            updated_at = now()
        FROM (
            SELECT COALESCE(ROUND(AVG(rating)::numeric, 1), 0)::float4 AS avg_rating,
                   COUNT(*)::int8 AS total
            FROM reviews
            WHERE teacher_id = $1 AND approved
        ) AS agg
        WHERE t.id = $1
    `, teacherID)
	if err != nil {
		return fmt.Errorf("recompute rating for teacher %s: %w", teacherID, err)
	}
	return nil
}

func scanReview(row pgx.Row) (domain.Review, error) {
	var review domain.Review
	err := row.Scan(
		&review.ID,
		&review.TeacherID,
		&review.AuthorID,
		&review.Rating,
		&review.Comment,
		&review.Subject,
		&review.LessonDate,
		&review.Approved,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return domain.Review{}, err
	}
	return review, nil
}
