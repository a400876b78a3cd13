package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/derstap/backend/internal/auth"
	"github.com/derstap/backend/internal/domain"
	"github.com/derstap/backend/internal/repository"
)

const lessonDateLayout = "2006-01-02"

type submitReviewRequest struct {
	TeacherID  string `json:"teacherId"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
	Subject    string `json:"subject"`
	LessonDate string `json:"lessonDate"`
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return errors.New("rating must be between 1 and 5")
	}
	return nil
}

func validateComment(comment string) error {
	if strings.TrimSpace(comment) == "" {
		return errors.New("comment is required")
	}
	if len(comment) > domain.MaxCommentLength {
		return fmt.Errorf("comment cannot exceed %d characters", domain.MaxCommentLength)
	}
	return nil
}

func (req submitReviewRequest) validate() (time.Time, error) {
	if strings.TrimSpace(req.TeacherID) == "" {
		return time.Time{}, errors.New("teacherId is required")
	}
	if err := validateRating(req.Rating); err != nil {
		return time.Time{}, err
	}
	if err := validateComment(req.Comment); err != nil {
		return time.Time{}, err
	}
	if strings.TrimSpace(req.Subject) == "" {
		return time.Time{}, errors.New("subject is required")
	}
	lessonDate, err := time.Parse(lessonDateLayout, req.LessonDate)
	if err != nil {
		return time.Time{}, errors.New("lessonDate must be formatted as YYYY-MM-DD")
	}
	return lessonDate, nil
}

// handleSubmitReview creates a pending review. Only students and parents may
// submit, and each author gets a single review slot per teacher.
func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, invalidTokenMessage)
		return
	}
	if !auth.Allowed(identity, auth.ActionSubmitReview, auth.Resource{}) {
		respondError(w, http.StatusForbidden, "only students and parents can submit reviews")
		return
	}

	var req submitReviewRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	lessonDate, err := req.validate()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := s.repo.Teachers.GetByID(r.Context(), req.TeacherID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "teacher not found")
			return
		}
		s.logger.Printf("reviews: check teacher %s: %v", req.TeacherID, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	review, err := s.repo.Reviews.Create(r.Context(), repository.ReviewCreateParams{
		TeacherID:  req.TeacherID,
		AuthorID:   identity.ID,
		Rating:     req.Rating,
		Comment:    strings.TrimSpace(req.Comment),
		Subject:    strings.TrimSpace(req.Subject),
		LessonDate: lessonDate,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			respondError(w, http.StatusConflict, "you have already reviewed this teacher")
		case errors.Is(err, repository.ErrNotFound):
			respondError(w, http.StatusNotFound, "teacher not found")
		default:
			s.logger.Printf("reviews: create: %v", err)
			respondError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	respondJSON(w, http.StatusCreated, struct {
		Message string         `json:"message"`
		Review  reviewResponse `json:"review"`
	}{Message: "review submitted and awaiting moderation", Review: toReviewResponse(review)})
}

// handleListTeacherReviews is the public view of a teacher's approved reviews.
func (s *Server) handleListTeacherReviews(w http.ResponseWriter, r *http.Request) {
	teacherID := chi.URLParam(r, "teacherId")

	reviews, err := s.repo.Reviews.ListApprovedByTeacher(r.Context(), teacherID)
	if err != nil {
		s.logger.Printf("reviews: list for teacher %s: %v", teacherID, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, toReviewWithNamesResponses(reviews))
}

type editReviewRequest struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

// handleEditReview applies an author's edit. Any accepted edit resets the
// review to pending, so it disappears from the public listing until a
// moderator approves it again. Ownership is settled before the body is
// read; a non-author gets Forbidden no matter what they send.
func (s *Server) handleEditReview(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, invalidTokenMessage)
		return
	}

	id := chi.URLParam(r, "id")
	review, err := s.repo.Reviews.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "review not found")
			return
		}
		s.logger.Printf("reviews: get %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !auth.Allowed(identity, auth.ActionEditReview, auth.Resource{OwnerID: review.AuthorID}) {
		respondError(w, http.StatusForbidden, "you can only edit your own review")
		return
	}

	var req editReviewRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Rating == nil && req.Comment == nil {
		respondError(w, http.StatusBadRequest, "nothing to update")
		return
	}
	if req.Rating != nil {
		if err := validateRating(*req.Rating); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Comment != nil {
		if err := validateComment(*req.Comment); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	updated, err := s.repo.Reviews.Update(r.Context(), id, repository.ReviewUpdateParams{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "review not found")
			return
		}
		s.logger.Printf("reviews: update %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, struct {
		Message string         `json:"message"`
		Review  reviewResponse `json:"review"`
	}{Message: "review updated and awaiting moderation", Review: toReviewResponse(updated)})
}

// handleDeleteReview removes a review. The author may retract their own;
// an admin may remove any.
func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, invalidTokenMessage)
		return
	}

	id := chi.URLParam(r, "id")
	review, err := s.repo.Reviews.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "review not found")
			return
		}
		s.logger.Printf("reviews: get %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !auth.Allowed(identity, auth.ActionDeleteReview, auth.Resource{OwnerID: review.AuthorID}) {
		respondError(w, http.StatusForbidden, "you can only delete your own review")
		return
	}

	if err := s.repo.Reviews.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "review not found")
			return
		}
		s.logger.Printf("reviews: delete %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, messageResponse{Message: "review deleted"})
}
