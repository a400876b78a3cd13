package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/derstap/backend/internal/domain"
	"github.com/derstap/backend/internal/repository"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.repo.Stats(r.Context())
	if err != nil {
		s.logger.Printf("admin: stats: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, struct {
		TotalUsers     int64 `json:"totalUsers"`
		TotalTeachers  int64 `json:"totalTeachers"`
		TotalStudents  int64 `json:"totalStudents"`
		TotalParents   int64 `json:"totalParents"`
		PendingReviews int64 `json:"pendingReviews"`
		TotalReviews   int64 `json:"totalReviews"`
	}{
		TotalUsers:     stats.TotalUsers,
		TotalTeachers:  stats.TotalTeachers,
		TotalStudents:  stats.TotalStudents,
		TotalParents:   stats.TotalParents,
		PendingReviews: stats.PendingReviews,
		TotalReviews:   stats.TotalReviews,
	})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	filters := repository.UserListFilters{Page: page, Limit: limit}

	if v := strings.TrimSpace(r.URL.Query().Get("role")); v != "" {
		role := domain.Role(v)
		if !domain.ValidRole(role) {
			respondError(w, http.StatusBadRequest, "unknown role "+strconv.Quote(v))
			return
		}
		filters.Role = &role
	}
	if v := strings.TrimSpace(r.URL.Query().Get("search")); v != "" {
		filters.Search = &v
	}

	result, err := s.repo.Users.List(r.Context(), filters)
	if err != nil {
		s.logger.Printf("admin: list users: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, paginatedResponse{
		Items:       toUserResponses(result.Items),
		TotalPages:  totalPages(result.Total, limit),
		CurrentPage: page,
	})
}

type userStatusRequest struct {
	IsActive *bool `json:"isActive"`
}

func (s *Server) handleSetUserStatus(w http.ResponseWriter, r *http.Request) {
	var req userStatusRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.IsActive == nil {
		respondError(w, http.StatusBadRequest, "isActive is required")
		return
	}

	id := chi.URLParam(r, "id")
	user, err := s.repo.Users.SetActive(r.Context(), id, *req.IsActive)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		s.logger.Printf("admin: set status for %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, struct {
		Message string       `json:"message"`
		User    userResponse `json:"user"`
	}{Message: "user status updated", User: toUserResponse(user)})
}

func (s *Server) handleListTeachersAdmin(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	filters := repository.TeacherListFilters{
		OrderNewest: true,
		Page:        page,
		Limit:       limit,
	}
	if v := r.URL.Query().Get("verified"); v != "" {
		verified, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "verified must be a boolean")
			return
		}
		filters.Verified = &verified
	}

	teachers, err := s.repo.Teachers.List(r.Context(), filters)
	if err != nil {
		s.logger.Printf("admin: list teachers: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	total, err := s.repo.Teachers.Count(r.Context(), filters)
	if err != nil {
		s.logger.Printf("admin: count teachers: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, paginatedResponse{
		Items:       toTeacherWithUserResponses(teachers),
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
	})
}

type verifyTeacherRequest struct {
	IsVerified *bool `json:"isVerified"`
}

func (s *Server) handleVerifyTeacher(w http.ResponseWriter, r *http.Request) {
	var req verifyTeacherRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.IsVerified == nil {
		respondError(w, http.StatusBadRequest, "isVerified is required")
		return
	}

	id := chi.URLParam(r, "id")
	teacher, err := s.repo.Teachers.SetVerified(r.Context(), id, *req.IsVerified)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "teacher not found")
			return
		}
		s.logger.Printf("admin: verify teacher %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, struct {
		Message string          `json:"message"`
		Teacher teacherResponse `json:"teacher"`
	}{Message: "verification status updated", Teacher: toTeacherResponse(teacher)})
}

func (s *Server) handleListPendingReviews(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	result, err := s.repo.Reviews.ListPending(r.Context(), page, limit)
	if err != nil {
		s.logger.Printf("admin: list pending reviews: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, paginatedResponse{
		Items:       toReviewWithNamesResponses(result.Items),
		TotalPages:  totalPages(result.Total, limit),
		CurrentPage: page,
	})
}

type approveReviewRequest struct {
	IsApproved *bool `json:"isApproved"`
}

// handleApproveReview records a moderation decision. Approving an already
// approved review, or rejecting a pending one, leaves the teacher's rating
// untouched.
func (s *Server) handleApproveReview(w http.ResponseWriter, r *http.Request) {
	var req approveReviewRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.IsApproved == nil {
		respondError(w, http.StatusBadRequest, "isApproved is required")
		return
	}

	id := chi.URLParam(r, "id")
	review, err := s.repo.Reviews.SetApproval(r.Context(), id, *req.IsApproved)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "review not found")
			return
		}
		s.logger.Printf("admin: set approval for %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	message := "review approved"
	if !*req.IsApproved {
		message = "review rejected"
	}
	respondJSON(w, http.StatusOK, struct {
		Message string         `json:"message"`
		Review  reviewResponse `json:"review"`
	}{Message: message, Review: toReviewResponse(review)})
}
