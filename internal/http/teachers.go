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

func (s *Server) handleListTeachers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := repository.TeacherListFilters{}

	if v := strings.TrimSpace(q.Get("city")); v != "" {
		filters.City = &v
	}
	if v := strings.TrimSpace(q.Get("subject")); v != "" {
		filters.Subject = &v
	}
	if v := strings.TrimSpace(q.Get("grade")); v != "" {
		filters.Grade = &v
	}
	if v, err := strconv.ParseInt(q.Get("minPrice"), 10, 64); err == nil {
		filters.MinPrice = &v
	}
	if v, err := strconv.ParseInt(q.Get("maxPrice"), 10, 64); err == nil {
		filters.MaxPrice = &v
	}
	if v, err := strconv.ParseFloat(q.Get("minRating"), 32); err == nil {
		rating := float32(v)
		filters.MinRating = &rating
	}

	teachers, err := s.repo.Teachers.List(r.Context(), filters)
	if err != nil {
		s.logger.Printf("teachers: list: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, toTeacherWithUserResponses(teachers))
}

func (s *Server) handleTopTeachers(w http.ResponseWriter, r *http.Request) {
	teachers, err := s.repo.Teachers.TopRated(r.Context())
	if err != nil {
		s.logger.Printf("teachers: top rated: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, toTeacherWithUserResponses(teachers))
}

func (s *Server) handleGetTeacher(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.repo.Teachers.IncrementViews(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "teacher not found")
			return
		}
		s.logger.Printf("teachers: bump views for %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	teacher, err := s.repo.Teachers.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "teacher not found")
			return
		}
		s.logger.Printf("teachers: get %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, toTeacherWithUserResponse(teacher))
}

type teacherUpdateRequest struct {
	Subjects     []string `json:"subjects"`
	Experience   *int     `json:"experience"`
	Education    *string  `json:"education"`
	TeachingMode []string `json:"teachingMode"`
	OnlineRate   *int64   `json:"onlineRate"`
	OfflineRate  *int64   `json:"offlineRate"`
	Grade        *string  `json:"grade"`
	Bio          *string  `json:"bio"`
}

func (req teacherUpdateRequest) validate() error {
	if req.Subjects != nil && len(req.Subjects) == 0 {
		return errors.New("subjects cannot be emptied")
	}
	if req.TeachingMode != nil {
		if len(req.TeachingMode) == 0 {
			return errors.New("teachingMode cannot be emptied")
		}
		for _, mode := range req.TeachingMode {
			if mode != domain.ModeOnline && mode != domain.ModeOffline {
				return errors.New("unknown teaching mode " + strconv.Quote(mode))
			}
		}
	}
	if req.Experience != nil && *req.Experience < 0 {
		return errors.New("experience cannot be negative")
	}
	if req.OnlineRate != nil && *req.OnlineRate < 0 {
		return errors.New("onlineRate cannot be negative")
	}
	if req.OfflineRate != nil && *req.OfflineRate < 0 {
		return errors.New("offlineRate cannot be negative")
	}
	if req.Bio != nil && len(*req.Bio) > domain.MaxCommentLength {
		return errors.New("bio cannot exceed " + strconv.Itoa(domain.MaxCommentLength) + " characters")
	}
	return nil
}

// handleUpdateTeacherProfile lets the owning teacher change profile fields.
// Rating, review count, verification, and premium are not editable here.
func (s *Server) handleUpdateTeacherProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, invalidTokenMessage)
		return
	}

	var req teacherUpdateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := s.repo.Teachers.GetByUserID(r.Context(), identity.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "teacher profile not found")
			return
		}
		s.logger.Printf("teachers: load profile for %s: %v", identity.ID, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	updated, err := s.repo.Teachers.UpdateProfile(r.Context(), profile.ID, repository.TeacherUpdateParams{
		Subjects:     req.Subjects,
		Experience:   req.Experience,
		Education:    req.Education,
		TeachingMode: req.TeachingMode,
		OnlineRate:   req.OnlineRate,
		OfflineRate:  req.OfflineRate,
		Grade:        req.Grade,
		Bio:          req.Bio,
	})
	if err != nil {
		s.logger.Printf("teachers: update profile %s: %v", profile.ID, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, struct {
		Message string          `json:"message"`
		Teacher teacherResponse `json:"teacher"`
	}{Message: "profile updated", Teacher: toTeacherResponse(updated)})
}

type premiumRequest struct {
	IsPremium *bool `json:"isPremium"`
}

func (s *Server) handleSetPremium(w http.ResponseWriter, r *http.Request) {
	var req premiumRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.IsPremium == nil {
		respondError(w, http.StatusBadRequest, "isPremium is required")
		return
	}

	id := chi.URLParam(r, "id")
	teacher, err := s.repo.Teachers.SetPremium(r.Context(), id, *req.IsPremium)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "teacher not found")
			return
		}
		s.logger.Printf("teachers: set premium %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, struct {
		Message string          `json:"message"`
		Teacher teacherResponse `json:"teacher"`
	}{Message: "premium status updated", Teacher: toTeacherResponse(teacher)})
}
