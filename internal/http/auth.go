package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/derstap/backend/internal/auth"
	"github.com/derstap/backend/internal/domain"
	"github.com/derstap/backend/internal/repository"
)

const minPasswordLength = 6

type teacherProfileRequest struct {
	Subjects     []string `json:"subjects"`
	Experience   int      `json:"experience"`
	Education    string   `json:"education"`
	TeachingMode []string `json:"teachingMode"`
	OnlineRate   int64    `json:"onlineRate"`
	OfflineRate  int64    `json:"offlineRate"`
	Grade        string   `json:"grade"`
	Bio          string   `json:"bio"`
}

type registerRequest struct {
	Name        string                 `json:"name"`
	Surname     string                 `json:"surname"`
	Email       string                 `json:"email"`
	Password    string                 `json:"password"`
	Role        string                 `json:"role"`
	Phone       string                 `json:"phone"`
	City        string                 `json:"city"`
	TeacherData *teacherProfileRequest `json:"teacherData"`
}

type authResponse struct {
	Message string           `json:"message"`
	Token   string           `json:"token"`
	User    userResponse     `json:"user"`
	Teacher *teacherResponse `json:"teacher,omitempty"`
}

func (req registerRequest) validate() error {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Surname) == "" {
		return errors.New("name and surname are required")
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return errors.New("a valid email is required")
	}
	if len(req.Password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if !domain.ValidRole(domain.Role(req.Role)) {
		return fmt.Errorf("unknown role %q", req.Role)
	}
	if domain.Role(req.Role) == domain.RoleTeacher {
		if req.TeacherData == nil {
			return errors.New("teacherData is required for the teacher role")
		}
		return req.TeacherData.validate()
	}
	return nil
}

func (req teacherProfileRequest) validate() error {
	if len(req.Subjects) == 0 {
		return errors.New("at least one subject is required")
	}
	if err := validateTeachingModes(req.TeachingMode, req.OnlineRate, req.OfflineRate); err != nil {
		return err
	}
	if req.Experience < 0 {
		return errors.New("experience cannot be negative")
	}
	if len(req.Bio) > domain.MaxCommentLength {
		return fmt.Errorf("bio cannot exceed %d characters", domain.MaxCommentLength)
	}
	return nil
}

// validateTeachingModes checks that each declared mode is known and priced.
func validateTeachingModes(modes []string, onlineRate, offlineRate int64) error {
	if len(modes) == 0 {
		return errors.New("at least one teaching mode is required")
	}
	for _, mode := range modes {
		switch mode {
		case domain.ModeOnline:
			if onlineRate <= 0 {
				return errors.New("onlineRate must be positive for the online mode")
			}
		case domain.ModeOffline:
			if offlineRate <= 0 {
				return errors.New("offlineRate must be positive for the offline mode")
			}
		default:
			return fmt.Errorf("unknown teaching mode %q", mode)
		}
	}
	if onlineRate < 0 || offlineRate < 0 {
		return errors.New("rates cannot be negative")
	}
	return nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Printf("register: hash password: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	user, err := s.repo.Users.Create(r.Context(), repository.UserCreateParams{
		Name:         strings.TrimSpace(req.Name),
		Surname:      strings.TrimSpace(req.Surname),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		Role:         domain.Role(req.Role),
		Phone:        strings.TrimSpace(req.Phone),
		City:         strings.TrimSpace(req.City),
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			respondError(w, http.StatusConflict, "email is already registered")
			return
		}
		s.logger.Printf("register: create user: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	var teacher *teacherResponse
	if user.Role == domain.RoleTeacher {
		created, err := s.repo.Teachers.Create(r.Context(), repository.TeacherCreateParams{
			UserID:       user.ID,
			Subjects:     req.TeacherData.Subjects,
			Experience:   req.TeacherData.Experience,
			Education:    strings.TrimSpace(req.TeacherData.Education),
			TeachingMode: req.TeacherData.TeachingMode,
			OnlineRate:   req.TeacherData.OnlineRate,
			OfflineRate:  req.TeacherData.OfflineRate,
			Grade:        strings.TrimSpace(req.TeacherData.Grade),
			Bio:          strings.TrimSpace(req.TeacherData.Bio),
		})
		if err != nil {
			s.logger.Printf("register: create teacher profile for %s: %v", user.ID, err)
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		resp := toTeacherResponse(created)
		teacher = &resp
	}

	token, err := auth.NewToken(s.cfg.JWTSecret, user.ID, time.Duration(s.cfg.TokenTTLHours)*time.Hour)
	if err != nil {
		s.logger.Printf("register: sign token: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusCreated, authResponse{
		Message: "registration successful",
		Token:   token,
		User:    toUserResponse(user),
		Teacher: teacher,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Identical response for an unknown email and a wrong password.
	const badCredentials = "invalid email or password"

	user, err := s.repo.Users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, badCredentials)
			return
		}
		s.logger.Printf("login: load user: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		respondError(w, http.StatusUnauthorized, badCredentials)
		return
	}
	if !user.IsActive {
		respondError(w, http.StatusForbidden, "account is deactivated")
		return
	}

	now := time.Now()
	if err := s.repo.Users.SetPresence(r.Context(), user.ID, true, now); err != nil {
		s.logger.Printf("login: set presence for %s: %v", user.ID, err)
	} else {
		user.IsOnline = true
		user.LastSeen = now
	}

	token, err := auth.NewToken(s.cfg.JWTSecret, user.ID, time.Duration(s.cfg.TokenTTLHours)*time.Hour)
	if err != nil {
		s.logger.Printf("login: sign token: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, authResponse{
		Message: "login successful",
		Token:   token,
		User:    toUserResponse(user),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, invalidTokenMessage)
		return
	}

	if err := s.repo.Users.SetPresence(r.Context(), identity.ID, false, time.Now()); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Printf("logout: set presence for %s: %v", identity.ID, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, messageResponse{Message: "logout successful"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, invalidTokenMessage)
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(identity))
}
