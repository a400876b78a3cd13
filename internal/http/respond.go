package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/derstap/backend/internal/domain"
	"github.com/derstap/backend/internal/repository"
)

const maxBodyBytes = 1 << 20

type messageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, messageResponse{Message: message})
}

// decodeJSONBody reads and validates a JSON request body. Unknown fields and
// oversized bodies are rejected so client typos fail loudly.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		var maxBytesErr *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxErr):
			return fmt.Errorf("malformed JSON at offset %d", syntaxErr.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("malformed JSON")
		case errors.As(err, &typeErr):
			return fmt.Errorf("invalid value for field %q", typeErr.Field)
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			field := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("unknown field %s", field)
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		case errors.As(err, &maxBytesErr):
			return fmt.Errorf("request body exceeds %d bytes", maxBytesErr.Limit)
		default:
			return err
		}
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// paginatedResponse is the envelope for admin listings.
type paginatedResponse struct {
	Items       interface{} `json:"items"`
	TotalPages  int64       `json:"totalPages"`
	CurrentPage int         `json:"currentPage"`
}

func totalPages(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}

// pageParams reads page/limit query parameters with the listing defaults.
func pageParams(r *http.Request) (page, limit int) {
	page, limit = 1, 10
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	return page, limit
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Surname   string    `json:"surname"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Phone     string    `json:"phone"`
	City      string    `json:"city"`
	IsActive  bool      `json:"isActive"`
	IsOnline  bool      `json:"isOnline"`
	LastSeen  time.Time `json:"lastSeen"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Surname:   u.Surname,
		Email:     u.Email,
		Role:      string(u.Role),
		Phone:     u.Phone,
		City:      u.City,
		IsActive:  u.IsActive,
		IsOnline:  u.IsOnline,
		LastSeen:  u.LastSeen,
		CreatedAt: u.CreatedAt,
	}
}

func toUserResponses(users []domain.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

// teacherOwner is the public slice of the owning account shown in listings.
type teacherOwner struct {
	Name     string    `json:"name"`
	Surname  string    `json:"surname"`
	City     string    `json:"city"`
	Phone    string    `json:"phone"`
	IsActive bool      `json:"isActive"`
	IsOnline bool      `json:"isOnline"`
	LastSeen time.Time `json:"lastSeen"`
}

type teacherResponse struct {
	ID           string        `json:"id"`
	UserID       string        `json:"userId"`
	Subjects     []string      `json:"subjects"`
	Experience   int           `json:"experience"`
	Education    string        `json:"education"`
	TeachingMode []string      `json:"teachingMode"`
	OnlineRate   int64         `json:"onlineRate"`
	OfflineRate  int64         `json:"offlineRate"`
	Grade        string        `json:"grade"`
	Bio          string        `json:"bio"`
	Rating       float32       `json:"rating"`
	ReviewCount  int64         `json:"reviewCount"`
	IsVerified   bool          `json:"isVerified"`
	IsPremium    bool          `json:"isPremium"`
	ProfileViews int64         `json:"profileViews"`
	CreatedAt    time.Time     `json:"createdAt"`
	User         *teacherOwner `json:"user,omitempty"`
}

func toTeacherResponse(t domain.Teacher) teacherResponse {
	return teacherResponse{
		ID:           t.ID,
		UserID:       t.UserID,
		Subjects:     t.Subjects,
		Experience:   t.Experience,
		Education:    t.Education,
		TeachingMode: t.TeachingMode,
		OnlineRate:   t.OnlineRate,
		OfflineRate:  t.OfflineRate,
		Grade:        t.Grade,
		Bio:          t.Bio,
		Rating:       t.Rating,
		ReviewCount:  t.ReviewCount,
		IsVerified:   t.IsVerified,
		IsPremium:    t.IsPremium,
		ProfileViews: t.ProfileViews,
		CreatedAt:    t.CreatedAt,
	}
}

func toTeacherWithUserResponse(t repository.TeacherWithUser) teacherResponse {
	resp := toTeacherResponse(t.Teacher)
	resp.User = &teacherOwner{
		Name:     t.OwnerName,
		Surname:  t.OwnerSurname,
		City:     t.OwnerCity,
		Phone:    t.OwnerPhone,
		IsActive: t.OwnerIsActive,
		IsOnline: t.OwnerIsOnline,
		LastSeen: t.OwnerLastSeen,
	}
	return resp
}

func toTeacherWithUserResponses(items []repository.TeacherWithUser) []teacherResponse {
	out := make([]teacherResponse, 0, len(items))
	for _, t := range items {
		out = append(out, toTeacherWithUserResponse(t))
	}
	return out
}

type reviewPerson struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
}

type reviewResponse struct {
	ID         string        `json:"id"`
	TeacherID  string        `json:"teacherId"`
	AuthorID   string        `json:"authorId"`
	Rating     int           `json:"rating"`
	Comment    string        `json:"comment"`
	Subject    string        `json:"subject"`
	LessonDate string        `json:"lessonDate"`
	IsApproved bool          `json:"isApproved"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
	Author     *reviewPerson `json:"author,omitempty"`
	Teacher    *reviewPerson `json:"teacher,omitempty"`
}

func toReviewResponse(rv domain.Review) reviewResponse {
	return reviewResponse{
		ID:         rv.ID,
		TeacherID:  rv.TeacherID,
		AuthorID:   rv.AuthorID,
		Rating:     rv.Rating,
		Comment:    rv.Comment,
		Subject:    rv.Subject,
		LessonDate: rv.LessonDate.Format("2006-01-02"),
		IsApproved: rv.Approved,
		CreatedAt:  rv.CreatedAt,
		UpdatedAt:  rv.UpdatedAt,
	}
}

func toReviewWithNamesResponse(rv repository.ReviewWithNames) reviewResponse {
	resp := toReviewResponse(rv.Review)
	resp.Author = &reviewPerson{Name: rv.AuthorName, Surname: rv.AuthorSurname}
	if rv.TeacherName != "" || rv.TeacherSurname != "" {
		resp.Teacher = &reviewPerson{Name: rv.TeacherName, Surname: rv.TeacherSurname}
	}
	return resp
}

func toReviewWithNamesResponses(items []repository.ReviewWithNames) []reviewResponse {
	out := make([]reviewResponse, 0, len(items))
	for _, rv := range items {
		out = append(out, toReviewWithNamesResponse(rv))
	}
	return out
}
