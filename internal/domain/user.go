package domain

import "time"

// Role is the fixed set of account types on the platform.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
	RoleAdmin   Role = "admin"
)

// ValidRole reports whether the value is one of the known roles.
func ValidRole(role Role) bool {
	switch role {
	case RoleTeacher, RoleStudent, RoleParent, RoleAdmin:
		return true
	default:
		return false
	}
}

// User represents an account. PasswordHash is cleared before the entity
// leaves the authentication layer.
type User struct {
	ID           string
	Name         string
	Surname      string
	Email        string
	PasswordHash string
	Role         Role
	Phone        string
	City         string
	IsActive     bool
	IsOnline     bool
	LastSeen     time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PlatformStats holds the admin dashboard counters.
type PlatformStats struct {
	TotalUsers     int64
	TotalTeachers  int64
	TotalStudents  int64
	TotalParents   int64
	PendingReviews int64
	TotalReviews   int64
}
