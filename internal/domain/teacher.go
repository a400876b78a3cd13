package domain

import "time"

// Teaching modes a profile may declare.
const (
	ModeOnline  = "online"
	ModeOffline = "offline"
)

// Teacher is the teaching-specific profile owned by exactly one user with
// role "teacher". Rating and ReviewCount are derived from the approved
// review set and are written only by the rating recompute.
type Teacher struct {
	ID           string
	UserID       string
	Subjects     []string
	Experience   int
	Education    string
	TeachingMode []string
	OnlineRate   int64
	OfflineRate  int64
	Grade        string
	Bio          string
	Rating       float32
	ReviewCount  int64
	IsVerified   bool
	IsPremium    bool
	ProfileViews int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RatingAggregate is the derived (rating, reviewCount) pair for a teacher.
type RatingAggregate struct {
	Rating      float32
	ReviewCount int64
}
