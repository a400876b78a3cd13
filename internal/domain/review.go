package domain

import "time"

// MaxCommentLength bounds review comments, matching the column constraint.
const MaxCommentLength = 500

// Review is a rating plus comment left by a non-teacher account about a
// teacher profile. At most one review exists per (TeacherID, AuthorID) pair.
// Approved defaults to false; moderation flips it, and any edit by the
// author resets it so changed content is re-reviewed.
type Review struct {
	ID         string
	TeacherID  string
	AuthorID   string
	Rating     int
	Comment    string
	Subject    string
	LessonDate time.Time
	Approved   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
