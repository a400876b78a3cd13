package auth

import (
	"testing"

	"github.com/derstap/backend/internal/domain"
)

func TestAllowedRoleActions(t *testing.T) {
	tests := []struct {
		name   string
		role   domain.Role
		action Action
		want   bool
	}{
		{"student submits review", domain.RoleStudent, ActionSubmitReview, true},
		{"parent submits review", domain.RoleParent, ActionSubmitReview, true},
		{"teacher cannot submit review", domain.RoleTeacher, ActionSubmitReview, false},
		{"admin cannot submit review", domain.RoleAdmin, ActionSubmitReview, false},

		{"admin moderates", domain.RoleAdmin, ActionModerateReview, true},
		{"student cannot moderate", domain.RoleStudent, ActionModerateReview, false},
		{"teacher cannot moderate", domain.RoleTeacher, ActionModerateReview, false},

		{"admin lists users", domain.RoleAdmin, ActionListUsers, true},
		{"parent cannot list users", domain.RoleParent, ActionListUsers, false},
		{"admin toggles account status", domain.RoleAdmin, ActionSetUserStatus, true},
		{"student cannot toggle status", domain.RoleStudent, ActionSetUserStatus, false},
		{"admin verifies teachers", domain.RoleAdmin, ActionVerifyTeacher, true},
		{"teacher cannot self-verify", domain.RoleTeacher, ActionVerifyTeacher, false},
		{"admin views stats", domain.RoleAdmin, ActionViewStats, true},
		{"parent cannot view stats", domain.RoleParent, ActionViewStats, false},

		{"admin sets premium", domain.RoleAdmin, ActionSetPremium, true},
		{"teacher sets premium", domain.RoleTeacher, ActionSetPremium, true},
		{"student cannot set premium", domain.RoleStudent, ActionSetPremium, false},

		{"teacher updates profile", domain.RoleTeacher, ActionUpdateTeacherProfile, true},
		{"admin cannot update profile", domain.RoleAdmin, ActionUpdateTeacherProfile, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			identity := domain.User{ID: "u1", Role: tc.role}
			if got := Allowed(identity, tc.action, Resource{}); got != tc.want {
				t.Errorf("Allowed(%s, %s) = %v, want %v", tc.role, tc.action, got, tc.want)
			}
		})
	}
}

func TestAllowedOwnership(t *testing.T) {
	owner := domain.User{ID: "author-1", Role: domain.RoleStudent}
	other := domain.User{ID: "author-2", Role: domain.RoleStudent}
	admin := domain.User{ID: "admin-1", Role: domain.RoleAdmin}
	res := Resource{OwnerID: "author-1"}

	if !Allowed(owner, ActionEditReview, res) {
		t.Error("the author should be able to edit their own review")
	}
	if Allowed(other, ActionEditReview, res) {
		t.Error("another user must not edit the review")
	}
	if Allowed(admin, ActionEditReview, res) {
		t.Error("editing is author-only, even for admins")
	}

	if !Allowed(owner, ActionDeleteReview, res) {
		t.Error("the author should be able to delete their own review")
	}
	if !Allowed(admin, ActionDeleteReview, res) {
		t.Error("an admin should be able to delete any review")
	}
	if Allowed(other, ActionDeleteReview, res) {
		t.Error("another user must not delete the review")
	}
}
