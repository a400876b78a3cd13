package auth

import "github.com/derstap/backend/internal/domain"

// Action names an operation gated by the access policy.
type Action string

const (
	ActionSubmitReview         Action = "review:submit"
	ActionEditReview           Action = "review:edit"
	ActionDeleteReview         Action = "review:delete"
	ActionModerateReview       Action = "review:moderate"
	ActionListUsers            Action = "user:list"
	ActionSetUserStatus        Action = "user:set-status"
	ActionVerifyTeacher        Action = "teacher:verify"
	ActionSetPremium           Action = "teacher:set-premium"
	ActionUpdateTeacherProfile Action = "teacher:update-profile"
	ActionViewStats            Action = "stats:view"
)

// Resource carries the ownership facts a decision may depend on. OwnerID is
// the review's author or the profile's owning user; empty when the action
// has no per-record owner.
type Resource struct {
	OwnerID string
}

// roleActions is the capability matrix for decisions that depend on role
// alone. Ownership-sensitive actions are resolved in Allowed.
var roleActions = map[Action][]domain.Role{
	ActionSubmitReview:         {domain.RoleStudent, domain.RoleParent},
	ActionModerateReview:       {domain.RoleAdmin},
	ActionListUsers:            {domain.RoleAdmin},
	ActionSetUserStatus:        {domain.RoleAdmin},
	ActionVerifyTeacher:        {domain.RoleAdmin},
	ActionViewStats:            {domain.RoleAdmin},
	ActionSetPremium:           {domain.RoleAdmin, domain.RoleTeacher},
	ActionUpdateTeacherProfile: {domain.RoleTeacher},
}

// Allowed decides whether the identity may perform the action on the
// resource. It is a pure function; all mutation happens in the caller after
// an allow decision.
func Allowed(identity domain.User, action Action, res Resource) bool {
	switch action {
	case ActionEditReview:
		return identity.ID == res.OwnerID
	case ActionDeleteReview:
		return identity.ID == res.OwnerID || identity.Role == domain.RoleAdmin
	default:
		for _, role := range roleActions[action] {
			if identity.Role == role {
				return true
			}
		}
		return false
	}
}
