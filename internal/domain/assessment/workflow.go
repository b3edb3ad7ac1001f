package assessment

import (
	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/notifications"
)

type Action string

const (
	ActionSubmit       Action = "submit"
	ActionSubmitReview Action = "submit_review"
	ActionApprove      Action = "approve"
	ActionReject       Action = "reject"
	ActionRelease      Action = "release"
	ActionAcknowledge  Action = "acknowledge"
)

type Transition struct {
	Action Action
	Role   string
	From   []Status
	To     Status
	Notify notifications.Type
}

var transitions = map[Action]Transition{
	ActionSubmit: {
		Action: ActionSubmit,
		Role:   auth.RoleStaff,
		From:   []Status{StatusDraft, StatusRejected},
		To:     StatusSelfSubmitted,
		Notify: notifications.TypeAssessmentSubmitted,
	},
	ActionSubmitReview: {
		Action: ActionSubmitReview,
		Role:   auth.RoleManager,
		From:   []Status{StatusSelfSubmitted},
		To:     StatusManagerReviewed,
		Notify: notifications.TypeManagerReviewCompleted,
	},
	ActionApprove: {
		Action: ActionApprove,
		Role:   auth.RoleDirector,
		From:   []Status{StatusManagerReviewed},
		To:     StatusDirectorApproved,
		Notify: notifications.TypeDirectorApproved,
	},
	ActionReject: {
		Action: ActionReject,
		Role:   auth.RoleDirector,
		From:   []Status{StatusManagerReviewed},
		To:     StatusRejected,
		Notify: notifications.TypeAssessmentReturned,
	},
	ActionRelease: {
		Action: ActionRelease,
		Role:   auth.RoleAdmin,
		From:   []Status{StatusDirectorApproved},
		To:     StatusAdminReviewed,
		Notify: notifications.TypeAdminReleased,
	},
	ActionAcknowledge: {
		Action: ActionAcknowledge,
		Role:   auth.RoleStaff,
		From:   []Status{StatusAdminReviewed},
		To:     StatusAcknowledged,
		Notify: notifications.TypeAssessmentAcknowledged,
	},
}

func LookupTransition(action Action) (Transition, bool) {
	t, ok := transitions[action]
	return t, ok
}

func (t Transition) AllowsFrom(status Status) bool {
	for _, from := range t.From {
		if from == status {
			return true
		}
	}
	return false
}

// Policy is who may perform the transition on a.
func (t Transition) Policy(a Assessment) auth.Policy {
	return roleSlot(t.Role, a)
}

// roleSlot admits whoever occupies role's slot on a. The staff slot is pure
// ownership since managers and directors are appraised too.
func roleSlot(role string, a Assessment) auth.Policy {
	switch role {
	case auth.RoleStaff:
		return auth.Owner(a.StaffID)
	case auth.RoleManager:
		return auth.RoleAndOwner(auth.RoleManager, a.ManagerID)
	case auth.RoleDirector:
		return auth.RoleAndOwner(auth.RoleDirector, a.DirectorID)
	case auth.RoleAdmin:
		return auth.AnyRole(auth.RoleAdmin)
	}
	return nil
}

// Editable reports whether role may patch its own fields in the current status.
func Editable(role string, status Status) bool {
	switch role {
	case auth.RoleStaff:
		return status == StatusDraft || status == StatusRejected
	case auth.RoleManager:
		return status == StatusSelfSubmitted
	case auth.RoleDirector:
		return status == StatusManagerReviewed
	}
	return false
}

// CanDelete allows admins at any time and the staff owner while the
// assessment is still theirs to edit.
func CanDelete(user auth.UserContext, a Assessment) error {
	if user.RoleName == auth.RoleAdmin && user.UserID != "" {
		return nil
	}
	if err := auth.Authorize(user, auth.Owner(a.StaffID)); err != nil {
		return err
	}
	if a.Status != StatusDraft && a.Status != StatusRejected {
		return ErrForbidden
	}
	return nil
}

// CanView admits participants in their slot and admins.
func CanView(user auth.UserContext, a Assessment) error {
	return auth.Authorize(user,
		auth.Owner(a.StaffID),
		auth.Owner(a.ManagerID),
		auth.Owner(a.DirectorID),
		auth.AnyRole(auth.RoleAdmin),
		unassignedSlot(auth.RoleManager, a.ManagerID),
		unassignedSlot(auth.RoleDirector, a.DirectorID),
	)
}

func unassignedSlot(role, slot string) auth.Policy {
	return func(user auth.UserContext) bool {
		return slot == "" && user.RoleName == role
	}
}
