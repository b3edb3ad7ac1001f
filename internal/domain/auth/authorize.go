package auth

import "errors"

var ErrForbidden = errors.New("forbidden")

type UserContext struct {
	UserID   string
	RoleName string
	Email    string
}

// Policy decides whether a user may perform an operation.
type Policy func(user UserContext) bool

func AnyRole(roles ...string) Policy {
	return func(user UserContext) bool {
		for _, role := range roles {
			if user.RoleName == role {
				return true
			}
		}
		return false
	}
}

func Owner(ownerID string) Policy {
	return func(user UserContext) bool {
		return ownerID != "" && user.UserID == ownerID
	}
}

// RoleAndOwner passes when the user holds role and either owns the slot or
// the slot is still unassigned.
func RoleAndOwner(role, ownerID string) Policy {
	return func(user UserContext) bool {
		if user.RoleName != role {
			return false
		}
		return ownerID == "" || ownerID == user.UserID
	}
}

// Authorize returns nil when any policy admits the user.
func Authorize(user UserContext, policies ...Policy) error {
	if user.UserID == "" {
		return ErrForbidden
	}
	for _, policy := range policies {
		if policy != nil && policy(user) {
			return nil
		}
	}
	return ErrForbidden
}
