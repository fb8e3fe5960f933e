package auth

import (
	"github.com/sk1972-mend/mendinsurance/internal/apperr"
)

// Role represents a coarse user role issued by the identity provider.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleShop       Role = "shop"
	RoleAdmin      Role = "admin"
	RoleEnterprise Role = "enterprise"
)

// NormalizeRole validates and normalizes a role string.
func NormalizeRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleCustomer, RoleShop, RoleAdmin, RoleEnterprise:
		return Role(value), true
	default:
		return "", false
	}
}

// Actor is the caller of a service operation. Services receive it explicitly
// and check it before touching any record.
type Actor struct {
	Subject string
	Role    Role
}

// Is reports whether the actor holds one of roles.
func (a Actor) Is(roles ...Role) bool {
	for _, role := range roles {
		if a.Role == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the actor is an administrator.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// Require returns a forbidden error unless the actor holds one of roles.
func (a Actor) Require(operation string, roles ...Role) error {
	if a.Subject == "" {
		return apperr.Forbidden(operation + ": anonymous actor")
	}
	if !a.Is(roles...) {
		return apperr.Forbidden(operation + ": role " + string(a.Role) + " not permitted")
	}
	return nil
}
