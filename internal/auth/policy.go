package auth

import (
	"net/http"
	"strings"
)

// Policy determines which roles may reach a request path. It is a coarse
// gate only; every service re-checks the actor it is given.
type Policy struct {
	ExemptPaths    map[string]struct{}
	ExemptPrefixes []string
}

// NewDefaultPolicy builds a default policy with exemptions.
func NewDefaultPolicy(exemptPaths []string, exemptPrefixes []string) Policy {
	set := make(map[string]struct{}, len(exemptPaths))
	for _, path := range exemptPaths {
		set[path] = struct{}{}
	}
	return Policy{ExemptPaths: set, ExemptPrefixes: exemptPrefixes}
}

// IsExempt returns true when a request should skip auth/RBAC.
func (p Policy) IsExempt(r *http.Request) bool {
	if r == nil {
		return true
	}
	if _, ok := p.ExemptPaths[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range p.ExemptPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// AllowedRoles resolves the roles permitted for the request. A false second
// value means the path is not protected.
func (p Policy) AllowedRoles(r *http.Request) ([]Role, bool) {
	if r == nil {
		return nil, false
	}
	path := r.URL.Path

	switch {
	case strings.HasPrefix(path, "/api/v1/admin/"):
		return []Role{RoleAdmin}, true
	case strings.HasPrefix(path, "/api/v1/policies/"):
		return []Role{RoleAdmin}, true
	case strings.HasPrefix(path, "/api/v1/shop/"):
		return []Role{RoleShop, RoleAdmin}, true
	case path == "/api/v1/scan":
		return []Role{RoleShop, RoleAdmin}, true
	case path == "/api/v1/devices":
		return []Role{RoleCustomer, RoleAdmin}, true
	case path == "/api/v1/claims":
		return []Role{RoleCustomer, RoleAdmin}, true
	case strings.HasPrefix(path, "/api/v1/claims/"):
		switch {
		case strings.HasSuffix(path, "/verify"), strings.HasSuffix(path, "/complete"), strings.HasSuffix(path, "/triage"):
			return []Role{RoleShop, RoleAdmin}, true
		case strings.HasSuffix(path, "/assign"):
			return []Role{RoleAdmin}, true
		case strings.HasSuffix(path, "/status"):
			return []Role{RoleShop, RoleAdmin}, true
		}
		return []Role{RoleCustomer, RoleShop, RoleAdmin}, true
	case path == "/api/v1/shops/apply":
		return []Role{RoleCustomer, RoleShop}, true
	case strings.HasPrefix(path, "/api/v1/catalog/"):
		return []Role{RoleCustomer, RoleShop, RoleAdmin, RoleEnterprise}, true
	}

	if strings.HasPrefix(path, "/api/") {
		return []Role{RoleAdmin}, true
	}
	return nil, false
}
