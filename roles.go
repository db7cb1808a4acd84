package gateway

import (
	"net/http"
	"strings"
)

// RoleProvider declares the roles required to call a service's methods.
type RoleProvider interface {
	RequiredRoles(method string) []string
}

// RoleProviderFunc adapts a function to the RoleProvider interface.
type RoleProviderFunc func(method string) []string

// RequiredRoles implements RoleProvider.
func (f RoleProviderFunc) RequiredRoles(method string) []string { return f(method) }

// RoleResolver reports the roles held by the caller of a request.
type RoleResolver func(r *http.Request) []string

// HeaderRoles resolves roles from a comma-separated request header.
func HeaderRoles(header string) RoleResolver {
	return func(r *http.Request) []string {
		var roles []string
		for _, role := range strings.Split(r.Header.Get(header), ",") {
			if role = strings.TrimSpace(role); role != "" {
				roles = append(roles, role)
			}
		}
		return roles
	}
}

// missingRoles returns the required roles not in held.
func missingRoles(required, held []string) []string {
	var missing []string
	for _, want := range required {
		found := false
		for _, have := range held {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, want)
		}
	}
	return missing
}
