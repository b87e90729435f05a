package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Roles recognized by the server.
const (
	RoleUser       = "user"
	RoleSpecialist = "specialist"
	RoleAdmin      = "admin"
)

// RequireRole allows the request through when the caller holds at least one
// of the given roles. Admin always passes.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles)+1)
	for _, r := range roles {
		allowed[r] = true
	}
	allowed[RoleAdmin] = true

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			held := RolesFromContext(c.Request().Context())
			if len(held) == 0 {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			for _, r := range held {
				if allowed[r] {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}
	}
}

// HasRole reports whether the context carries the given role.
func HasRole(roles []string, want string) bool {
	for _, r := range roles {
		if r == want || r == RoleAdmin {
			return true
		}
	}
	return false
}
