package middleware // middleware provides shared request processing for handlers

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/vuongdq/game-platform/internal/model"
)

// RequireRole returns a middleware function that enforces that the
// authenticated user has one of the specified roles.  It must run after
// JWTAuth.  A request without an identity is answered with 401; a request
// whose role is not in the allowed set gets 403.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
    allowed := make(map[model.Role]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, ok := roleFrom(c)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication required"})
            }
            if !allowed[role] {
                return c.JSON(http.StatusForbidden, echo.Map{"message": "You do not have permission to access this resource"})
            }
            return next(c)
        }
    }
}
