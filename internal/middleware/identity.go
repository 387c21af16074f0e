package middleware

// identity.go defines the context keys written by the access gate and the
// helpers handlers use to read them back.

import (
    "github.com/labstack/echo/v4"

    "github.com/vuongdq/game-platform/internal/model"
    "github.com/vuongdq/game-platform/internal/utils"
)

const (
    ctxClaims   = "claims"
    ctxUsername = "username"
    ctxRole     = "role"
)

// setIdentity stores validated claims on the request context.
func setIdentity(c echo.Context, cl *utils.Claims) {
    c.Set(ctxClaims, cl)
    c.Set(ctxUsername, cl.Name)
    c.Set(ctxRole, cl.Role)
}

// ClaimsFrom returns the claims the gate validated for this request.  ok is
// false for anonymous requests.
func ClaimsFrom(c echo.Context) (*utils.Claims, bool) {
    cl, ok := c.Get(ctxClaims).(*utils.Claims)
    return cl, ok && cl != nil
}

// IdentityFrom returns the caller's identity.  ok is false for anonymous
// requests.
func IdentityFrom(c echo.Context) (utils.Identity, bool) {
    cl, ok := ClaimsFrom(c)
    if !ok {
        return utils.Identity{}, false
    }
    return cl.Identity(), true
}

// roleFrom returns the role claim stored by the gate.
func roleFrom(c echo.Context) (model.Role, bool) {
    r, ok := c.Get(ctxRole).(model.Role)
    return r, ok && r.Valid()
}

// currentUsername returns the authenticated username or "anon".
func currentUsername(c echo.Context) string {
    if s, ok := c.Get(ctxUsername).(string); ok && s != "" {
        return s
    }
    return "anon"
}
