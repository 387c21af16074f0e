package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/vuongdq/game-platform/internal/middleware"
    "github.com/vuongdq/game-platform/internal/service"
)

// Authenticator is implemented by service.AuthService.
type Authenticator interface {
    Register(ctx context.Context, in service.RegisterInput) (service.AuthResult, error)
    Login(ctx context.Context, in service.LoginInput) (service.AuthResult, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Auth Authenticator
}

func NewAuthHandler(a Authenticator) *AuthHandler {
    return &AuthHandler{Auth: a}
}

type sessionResp struct {
    Authenticated bool       `json:"authenticated"`
    Username      string     `json:"username,omitempty"`
    Email         string     `json:"email,omitempty"`
    Role          string     `json:"role,omitempty"`
    IssuedAt      *time.Time `json:"issuedAt,omitempty"`
    ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

// Register: create a User account and return a token for it.
func (h *AuthHandler) Register(c echo.Context) error {
    var req service.RegisterInput
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    res, err := h.Auth.Register(ctx, req)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, res)
}

// Login: verify credentials and return a token.
func (h *AuthHandler) Login(c echo.Context) error {
    var req service.LoginInput
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    res, err := h.Auth.Login(ctx, req)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, res)
}

// Me returns the identity carried by the bearer token.  It sits behind the
// required gate.
func (h *AuthHandler) Me(c echo.Context) error {
    resp, ok := session(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication required"})
    }
    return c.JSON(http.StatusOK, resp)
}

// Session reports whether the caller is signed in.  It sits behind the
// optional gate, so anonymous callers get {"authenticated": false}.
func (h *AuthHandler) Session(c echo.Context) error {
    resp, _ := session(c)
    return c.JSON(http.StatusOK, resp)
}

func session(c echo.Context) (sessionResp, bool) {
    cl, ok := middleware.ClaimsFrom(c)
    if !ok {
        return sessionResp{Authenticated: false}, false
    }
    resp := sessionResp{
        Authenticated: true,
        Username:      cl.Name,
        Email:         cl.Email,
        Role:          cl.Role.String(),
    }
    if cl.IssuedAt != nil {
        t := cl.IssuedAt.UTC()
        resp.IssuedAt = &t
    }
    if cl.ExpiresAt != nil {
        t := cl.ExpiresAt.UTC()
        resp.ExpiresAt = &t
    }
    return resp, true
}
