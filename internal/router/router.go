package router // package router defines how HTTP routes are registered for the API

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/vuongdq/game-platform/internal/handler"
    "github.com/vuongdq/game-platform/internal/middleware"
    "github.com/vuongdq/game-platform/internal/model"
)

// RegisterRoutes registers the probes and, when metricsHandler is non-nil,
// the Prometheus scrape endpoint.  None of them require authentication.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler, metricsHandler http.Handler) {
    e.GET("/healthz", h.Health)
    e.GET("/readyz", h.Ready)
    if metricsHandler != nil {
        e.GET("/metrics", echo.WrapHandler(metricsHandler))
    }
}

// RegisterAuth registers the authentication endpoints under /api/auth.
// Login and register are anonymous and throttled by limiter; /me requires a
// token and /session accepts one optionally.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, gate middleware.GateConfig, limiter echo.MiddlewareFunc) {
    g := e.Group("/api/auth")

    if limiter != nil {
        g.POST("/register", a.Register, limiter)
        g.POST("/login", a.Login, limiter)
    } else {
        g.POST("/register", a.Register)
        g.POST("/login", a.Login)
    }

    g.GET("/me", a.Me, middleware.JWTAuth(gate))
    g.GET("/session", a.Session, middleware.OptionalJWTAuth(gate))
}

// RegisterAdmin registers user management under /api/admin/users.  The
// group runs the access gate and then the Admin role policy, so handlers
// only ever see authenticated administrators.
func RegisterAdmin(e *echo.Echo, u *handler.AdminUsersHandler, gate middleware.GateConfig) {
    g := e.Group("/api/admin/users")
    g.Use(middleware.JWTAuth(gate))
    g.Use(middleware.RequireRole(model.RoleAdmin))

    g.GET("", u.List)
    g.POST("", u.Create)
    g.GET("/:id", u.Get)
    g.PUT("/:id", u.Update)
    g.PUT("/:id/role", u.UpdateRole)
    g.DELETE("/:id", u.Delete)
}
