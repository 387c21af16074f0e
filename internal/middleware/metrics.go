package middleware

import (
    "time"

    "github.com/labstack/echo/v4"

    "github.com/vuongdq/game-platform/internal/metrics"
)

// HTTPMetrics records request counts and latency per route pattern.
func HTTPMetrics(m *metrics.Metrics) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            m.HTTPRequest(c.Request().Method, routeOf(c), statusOf(c, err), time.Since(start))
            return err
        }
    }
}
