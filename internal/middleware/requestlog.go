package middleware

import (
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"
)

// RequestLogger writes one structured line per request.
func RequestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            status := statusOf(c, err)

            var ev *zerolog.Event
            switch {
            case status >= 500:
                ev = logger.Error().Err(err)
            case status >= 400:
                ev = logger.Warn()
            default:
                ev = logger.Info()
            }
            ev.Str("method", c.Request().Method).
                Str("path", c.Request().URL.Path).
                Str("route", routeOf(c)).
                Int("status", status).
                Dur("latency", time.Since(start)).
                Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
                Str("remote_ip", c.RealIP()).
                Str("username", currentUsername(c)).
                Msg("request")
            return err
        }
    }
}

// statusOf returns the status the response will carry once echo's error
// handler has run.
func statusOf(c echo.Context, err error) int {
    if err == nil {
        return c.Response().Status
    }
    var he *echo.HTTPError
    if errors.As(err, &he) {
        return he.Code
    }
    return http.StatusInternalServerError
}

func routeOf(c echo.Context) string {
    if p := c.Path(); p != "" {
        return p
    }
    return "unmatched"
}
