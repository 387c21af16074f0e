package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/vuongdq/game-platform/internal/service"
)

// statusFor maps a service error kind onto an HTTP status.
func statusFor(k service.Kind) int {
    switch k {
    case service.KindValidation, service.KindConflict:
        return http.StatusBadRequest
    case service.KindAuthentication:
        return http.StatusUnauthorized
    case service.KindAuthorization:
        return http.StatusForbidden
    case service.KindNotFound:
        return http.StatusNotFound
    }
    return http.StatusInternalServerError
}

// respondError writes err as {"message": ..., "field": ...}.  Only the
// caller-safe message of a service error is exposed; anything else becomes
// a generic 500.
func respondError(c echo.Context, err error) error {
    var se *service.Error
    if !errors.As(err, &se) {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Internal server error"})
    }
    body := echo.Map{"message": se.Message}
    if se.Field != "" && (se.Kind == service.KindValidation || se.Kind == service.KindConflict) {
        body["field"] = se.Field
    }
    return c.JSON(statusFor(se.Kind), body)
}

func badBody(c echo.Context) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
}
