package handler

import (
    "errors"
    "net/http"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func healthEcho(h *HealthHandler) *echo.Echo {
    e := echo.New()
    e.GET("/healthz", h.Health)
    e.GET("/readyz", h.Ready)
    return e
}

func TestHealth_Liveness(t *testing.T) {
    rec := doJSON(healthEcho(NewHealthHandler(nil, nil)), http.MethodGet, "/healthz", "", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "ok", rec.Body.String())
}

func TestHealth_Readiness(t *testing.T) {
    db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })

    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })

    e := healthEcho(NewHealthHandler(db, rdb))

    mock.ExpectPing()
    rec := doJSON(e, http.MethodGet, "/readyz", "", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, StatusHealthy, decode(t, rec)["status"])

    mock.ExpectPing()
    mr.Close()
    rec = doJSON(e, http.MethodGet, "/readyz", "", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, StatusDegraded, decode(t, rec)["status"])

    mock.ExpectPing().WillReturnError(errors.New("connection refused"))
    rec = doJSON(e, http.MethodGet, "/readyz", "", "")
    assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
    assert.Equal(t, StatusUnhealthy, decode(t, rec)["status"])
}
