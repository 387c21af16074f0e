package handler // declare the package name; contains HTTP handlers

import (
    "context"
    "database/sql"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
)

const (
    StatusHealthy   = "healthy"
    StatusDegraded  = "degraded"
    StatusUnhealthy = "unhealthy"
)

// HealthHandler serves the liveness and readiness probes.  Redis is optional:
// when it is down the service is degraded but still ready.
type HealthHandler struct {
    DB    *sql.DB
    Redis *redis.Client
}

func NewHealthHandler(db *sql.DB, rdb *redis.Client) *HealthHandler {
    return &HealthHandler{DB: db, Redis: rdb}
}

type dependencyStatus struct {
    Status    string `json:"status"`
    Message   string `json:"message,omitempty"`
    LatencyMS int64  `json:"latency_ms"`
}

type healthStatus struct {
    Status       string                      `json:"status"`
    Timestamp    time.Time                   `json:"timestamp"`
    Dependencies map[string]dependencyStatus `json:"dependencies,omitempty"`
}

// Health is a simple liveness endpoint.  It returns a plain text "ok" with
// a 200 status while the process is serving.
func (h *HealthHandler) Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Ready pings MySQL and Redis.  It answers 503 only when MySQL is down.
func (h *HealthHandler) Ready(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
    defer cancel()

    st := healthStatus{Status: StatusHealthy, Timestamp: time.Now().UTC(), Dependencies: map[string]dependencyStatus{}}

    if h.DB != nil {
        d := probe(func() error { return h.DB.PingContext(ctx) })
        st.Dependencies["database"] = d
        if d.Status == StatusUnhealthy {
            st.Status = StatusUnhealthy
        }
    }
    if h.Redis != nil {
        d := probe(func() error { return h.Redis.Ping(ctx).Err() })
        st.Dependencies["redis"] = d
        if d.Status == StatusUnhealthy && st.Status != StatusUnhealthy {
            st.Status = StatusDegraded
        }
    } else {
        st.Dependencies["redis"] = dependencyStatus{Status: StatusDegraded, Message: "not configured"}
        if st.Status == StatusHealthy {
            st.Status = StatusDegraded
        }
    }

    code := http.StatusOK
    if st.Status == StatusUnhealthy {
        code = http.StatusServiceUnavailable
    }
    return c.JSON(code, st)
}

func probe(ping func() error) dependencyStatus {
    start := time.Now()
    err := ping()
    d := dependencyStatus{Status: StatusHealthy, LatencyMS: time.Since(start).Milliseconds()}
    if err != nil {
        d.Status = StatusUnhealthy
        d.Message = err.Error()
    }
    return d
}
