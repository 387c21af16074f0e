package config

import (
    "strings"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func lookupFrom(m map[string]string) func(string) (string, bool) {
    return func(k string) (string, bool) {
        v, ok := m[k]
        return v, ok
    }
}

func baseEnv() map[string]string {
    return map[string]string{
        "JWT_SECRET": "s3cret",
        "DB_USER":    "root",
        "DB_HOST":    "localhost",
        "DB_PORT":    "3306",
        "DB_NAME":    "gameplatform",
    }
}

func TestParse_Defaults(t *testing.T) {
    cfg, err := Parse(lookupFrom(baseEnv()))
    require.NoError(t, err)

    assert.Equal(t, "dev", cfg.Env)
    assert.Equal(t, "8080", cfg.Port)
    assert.Equal(t, "game-platform", cfg.JWTIssuer)
    assert.Equal(t, "game-platform-clients", cfg.JWTAudience)
    assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
    assert.Equal(t, 10, cfg.BcryptCost)
    assert.Equal(t, "admin", cfg.AdminUsername)
    assert.Equal(t, "admin@gameplatform.com", cfg.AdminEmail)
    assert.Empty(t, cfg.AdminPassword)
    assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
    assert.True(t, cfg.RevocationEnabled)
}

func TestParse_MissingSigningKeyIsAnError(t *testing.T) {
    env := baseEnv()
    delete(env, "JWT_SECRET")
    _, err := Parse(lookupFrom(env))
    require.Error(t, err)
    assert.Contains(t, err.Error(), "JWT_SECRET")

    env["JWT_SECRET"] = "   "
    _, err = Parse(lookupFrom(env))
    require.Error(t, err)
}

func TestParse_SecretsAreNotTrimmed(t *testing.T) {
    env := baseEnv()
    env["JWT_SECRET"] = " s3cret\n"
    env["ADMIN_PASSWORD"] = " admin123 "
    env["DB_PASS"] = "pa ss "
    env["APP_PORT"] = " 9090 "

    cfg, err := Parse(lookupFrom(env))
    require.NoError(t, err)
    assert.Equal(t, " s3cret\n", cfg.JWTSecret)
    assert.Equal(t, " admin123 ", cfg.AdminPassword)
    assert.Equal(t, "pa ss ", cfg.DBPass)
    assert.Equal(t, "9090", cfg.Port)
}

func TestParse_ReportsEveryProblem(t *testing.T) {
    env := map[string]string{"TOKEN_TTL": "soon", "BCRYPT_COST": "high"}
    _, err := Parse(lookupFrom(env))
    require.Error(t, err)

    msg := err.Error()
    for _, key := range []string{"JWT_SECRET", "DB_USER", "DB_HOST", "DB_PORT", "DB_NAME", "TOKEN_TTL", "BCRYPT_COST"} {
        assert.True(t, strings.Contains(msg, key), "expected %s in %q", key, msg)
    }
}

func TestParse_Overrides(t *testing.T) {
    env := baseEnv()
    env["TOKEN_TTL"] = "15m"
    env["CORS_ORIGINS"] = "http://a.test, http://b.test,"
    env["TOKEN_REVOCATION_ENABLED"] = "false"
    env["ADMIN_PASSWORD"] = "Admin@123"

    cfg, err := Parse(lookupFrom(env))
    require.NoError(t, err)
    assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
    assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
    assert.False(t, cfg.RevocationEnabled)
    assert.Equal(t, "Admin@123", cfg.AdminPassword)
}

func TestParse_RejectsNonPositiveTTLAndShortAdminPassword(t *testing.T) {
    env := baseEnv()
    env["TOKEN_TTL"] = "0s"
    env["ADMIN_PASSWORD"] = "abc"
    _, err := Parse(lookupFrom(env))
    require.Error(t, err)
    assert.Contains(t, err.Error(), "TOKEN_TTL must be positive")
    assert.Contains(t, err.Error(), "ADMIN_PASSWORD")
}

func TestLoadRateLimitConfig_Defaults(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "")
    cfg := LoadRateLimitConfig()
    assert.True(t, cfg.Enabled)
    assert.Equal(t, 10, cfg.Capacity)
    assert.Equal(t, 6*time.Second, cfg.RefillInterval)
    assert.Equal(t, "rl:auth", cfg.Prefix)
    assert.GreaterOrEqual(t, cfg.TTL, 5*cfg.RefillInterval)
}

func TestLoadQueueConfig(t *testing.T) {
    t.Setenv("RABBITMQ_URL", "")
    t.Setenv("AMQP_URL", "amqp://u:p@mq:5672/")
    cfg := LoadQueueConfig()
    assert.Equal(t, "amqp://u:p@mq:5672/", cfg.URL)
    assert.Equal(t, "user.events", cfg.Queue)
    assert.Equal(t, "logs", cfg.AuditDir)
}
