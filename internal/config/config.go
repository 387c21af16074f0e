package config // package config loads application configuration from environment variables

import (
    "errors"
    "fmt"
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/rs/zerolog/log"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
    Env      string // application environment (e.g. "dev", "prod")
    Port     string // HTTP port to listen on
    LogLevel string // zerolog level name

    DBUser string // database username
    DBPass string // database password (optional)
    DBHost string // database host address
    DBPort string // database port number
    DBName string // database name

    JWTSecret   string        // HS256 signing key; startup fails without it
    JWTIssuer   string        // iss claim written and required
    JWTAudience string        // aud claim written and required
    TokenTTL    time.Duration // access token lifetime
    BcryptCost  int           // bcrypt cost for password hashing

    AdminUsername string // bootstrap admin, created when no Admin exists
    AdminEmail    string
    AdminPassword string // empty skips the bootstrap

    CORSOrigins       []string // allowed browser origins
    RevocationEnabled bool     // consult the Redis revocation list in the gate
}

// Load reads the process environment.  Any configuration error is fatal.
func Load() Config {
    cfg, err := Parse(os.LookupEnv)
    if err != nil {
        log.Fatal().Err(err).Msg("invalid configuration")
    }
    return cfg
}

// Parse builds a Config from lookup, which has the signature of
// os.LookupEnv.  Every problem found is reported, not only the first.
func Parse(lookup func(string) (string, bool)) (Config, error) {
    p := parser{lookup: lookup}
    cfg := Config{
        Env:      p.str("APP_ENV", "dev"),
        Port:     p.str("APP_PORT", "8080"),
        LogLevel: p.str("LOG_LEVEL", "info"),

        DBUser: p.must("DB_USER"),
        DBPass: p.rawStr("DB_PASS"),
        DBHost: p.must("DB_HOST"),
        DBPort: p.must("DB_PORT"),
        DBName: p.must("DB_NAME"),

        JWTSecret:   p.mustRaw("JWT_SECRET"),
        JWTIssuer:   p.str("JWT_ISSUER", "game-platform"),
        JWTAudience: p.str("JWT_AUDIENCE", "game-platform-clients"),
        TokenTTL:    p.duration("TOKEN_TTL", 24*time.Hour),
        BcryptCost:  p.integer("BCRYPT_COST", 10),

        AdminUsername: p.str("ADMIN_USERNAME", "admin"),
        AdminEmail:    p.str("ADMIN_EMAIL", "admin@gameplatform.com"),
        AdminPassword: p.rawStr("ADMIN_PASSWORD"),

        CORSOrigins:       splitList(p.str("CORS_ORIGINS", "http://localhost:3000")),
        RevocationEnabled: p.boolean("TOKEN_REVOCATION_ENABLED", true),
    }
    if cfg.TokenTTL <= 0 {
        p.errs = append(p.errs, fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.TokenTTL))
    }
    if cfg.AdminPassword != "" && len(cfg.AdminPassword) < 6 {
        p.errs = append(p.errs, errors.New("ADMIN_PASSWORD must be at least 6 characters long"))
    }
    return cfg, errors.Join(p.errs...)
}

// parser collects errors while reading variables so Parse can report them
// together.
type parser struct {
    lookup func(string) (string, bool)
    errs   []error
}

func (p *parser) get(key string) (string, bool) {
    v, ok := p.lookup(key)
    v = strings.TrimSpace(v)
    return v, ok && v != ""
}

// must retrieves the value of a required environment variable.
func (p *parser) must(key string) string {
    v, ok := p.get(key)
    if !ok {
        p.errs = append(p.errs, fmt.Errorf("missing required env var: %s", key))
    }
    return v
}

// mustRaw is must for secrets: the value is returned untrimmed, and only a
// blank value is an error.
func (p *parser) mustRaw(key string) string {
    v, ok := p.lookup(key)
    if !ok || strings.TrimSpace(v) == "" {
        p.errs = append(p.errs, fmt.Errorf("missing required env var: %s", key))
        return ""
    }
    return v
}

// rawStr returns an optional secret untrimmed; blank means unset.
func (p *parser) rawStr(key string) string {
    v, ok := p.lookup(key)
    if !ok || strings.TrimSpace(v) == "" {
        return ""
    }
    return v
}

func (p *parser) str(key, def string) string {
    if v, ok := p.get(key); ok {
        return v
    }
    return def
}

func (p *parser) integer(key string, def int) int {
    v, ok := p.get(key)
    if !ok {
        return def
    }
    n, err := strconv.Atoi(v)
    if err != nil {
        p.errs = append(p.errs, fmt.Errorf("invalid int for %s: %q", key, v))
        return def
    }
    return n
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
    v, ok := p.get(key)
    if !ok {
        return def
    }
    d, err := time.ParseDuration(v)
    if err != nil {
        p.errs = append(p.errs, fmt.Errorf("invalid duration for %s: %q", key, v))
        return def
    }
    return d
}

func (p *parser) boolean(key string, def bool) bool {
    v, ok := p.get(key)
    if !ok {
        return def
    }
    b, err := strconv.ParseBool(v)
    if err != nil {
        p.errs = append(p.errs, fmt.Errorf("invalid bool for %s: %q", key, v))
        return def
    }
    return b
}

func splitList(s string) []string {
    var out []string
    for _, part := range strings.Split(s, ",") {
        if part = strings.TrimSpace(part); part != "" {
            out = append(out, part)
        }
    }
    return out
}
