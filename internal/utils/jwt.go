package utils // package utils provides the password hasher and the JWT issuer/validator

import (
    "errors"
    "fmt"
    "time"

    "github.com/golang-jwt/jwt/v5"

    "github.com/vuongdq/game-platform/internal/model"
)

var (
    // ErrMissingSigningKey is returned by NewTokenIssuer when no secret is configured.
    ErrMissingSigningKey = errors.New("jwt signing key is not configured")
    // ErrInvalidToken wraps every validation failure (signature, issuer,
    // audience, expiry, malformed payload, unknown role).
    ErrInvalidToken = errors.New("invalid token")
)

// Identity is what a token asserts about its bearer.  Generation is the
// bearer's revocation generation at issue time.
type Identity struct {
    Username   string
    Email      string
    Role       model.Role
    Generation int64
}

// Claims is the JWT payload.  Name duplicates the subject so that clients
// decoding the token can read the username without knowing the registered
// claim names.
type Claims struct {
    Name  string     `json:"name"`
    Email string     `json:"email"`
    Role  model.Role `json:"role"`
    Gen   int64      `json:"gen,omitempty"`
    jwt.RegisteredClaims
}

// Validate is invoked by the jwt parser after the registered claims passed.
func (c Claims) Validate() error {
    if c.Name == "" {
        return errors.New("token has no name claim")
    }
    if !c.Role.Valid() {
        return fmt.Errorf("token role %q is not recognised", c.Role)
    }
    return nil
}

// Identity returns the bearer identity encoded in the claims.
func (c Claims) Identity() Identity {
    return Identity{Username: c.Name, Email: c.Email, Role: c.Role, Generation: c.Gen}
}

// AccessToken represents a signed JWT access token along with its issue and
// expiry times.
type AccessToken struct {
    Token    string    // the serialized JWT string
    IssuedAt time.Time // UTC issue time (second precision)
    Exp      time.Time // UTC expiration time, IssuedAt + TTL
}

// TokenConfig carries the settings the issuer is built from.  Now is
// optional and defaults to time.Now.
type TokenConfig struct {
    Secret   string
    Issuer   string
    Audience string
    TTL      time.Duration
    Now      func() time.Time
}

// TokenIssuer signs and validates HS256 access tokens.  It holds no mutable
// state and is safe for concurrent use.
type TokenIssuer struct {
    secret   []byte
    issuer   string
    audience string
    ttl      time.Duration
    now      func() time.Time
}

// NewTokenIssuer validates cfg and returns an issuer.  An empty secret or a
// non-positive TTL is a configuration error.
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
    if cfg.Secret == "" {
        return nil, ErrMissingSigningKey
    }
    if cfg.TTL <= 0 {
        return nil, fmt.Errorf("token ttl must be positive, got %s", cfg.TTL)
    }
    now := cfg.Now
    if now == nil {
        now = time.Now
    }
    return &TokenIssuer{
        secret:   []byte(cfg.Secret),
        issuer:   cfg.Issuer,
        audience: cfg.Audience,
        ttl:      cfg.TTL,
        now:      now,
    }, nil
}

// TTL returns the configured token lifetime.
func (t *TokenIssuer) TTL() time.Duration { return t.ttl }

// Issue builds and signs a token for id.  The expiry is exactly TTL after the
// issue time; both are truncated to whole seconds because that is the
// precision of the JWT numeric date.
func (t *TokenIssuer) Issue(id Identity) (AccessToken, error) {
    iat := t.now().UTC().Truncate(time.Second)
    exp := iat.Add(t.ttl)

    claims := Claims{
        Name:  id.Username,
        Email: id.Email,
        Role:  id.Role,
        Gen:   id.Generation,
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   id.Username,
            Issuer:    t.issuer,
            Audience:  jwt.ClaimStrings{t.audience},
            IssuedAt:  jwt.NewNumericDate(iat),
            NotBefore: jwt.NewNumericDate(iat),
            ExpiresAt: jwt.NewNumericDate(exp),
        },
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
    if err != nil {
        return AccessToken{}, fmt.Errorf("sign token: %w", err)
    }
    return AccessToken{Token: signed, IssuedAt: iat, Exp: exp}, nil
}

// Parse validates raw and returns its claims.  Signature, algorithm,
// issuer, audience and expiry are all checked; any failure yields an error
// wrapping ErrInvalidToken.
func (t *TokenIssuer) Parse(raw string) (*Claims, error) {
    claims := &Claims{}
    tok, err := jwt.ParseWithClaims(raw, claims,
        func(tk *jwt.Token) (interface{}, error) {
            return t.secret, nil
        },
        jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
        jwt.WithIssuer(t.issuer),
        jwt.WithAudience(t.audience),
        jwt.WithExpirationRequired(),
        jwt.WithIssuedAt(),
        jwt.WithTimeFunc(t.now),
    )
    if err != nil {
        return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
    }
    if !tok.Valid {
        return nil, ErrInvalidToken
    }
    return claims, nil
}
