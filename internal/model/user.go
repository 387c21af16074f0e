package model

import (
    "strings"
    "time"
)

// Role is the authorization level carried by a user record and by every
// token issued for it.  Only the two values below are valid.
type Role string

const (
    RoleUser  Role = "User"
    RoleAdmin Role = "Admin"
)

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
    return r == RoleUser || r == RoleAdmin
}

func (r Role) String() string { return string(r) }

// ParseRole maps a case-insensitive role name onto a Role.  The second
// return value is false for anything that is not User or Admin.
func ParseRole(s string) (Role, bool) {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "user":
        return RoleUser, true
    case "admin":
        return RoleAdmin, true
    }
    return "", false
}

// User represents a row of the `users` table.  PasswordHash always holds a
// bcrypt digest; the plaintext password is never stored.
//
// Fields:
//  ID           – primary key, assigned by the database, immutable.
//  Username     – unique login name (exact, case-sensitive match).
//  Email        – unique, stored lower-cased.
//  PasswordHash – bcrypt hash.
//  Role         – User or Admin.
//  CreatedAt    – creation timestamp (UTC).
//  UpdatedAt    – last modification timestamp (UTC).
type User struct {
    ID           uint64
    Username     string
    Email        string
    PasswordHash string
    Role         Role
    CreatedAt    time.Time
    UpdatedAt    time.Time
}

// IsAdmin is shorthand for u.Role == RoleAdmin.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
