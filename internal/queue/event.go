// Package queue defines message payloads exchanged over the message broker.
package queue

import (
    "time"

    "github.com/google/uuid"

    "github.com/vuongdq/game-platform/internal/model"
)

// EventType names a user lifecycle transition.
type EventType string

const (
    UserRegistered EventType = "user.registered"
    UserCreated    EventType = "user.created"
    UserUpdated    EventType = "user.updated"
    UserDeleted    EventType = "user.deleted"
)

// UserEvent is published whenever a user record is created, changed or
// removed.  It never carries password material.  Actor is the username of
// the administrator who made the change and is empty for self-registration.
type UserEvent struct {
    ID         string    `json:"id"`
    Type       EventType `json:"type"`
    UserID     uint64    `json:"user_id"`
    Username   string    `json:"username"`
    Email      string    `json:"email"`
    Role       string    `json:"role"`
    Actor      string    `json:"actor,omitempty"`
    OccurredAt time.Time `json:"occurred_at"`
}

// NewUserEvent stamps a fresh id and the current UTC time.
func NewUserEvent(typ EventType, u model.User, actor string) UserEvent {
    return UserEvent{
        ID:         uuid.NewString(),
        Type:       typ,
        UserID:     u.ID,
        Username:   u.Username,
        Email:      u.Email,
        Role:       u.Role.String(),
        Actor:      actor,
        OccurredAt: time.Now().UTC(),
    }
}
