// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"time"
)

// User roles.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// User is someone who submits, moderates or administers content.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"notblank,max=200"`
	Email     string    `json:"email" validate:"required,email"`
	Role      string    `json:"role" validate:"oneof=user moderator admin"`
	TokenHash string    `json:"-"` // Never expose in JSON
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Actor returns the identity the user acts under.
func (u *User) Actor() Actor {
	return Actor{UserID: u.ID, Role: u.Role}
}

// Actor is the caller of a service operation. The zero Actor is anonymous.
type Actor struct {
	UserID string
	Role   string
}

// SystemActor is used by seeding, import and scheduled jobs.
var SystemActor = Actor{UserID: SystemImportUser, Role: RoleAdmin}

// IsAnonymous reports whether no user is attached.
func (a Actor) IsAnonymous() bool {
	return a.UserID == ""
}

// IsAdmin reports whether the actor may use the trusted path.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanModerate reports whether the actor may approve or reject.
func (a Actor) CanModerate() bool {
	return a.Role == RoleModerator || a.Role == RoleAdmin
}

// Owns reports whether the actor authored a record.
func (a Actor) Owns(b Base) bool {
	return !a.IsAnonymous() && a.UserID == b.SubmittedBy
}

// GenerateToken returns a new random bearer token. Only its hash is stored.
func GenerateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashToken creates a SHA-256 hash of a bearer token for storage.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
