package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/userdeck/userdeck/internal/ability"
)

// User represents a directory account. PasswordHash is write-only: it is
// never marshaled and never returned across the HTTP boundary.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         ability.Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Resource is the record view rule conditions evaluate against.
func (u User) Resource() ability.Resource {
	return ability.Resource{ID: u.ID, Role: u.Role}
}

// CreateRequest carries a new account. Role defaults to the plain user
// role when empty.
type CreateRequest struct {
	Name     string
	Email    string
	Password string
	Role     ability.Role
}

// UpdateRequest carries a partial update. Pointer fields distinguish
// "absent" from "present but empty": absent fields are ignored, empty
// non-password values are dropped by the diff, and an empty password is
// rejected outright.
type UpdateRequest struct {
	Name     *string
	Email    *string
	Password *string
	Role     *string
}
