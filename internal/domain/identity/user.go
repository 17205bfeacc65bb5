// Package identity models dashboard users and the owners they may see.
package identity

import (
	"strings"

	"github.com/orderdesk/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// AnyOwner grants access to every owner.
const AnyOwner = "*"

// Password cost for bcrypt
const bcryptCost = 12

// AnonymousUsername is used when authentication is disabled.
const AnonymousUsername = "anonymous"

var ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")

// User is a configured dashboard user.
type User struct {
	Username     string
	PasswordHash string
	Owners       []string
}

// NewUser validates a configured user.
func NewUser(username, passwordHash string, owners []string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, shared.NewDomainError("INVALID_USERNAME", "Username cannot be empty")
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, shared.NewDomainError("INVALID_PASSWORD_HASH", "Password hash for "+username+" is not a bcrypt hash")
	}
	return &User{Username: username, PasswordHash: passwordHash, Owners: normalizeOwners(owners)}, nil
}

// Anonymous returns the user requests run as when authentication is off.
func Anonymous() *User {
	return &User{Username: AnonymousUsername, Owners: []string{AnyOwner}}
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// CanAccessOwner reports whether the user may see owner's orders.
func (u *User) CanAccessOwner(owner string) bool {
	return CanAccessOwner(u.Owners, owner)
}

// CanAccessOwner reports whether a list of allowed owners covers owner.
// An empty owner is always allowed.
func CanAccessOwner(allowed []string, owner string) bool {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return true
	}
	for _, a := range allowed {
		if a == AnyOwner || strings.EqualFold(a, owner) {
			return true
		}
	}
	return false
}

// HashPassword hashes a password for the users section of the config file.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func normalizeOwners(owners []string) []string {
	out := make([]string, 0, len(owners))
	for _, o := range owners {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
