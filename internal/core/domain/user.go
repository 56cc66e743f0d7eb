package domain

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleCustomer:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrUnauthenticated, s)
}

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Identity is what the authorization gate resolves from a credential.
type Identity struct {
	UserID string
	Role   Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Require returns ErrForbidden unless the identity holds role.
func (i Identity) Require(role Role) error {
	if i.Role != role {
		return ErrForbidden
	}
	return nil
}
