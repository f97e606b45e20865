package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of portal roles a principal can hold.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleFaculty Role = "FACULTY"
	RoleHOD     Role = "HOD"
	RoleAdmin   Role = "ADMIN"
)

var roleDisplayNames = map[Role]string{
	RoleStudent: "Student",
	RoleFaculty: "Faculty",
	RoleHOD:     "Head of Department",
	RoleAdmin:   "Administrator",
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleDisplayNames[r]
	return ok
}

// DisplayName returns the human readable label for r, or "" for unknown roles.
func (r Role) DisplayName() string {
	return roleDisplayNames[r]
}

// ParseRole converts s (case-insensitive) into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
	}
	return r, nil
}

// User is an identity able to authenticate against the portal.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	DepartmentID *int64
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail returns the identity key used for every store lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
