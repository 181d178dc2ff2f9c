package domain

import "errors"

var ErrUnknownRole = errors.New("unknown role")

// Role tags a relay connection exactly once at admission and never changes.
type Role string

const (
	RoleTechnician Role = "technician"
	RoleExpert     Role = "expert"
)

// ParseRole maps connection metadata onto the closed role set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleTechnician:
		return RoleTechnician, nil
	case RoleExpert:
		return RoleExpert, nil
	default:
		return "", ErrUnknownRole
	}
}
