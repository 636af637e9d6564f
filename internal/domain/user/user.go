package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Role controls which lifecycle events a user is alerted about and
// which override operations they may perform.
type Role string

const (
	RoleCustomer      Role = "CUSTOMER"
	RoleAdmin         Role = "ADMIN"
	RoleCreditManager Role = "CREDIT_MANAGER"
)

// Region buckets used by the credit market adjustments.
type Region string

const (
	RegionMajorUrban Region = "MAJOR_URBAN"
	RegionOther      Region = "OTHER"
)

// User is the read-only view of a platform user that risk decisioning
// needs: identity, role, market region and account age. Profile CRUD
// lives outside the core.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Region    Region    `json:"region,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AccountAge returns how long the user has been on the platform.
func (u *User) AccountAge(now time.Time) time.Duration {
	return now.Sub(u.CreatedAt)
}

// IsStaff reports whether the user may perform administrative overrides.
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleCreditManager
}

// ErrUserNotFound is returned when a user id resolves to nothing.
var ErrUserNotFound = errors.New("user not found")

// Repository provides read access to users.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	ListByRoles(ctx context.Context, roles ...Role) ([]*User, error)
}
