package model

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of back-office roles.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleCashier   Role = "cashier"
	RoleFinance   Role = "finance"
	RoleMarketing Role = "marketing"
)

var knownRoles = []Role{RoleAdmin, RoleCashier, RoleFinance, RoleMarketing}

// Roles returns every known role in a stable order.
func Roles() []Role {
	out := make([]Role, len(knownRoles))
	copy(out, knownRoles)
	return out
}

func (r Role) Valid() bool {
	for _, known := range knownRoles {
		if r == known {
			return true
		}
	}

	return false
}

func (r Role) String() string {
	return string(r)
}

// ParseRole accepts only the exact lowercase role names.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.TrimSpace(raw))
	if !role.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
	}

	return role, nil
}

// Claims is the identity carried by a bearer token. TenantID is empty for
// platform accounts.
type Claims struct {
	Subject   string    `json:"user_id"`
	Username  string    `json:"username"`
	TenantID  string    `json:"tenant_id,omitempty"`
	Role      Role      `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
