// Package authz decides whether an authenticated identity may reach a path.
//
// The model is a static prefix table: the super role is allowed everywhere,
// every other role is allowed only under the prefixes bound to it, and a
// path that matches no prefix is denied.
package authz

import (
	"fmt"
	"strings"

	"saas-backoffice/internal/model"
)

type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Rule binds a path prefix to the role allowed under it. AnyRole rules admit
// every authenticated role.
type Rule struct {
	Prefix  string     `json:"prefix"`
	Role    model.Role `json:"role,omitempty"`
	AnyRole bool       `json:"any_role,omitempty"`
}

// SuperRole bypasses the rule table.
const SuperRole = model.RoleAdmin

func DefaultRules() []Rule {
	return []Rule{
		{Prefix: "/api/admin/", Role: model.RoleAdmin},
		{Prefix: "/api/cashier/", Role: model.RoleCashier},
		{Prefix: "/api/finance/", Role: model.RoleFinance},
		{Prefix: "/api/marketing/", Role: model.RoleMarketing},
		{Prefix: "/api/auth/", AnyRole: true},
	}
}

type Resolver struct {
	rules []Rule
}

// NewResolver validates the table once; the resolver is read-only afterwards.
func NewResolver(rules []Rule) (*Resolver, error) {
	seen := make(map[string]struct{}, len(rules))
	validated := make([]Rule, 0, len(rules))

	for i, rule := range rules {
		if !strings.HasPrefix(rule.Prefix, "/") || !strings.HasSuffix(rule.Prefix, "/") {
			return nil, fmt.Errorf("authz: rule %d: prefix %q must start and end with /", i, rule.Prefix)
		}
		if rule.AnyRole && rule.Role != "" {
			return nil, fmt.Errorf("authz: rule %d: prefix %q sets both a role and any_role", i, rule.Prefix)
		}
		if !rule.AnyRole && !rule.Role.Valid() {
			return nil, fmt.Errorf("authz: rule %d: %w: %q", i, model.ErrUnknownRole, rule.Role)
		}
		if _, dup := seen[rule.Prefix]; dup {
			return nil, fmt.Errorf("authz: rule %d: duplicate prefix %q", i, rule.Prefix)
		}
		seen[rule.Prefix] = struct{}{}
		validated = append(validated, rule)
	}

	return &Resolver{rules: validated}, nil
}

func (r *Resolver) Authorize(claims model.Claims, path string) Decision {
	if !claims.Role.Valid() {
		return Deny
	}
	if claims.Role == SuperRole {
		return Allow
	}

	rule, ok := r.match(path)
	if !ok {
		return Deny
	}
	if rule.AnyRole || rule.Role == claims.Role {
		return Allow
	}

	return Deny
}

func (r *Resolver) match(path string) (Rule, bool) {
	for _, rule := range r.rules {
		if strings.HasPrefix(path, rule.Prefix) {
			return rule, true
		}
	}
	return Rule{}, false
}

// Rules returns a copy of the table in priority order.
func (r *Resolver) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}
