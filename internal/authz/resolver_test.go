package authz

import (
	"testing"

	"github.com/stretchr/testify/require"

	"saas-backoffice/internal/model"
)

func newDefaultResolver(t *testing.T) *Resolver {
	t.Helper()

	resolver, err := NewResolver(DefaultRules())
	require.NoError(t, err)
	return resolver
}

func TestAuthorize(t *testing.T) {
	t.Parallel()

	resolver := newDefaultResolver(t)

	cases := []struct {
		name string
		role model.Role
		path string
		want Decision
	}{
		{"admin anywhere", model.RoleAdmin, "/api/finance/settlements", Allow},
		{"admin outside any group", model.RoleAdmin, "/internal/debug", Allow},
		{"cashier in own group", model.RoleCashier, "/api/cashier/transactions", Allow},
		{"finance in own group", model.RoleFinance, "/api/finance/y", Allow},
		{"marketing in own group", model.RoleMarketing, "/api/marketing/campaigns", Allow},
		{"cashier in admin group", model.RoleCashier, "/api/admin/x", Deny},
		{"finance in cashier group", model.RoleFinance, "/api/cashier/members", Deny},
		{"prefix is case sensitive", model.RoleCashier, "/API/cashier/members", Deny},
		{"group root without slash", model.RoleCashier, "/api/cashier", Deny},
		{"unknown path default deny", model.RoleMarketing, "/api/reports/daily", Deny},
		{"any authenticated role under auth", model.RoleFinance, "/api/auth/me", Allow},
		{"empty role", "", "/api/auth/me", Deny},
		{"unknown role", "owner", "/api/cashier/x", Deny},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := resolver.Authorize(model.Claims{Subject: "u-1", Role: tc.role}, tc.path)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestNewResolverValidatesTable(t *testing.T) {
	t.Parallel()

	_, err := NewResolver([]Rule{{Prefix: "api/cashier/", Role: model.RoleCashier}})
	require.Error(t, err)

	_, err = NewResolver([]Rule{{Prefix: "/api/cashier", Role: model.RoleCashier}})
	require.Error(t, err)

	_, err = NewResolver([]Rule{{Prefix: "/api/x/", Role: "owner"}})
	require.ErrorIs(t, err, model.ErrUnknownRole)

	_, err = NewResolver([]Rule{
		{Prefix: "/api/x/", Role: model.RoleCashier},
		{Prefix: "/api/x/", Role: model.RoleFinance},
	})
	require.Error(t, err)

	_, err = NewResolver([]Rule{{Prefix: "/api/x/", Role: model.RoleCashier, AnyRole: true}})
	require.Error(t, err)
}

func TestRulesReturnsCopy(t *testing.T) {
	t.Parallel()

	resolver := newDefaultResolver(t)
	rules := resolver.Rules()
	rules[0].Role = model.RoleCashier

	require.Equal(t, Deny, resolver.Authorize(model.Claims{Role: model.RoleCashier}, "/api/admin/users"))
	require.Equal(t, "allow", Allow.String())
	require.Equal(t, "deny", Deny.String())
}
