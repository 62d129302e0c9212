package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saas-backoffice/internal/authz"
	"saas-backoffice/internal/model"
	"saas-backoffice/internal/pipeline"
	"saas-backoffice/internal/token"
)

var defaultPublicPaths = []string{"/api/auth/login", "/api/auth/captcha", "/api/auth/refresh-token", "/health"}

type authFixture struct {
	codec *token.Codec
	now   time.Time
	auth  *Authenticator
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	f := &authFixture{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	codec, err := token.NewCodec(token.Options{
		Secret: "test-secret",
		Issuer: "saas-backoffice",
		TTL:    time.Hour,
		Now:    func() time.Time { return f.now },
	})
	require.NoError(t, err)

	resolver, err := authz.NewResolver(authz.DefaultRules())
	require.NoError(t, err)

	f.codec = codec
	f.auth = NewAuthenticator(codec, resolver, defaultPublicPaths)
	return f
}

func (f *authFixture) token(t *testing.T, role model.Role) string {
	t.Helper()

	raw, _, err := f.codec.Issue(model.Claims{
		Subject:  "u-" + role.String(),
		Username: role.String(),
		TenantID: "1",
		Role:     role,
	})
	require.NoError(t, err)
	return raw
}

func (f *authFixture) serve(t *testing.T, req *http.Request, dispatcher pipeline.DispatcherFunc) *httptest.ResponseRecorder {
	t.Helper()
	return serve(t, dispatcher, req, NewErrorTranslator(), f.auth)
}

func TestAuthenticator_PublicPathPassesWithoutToken(t *testing.T) {
	f := newAuthFixture(t)

	var hasClaims bool
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	rec := f.serve(t, req, func(c *pipeline.Context) error {
		_, hasClaims = ClaimsFromContext(c.Request.Context())
		return okDispatcher(c)
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, hasClaims)
}

func TestAuthenticator_PublicPathIsExactMatch(t *testing.T) {
	f := newAuthFixture(t)

	assert.True(t, f.auth.IsPublic("/api/auth/login"))
	assert.False(t, f.auth.IsPublic("/api/auth/login/extra"))
	assert.False(t, f.auth.IsPublic("/API/auth/login"))
}

func TestAuthenticator_MissingToken(t *testing.T) {
	f := newAuthFixture(t)

	for _, header := range []string{"", "Basic dXNlcjpwYXNz", "Bearer", "Bearer   "} {
		req := httptest.NewRequest(http.MethodGet, "/api/cashier/workspace", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}

		dispatched := false
		rec := f.serve(t, req, func(c *pipeline.Context) error {
			dispatched = true
			return nil
		})

		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		assert.Equal(t, "no token provided", decodeError(t, rec).Message, header)
		assert.False(t, dispatched, header)
	}
}

func TestAuthenticator_InvalidAndExpiredTokensLookTheSame(t *testing.T) {
	f := newAuthFixture(t)
	valid := f.token(t, model.RoleCashier)

	req := httptest.NewRequest(http.MethodGet, "/api/cashier/workspace", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	invalid := f.serve(t, req, okDispatcher)

	f.now = f.now.Add(2 * time.Hour)
	req = httptest.NewRequest(http.MethodGet, "/api/cashier/workspace", nil)
	req.Header.Set("Authorization", "Bearer "+valid)
	expired := f.serve(t, req, okDispatcher)

	for _, rec := range []*httptest.ResponseRecorder{invalid, expired} {
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid or expired token", decodeError(t, rec).Message)
	}
	assert.Equal(t, invalid.Body.String(), expired.Body.String())
}

func TestAuthenticator_AttachesClaims(t *testing.T) {
	f := newAuthFixture(t)

	var claims model.Claims
	req := httptest.NewRequest(http.MethodGet, "/api/finance/workspace", nil)
	req.Header.Set("Authorization", "bearer "+f.token(t, model.RoleFinance))

	rec := f.serve(t, req, func(c *pipeline.Context) error {
		var ok bool
		claims, ok = ClaimsFromContext(c.Request.Context())
		require.True(t, ok)
		return okDispatcher(c)
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-finance", claims.Subject)
	assert.Equal(t, model.RoleFinance, claims.Role)
	assert.Equal(t, "1", claims.TenantID)
}

func TestAuthenticator_Authorization(t *testing.T) {
	f := newAuthFixture(t)

	cases := []struct {
		role   model.Role
		path   string
		status int
	}{
		{model.RoleAdmin, "/api/finance/workspace", http.StatusOK},
		{model.RoleAdmin, "/api/anything", http.StatusOK},
		{model.RoleCashier, "/api/cashier/workspace", http.StatusOK},
		{model.RoleCashier, "/api/admin/users", http.StatusForbidden},
		{model.RoleMarketing, "/api/finance/workspace", http.StatusForbidden},
		{model.RoleFinance, "/api/reports/daily", http.StatusForbidden},
		{model.RoleMarketing, "/api/auth/me", http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.role.String()+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			req.Header.Set("Authorization", "Bearer "+f.token(t, tc.role))

			rec := f.serve(t, req, okDispatcher)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusForbidden {
				assert.Equal(t, "forbidden", decodeError(t, rec).Message)
			}
		})
	}
}

func TestAuthenticator_AuthenticateIsSeparate(t *testing.T) {
	f := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, model.RoleCashier))

	claims, apiErr := f.auth.Authenticate(req)
	require.Nil(t, apiErr)
	assert.Equal(t, model.RoleCashier, claims.Role)
}

func TestAuthenticator_DispatcherCalls(t *testing.T) {
	f := newAuthFixture(t)

	cases := []struct {
		role   model.Role
		path   string
		status int
		calls  int
	}{
		{model.RoleFinance, "/api/finance/y", http.StatusOK, 1},
		{model.RoleFinance, "/api/admin/x", http.StatusForbidden, 0},
		{model.RoleCashier, "/api/admin/x", http.StatusForbidden, 0},
		{model.RoleMarketing, "/api/admin/x", http.StatusForbidden, 0},
	}

	for _, tc := range cases {
		t.Run(tc.role.String()+" "+tc.path, func(t *testing.T) {
			dispatcher := &countingDispatcher{}
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			req.Header.Set("Authorization", "Bearer "+f.token(t, tc.role))

			rec := f.serve(t, req, dispatcher.Dispatch)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.calls, dispatcher.calls)
		})
	}
}

func TestAuthenticator_WebsocketSubprotocolToken(t *testing.T) {
	f := newAuthFixture(t)

	upgrade := func(protocols string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/logs/stream", nil)
		req.Header.Set("Connection", "Upgrade")
		req.Header.Set("Upgrade", "websocket")
		req.Header.Set("Sec-WebSocket-Protocol", protocols)
		return req
	}

	rec := f.serve(t, upgrade("bearer, "+f.token(t, model.RoleAdmin)), okDispatcher)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.serve(t, upgrade("bearer, "+f.token(t, model.RoleCashier)), okDispatcher)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.serve(t, upgrade("bearer"), okDispatcher)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "no token provided", decodeError(t, rec).Message)

	// A plain request never reads the token from the subprotocol header.
	req := httptest.NewRequest(http.MethodGet, "/api/admin/logs/stream", nil)
	req.Header.Set("Sec-WebSocket-Protocol", "bearer, "+f.token(t, model.RoleAdmin))
	rec = f.serve(t, req, okDispatcher)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
