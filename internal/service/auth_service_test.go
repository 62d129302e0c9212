package service

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"saas-backoffice/internal/event"
	"saas-backoffice/internal/model"
	"saas-backoffice/internal/repository"
	"saas-backoffice/internal/token"
	"saas-backoffice/pkg/apierror"
)

const testPassword = "s3cret-pass"

type authFixture struct {
	service  *AuthService
	users    *repository.MemoryUserStore
	captchas *repository.MemoryCaptchaStore
	codec    *token.Codec
	bus      *event.InMemoryBus
	now      time.Time
}

func newAuthFixture(t *testing.T, opts AuthOptions) *authFixture {
	t.Helper()

	f := &authFixture{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}

	codec, err := token.NewCodec(token.Options{
		Secret: "service-secret",
		TTL:    time.Hour,
		Now:    func() time.Time { return f.now },
	})
	require.NoError(t, err)

	f.users = repository.NewMemoryUserStore()
	require.NoError(t, repository.SeedDemoUsers(context.Background(), f.users, testPassword, bcrypt.MinCost))

	f.captchas = repository.NewMemoryCaptchaStore()
	f.codec = codec
	f.bus = event.NewBus()
	f.service = NewAuthService(f.users, f.captchas, codec, f.bus, opts)
	return f
}

func statusOf(err error) int {
	return apierror.StatusOf(err)
}

func TestLogin_IssuesTokenForRole(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})

	result, err := f.service.Login(context.Background(), model.LoginRequest{Username: "finance", Password: testPassword})
	require.NoError(t, err)

	assert.Equal(t, "finance", result.Username)
	assert.Equal(t, model.RoleFinance, result.Role)
	assert.Equal(t, []model.Role{model.RoleFinance}, result.Roles)
	assert.Equal(t, repository.DemoTenantID, result.TenantID)
	assert.Equal(t, f.now.Add(time.Hour), result.ExpiresAt)

	claims, err := f.codec.Decode(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.UserID, claims.Subject)
	assert.Equal(t, model.RoleFinance, claims.Role)
}

func TestLogin_BadCredentialsAreUniform(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})

	_, wrongPassword := f.service.Login(context.Background(), model.LoginRequest{Username: "admin", Password: "nope"})
	_, unknownUser := f.service.Login(context.Background(), model.LoginRequest{Username: "ghost", Password: testPassword})

	for _, err := range []error{wrongPassword, unknownUser} {
		require.Error(t, err)
		assert.Equal(t, http.StatusUnauthorized, statusOf(err))
		assert.Equal(t, invalidLoginMessage, err.(*apierror.APIError).Message)
	}
}

func TestLogin_UnknownUserStillComparesHash(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})

	var hashes [][]byte
	f.service.compare = func(hash []byte, password []byte) error {
		hashes = append(hashes, hash)
		return bcrypt.CompareHashAndPassword(hash, password)
	}

	_, err := f.service.Login(context.Background(), model.LoginRequest{Username: "ghost", Password: testPassword})
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))
	require.Len(t, hashes, 1)
	assert.Equal(t, unknownUserHash(), hashes[0])

	_, err = f.service.Login(context.Background(), model.LoginRequest{Username: "admin", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))
	require.Len(t, hashes, 2)
	assert.NotEqual(t, unknownUserHash(), hashes[1])
}

func TestVerifyPassword_WrapsInvalidCredentials(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	require.NoError(t, f.service.verifyPassword(hash, testPassword))
	assert.ErrorIs(t, f.service.verifyPassword(hash, "nope"), model.ErrInvalidCredentials)
}

func TestVerifyCaptcha_Sentinels(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, AuthOptions{})
	require.NoError(t, f.captchas.Save(ctx, "session-1", "ABC123", time.Minute))

	assert.ErrorIs(t, f.service.verifyCaptcha(ctx, "session-1", "XYZ789"), model.ErrCaptchaMismatch)
	// The first attempt consumed it.
	assert.ErrorIs(t, f.service.verifyCaptcha(ctx, "session-1", "ABC123"), model.ErrCaptchaNotFound)

	require.NoError(t, f.captchas.Save(ctx, "session-2", "ABC123", time.Minute))
	assert.NoError(t, f.service.verifyCaptcha(ctx, "session-2", "abc123"))
}

func TestLogin_PublishesEvents(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})
	ch, unsubscribe := f.bus.Subscribe()
	defer unsubscribe()

	_, err := f.service.Login(context.Background(), model.LoginRequest{Username: "admin", Password: "nope"})
	require.Error(t, err)
	_, err = f.service.Login(context.Background(), model.LoginRequest{Username: "admin", Password: testPassword})
	require.NoError(t, err)

	assert.Equal(t, event.TypeLoginFailed, (<-ch).Type)
	assert.Equal(t, event.TypeLoginSucceeded, (<-ch).Type)
}

func TestLogin_CaptchaRequired(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, AuthOptions{CaptchaRequired: true})

	_, err := f.service.Login(ctx, model.LoginRequest{Username: "cashier", Password: testPassword})
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	captcha, err := f.service.NewCaptcha(ctx)
	require.NoError(t, err)
	answer := captchaAnswer(t, captcha)

	_, err = f.service.Login(ctx, model.LoginRequest{
		Username:  "cashier",
		Password:  testPassword,
		Captcha:   strings.ToLower(answer),
		SessionID: captcha.SessionID,
	})
	require.NoError(t, err)

	// The captcha was consumed by the first attempt.
	_, err = f.service.Login(ctx, model.LoginRequest{
		Username:  "cashier",
		Password:  testPassword,
		Captcha:   answer,
		SessionID: captcha.SessionID,
	})
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))
}

func TestLogin_WrongCaptcha(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, AuthOptions{CaptchaRequired: true})
	require.NoError(t, f.captchas.Save(ctx, "session-1", "ABC123", time.Minute))

	_, err := f.service.Login(ctx, model.LoginRequest{
		Username:  "cashier",
		Password:  testPassword,
		Captcha:   "XYZ789",
		SessionID: "session-1",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))
	assert.Equal(t, invalidCaptchaMessage, err.(*apierror.APIError).Message)
}

func TestNewCaptcha(t *testing.T) {
	f := newAuthFixture(t, AuthOptions{})

	captcha, err := f.service.NewCaptcha(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, captcha.SessionID)
	assert.True(t, strings.HasPrefix(captcha.CaptchaURL, "data:image/svg+xml;utf8,"))

	answer := captchaAnswer(t, captcha)
	assert.Len(t, answer, captchaLength)
	for _, r := range answer {
		assert.True(t, strings.ContainsRune(captchaAlphabet, r))
	}
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, AuthOptions{})

	login, err := f.service.Login(ctx, model.LoginRequest{Username: "marketing", Password: testPassword})
	require.NoError(t, err)

	f.now = f.now.Add(30 * time.Minute)
	refreshed, err := f.service.Refresh(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, login.UserID, refreshed.UserID)
	assert.Equal(t, f.now.Add(time.Hour), refreshed.ExpiresAt)

	f.now = f.now.Add(2 * time.Hour)
	_, err = f.service.Refresh(ctx, refreshed.Token)
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))
}

func TestProfileAndListUsers(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, AuthOptions{})

	login, err := f.service.Login(ctx, model.LoginRequest{Username: "admin", Password: testPassword})
	require.NoError(t, err)

	profile, err := f.service.Profile(ctx, model.Claims{Subject: login.UserID})
	require.NoError(t, err)
	assert.Equal(t, "admin", profile.Username)

	_, err = f.service.Profile(ctx, model.Claims{Subject: "missing"})
	assert.Equal(t, http.StatusNotFound, statusOf(err))

	users, err := f.service.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, len(model.Roles()))
}

// captchaAnswer reads the code back out of the SVG data URL.
func captchaAnswer(t *testing.T, captcha model.Captcha) string {
	t.Helper()

	svg, err := url.PathUnescape(strings.TrimPrefix(captcha.CaptchaURL, "data:image/svg+xml;utf8,"))
	require.NoError(t, err)

	end := strings.Index(svg, "</text>")
	require.NotEqual(t, -1, end)

	open := strings.LastIndex(svg[:end], ">")
	return svg[open+1 : end]
}
