package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"saas-backoffice/internal/event"
	"saas-backoffice/internal/model"
	"saas-backoffice/pkg/apierror"
)

const (
	captchaAlphabet   = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	captchaLength     = 6
	DefaultCaptchaTTL = 5 * time.Minute

	invalidLoginMessage   = "invalid username or password"
	invalidCaptchaMessage = "invalid or expired captcha"
)

// unknownUserHash is compared against when the username does not exist, so
// both failure paths pay for one bcrypt comparison.
var unknownUserHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("backoffice-unknown-user"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("generate unknown user hash: %v", err))
	}
	return hash
})

type userStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	List(ctx context.Context) ([]model.AuthUser, error)
}

type captchaStore interface {
	Save(ctx context.Context, sessionID string, answer string, ttl time.Duration) error
	Take(ctx context.Context, sessionID string) (string, error)
}

type tokenCodec interface {
	Issue(claims model.Claims) (string, model.Claims, error)
	Decode(raw string) (model.Claims, error)
}

type AuthOptions struct {
	CaptchaRequired bool
	CaptchaTTL      time.Duration
}

// AuthService checks credentials and captchas and issues bearer tokens.
// It keeps no session state; a token stays valid until it expires.
type AuthService struct {
	users    userStore
	captchas captchaStore
	codec    tokenCodec
	events   event.Publisher
	opts     AuthOptions
	compare  func(hash []byte, password []byte) error
}

func NewAuthService(users userStore, captchas captchaStore, codec tokenCodec, events event.Publisher, opts AuthOptions) *AuthService {
	if opts.CaptchaTTL <= 0 {
		opts.CaptchaTTL = DefaultCaptchaTTL
	}

	return &AuthService{
		users:    users,
		captchas: captchas,
		codec:    codec,
		events:   events,
		opts:     opts,
		compare:  bcrypt.CompareHashAndPassword,
	}
}

func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.LoginResult, error) {
	if err := s.checkCaptcha(ctx, req.SessionID, req.Captcha); err != nil {
		s.publishLogin(event.TypeLoginFailed, req.Username, "captcha")
		return model.LoginResult{}, err
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		_ = s.verifyPassword(unknownUserHash(), req.Password)
		s.publishLogin(event.TypeLoginFailed, req.Username, "unknown_user")
		return model.LoginResult{}, apierror.Unauthorized(invalidLoginMessage)
	case err != nil:
		return model.LoginResult{}, fmt.Errorf("load user: %w", err)
	}

	if err := s.verifyPassword([]byte(user.PasswordHash), req.Password); err != nil {
		s.publishLogin(event.TypeLoginFailed, req.Username, "password")
		return model.LoginResult{}, apierror.Unauthorized(invalidLoginMessage)
	}

	raw, claims, err := s.codec.Issue(model.Claims{
		Subject:  user.ID,
		Username: user.Username,
		TenantID: user.TenantID,
		Role:     user.Role,
	})
	if err != nil {
		return model.LoginResult{}, fmt.Errorf("issue token: %w", err)
	}

	s.publishLogin(event.TypeLoginSucceeded, user.Username, "")
	return loginResult(raw, claims), nil
}

// Refresh exchanges a still valid token for a new one with a fresh expiry.
// The account must still exist and its current role is used.
func (s *AuthService) Refresh(ctx context.Context, raw string) (model.LoginResult, error) {
	claims, err := s.codec.Decode(strings.TrimSpace(raw))
	if err != nil {
		return model.LoginResult{}, apierror.Unauthorized("invalid or expired token")
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.LoginResult{}, apierror.Unauthorized("invalid or expired token")
		}
		return model.LoginResult{}, fmt.Errorf("load user: %w", err)
	}

	fresh, issued, err := s.codec.Issue(model.Claims{
		Subject:  user.ID,
		Username: user.Username,
		TenantID: user.TenantID,
		Role:     user.Role,
	})
	if err != nil {
		return model.LoginResult{}, fmt.Errorf("issue token: %w", err)
	}

	return loginResult(fresh, issued), nil
}

func (s *AuthService) NewCaptcha(ctx context.Context) (model.Captcha, error) {
	answer, err := randomCode(captchaLength)
	if err != nil {
		return model.Captcha{}, fmt.Errorf("generate captcha: %w", err)
	}

	sessionID := uuid.NewString()
	if err := s.captchas.Save(ctx, sessionID, answer, s.opts.CaptchaTTL); err != nil {
		return model.Captcha{}, err
	}

	return model.Captcha{SessionID: sessionID, CaptchaURL: captchaDataURL(answer)}, nil
}

func (s *AuthService) Profile(ctx context.Context, claims model.Claims) (model.AuthUser, error) {
	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.AuthUser{}, apierror.NotFound("user not found")
		}
		return model.AuthUser{}, fmt.Errorf("load profile: %w", err)
	}
	return user.Public(), nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]model.AuthUser, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// checkCaptcha consumes the captcha for the session. When captchas are
// optional a request without one passes, but a supplied one is still checked.
func (s *AuthService) checkCaptcha(ctx context.Context, sessionID string, answer string) error {
	if sessionID == "" && answer == "" && !s.opts.CaptchaRequired {
		return nil
	}
	if sessionID == "" || answer == "" {
		return apierror.Validation("captcha and session_id are required")
	}

	if err := s.verifyCaptcha(ctx, sessionID, answer); err != nil {
		if errors.Is(err, model.ErrCaptchaNotFound) || errors.Is(err, model.ErrCaptchaMismatch) {
			slog.Debug("captcha rejected", "session_id", sessionID, "reason", err)
			return apierror.Unauthorized(invalidCaptchaMessage)
		}
		return fmt.Errorf("load captcha: %w", err)
	}
	return nil
}

func (s *AuthService) verifyCaptcha(ctx context.Context, sessionID string, answer string) error {
	expected, err := s.captchas.Take(ctx, sessionID)
	if err != nil {
		return err
	}
	if !strings.EqualFold(expected, answer) {
		return model.ErrCaptchaMismatch
	}
	return nil
}

func (s *AuthService) verifyPassword(hash []byte, password string) error {
	if err := s.compare(hash, []byte(password)); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidCredentials, err)
	}
	return nil
}

func (s *AuthService) publishLogin(kind event.Type, username string, reason string) {
	if kind == event.TypeLoginFailed {
		slog.Warn("login failed", "username", username, "reason", reason)
	}
	if s.events == nil {
		return
	}

	s.events.Publish(event.Event{
		ID:        uuid.NewString(),
		Type:      kind,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		ActorID:   username,
		Payload:   map[string]string{"username": username, "reason": reason},
	})
}

func loginResult(raw string, claims model.Claims) model.LoginResult {
	return model.LoginResult{
		Token:     raw,
		UserID:    claims.Subject,
		Username:  claims.Username,
		TenantID:  claims.TenantID,
		Role:      claims.Role,
		Roles:     []model.Role{claims.Role},
		ExpiresAt: claims.ExpiresAt,
	}
}

func randomCode(length int) (string, error) {
	limit := big.NewInt(int64(len(captchaAlphabet)))

	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(captchaAlphabet[n.Int64()])
	}
	return b.String(), nil
}

func captchaDataURL(answer string) string {
	svg := `<svg xmlns="http://www.w3.org/2000/svg" width="100" height="40">` +
		`<text x="50%" y="50%" dominant-baseline="middle" text-anchor="middle" ` +
		`font-family="Arial" font-size="24" fill="#1677ff">` + answer + `</text></svg>`
	return "data:image/svg+xml;utf8," + url.PathEscape(svg)
}
