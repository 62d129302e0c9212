package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gws "github.com/gorilla/websocket"

	"saas-backoffice/internal/authz"
	"saas-backoffice/internal/model"
	"saas-backoffice/internal/pipeline"
	"saas-backoffice/internal/token"
	"saas-backoffice/internal/websocket"
	"saas-backoffice/pkg/apierror"
)

type tokenDecoder interface {
	Decode(raw string) (model.Claims, error)
}

type authorizer interface {
	Authorize(claims model.Claims, path string) authz.Decision
}

// Authenticator validates the bearer token and then asks the resolver
// whether the identity may reach the path. Public paths skip both steps.
type Authenticator struct {
	decoder     tokenDecoder
	authorizer  authorizer
	publicPaths map[string]struct{}
}

func NewAuthenticator(decoder tokenDecoder, authorizer authorizer, publicPaths []string) *Authenticator {
	public := make(map[string]struct{}, len(publicPaths))
	for _, path := range publicPaths {
		path = strings.TrimSpace(path)
		if path != "" {
			public[path] = struct{}{}
		}
	}

	return &Authenticator{
		decoder:     decoder,
		authorizer:  authorizer,
		publicPaths: public,
	}
}

func (m *Authenticator) Name() string { return "authenticator" }

func (m *Authenticator) IsPublic(path string) bool {
	_, ok := m.publicPaths[path]
	return ok
}

func (m *Authenticator) Handle(c *pipeline.Context) error {
	if m.IsPublic(c.Request.URL.Path) {
		return c.Next()
	}

	claims, authErr := m.Authenticate(c.Request)
	if authErr != nil {
		return authErr
	}

	c.Request = c.Request.WithContext(WithClaims(c.Request.Context(), claims))

	if m.authorizer.Authorize(claims, c.Request.URL.Path) != authz.Allow {
		slog.Warn("access denied",
			"request_id", RequestIDFromContext(c.Request.Context()),
			"path", c.Request.URL.Path,
			"user_id", claims.Subject,
			"role", claims.Role.String(),
		)
		return apierror.Forbidden("forbidden")
	}

	return c.Next()
}

// Authenticate extracts and decodes the bearer token. Expired and invalid
// tokens are logged differently but answered with the same 401.
func (m *Authenticator) Authenticate(r *http.Request) (model.Claims, *apierror.APIError) {
	raw, ok := bearerToken(r)
	if !ok {
		return model.Claims{}, apierror.Unauthorized("no token provided")
	}

	claims, err := m.decoder.Decode(raw)
	if err != nil {
		reason := "invalid"
		if errors.Is(err, token.ErrExpired) {
			reason = "expired"
		}
		slog.Info("token rejected",
			"request_id", RequestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"reason", reason,
		)
		return model.Claims{}, apierror.Unauthorized("invalid or expired token")
	}

	return claims, nil
}

// bearerToken reads the Authorization header. Browsers cannot set that
// header on a websocket handshake, so an upgrade may instead offer the
// subprotocols "bearer" followed by the token.
func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" && gws.IsWebSocketUpgrade(r) {
		return subprotocolToken(r)
	}
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}

	raw := strings.TrimSpace(header[7:])
	if raw == "" {
		return "", false
	}

	return raw, true
}

func subprotocolToken(r *http.Request) (string, bool) {
	protocols := gws.Subprotocols(r)
	for i := 0; i+1 < len(protocols); i++ {
		if protocols[i] == websocket.BearerSubprotocol && protocols[i+1] != "" {
			return protocols[i+1], true
		}
	}
	return "", false
}
