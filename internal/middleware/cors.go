package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/cors"

	"saas-backoffice/internal/pipeline"
)

const corsMaxAge = 86400

var (
	corsAllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	corsAllowedHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
)

// CORS sets the cross-origin headers on every response and answers every
// OPTIONS request itself with 200, so preflights never reach authentication.
type CORS struct {
	matcher  *cors.Cors
	origins  []string
	allowAll bool
}

func NewCORS(origins []string) *CORS {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	allowAll := false
	for _, origin := range origins {
		if origin == "*" {
			allowAll = true
		}
	}

	return &CORS{
		matcher: cors.New(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   corsAllowedMethods,
			AllowedHeaders:   corsAllowedHeaders,
			AllowCredentials: true,
			MaxAge:           corsMaxAge,
		}),
		origins:  origins,
		allowAll: allowAll,
	}
}

func (m *CORS) Name() string { return "cors" }

func (m *CORS) Handle(c *pipeline.Context) error {
	header := c.Writer.Header()
	if origin := m.allowOrigin(c.Request); origin != "" {
		header.Set("Access-Control-Allow-Origin", origin)
		header.Add("Vary", "Origin")
	}
	header.Set("Access-Control-Allow-Methods", strings.Join(corsAllowedMethods, ","))
	header.Set("Access-Control-Allow-Headers", strings.Join(corsAllowedHeaders, ","))
	header.Set("Access-Control-Allow-Credentials", "true")
	header.Set("Access-Control-Max-Age", strconv.Itoa(corsMaxAge))

	if c.Request.Method == http.MethodOptions {
		c.Writer.WriteHeader(http.StatusOK)
		return nil
	}

	return c.Next()
}

// allowOrigin echoes an allowed request origin; credentialed responses may
// not use the wildcard when the browser sent an Origin.
func (m *CORS) allowOrigin(r *http.Request) string {
	origin := r.Header.Get("Origin")
	if origin == "" {
		if m.allowAll {
			return "*"
		}
		return m.origins[0]
	}

	if m.matcher.OriginAllowed(r) {
		return origin
	}

	return ""
}
