//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"saas-backoffice/internal/app"
	"saas-backoffice/internal/config"
)

const demoPassword = "123456"

// testConfig runs against PostgreSQL and Redis when TEST_DATABASE_URL and
// TEST_REDIS_ADDR are set, and against the in-memory stores otherwise.
func testConfig() *config.Config {
	return &config.Config{
		ServerPort:       "0",
		ShutdownTimeout:  time.Second,
		RequestTimeout:   5 * time.Second,
		JWTSecret:        "integration-secret",
		JWTIssuer:        "saas-backoffice",
		JWTTTL:           time.Hour,
		PublicPaths:      []string{"/api/auth/login", "/api/auth/captcha", "/api/auth/refresh-token", "/health"},
		CORSOrigins:      []string{"https://console.example.com"},
		RateLimitRPM:     1000,
		AuthRateLimitRPM: 1000,
		CaptchaTTL:       5 * time.Minute,
		SeedDemoUsers:    true,
		DemoPassword:     demoPassword,
		DatabaseURL:      os.Getenv("TEST_DATABASE_URL"),
		DBMaxConns:       4,
		DBMinConns:       1,
		RedisAddr:        os.Getenv("TEST_REDIS_ADDR"),
		AuditBuffer:      64,
		AuditCapacity:    100,
	}
}

func newServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()

	application, err := app.NewWithConfig(context.Background(), cfg, app.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)

	server := httptest.NewServer(application.Handler())
	t.Cleanup(func() {
		server.Close()
		application.Close()
	})
	return server
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, method string, url string, body any, token string) (*http.Response, envelope) {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}

	req, err := http.NewRequest(method, url, &payload)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var parsed envelope
	if resp.ContentLength != 0 && resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	}
	return resp, parsed
}

func loginAs(t *testing.T, server *httptest.Server, username string) string {
	t.Helper()

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/auth/login",
		map[string]string{"username": username, "password": demoPassword}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}
