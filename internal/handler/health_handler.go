package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"saas-backoffice/pkg/apierror"
)

const defaultHealthTimeout = 2 * time.Second

// HealthCheck probes one backing service.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type healthView struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type HealthHandler struct {
	checks  []HealthCheck
	timeout time.Duration
}

func NewHealthHandler(checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: defaultHealthTimeout}
}

// Get answers 200 when every dependency responds and 503 naming the ones
// that did not.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) error {
	view := healthView{Status: "ok"}
	var down []string

	for _, check := range h.checks {
		if view.Checks == nil {
			view.Checks = make(map[string]string, len(h.checks))
		}

		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		err := check.Check(ctx)
		cancel()

		if err != nil {
			slog.Warn("health check failed", "dependency", check.Name, "error", err)
			view.Checks[check.Name] = "unavailable"
			down = append(down, check.Name)
			continue
		}
		view.Checks[check.Name] = "ok"
	}

	if len(down) > 0 {
		return apierror.New(http.StatusServiceUnavailable, "DEPENDENCY_UNAVAILABLE",
			"dependency unavailable: "+strings.Join(down, ","))
	}

	return writeOK(w, view)
}
