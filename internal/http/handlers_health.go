package httpx

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker reports the availability of one backing dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthCheckerFunc adapts a function to the HealthChecker interface.
type HealthCheckerFunc func(ctx context.Context) error

// Health implements HealthChecker.
func (f HealthCheckerFunc) Health(ctx context.Context) error {
	return f(ctx)
}

// HealthHandlers serves liveness and readiness checks.
type HealthHandlers struct {
	// Checks maps a dependency name to its checker. Readiness fails when any
	// check fails.
	Checks map[string]HealthChecker
}

// Live returns 200 while the process is up.
func (h *HealthHandlers) Live(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready probes every backing dependency and reports per-dependency status.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.Checks))
	for name, check := range h.Checks {
		if err := check.Health(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	body := map[string]any{"status": "ok", "dependencies": deps}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	WriteJSON(w, status, body)
}
