// Package health serves liveness and readiness probes for the demo server.
package health

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Checks maps a dependency name to a probe, e.g. redis.Healthcheck(client).
type Checks map[string]func(ctx context.Context) error

// Report is the JSON body of a probe response.
type Report struct {
	Checks map[string]string `json:"checks,omitempty"`
	Status string            `json:"status"`
}

// Liveness always reports healthy while the process serves requests.
func Liveness(w http.ResponseWriter, _ *http.Request) {
	writeReport(w, &Report{Status: StatusHealthy})
}

// Readiness returns a handler running every check concurrently within timeout.
// Any failing check turns the response into 503.
func Readiness(checks Checks, timeout time.Duration, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		report := &Report{Status: StatusHealthy, Checks: make(map[string]string, len(checks))}
		var mu sync.Mutex

		var g errgroup.Group
		for name, check := range checks {
			g.Go(func() error {
				status := StatusHealthy
				if err := check(ctx); err != nil {
					status = StatusUnhealthy
					logger.WarnContext(ctx, "health check failed",
						slog.String("check", name),
						slog.Any("error", err),
					)
				}

				mu.Lock()
				defer mu.Unlock()
				report.Checks[name] = status
				if status == StatusUnhealthy {
					report.Status = StatusUnhealthy
				}
				return nil
			})
		}
		_ = g.Wait()

		writeReport(w, report)
	}
}

func writeReport(w http.ResponseWriter, report *Report) {
	status := http.StatusOK
	if report.Status != StatusHealthy {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(report)
}
