package health

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/testportal/core/handler"
	"github.com/dmitrymomot/testportal/core/logger"
	"github.com/dmitrymomot/testportal/core/response"
)

// Check is one named readiness dependency.
type Check struct {
	Name string
	Fn   func(context.Context) error
}

// Report is the readiness response body.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

const (
	statusUp   = "ok"
	statusDown = "unavailable"
)

// Liveness reports that the process is running.
func Liveness[C handler.Context](C) handler.Response {
	return response.JSON(Report{Status: statusUp}, http.StatusOK)
}

// Readiness runs every check and answers 200 when all pass, 503 otherwise.
// Check error details are logged, never returned.
func Readiness[C handler.Context](log *slog.Logger, timeout time.Duration, checks ...Check) handler.HandlerFunc[C] {
	if log == nil {
		log = logger.Nop()
	}

	return func(ctx C) handler.Response {
		report := Run(ctx, log, timeout, checks...)
		status := http.StatusOK
		if report.Status != statusUp {
			status = http.StatusServiceUnavailable
		}
		return response.JSON(report, status)
	}
}

// Run executes checks concurrently. A non-positive timeout means no limit
// beyond ctx.
func Run(ctx context.Context, log *slog.Logger, timeout time.Duration, checks ...Check) Report {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	report := Report{Status: statusUp, Checks: make(map[string]string, len(checks))}
	var mu sync.Mutex

	// Plain group: one failing check must not cancel the others.
	var g errgroup.Group
	for _, c := range checks {
		g.Go(func() error {
			result := statusUp
			if err := c.Fn(ctx); err != nil {
				result = statusDown
				log.ErrorContext(ctx, "readiness check failed",
					logger.Component("health"),
					logger.Key("check", c.Name),
					logger.Error(err),
				)
			}
			mu.Lock()
			report.Checks[c.Name] = result
			if result != statusUp {
				report.Status = statusDown
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return report
}
