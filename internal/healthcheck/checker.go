package healthcheck

import (
	"context"
	"time"
)

const (
	// StatusOK indicates check passed.
	StatusOK = "ok"
	// StatusWarn indicates check completed with warning.
	StatusWarn = "warn"
	// StatusError indicates check failed.
	StatusError = "error"
)

// CheckResult is one readiness check item produced by a checker.
type CheckResult struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Status   string         `json:"status"`
	Summary  string         `json:"summary"`
	Detail   string         `json:"detail,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Checker evaluates one or more readiness checks.
type Checker interface {
	ListChecks(ctx context.Context) []CheckResult
}

// Report is the aggregate of every checker.
type Report struct {
	Status string        `json:"status"`
	Checks []CheckResult `json:"checks"`
}

// DefaultTimeout bounds a whole Run.
const DefaultTimeout = 3 * time.Second

// Run evaluates checkers in order. The report is an error when any check
// failed and a warning when any check warned.
func Run(ctx context.Context, checkers ...Checker) Report {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	report := Report{Status: StatusOK, Checks: []CheckResult{}}
	for _, checker := range checkers {
		if checker == nil {
			continue
		}
		for _, item := range checker.ListChecks(ctx) {
			switch item.Status {
			case StatusError:
				report.Status = StatusError
			case StatusWarn:
				if report.Status == StatusOK {
					report.Status = StatusWarn
				}
			}
			report.Checks = append(report.Checks, item)
		}
	}
	return report
}
