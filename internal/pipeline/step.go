package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fischpipe/internal/services"
)

// Status is the terminal state of a step.
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// Output carries what an executor reports back: a short summary plus bounded
// tails of any captured process output.
type Output struct {
	Summary    string
	StdoutTail string
	StderrTail string
}

// Executor performs the work of one step.
type Executor interface {
	Execute(ctx context.Context) (Output, error)
}

// PreCheck returns a non-nil error when a step should be skipped. The error
// text becomes the skip reason.
type PreCheck func(ctx context.Context) error

// Step declares one unit of pipeline work.
type Step struct {
	Name      string
	Executor  Executor
	Output    string
	PreCheck  PreCheck
	DependsOn string
	Timeout   time.Duration
	// Summarize overrides the default summary, which is the executor's own
	// summary or the record count of Output.
	Summarize func(Step) string
	// Adapter marks source adapter steps eligible for batching.
	Adapter bool
}

// StepResult is the persisted outcome of one step.
type StepResult struct {
	Status    Status `json:"status"`
	Summary   string `json:"summary,omitempty"`
	Reason    string `json:"reason,omitempty"`
	ElapsedMS int64  `json:"elapsedMs"`
}

// validateSteps enforces non-empty unique names, a present executor, and
// dependsOn references that point at an earlier step. The last rule keeps
// the dependency graph acyclic.
func validateSteps(steps []Step) error {
	if len(steps) == 0 {
		return services.Wrap(services.ErrConfiguration, "pipeline", "validate", "no steps declared", nil)
	}
	seen := make(map[string]struct{}, len(steps))
	for i, step := range steps {
		name := strings.TrimSpace(step.Name)
		if name == "" {
			return services.Wrap(services.ErrConfiguration, "pipeline", "validate", fmt.Sprintf("step %d has no name", i), nil)
		}
		if name != step.Name {
			return services.Wrap(services.ErrConfiguration, "pipeline", "validate", fmt.Sprintf("step name %q has surrounding whitespace", step.Name), nil)
		}
		if _, dup := seen[name]; dup {
			return services.Wrap(services.ErrConfiguration, "pipeline", "validate", fmt.Sprintf("duplicate step name %q", name), nil)
		}
		if step.Executor == nil {
			return services.Wrap(services.ErrConfiguration, "pipeline", "validate", fmt.Sprintf("step %q has no executor", name), nil)
		}
		if step.Timeout < 0 {
			return services.Wrap(services.ErrConfiguration, "pipeline", "validate", fmt.Sprintf("step %q has a negative timeout", name), nil)
		}
		if step.DependsOn != "" {
			if step.DependsOn == name {
				return services.Wrap(services.ErrConfiguration, "pipeline", "validate", fmt.Sprintf("step %q depends on itself", name), nil)
			}
			if _, ok := seen[step.DependsOn]; !ok {
				return services.Wrap(services.ErrConfiguration, "pipeline", "validate",
					fmt.Sprintf("step %q depends on %q, which is not an earlier step", name, step.DependsOn), nil)
			}
		}
		seen[name] = struct{}{}
	}
	return nil
}
