package pipeline

import (
	"fmt"
	"time"

	"fischpipe/internal/store"
)

// Detail records diagnostics for a step that errored.
type Detail struct {
	Step       string `json:"step"`
	Error      string `json:"error"`
	StdoutTail string `json:"stdoutTail,omitempty"`
	StderrTail string `json:"stderrTail,omitempty"`
	ElapsedMS  int64  `json:"elapsed"`
}

// RunLog is the persisted record of one pipeline invocation.
type RunLog struct {
	RunID          string                `json:"runId"`
	Timestamp      time.Time             `json:"timestamp"`
	TotalSteps     int                   `json:"totalSteps"`
	OK             int                   `json:"ok"`
	Skipped        int                   `json:"skipped"`
	Errors         int                   `json:"errors"`
	TotalElapsedMS int64                 `json:"totalElapsed"`
	Details        []Detail              `json:"details"`
	StepResults    map[string]StepResult `json:"stepResults"`
	StepOrder      []string              `json:"stepOrder"`
	Published      bool                  `json:"published"`
	PublishError   string                `json:"publishError,omitempty"`
}

func newRunLog(runID string, started time.Time) *RunLog {
	return &RunLog{
		RunID:       runID,
		Timestamp:   started.UTC(),
		Details:     []Detail{},
		StepResults: make(map[string]StepResult),
		StepOrder:   []string{},
	}
}

func (l *RunLog) add(name string, result StepResult) {
	l.StepResults[name] = result
	l.StepOrder = append(l.StepOrder, name)
	l.TotalSteps++
	switch result.Status {
	case StatusOK:
		l.OK++
	case StatusSkipped:
		l.Skipped++
	case StatusError:
		l.Errors++
	}
}

// Headline is a one-line human summary of the run.
func (l *RunLog) Headline() string {
	return fmt.Sprintf("%d steps: %d ok, %d skipped, %d errors in %s",
		l.TotalSteps, l.OK, l.Skipped, l.Errors,
		(time.Duration(l.TotalElapsedMS) * time.Millisecond).Round(time.Millisecond))
}

// Succeeded reports whether every executed step finished without error.
func (l *RunLog) Succeeded() bool { return l.Errors == 0 }

func (l *RunLog) storeRun() store.Run {
	run := store.Run{
		ID:         l.RunID,
		StartedAt:  l.Timestamp,
		TotalSteps: l.TotalSteps,
		OK:         l.OK,
		Skipped:    l.Skipped,
		Errors:     l.Errors,
		Elapsed:    time.Duration(l.TotalElapsedMS) * time.Millisecond,
		Published:  l.Published,
		Steps:      make([]store.StepRow, 0, len(l.StepOrder)),
	}
	for _, name := range l.StepOrder {
		res := l.StepResults[name]
		run.Steps = append(run.Steps, store.StepRow{
			Name:    name,
			Status:  string(res.Status),
			Summary: res.Summary,
			Reason:  res.Reason,
			Elapsed: time.Duration(res.ElapsedMS) * time.Millisecond,
		})
	}
	return run
}
