package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"fischpipe/internal/artifact"
	"fischpipe/internal/logging"
	"fischpipe/internal/services"
	"fischpipe/internal/store"
)

// ErrLocked is returned when another invocation holds the pipeline lock.
var ErrLocked = errors.New("another pipeline run is in progress")

// RunRecorder persists run history.
type RunRecorder interface {
	RecordRun(ctx context.Context, run store.Run) error
}

// Options configures a Runner. Every path is optional; an empty path disables
// the corresponding persistence.
type Options struct {
	RunLogPath     string
	ResumePath     string
	LockPath       string
	BatchSize      int
	Recorder       RunRecorder
	Publish        Executor
	PublishTimeout time.Duration
	Now            func() time.Time
	NewRunID       func() string
}

// Runner executes a validated step list.
type Runner struct {
	steps  []Step
	opts   Options
	logger *slog.Logger
}

// New validates steps and returns a Runner.
func New(steps []Step, opts Options, logger *slog.Logger) (*Runner, error) {
	if err := validateSteps(steps); err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewRunID == nil {
		opts.NewRunID = uuid.NewString
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		steps:  append([]Step(nil), steps...),
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}, nil
}

// Steps returns the declared steps.
func (r *Runner) Steps() []Step { return append([]Step(nil), r.steps...) }

// Run executes the steps once. The returned error covers only conditions that
// prevent a run from happening at all (lock contention, unreadable resume
// pointer) or parent context cancellation; step failures are reported in the
// RunLog.
func (r *Runner) Run(ctx context.Context) (*RunLog, error) {
	if r.opts.LockPath != "" {
		lock := flock.New(r.opts.LockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w (lock %s)", ErrLocked, r.opts.LockPath)
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				r.logger.Warn("failed to release pipeline lock", logging.Error(err))
			}
		}()
	}

	planned, lastIndex, batched, err := r.plan()
	if err != nil {
		return nil, err
	}

	started := r.opts.Now()
	runLog := newRunLog(r.opts.NewRunID(), started)
	ctx = services.WithRunID(ctx, runLog.RunID)
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("pipeline run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("steps", len(planned)),
		logging.Bool("batched", batched),
	)

	for _, step := range planned {
		if ctx.Err() != nil {
			runLog.add(step.Name, StepResult{Status: StatusSkipped, Reason: "run cancelled"})
			continue
		}
		result, detail := r.runStep(ctx, step, runLog.StepResults)
		runLog.add(step.Name, result)
		if detail != nil {
			runLog.Details = append(runLog.Details, *detail)
		}
	}

	if batched && r.opts.ResumePath != "" && ctx.Err() == nil {
		if err := SaveResume(r.opts.ResumePath, ResumePointer{LastIndex: lastIndex}); err != nil {
			logging.WarnWithContext(logger, "failed to persist resume pointer", "resume_save_failed",
				logging.String("path", r.opts.ResumePath),
				logging.Error(err),
				logging.String(logging.FieldImpact, "next batch restarts from the previous pointer"),
			)
		}
	}

	if runLog.Succeeded() && r.opts.Publish != nil && ctx.Err() == nil {
		r.publish(ctx, logger, runLog)
	}

	runLog.TotalElapsedMS = r.opts.Now().Sub(started).Milliseconds()
	r.persist(ctx, logger, runLog)

	logger.Info("pipeline run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("ok", runLog.OK),
		logging.Int("skipped", runLog.Skipped),
		logging.Int("errors", runLog.Errors),
		logging.Bool("published", runLog.Published),
		logging.Int64("elapsed_ms", runLog.TotalElapsedMS),
	)
	if err := ctx.Err(); err != nil {
		return runLog, err
	}
	return runLog, nil
}

// plan applies batching: adapter steps outside the current batch are left
// out of this run entirely. It returns the steps to run, the resume index to
// persist and whether batching was in effect.
func (r *Runner) plan() ([]Step, int, bool, error) {
	var adapters []int
	for i, step := range r.steps {
		if step.Adapter {
			adapters = append(adapters, i)
		}
	}
	if r.opts.BatchSize <= 0 || r.opts.BatchSize >= len(adapters) {
		return r.steps, -1, false, nil
	}

	ptr := ResumePointer{LastIndex: -1}
	if r.opts.ResumePath != "" {
		var err error
		if ptr, err = LoadResume(r.opts.ResumePath); err != nil {
			return nil, 0, false, fmt.Errorf("load resume pointer: %w", err)
		}
	}
	last := ptr.LastIndex
	if last >= len(adapters) {
		last = -1
	}
	batch := nextBatch(len(adapters), r.opts.BatchSize, last)
	include := make(map[int]struct{}, len(batch))
	for _, idx := range batch {
		include[adapters[idx]] = struct{}{}
	}

	planned := make([]Step, 0, len(r.steps)-len(adapters)+len(batch))
	for i, step := range r.steps {
		if step.Adapter {
			if _, ok := include[i]; !ok {
				continue
			}
		}
		planned = append(planned, step)
	}
	return planned, batch[len(batch)-1], true, nil
}

func (r *Runner) runStep(ctx context.Context, step Step, results map[string]StepResult) (StepResult, *Detail) {
	stepCtx := services.WithStep(ctx, step.Name)
	logger := logging.WithContext(stepCtx, r.logger)

	if step.DependsOn != "" {
		// A dependency left out by batching does not block the step.
		if dep, ran := results[step.DependsOn]; ran && dep.Status != StatusOK {
			reason := fmt.Sprintf("dependency %s %s", step.DependsOn, dependencyVerb(dep.Status))
			logger.Info("step skipped",
				logging.String(logging.FieldEventType, "step_skipped"),
				logging.String("reason", reason),
			)
			return StepResult{Status: StatusSkipped, Reason: reason}, nil
		}
	}

	if step.PreCheck != nil {
		if err := step.PreCheck(stepCtx); err != nil {
			reason := "pre-check failed: " + err.Error()
			logger.Info("step skipped",
				logging.String(logging.FieldEventType, "step_skipped"),
				logging.String("reason", reason),
			)
			return StepResult{Status: StatusSkipped, Reason: reason}, nil
		}
	}

	logger.Info("step started", logging.String(logging.FieldEventType, "step_start"))
	start := time.Now()

	execCtx := stepCtx
	cancel := context.CancelFunc(func() {})
	if step.Timeout > 0 {
		execCtx, cancel = context.WithTimeout(stepCtx, step.Timeout)
	}
	out, err := step.Executor.Execute(execCtx)
	timedOut := errors.Is(execCtx.Err(), context.DeadlineExceeded)
	cancel()
	elapsed := time.Since(start)

	if err == nil && timedOut {
		err = services.Wrap(services.ErrTimeout, step.Name, "execute", fmt.Sprintf("exceeded %s", step.Timeout), context.DeadlineExceeded)
	}
	if err == nil && step.Output != "" && !artifact.Exists(step.Output) {
		err = services.Wrap(services.ErrStep, step.Name, "execute", "output artifact not produced: "+step.Output, nil)
	}
	if err != nil {
		message := err.Error()
		if timedOut && !errors.Is(err, services.ErrTimeout) {
			message = fmt.Sprintf("timed out after %s: %s", step.Timeout, message)
		}
		logging.ErrorWithContext(logger, "step failed", "step_failure",
			logging.String("error_kind", services.Kind(err)),
			logging.Duration("step_duration", elapsed),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect stderrTail in the run log"),
		)
		return StepResult{Status: StatusError, Reason: message, ElapsedMS: elapsed.Milliseconds()},
			&Detail{
				Step:       step.Name,
				Error:      message,
				StdoutTail: out.StdoutTail,
				StderrTail: out.StderrTail,
				ElapsedMS:  elapsed.Milliseconds(),
			}
	}

	summary := summarize(step, out)
	logger.Info("step completed",
		logging.String(logging.FieldEventType, "step_complete"),
		logging.String("summary", summary),
		logging.Duration("step_duration", elapsed),
	)
	return StepResult{Status: StatusOK, Summary: summary, ElapsedMS: elapsed.Milliseconds()}, nil
}

func dependencyVerb(status Status) string {
	if status == StatusError {
		return "failed"
	}
	return string(status)
}

func summarize(step Step, out Output) string {
	if step.Summarize != nil {
		return step.Summarize(step)
	}
	if s := strings.TrimSpace(out.Summary); s != "" {
		return s
	}
	if step.Output == "" {
		return ""
	}
	n, err := artifact.Count(step.Output)
	if err != nil {
		return "output unreadable: " + err.Error()
	}
	return fmt.Sprintf("%d records", n)
}

func (r *Runner) publish(ctx context.Context, logger *slog.Logger, runLog *RunLog) {
	pubCtx := services.WithStep(ctx, "publish")
	cancel := context.CancelFunc(func() {})
	if r.opts.PublishTimeout > 0 {
		pubCtx, cancel = context.WithTimeout(pubCtx, r.opts.PublishTimeout)
	}
	defer cancel()

	logger.Info("publish started", logging.String(logging.FieldEventType, "publish_start"))
	out, err := r.opts.Publish.Execute(pubCtx)
	if err != nil {
		runLog.PublishError = err.Error()
		logging.ErrorWithContext(logger, "publish failed", "publish_failure",
			logging.Error(err),
			logging.String("stderr_tail", out.StderrTail),
			logging.String(logging.FieldImpact, "corpus not published; previous corpus stays live"),
		)
		return
	}
	runLog.Published = true
	logger.Info("publish completed",
		logging.String(logging.FieldEventType, "publish_complete"),
		logging.String("summary", out.Summary),
	)
}

func (r *Runner) persist(ctx context.Context, logger *slog.Logger, runLog *RunLog) {
	if r.opts.RunLogPath != "" {
		if err := artifact.WriteJSON(r.opts.RunLogPath, runLog); err != nil {
			logging.ErrorWithContext(logger, "failed to write run log", "run_log_write_failed",
				logging.String("path", r.opts.RunLogPath),
				logging.Error(err),
			)
		}
	}
	if r.opts.Recorder != nil {
		// The run is recorded even when the parent context was cancelled.
		if err := r.opts.Recorder.RecordRun(context.WithoutCancel(ctx), runLog.storeRun()); err != nil {
			logging.WarnWithContext(logger, "failed to record run history", "run_history_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "run missing from history"),
			)
		}
	}
}
