package services

import "context"

type contextKey string

const (
	runIDKey  contextKey = "run_id"
	stepKey   contextKey = "step"
	entityKey contextKey = "entity"
)

// WithRunID annotates context with the pipeline run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the pipeline run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStep annotates context with the pipeline step name.
func WithStep(ctx context.Context, step string) context.Context {
	if step == "" {
		return ctx
	}
	return context.WithValue(ctx, stepKey, step)
}

// StepFromContext returns the step name if present.
func StepFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stepKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithEntity annotates context with the entity kind being processed (fish, rods, ...).
func WithEntity(ctx context.Context, kind string) context.Context {
	if kind == "" {
		return ctx
	}
	return context.WithValue(ctx, entityKey, kind)
}

// EntityFromContext returns the entity kind if present.
func EntityFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(entityKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}
