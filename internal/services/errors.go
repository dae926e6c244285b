package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrStructural    = errors.New("structural error")
	ErrQuality       = errors.New("quality warning")
	ErrFetch         = errors.New("fetch error")
	ErrStep          = errors.New("pipeline step error")
	ErrDependency    = errors.New("dependency skipped")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind maps an error onto the pipeline error taxonomy used in run logs and
// summaries.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStructural), errors.Is(err, ErrValidation):
		return "StructuralError"
	case errors.Is(err, ErrQuality):
		return "QualityWarning"
	case errors.Is(err, ErrFetch):
		return "FetchError"
	case errors.Is(err, ErrDependency):
		return "DependencySkip"
	case errors.Is(err, ErrConfiguration):
		return "ConfigurationError"
	default:
		return "PipelineStepError"
	}
}

// Retryable reports whether the failure may succeed on another attempt.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrTimeout)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
