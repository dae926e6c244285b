package services_test

import (
	"context"
	"testing"

	"fischpipe/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-42")
	ctx = services.WithStep(ctx, "reconcile-fish")
	ctx = services.WithEntity(ctx, "fish")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-42" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if step, ok := services.StepFromContext(ctx); !ok || step != "reconcile-fish" {
		t.Fatalf("unexpected step: %v %v", step, ok)
	}
	if kind, ok := services.EntityFromContext(ctx); !ok || kind != "fish" {
		t.Fatalf("unexpected entity: %v %v", kind, ok)
	}
}

func TestStepBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStep(ctx, "")
	if _, ok := services.StepFromContext(ctx); ok {
		t.Fatal("expected no step value")
	}
}
