package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestMessagePrefixesOperation(t *testing.T) {
	err := Wrap("analyze style reference", ResponseFormat("missing field %q", "Lighting"))
	if got := err.Error(); got != `Failed to analyze style reference: missing field "Lighting"` {
		t.Fatalf("unexpected message: %s", got)
	}
	if KindOf(err) != KindResponseFormat {
		t.Fatalf("expected response format kind, got %s", KindOf(err))
	}
}

func TestMessageDoesNotStackOperations(t *testing.T) {
	inner := Wrap("render overlay", EmptyResult("no image"))
	outer := Wrap("complete overlay generation", inner)
	if got := outer.Error(); got != "Failed to complete overlay generation: no image" {
		t.Fatalf("unexpected message: %s", got)
	}
	if KindOf(outer) != KindEmptyResult {
		t.Fatalf("expected empty result kind, got %s", KindOf(outer))
	}
}

func TestPreconditionKeepsOwnMessage(t *testing.T) {
	err := Wrap("generate", Precondition("Please upload a product image first."))
	if got := err.Error(); got != "Please upload a product image first." {
		t.Fatalf("unexpected message: %s", got)
	}
}

func TestUnclassifiedErrorsAreUpstream(t *testing.T) {
	err := fmt.Errorf("request: %w", errors.New("connection reset"))
	if KindOf(err) != KindUpstream {
		t.Fatalf("expected upstream kind")
	}
	if got := Message("modify image", err); got != "Failed to modify image: request: connection reset" {
		t.Fatalf("unexpected message: %s", got)
	}
	if Wrap("x", nil) != nil {
		t.Fatalf("Wrap(nil) must be nil")
	}
}
