package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestFromUnwrapsWrappedError(t *testing.T) {
	base := New(http.StatusConflict, "duplicate_student_ids", errors.New("dup"))
	got := From(fmt.Errorf("process: %w", base))
	if got.Status != http.StatusConflict || got.Code != "duplicate_student_ids" {
		t.Fatalf("From: want=409/duplicate_student_ids got=%d/%s", got.Status, got.Code)
	}
}

func TestFromDefaultsToInternal(t *testing.T) {
	got := From(errors.New("boom"))
	if got.Status != http.StatusInternalServerError || got.Code != "internal" {
		t.Fatalf("From: want=500/internal got=%d/%s", got.Status, got.Code)
	}
	if From(nil) != nil {
		t.Fatalf("From(nil): want nil")
	}
}
