package utils

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
)

type tokenForm struct {
	BusinessId string `validate:"required"`
	UserId     int    `validate:"required"`
}

func TestProcessValidationErrorsFieldMap(t *testing.T) {
	err := validator.New().Struct(tokenForm{})
	fields := ProcessValidationErrors(err)
	if len(fields) != 2 {
		t.Fatalf("expected 2 field errors, got %v", fields)
	}
	if fields["BusinessId"] != "required" || fields["UserId"] != "required" {
		t.Fatalf("unexpected field map: %v", fields)
	}
}

func TestProcessValidationErrorsNonValidation(t *testing.T) {
	if fields := ProcessValidationErrors(errors.New("boom")); fields != nil {
		t.Fatalf("expected nil for a plain error, got %v", fields)
	}
	if fields := ProcessValidationErrors(nil); fields != nil {
		t.Fatalf("expected nil for nil error, got %v", fields)
	}
	wrapped := fmt.Errorf("bind: %w", validator.New().Struct(tokenForm{}))
	if fields := ProcessValidationErrors(wrapped); len(fields) != 2 {
		t.Fatalf("expected field map for wrapped validation error, got %v", fields)
	}
}

func TestBusinessLockRequiresRedis(t *testing.T) {
	release, err := BusinessLock(context.Background(), "biz-1", "stockLock", "helper_test.go", "TestBusinessLockRequiresRedis")
	if err == nil {
		release()
		t.Fatalf("expected an error while the redis lock is uninitialized")
	}
	if release != nil {
		t.Fatalf("release must be nil when the lock was not obtained")
	}
}
