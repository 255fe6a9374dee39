package utils

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

func TestClassifyMySQLCodes(t *testing.T) {
	cases := []struct {
		number uint16
		want   ErrorCategory
	}{
		{1062, ErrorCategoryDuplicateRecord},
		{1452, ErrorCategoryMissingReference},
		{1048, ErrorCategoryMissingRequiredField},
		{1406, ErrorCategoryInvalidValue},
		{1142, ErrorCategoryPermissionDenied},
		{1045, ErrorCategoryAccessDenied},
		{1213, ErrorCategoryTransientRetryable},
	}
	for _, tc := range cases {
		err := &mysql.MySQLError{Number: tc.number, Message: "raw driver detail"}
		got := Classify(err)
		if got.Category != tc.want {
			t.Fatalf("code %d: got %s, want %s", tc.number, got.Category, tc.want)
		}
		if got.Message == "raw driver detail" {
			t.Fatalf("code %d: raw driver message leaked to user", tc.number)
		}
	}
}

func TestClassifySentinels(t *testing.T) {
	if got := Classify(gorm.ErrRecordNotFound); got.Category != ErrorCategoryNotFound {
		t.Fatalf("gorm.ErrRecordNotFound: got %s", got.Category)
	}
	if got := Classify(ErrorRecordNotFound); got.Category != ErrorCategoryNotFound {
		t.Fatalf("ErrorRecordNotFound: got %s", got.Category)
	}
	if got := Classify(context.DeadlineExceeded); got.Category != ErrorCategoryTimeout {
		t.Fatalf("DeadlineExceeded: got %s", got.Category)
	}
	wrapped := fmt.Errorf("saving document: %w", gorm.ErrRecordNotFound)
	if got := Classify(wrapped); got.Category != ErrorCategoryNotFound {
		t.Fatalf("wrapped sentinel: got %s", got.Category)
	}
}

func TestClassifyMessagePatterns(t *testing.T) {
	cases := []struct {
		msg  string
		want ErrorCategory
	}{
		{"Duplicate entry 'x' for key", ErrorCategoryDuplicateRecord},
		{"a foreign key constraint fails", ErrorCategoryMissingReference},
		{"column 'name' cannot be null", ErrorCategoryMissingRequiredField},
		{"value out of range for column", ErrorCategoryInvalidValue},
		{"permission denied for table", ErrorCategoryPermissionDenied},
		{"Access denied for user", ErrorCategoryAccessDenied},
		{"row not found", ErrorCategoryNotFound},
		{"invalid password", ErrorCategoryAuthFailed},
		{"Deadlock found when trying to get lock", ErrorCategoryTransientRetryable},
		{"dial tcp: connection refused", ErrorCategoryNetworkError},
		{"validation failed on field", ErrorCategoryInvalidInput},
	}
	for _, tc := range cases {
		got := Classify(errors.New(tc.msg))
		if got.Category != tc.want {
			t.Fatalf("%q: got %s, want %s", tc.msg, got.Category, tc.want)
		}
	}
}

// Classify must be total: any input maps to a member of the closed taxonomy.
func TestClassifyIsTotal(t *testing.T) {
	inputs := []error{
		nil,
		errors.New(""),
		errors.New("completely novel failure text"),
		fmt.Errorf("wrapped: %w", errors.New("inner")),
	}
	for _, err := range inputs {
		got := Classify(err)
		if got == nil {
			t.Fatalf("Classify(%v) returned nil", err)
		}
		if _, ok := categoryMessages[got.Category]; !ok {
			t.Fatalf("Classify(%v) returned category outside the taxonomy: %s", err, got.Category)
		}
		if got.Message == "" {
			t.Fatalf("Classify(%v) returned empty message", err)
		}
	}
}

func TestClassifyPassthrough(t *testing.T) {
	orig := &ClassifiedError{Category: ErrorCategoryInvalidInput, Message: "the input could not be processed"}
	got := Classify(fmt.Errorf("handler: %w", orig))
	if got != orig {
		t.Fatalf("classified error was not passed through unchanged")
	}
}

// "user not found" and "invalid password" must classify to the identical
// message so callers cannot probe which accounts exist.
func TestAuthErrorMerging(t *testing.T) {
	userMissing := ClassifyAuthError(errors.New("user not found"))
	badPassword := ClassifyAuthError(errors.New("crypto/bcrypt: hashedPassword is not the hash of the given password"))

	if userMissing.Category != ErrorCategoryAuthFailed || badPassword.Category != ErrorCategoryAuthFailed {
		t.Fatalf("auth errors must classify as AuthFailed, got %s and %s", userMissing.Category, badPassword.Category)
	}
	if userMissing.Message != badPassword.Message {
		t.Fatalf("auth error messages differ: %q vs %q", userMissing.Message, badPassword.Message)
	}
}
