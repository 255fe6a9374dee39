package utils

import (
	"context"
	"errors"
	"net"
	"regexp"

	"github.com/go-sql-driver/mysql"
	"github.com/mmdatafocus/billing_backend/config"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrorCategory is the closed set of user-facing error categories. Every
// backend failure maps to exactly one of these; raw codes, table names and
// driver messages never reach the user.
type ErrorCategory string

const (
	ErrorCategoryDuplicateRecord      ErrorCategory = "DuplicateRecord"
	ErrorCategoryMissingReference     ErrorCategory = "MissingReference"
	ErrorCategoryMissingRequiredField ErrorCategory = "MissingRequiredField"
	ErrorCategoryInvalidValue         ErrorCategory = "InvalidValue"
	ErrorCategoryPermissionDenied     ErrorCategory = "PermissionDenied"
	ErrorCategoryNotFound             ErrorCategory = "NotFound"
	ErrorCategoryInvalidInput         ErrorCategory = "InvalidInput"
	ErrorCategoryAuthFailed           ErrorCategory = "AuthFailed"
	ErrorCategoryTransientRetryable   ErrorCategory = "TransientRetryable"
	ErrorCategoryTimeout              ErrorCategory = "Timeout"
	ErrorCategoryAccessDenied         ErrorCategory = "AccessDenied"
	ErrorCategoryNetworkError         ErrorCategory = "NetworkError"
	ErrorCategoryUnknown              ErrorCategory = "Unknown"
)

// ClassifiedError carries the category plus a short, safe message.
type ClassifiedError struct {
	Category ErrorCategory `json:"category"`
	Message  string        `json:"message"`
}

func (e *ClassifiedError) Error() string {
	return e.Message
}

var categoryMessages = map[ErrorCategory]string{
	ErrorCategoryDuplicateRecord:      "a record with the same value already exists",
	ErrorCategoryMissingReference:     "a referenced record does not exist",
	ErrorCategoryMissingRequiredField: "a required field is missing",
	ErrorCategoryInvalidValue:         "a field contains an invalid value",
	ErrorCategoryPermissionDenied:     "you do not have permission to perform this action",
	ErrorCategoryNotFound:             "the requested record was not found",
	ErrorCategoryInvalidInput:         "the input could not be processed",
	ErrorCategoryAuthFailed:           "incorrect username or password",
	ErrorCategoryTransientRetryable:   "the operation could not complete; please try again",
	ErrorCategoryTimeout:              "the operation timed out; please try again",
	ErrorCategoryAccessDenied:         "access denied",
	ErrorCategoryNetworkError:         "a network error occurred; please try again",
	ErrorCategoryUnknown:              "something went wrong; please try again",
}

// MySQL server error numbers. First-match authority: a known code wins over
// any message-pattern test.
var mysqlErrorCategories = map[uint16]ErrorCategory{
	1062: ErrorCategoryDuplicateRecord,      // ER_DUP_ENTRY
	1452: ErrorCategoryMissingReference,     // ER_NO_REFERENCED_ROW_2
	1451: ErrorCategoryMissingReference,     // ER_ROW_IS_REFERENCED_2
	1048: ErrorCategoryMissingRequiredField, // ER_BAD_NULL_ERROR
	1364: ErrorCategoryMissingRequiredField, // ER_NO_DEFAULT_FOR_FIELD
	1264: ErrorCategoryInvalidValue,         // ER_WARN_DATA_OUT_OF_RANGE
	1265: ErrorCategoryInvalidValue,         // WARN_DATA_TRUNCATED
	1366: ErrorCategoryInvalidValue,         // ER_TRUNCATED_WRONG_VALUE_FOR_FIELD
	1406: ErrorCategoryInvalidValue,         // ER_DATA_TOO_LONG
	1044: ErrorCategoryPermissionDenied,     // ER_DBACCESS_DENIED_ERROR
	1142: ErrorCategoryPermissionDenied,     // ER_TABLEACCESS_DENIED_ERROR
	1045: ErrorCategoryAccessDenied,         // ER_ACCESS_DENIED_ERROR
	1205: ErrorCategoryTransientRetryable,   // ER_LOCK_WAIT_TIMEOUT
	1213: ErrorCategoryTransientRetryable,   // ER_LOCK_DEADLOCK
	1040: ErrorCategoryTransientRetryable,   // ER_CON_COUNT_ERROR
}

// Ordered free-text fallbacks; first match wins. These run only when no known
// code or sentinel matched.
var messagePatterns = []struct {
	re       *regexp.Regexp
	category ErrorCategory
}{
	{regexp.MustCompile(`(?i)duplicate`), ErrorCategoryDuplicateRecord},
	{regexp.MustCompile(`(?i)foreign key`), ErrorCategoryMissingReference},
	{regexp.MustCompile(`(?i)(cannot be null|is required|required field)`), ErrorCategoryMissingRequiredField},
	{regexp.MustCompile(`(?i)(out of range|data too long|incorrect .* value)`), ErrorCategoryInvalidValue},
	{regexp.MustCompile(`(?i)permission denied`), ErrorCategoryPermissionDenied},
	{regexp.MustCompile(`(?i)access denied`), ErrorCategoryAccessDenied},
	{regexp.MustCompile(`(?i)(not found|no rows)`), ErrorCategoryNotFound},
	{regexp.MustCompile(`(?i)(invalid password|user not found|unauthenticated|invalid token)`), ErrorCategoryAuthFailed},
	{regexp.MustCompile(`(?i)(deadlock|lock wait|try again|too many connections)`), ErrorCategoryTransientRetryable},
	{regexp.MustCompile(`(?i)(timeout|timed out)`), ErrorCategoryTimeout},
	{regexp.MustCompile(`(?i)(connection refused|connection reset|broken pipe|unreachable|network)`), ErrorCategoryNetworkError},
	{regexp.MustCompile(`(?i)(invalid input|validation)`), ErrorCategoryInvalidInput},
}

// Classify maps any error to a member of the closed taxonomy. Pure and total:
// nil, wrapped, and unrecognized errors all return a ClassifiedError, never a
// panic.
func Classify(err error) *ClassifiedError {
	if err == nil {
		return &ClassifiedError{Category: ErrorCategoryUnknown, Message: categoryMessages[ErrorCategoryUnknown]}
	}

	// Already classified: pass through unchanged.
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}

	// Known driver codes first.
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		if category, ok := mysqlErrorCategories[mysqlErr.Number]; ok {
			return newClassified(category)
		}
	}

	// Sentinels.
	switch {
	case errors.Is(err, ErrorRecordNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return newClassified(ErrorCategoryNotFound)
	case errors.Is(err, context.DeadlineExceeded):
		return newClassified(ErrorCategoryTimeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return newClassified(ErrorCategoryTimeout)
		}
		return newClassified(ErrorCategoryNetworkError)
	}

	// Message patterns, in order; first match wins.
	msg := err.Error()
	for _, p := range messagePatterns {
		if p.re.MatchString(msg) {
			return newClassified(p.category)
		}
	}

	return newClassified(ErrorCategoryUnknown)
}

// ClassifyAuthError collapses "user not found" and "invalid password" into the
// SAME category and message. Differential error messages would let a caller
// probe which accounts exist; keep these merged.
func ClassifyAuthError(err error) *ClassifiedError {
	_ = err
	return newClassified(ErrorCategoryAuthFailed)
}

func newClassified(category ErrorCategory) *ClassifiedError {
	return &ClassifiedError{Category: category, Message: categoryMessages[category]}
}

// LogAndClassify records the raw error for operators and returns the safe
// classified error for the caller. Full raw detail is only emitted on the
// development path; production logs keep the classified category alongside
// the error string.
func LogAndClassify(moduleName string, funcName string, err error) *ClassifiedError {
	classified := Classify(err)
	logger := config.GetLogger()
	if err != nil && logger != nil {
		if config.DevErrorDetail() {
			logger.WithFields(logrus.Fields{
				"module":   moduleName,
				"funcName": funcName,
				"category": string(classified.Category),
				"raw":      err.Error(),
			}).Debug("classified error (dev detail)")
		}
		config.LogError(logger, moduleName, funcName, string(classified.Category), nil, err)
	}
	return classified
}
