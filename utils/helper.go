package utils

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"time"

	"github.com/bsm/redislock"
	"github.com/go-playground/validator/v10"
	"github.com/mmdatafocus/billing_backend/config"
)

func IsValidEmail(email string) bool {
	// Basic email validation regex pattern
	pattern := `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	regex := regexp.MustCompile(pattern)
	return regex.MatchString(email)
}

func GenerateUniqueFilename() string {

	timestamp := time.Now().UnixNano()

	random := rand.Intn(1000)

	uniqueFilename := fmt.Sprintf("%d_%d", timestamp, random)

	return uniqueFilename
}

// ProcessValidationErrors flattens binding failures into field->tag pairs
// for the response body. Non-validation errors yield nil.
func ProcessValidationErrors(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	errorResponse := make(map[string]string)
	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}
	return errorResponse
}

func NewTrue() *bool {
	b := true
	return &b
}

// returns slice removing duplicate elements
func UniqueSlice[T comparable](slice []T) []T {
	inResult := make(map[T]bool)
	var result []T
	for _, elm := range slice {
		if _, ok := inResult[elm]; !ok {
			inResult[elm] = true
			result = append(result, elm)
		}
	}
	return result
}

// safely dereference pointer of type T, nil pointer return zero value or optional default
func DereferencePtr[T any](ptr *T, defaults ...T) T {
	var defaultValue T
	if len(defaults) > 0 {
		defaultValue = defaults[0]
	}
	if ptr == nil {
		return defaultValue
	}
	return *ptr
}

// MonthLabel formats a date as "Jan 2026" for the monthly analytics series.
func MonthLabel(t time.Time) string {
	return t.Format("Jan 2006")
}

// MonthKey returns a sortable "2006-01" key for the same month.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// BusinessLock serializes stock-affecting operations per business. The lock
// stays held until the returned release function is called, so callers must
// defer it around the protected work.
func BusinessLock(ctx context.Context, businessId string, lockType string, moduleName string, functionName string) (func(), error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		// Avoid nil-pointer panics when Redis lock isn't initialized yet.
		config.LogError(logger, moduleName, functionName, "Redis lock not initialized", businessId, errors.New("redis lock is nil"))
		return nil, errors.New("service not ready (redis lock not initialized)")
	}
	lockKey := fmt.Sprintf("%s:%s", lockType, businessId)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, nil)
	if err == redislock.ErrNotObtained {
		config.LogError(logger, moduleName, functionName, "Could not obtain lock for businessID", businessId, err)
		return nil, errors.New("could not obtain lock for businessID")
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining lock for businessID", businessId, err)
		return nil, err
	}
	return func() {
		_ = lock.Release(ctx)
	}, nil
}
