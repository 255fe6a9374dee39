package config

import (
	"os"
	"strings"
)

// DevErrorDetail enables the development-only detailed error log path.
// User-visible messages never include raw backend error text regardless.
//
// Set via env:
// - DEV_ERROR_DETAIL=true
func DevErrorDetail() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("DEV_ERROR_DETAIL")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// ForbidReactivation disables the Cancelled -> Active transition entirely.
// Default behavior re-applies the creation-time stock adjustment symmetrically;
// deployments that prefer immutable cancellations can turn the transition off.
//
// Set via env:
// - FORBID_DOCUMENT_REACTIVATION=true
func ForbidReactivation() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("FORBID_DOCUMENT_REACTIVATION")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
