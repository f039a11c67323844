package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewReportID returns a short uppercase report identifier derived from a
// random UUID. 12 hex characters; uniqueness is not checked here, the
// reports collection carries a unique index as the backstop.
func NewReportID() string {
	return shortID(12)
}

// NewTransactionID returns a 16-character uppercase transaction identifier.
func NewTransactionID() string {
	return shortID(16)
}

func shortID(n int) string {
	s := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(s[:n])
}
