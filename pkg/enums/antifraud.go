package enums

import (
	"fmt"
	"strings"
)

// AntifraudStatus is the verdict returned by the fraud scoring provider.
type AntifraudStatus string

const (
	AntifraudAccepted      AntifraudStatus = "ACCEPTED"
	AntifraudPendingReview AntifraudStatus = "PENDING_REVIEW"
	AntifraudDenied        AntifraudStatus = "DENIED"
)

var validAntifraudStatuses = []AntifraudStatus{
	AntifraudAccepted,
	AntifraudPendingReview,
	AntifraudDenied,
}

// String implements fmt.Stringer.
func (a AntifraudStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AntifraudStatus.
func (a AntifraudStatus) IsValid() bool {
	for _, candidate := range validAntifraudStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// Blocks reports whether the verdict stops a payment attempt.
func (a AntifraudStatus) Blocks() bool {
	return a == AntifraudDenied
}

// ParseAntifraudStatus converts raw input into an AntifraudStatus.
func ParseAntifraudStatus(value string) (AntifraudStatus, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validAntifraudStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid antifraud status %q", value)
}
