package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUpstream marks any network or protocol failure from an external
	// collaborator (news, script, question, or speech synthesis calls).
	ErrUpstream = errors.New("upstream call failure")
	// ErrQuotaExceeded marks an upstream failure caused by rate or usage
	// limits. Only audio synthesis treats it as recoverable.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrMalformedResponse marks an upstream payload missing expected fields.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrValidation marks rejected caller input.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks missing or unusable configuration such as an
	// absent API key.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrUpstream
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// quotaIndicators are the substrings upstream providers put in rate-limit
// failures that arrive without structured status information.
var quotaIndicators = []string{"quota", "429", "rate limit", "resource_exhausted", "resource exhausted"}

// IsQuota reports whether err represents quota or rate-limit exhaustion,
// either tagged explicitly with ErrQuotaExceeded or recognizable from the
// provider's message text.
func IsQuota(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}
	message := strings.ToLower(err.Error())
	for _, indicator := range quotaIndicators {
		if strings.Contains(message, indicator) {
			return true
		}
	}
	return false
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
