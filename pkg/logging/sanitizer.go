package logging

import "regexp"

const (
	// MaxQueryLogLength caps how much query text a log line may carry.
	MaxQueryLogLength = 100
	// RedactedText stands in for anything that looks like a credential.
	RedactedText = "[REDACTED]"
)

// redaction pairs a credential-shaped pattern with its replacement.
type redaction struct {
	pattern *regexp.Regexp
	replace string
}

var (
	// key=value credentials: password=xxx, pwd=xxx, pass=xxx.
	passwordRedaction = redaction{regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`), "${1}=" + RedactedText}
	// Authorization headers echoed back in provider HTTP errors.
	bearerRedaction = redaction{regexp.MustCompile(`Bearer\s+[A-Za-z0-9-_.]+`), "Bearer " + RedactedText}
	// api_key=... style parameters.
	apiKeyRedaction = redaction{regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9-_]{20,}`), "${1}=" + RedactedText}
	// Bare OpenAI-style secret keys wherever they appear.
	secretKeyRedaction = redaction{regexp.MustCompile(`sk-[A-Za-z0-9-_]{16,}`), RedactedText}
)

var (
	errorRedactions = []redaction{passwordRedaction, bearerRedaction, apiKeyRedaction, secretKeyRedaction}
	queryRedactions = []redaction{passwordRedaction, apiKeyRedaction}
)

func applyRedactions(s string, rules []redaction) string {
	for _, r := range rules {
		s = r.pattern.ReplaceAllString(s, r.replace)
	}
	return s
}

// SanitizeError renders err for logging with credential-shaped fragments
// masked. Provider errors can echo request headers, so every logged
// provider error goes through here.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return applyRedactions(err.Error(), errorRedactions)
}

// SanitizeQuery prepares raw SQL for a log line: truncated to
// MaxQueryLogLength and masked for credentials embedded in literals.
func SanitizeQuery(query string) string {
	if query == "" {
		return ""
	}
	return applyRedactions(TruncateString(query, MaxQueryLogLength), queryRedactions)
}

// TruncateString cuts s at maxLen and marks the cut with an ellipsis.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
