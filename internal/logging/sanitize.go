package logging

import "regexp"

const RedactedText = "[REDACTED]"

var (
	passwordPattern   = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)
	connStringPattern = regexp.MustCompile(`://[^:/@\s]+:[^@\s]+@`)
)

// SanitizeConnectionString removes credentials from a DSN or URL so it can
// be logged.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}
	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	return connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@")
}
