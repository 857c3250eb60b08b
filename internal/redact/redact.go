// Package redact provides utilities for redacting sensitive information from
// strings before they are logged or returned in error messages. This package
// helps prevent the accidental leakage of database credentials and connection
// strings that might be included in errors surfaced by the storage layer.
package redact

import (
	"net/url"
	"regexp"
)

// Constants for redaction placeholders
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
)

// Precompiled regex patterns
var (
	// Database connection strings with embedded credentials
	dbConnRegex = regexp.MustCompile(`(?i)(postgres|postgresql|mysql|sqlite|db|database|connection)://[^@\s]+@`)

	// Credentials in key=value or key: value form
	passwordRegex = regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`)
	apiKeyRegex   = regexp.MustCompile(
		`(?i)(api[_-]?key|token|secret|access|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
	)

	patterns = []*regexp.Regexp{dbConnRegex, passwordRegex, apiKeyRegex}

	patternPlaceholders = map[*regexp.Regexp]string{
		dbConnRegex:   RedactedCredentialPlaceholder,
		passwordRegex: RedactedCredentialPlaceholder,
		apiKeyRegex:   RedactedKeyPlaceholder,
	}
)

// String redacts sensitive information from the input string
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, pattern := range patterns {
		placeholder := RedactionPlaceholder
		if ph, ok := patternPlaceholders[pattern]; ok {
			placeholder = ph
		}
		result = pattern.ReplaceAllString(result, placeholder)
	}

	return result
}

// Error redacts sensitive information from an error's Error() output
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}

// DSN returns a form of the connection string safe to log. URL-style DSNs
// keep everything except the password (host, database and user survive so
// logs stay useful); anything unparseable falls back to String.
func DSN(dsn string) string {
	if dsn == "" {
		return dsn
	}

	u, err := url.Parse(dsn)
	if err == nil && u.User != nil {
		return u.Redacted()
	}

	return String(dsn)
}
