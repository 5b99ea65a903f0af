package logging

import (
	"log/slog"
	"net/url"
	"strings"
)

// RedactedValue replaces sensitive values in log output.
const RedactedValue = "[REDACTED]"

// safeKeys may be logged verbatim. Addresses and amounts on a public ledger
// are not secrets; credentials and endpoints are.
var safeKeys = map[string]struct{}{
	"service": {}, "env": {}, "message": {}, "severity": {}, "timestamp": {},
	"error": {}, "reason": {}, "component": {},
	"method": {}, "caller": {}, "campaign": {}, "asset": {}, "event": {},
	"height": {}, "duration": {}, "request": {}, "delivery": {}, "attempts": {},
}

// IsAllowlisted reports whether key may be logged without redaction.
func IsAllowlisted(key string) bool {
	_, ok := safeKeys[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// MaskField redacts value unless key is allowlisted. Empty values pass
// through.
func MaskField(key, value string) slog.Attr {
	if strings.TrimSpace(value) == "" || IsAllowlisted(key) {
		return slog.String(key, value)
	}
	return slog.String(key, RedactedValue)
}

// MaskBearer keeps the scheme of an Authorization header and hides the
// credential.
func MaskBearer(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	scheme, credential, found := strings.Cut(header, " ")
	if !found || strings.TrimSpace(credential) == "" {
		return RedactedValue
	}
	return scheme + " " + RedactedValue
}

// MaskURL keeps the scheme and host of raw and hides user info, path and
// query, which often carry tokens for webhook receivers.
func MaskURL(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Host == "" {
		return RedactedValue
	}
	masked := parsed.Scheme + "://" + parsed.Host
	if parsed.User != nil || (parsed.Path != "" && parsed.Path != "/") || parsed.RawQuery != "" {
		masked += "/" + RedactedValue
	}
	return masked
}
