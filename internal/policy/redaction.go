package policy

import "regexp"

var (
	bearerPattern   = regexp.MustCompile(`(?i)bearer\s+[a-z0-9._\-]+`)
	hfTokenPattern  = regexp.MustCompile(`\bhf_[A-Za-z0-9]{8,}\b`)
	keyParamPattern = regexp.MustCompile(`(?i)((?:api[_-]?key|x-prodia-key|token)["']?\s*[:=]\s*["']?)[A-Za-z0-9._\-]{6,}`)
	emailPattern    = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
)

// RedactSecrets masks credentials and account emails that upstream providers
// sometimes echo back in error bodies.
func RedactSecrets(input string) (redacted string, changed bool) {
	out := input

	next := bearerPattern.ReplaceAllString(out, "Bearer [REDACTED_TOKEN]")
	changed = changed || next != out
	out = next

	next = hfTokenPattern.ReplaceAllString(out, "[REDACTED_TOKEN]")
	changed = changed || next != out
	out = next

	next = keyParamPattern.ReplaceAllString(out, "${1}[REDACTED_KEY]")
	changed = changed || next != out
	out = next

	next = emailPattern.ReplaceAllString(out, "[REDACTED_EMAIL]")
	changed = changed || next != out
	out = next

	return out, changed
}

// Redact is RedactSecrets without the changed flag.
func Redact(input string) string {
	out, _ := RedactSecrets(input)
	return out
}
