// Package redact masks high-risk personal data in transcript text
// before it is persisted. Callers read out card numbers and contact
// details over the phone; those must not land in object storage
// verbatim. The in-flight dialogue is untouched.
package redact

import "regexp"

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`)
	cardPattern  = regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`)
)

// Transcript masks emails, card numbers and phone numbers in one
// transcript line.
func Transcript(line string) string {
	out := emailPattern.ReplaceAllString(line, "[REDACTED_EMAIL]")
	// Card redaction runs before phone so long digit runs are not
	// classified as phone numbers.
	out = cardPattern.ReplaceAllString(out, "[REDACTED_CARD]")
	return phonePattern.ReplaceAllString(out, "[REDACTED_PHONE]")
}
