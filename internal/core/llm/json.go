package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Model text responses carry no structural guarantee, so JSON decoding is
// a fallible boundary: the caller gets a typed result or the raw text for
// logging, never a panic or a partially filled value.

var (
	fenceOpenRe  = regexp.MustCompile("(?i)^```[a-z]*\\s*\n?")
	fenceCloseRe = regexp.MustCompile("\n?```\\s*$")
)

// StripFences removes a leading/trailing markdown code fence (with an
// optional language tag such as ```json or ```sql) from a model response.
func StripFences(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = fenceOpenRe.ReplaceAllString(cleaned, "")
	cleaned = fenceCloseRe.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// DecodeJSON strictly parses a model response into v. On failure it
// returns ok=false and the raw text so the caller can log it.
func DecodeJSON(text string, v interface{}) (raw string, ok bool) {
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return text, false
	}
	return text, true
}
