package service

import (
	"errors"
	"regexp"
	"strings"
)

var (
	codeFenceRe = regexp.MustCompile("```[a-zA-Z]*\\n?|```")
	headingRe   = regexp.MustCompile(`(?m)^#+[ \t]*`)

	errEmptyAnswer = errors.New("model returned an empty answer")
)

// SanitizeAnswer removes markdown the chat widget cannot render. Accepted
// shapes are fence-wrapped text (```html ... ```) and lines whose first
// column holds heading markers; indented '#' is left alone, as is anything
// else. Text that is
// empty once stripped is an error.
func SanitizeAnswer(raw string) (string, error) {
	answer := codeFenceRe.ReplaceAllString(raw, "")
	answer = headingRe.ReplaceAllString(answer, "")
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", errEmptyAnswer
	}
	return answer, nil
}

// StripJSONFence unwraps a ```json ... ``` block. Text without a fence is
// only trimmed.
func StripJSONFence(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimPrefix(s, "JSON")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
