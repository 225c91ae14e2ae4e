package openai

import (
	"regexp"
	"strings"
)

var (
	fencedJSONBlock = regexp.MustCompile("(?s)```json\\s*(.*?)```")
	fencedBlock     = regexp.MustCompile("(?s)```\\s*(.*?)```")
)

// extractJSON recovers the JSON object embedded in free-form model output.
// It prefers a fenced block labeled json, then any fenced block, then the
// span between the first '{' and the last '}' of the remaining text.
func extractJSON(s string) string {
	if m := fencedJSONBlock.FindStringSubmatch(s); m != nil {
		s = m[1]
	} else if m := fencedBlock.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	if start := strings.Index(s, "{"); start >= 0 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return strings.TrimSpace(s)
}
