package openai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateContent_ShortContentUnchanged(t *testing.T) {
	content := "Hello, a short note."
	got := truncateContent("gpt-3.5-turbo", "prompt", content)
	assert.Equal(t, content, got)

	// Idempotent: truncating the result changes nothing.
	assert.Equal(t, got, truncateContent("gpt-3.5-turbo", "prompt", got))
}

func TestTruncateContent_NeverLongerAndAlwaysPrefix(t *testing.T) {
	models := []string{"gpt-3.5-turbo", "gpt-4", "gpt-4o", "totally-unknown-model"}
	contents := []string{
		"tiny",
		strings.Repeat("word ", 5_000),
		strings.Repeat("x", 600_000),
	}

	for _, m := range models {
		for _, content := range contents {
			got := truncateContent(m, "prompt", content)
			assert.LessOrEqual(t, len(got), len(content), "model %s", m)
			assert.True(t, strings.HasPrefix(content, got), "result must be a prefix (model %s)", m)
		}
	}
}

func TestTruncateContent_LongContentIsCut(t *testing.T) {
	// Far beyond the 4096-token window of gpt-3.5-turbo.
	content := strings.Repeat("alpha beta gamma ", 40_000)
	got := truncateContent("gpt-3.5-turbo", "prompt", content)

	available := contextSize("gpt-3.5-turbo") - reservedTokens
	assert.Less(t, len(got), len(content))
	assert.LessOrEqual(t, len(got), available*3)
}

func TestTruncateContent_UnknownModelTokenizerFallback(t *testing.T) {
	// Unknown model: window defaults to 4096 and the tokenizer lookup
	// fails, so the cut falls back to available*2 characters.
	content := strings.Repeat("z", 200_000)
	got := truncateContent("totally-unknown-model", "prompt", content)

	available := defaultContextSize - reservedTokens
	assert.Equal(t, available*2, len(got))
}

func TestPrefix(t *testing.T) {
	assert.Equal(t, "abc", prefix("abc", 10))
	assert.Equal(t, "ab", prefix("abcd", 2))

	// Cutting inside a multi-byte rune backs off to a valid boundary.
	s := "aé" // 'é' is two bytes
	got := prefix(s, 2)
	assert.Equal(t, "a", got)
}

func TestContextSize(t *testing.T) {
	assert.Equal(t, 4096, contextSize("gpt-3.5-turbo"))
	assert.Equal(t, 128000, contextSize("gpt-4o"))
	assert.Equal(t, defaultContextSize, contextSize("mystery-model"))
}
