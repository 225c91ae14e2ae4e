package openai

import (
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// reservedTokens is held back from the context window for instructions
	// and the model's response.
	reservedTokens = 1500
	// defaultContextSize is assumed when the model's window is unknown.
	defaultContextSize = 4096
	// hardCapChars bounds content when no budget can be computed at all.
	hardCapChars = 1000
)

// Known context windows for common OpenAI-compatible models. Models not
// listed here get defaultContextSize.
var modelContextSizes = map[string]int{
	"gpt-3.5-turbo":     4096,
	"gpt-3.5-turbo-16k": 16384,
	"gpt-4":             8192,
	"gpt-4-32k":         32768,
	"gpt-4-turbo":       128000,
	"gpt-4o":            128000,
	"gpt-4o-mini":       128000,
}

func contextSize(model string) int {
	if n, ok := modelContextSizes[model]; ok {
		return n
	}
	return defaultContextSize
}

// truncateContent shortens content so prompt + content + response fit the
// model's context window. The result is always a prefix of content and
// never longer than the input. The ladder, cheapest check first:
//
//  1. content comfortably below available*4 chars: return unchanged
//     (~4 chars per token, avoids tokenizing every request)
//  2. exact token count of prompt+content fits: return unchanged
//  3. otherwise cut to available*3 chars
//  4. tokenizer unavailable for the model: cut to available*2 chars
//
// When even the reserved budget exceeds the window, content is hard-capped
// at the first 1000 characters.
func truncateContent(model, prompt, content string) string {
	available := contextSize(model) - reservedTokens
	if available <= 0 {
		return prefix(content, hardCapChars)
	}
	if len(content) < available*4 {
		return content
	}

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return prefix(content, available*2)
	}
	if len(enc.Encode(prompt+content, nil, nil)) <= available {
		return content
	}
	return prefix(content, available*3)
}

// prefix cuts s to at most n bytes, backing off to a UTF-8 boundary.
func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := s[:n]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
