// Package tokencount keeps prompts inside a token budget.
//
// It uses tiktoken-go with the offline BPE loader so counting never needs
// network access. Gemini tokenizes differently; cl100k_base is close enough
// to bound prompt size.
package tokencount

import (
	"log/slog"
	"sync"
	"unicode/utf8"

	tiktoken "github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

const encodingName = "cl100k_base"

// charsPerToken approximates token size when no encoder is available.
const charsPerToken = 4

// Counter provides thread-safe token counting and truncation.
type Counter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error
}

// NewCounter creates a new token counter instance.
func NewCounter() *Counter {
	return &Counter{}
}

// DefaultCounter is a global token counter instance.
var DefaultCounter = NewCounter()

var loaderOnce sync.Once

func (c *Counter) encoding() (*tiktoken.Tiktoken, error) {
	c.once.Do(func() {
		loaderOnce.Do(func() { tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader()) })
		c.enc, c.err = tiktoken.GetEncoding(encodingName)
		if c.err != nil {
			slog.Warn("token encoder unavailable, using character estimate", slog.Any("error", c.err))
		}
	})
	return c.enc, c.err
}

// CountTokens counts the number of tokens in text.
func (c *Counter) CountTokens(text string) (int, error) {
	enc, err := c.encoding()
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}

// EstimateTokens is CountTokens with a character-based fallback.
func (c *Counter) EstimateTokens(text string) int {
	if n, err := c.CountTokens(text); err == nil {
		return n
	}
	return (utf8.RuneCountInString(text) + charsPerToken - 1) / charsPerToken
}

// Truncate returns text cut to at most maxTokens tokens. The second result
// reports whether anything was removed. A non-positive budget disables it.
func (c *Counter) Truncate(text string, maxTokens int) (string, bool) {
	if maxTokens <= 0 || text == "" {
		return text, false
	}
	enc, err := c.encoding()
	if err != nil {
		maxRunes := maxTokens * charsPerToken
		if utf8.RuneCountInString(text) <= maxRunes {
			return text, false
		}
		return string([]rune(text)[:maxRunes]), true
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text, false
	}
	cut := enc.Decode(tokens[:maxTokens])
	// A token boundary can split a multi-byte rune.
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut, true
}

// CountTokensDefault uses the default counter to count tokens.
func CountTokensDefault(text string) (int, error) {
	return DefaultCounter.CountTokens(text)
}
