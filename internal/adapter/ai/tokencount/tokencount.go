// Package tokencount estimates token usage for gateway calls.
//
// It uses tiktoken-go, a Go port of OpenAI's tiktoken, which is a close
// enough approximation for the OpenAI-compatible models behind the gateway.
// Counts feed logging and metrics only; prompt truncation stays character
// based upstream.
package tokencount

import (
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Counter provides thread-safe token counting with a cached encoding.
type Counter struct {
	mu  sync.Mutex
	enc *tiktoken.Tiktoken
}

// NewCounter creates a new token counter instance.
func NewCounter() *Counter {
	return &Counter{}
}

// Count returns the estimated token count for text. When no encoding can be
// loaded it falls back to a bytes/4 heuristic rather than failing the call.
func (c *Counter) Count(text string) int {
	enc, err := c.encoding()
	if err != nil {
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

func (c *Counter) encoding() (*tiktoken.Tiktoken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enc != nil {
		return c.enc, nil
	}
	// cl100k_base covers GPT-3.5/4 era models and most gateway free models.
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}
	c.enc = enc
	return enc, nil
}
