package tokens

import (
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/yanqian/kisanmitra/internal/domain/gateway"
)

type encoder interface {
	Encode(text string, allowedSpecial []string, disallowedSpecial []string) []int
}

// Counter counts prompt tokens with a BPE encoding. The encoding is loaded on
// first use; when it cannot be loaded the counter falls back to an estimate.
type Counter struct {
	encoding string
	logger   *slog.Logger
	load     func(string) (encoder, error)

	once sync.Once
	enc  encoder
}

var _ gateway.TokenCounter = (*Counter)(nil)

// NewCounter constructs a counter for the named encoding, e.g. cl100k_base.
func NewCounter(encoding string, logger *slog.Logger) *Counter {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	return &Counter{
		encoding: encoding,
		logger:   logger.With("component", "tokens.counter"),
		load: func(name string) (encoder, error) {
			enc, err := tiktoken.GetEncoding(name)
			if err != nil {
				return nil, err
			}
			return enc, nil
		},
	}
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	c.once.Do(func() {
		enc, err := c.load(c.encoding)
		if err != nil {
			c.logger.Warn("token encoding unavailable, using estimate", "encoding", c.encoding, "error", err)
			return
		}
		c.enc = enc
	})
	if c.enc == nil {
		return estimate(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

// estimate assumes roughly four characters per token, never less than one.
func estimate(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}
