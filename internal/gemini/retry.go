package gemini

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
)

// ErrQuotaExhausted marks a quota that no amount of waiting will refill.
var ErrQuotaExhausted = errors.New("gemini: quota permanently exhausted")

const (
	defaultMaxRetries = 5
	baseBackoff       = 1500 * time.Millisecond
	maxBackoff        = 30 * time.Second
	maxHintWait       = 120 * time.Second
)

var retryInRE = regexp.MustCompile(`retry in\s+(\d+)(?:\.\d+)?s`)

// RateLimitHint is the server-suggested wait parsed out of a rate-limit
// error message.
type RateLimitHint struct {
	RetryAfter time.Duration
}

// Wait is the actual sleep: one second over the hint, capped at two minutes.
func (h RateLimitHint) Wait() time.Duration {
	w := h.RetryAfter + time.Second
	if w > maxHintWait {
		w = maxHintWait
	}
	return w
}

// ParseRateLimitHint extracts a "retry in Ns" suggestion from an error
// message. Fractional seconds are truncated.
func ParseRateLimitHint(msg string) (RateLimitHint, bool) {
	m := retryInRE.FindStringSubmatch(strings.ToLower(msg))
	if m == nil {
		return RateLimitHint{}, false
	}
	sec, err := strconv.Atoi(m[1])
	if err != nil {
		return RateLimitHint{}, false
	}
	return RateLimitHint{RetryAfter: time.Duration(sec) * time.Second}, true
}

// IsPermanentQuota reports whether the error text indicates a zero quota,
// which retrying can never fix.
func IsPermanentQuota(msg string) bool {
	low := strings.ToLower(msg)
	return strings.Contains(low, "limit: 0") ||
		strings.Contains(low, "quotavalue': '0") ||
		strings.Contains(low, "quota value: 0")
}

// Backoff returns the exponential delay for a given attempt (0-based).
func Backoff(attempt int) time.Duration {
	d := baseBackoff
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

// generateWithRetry runs the call with quota detection, rate-limit-hint
// waits, and exponential backoff for everything else.
func (c *Client) generateWithRetry(ctx context.Context, model string, cfg GenConfig, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err := c.generateOnce(ctx, model, cfg, parts...)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		msg := err.Error()

		if IsPermanentQuota(msg) {
			return nil, fmt.Errorf("%w: %s", ErrQuotaExhausted, msg)
		}

		wait := Backoff(attempt)
		if hint, ok := ParseRateLimitHint(msg); ok {
			wait = hint.Wait()
			c.log.Warn("gemini rate limited", "model", model, "wait", wait, "attempt", attempt+1)
		} else {
			c.log.Warn("gemini call failed, backing off", "model", model, "wait", wait, "attempt", attempt+1, "max", maxRetries, "error", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, fmt.Errorf("gemini: retries exhausted: %w", lastErr)
}
