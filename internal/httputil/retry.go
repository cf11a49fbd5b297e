package httputil

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"net"
	"net/http"
	"slices"
	"syscall"
	"time"
)

// RetryConfig controls how reads are retried. Only GET, HEAD and OPTIONS
// are ever retried: a cart mutation or beacon that reached the server once
// must not be replayed.
type RetryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	// Jitter is the fraction (0..1) of each delay that is randomized.
	Jitter               float64
	RetryableStatusCodes []int
}

// DefaultRetryConfig retries reads twice on throttling and gateway errors.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        2,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        2 * time.Second,
		BackoffMultiplier: 2,
		Jitter:            0.1,
		RetryableStatusCodes: []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

// delay returns the wait before retry number attempt (1-based).
func (rc RetryConfig) delay(attempt int) time.Duration {
	d := float64(rc.InitialBackoff)
	growth := rc.BackoffMultiplier
	if growth < 1 {
		growth = 1
	}
	for i := 1; i < attempt; i++ {
		d *= growth
		if rc.MaxBackoff > 0 && d >= float64(rc.MaxBackoff) {
			break
		}
	}
	if rc.MaxBackoff > 0 && d > float64(rc.MaxBackoff) {
		d = float64(rc.MaxBackoff)
	}
	if rc.Jitter > 0 {
		d += d * rc.Jitter * (2*rand.Float64() - 1)
	}
	return time.Duration(d)
}

func (rc RetryConfig) retryableStatus(code int) bool {
	return slices.Contains(rc.RetryableStatusCodes, code)
}

func isIdempotent(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

// transient reports whether a transport error is worth another attempt.
// Cancellation and deadlines from the caller never are.
func transient(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, syscall.ECONNRESET):
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
