// Package notifier provides crawler.Notifier decorators and the log-only channel.
package notifier

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/crawler-notifier/internal/crawler"
	"github.com/JakeFAU/crawler-notifier/internal/policy/ratelimit"
)

// Log writes messages to a zap logger instead of a chat channel. Used for dry runs.
type Log struct {
	logger *zap.Logger
}

// NewLog constructs a Log notifier.
func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

// Send logs message and always reports delivery.
func (n *Log) Send(_ context.Context, message string) error {
	n.logger.Info("notification", zap.String("message", message))
	return nil
}

// Throttled rate-limits another notifier on a named channel.
type Throttled struct {
	next    crawler.Notifier
	limiter *ratelimit.Limiter
	channel string
}

// NewThrottled wraps next so that sends share the limiter bucket for channel.
func NewThrottled(next crawler.Notifier, limiter *ratelimit.Limiter, channel string) *Throttled {
	return &Throttled{next: next, limiter: limiter, channel: channel}
}

// Send waits for a token and then delegates. A wait that cannot be satisfied
// counts as a failed send.
func (t *Throttled) Send(ctx context.Context, message string) error {
	if err := t.limiter.Wait(ctx, t.channel); err != nil {
		return fmt.Errorf("notify %s: %w", t.channel, err)
	}
	return t.next.Send(ctx, message)
}
