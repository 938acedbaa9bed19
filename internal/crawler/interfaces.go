package crawler

import (
	"context"
	"time"
)

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// SuppressionStore is a shared key/value store with per-key expiry.
type SuppressionStore interface {
	IsSuppressed(ctx context.Context, key string) (bool, error)
	SuppressUntil(ctx context.Context, key string, expiresAt time.Time) error
}

// Fetcher retrieves a URL and returns the response body.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Notifier delivers a text message to an external chat channel.
// A nil error means the channel acknowledged delivery.
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// LogSink receives one record per HTTP attempt.
type LogSink interface {
	Record(rec AttemptRecord)
}

// AlertRecorder persists delivered alerts.
type AlertRecorder interface {
	RecordAlert(ctx context.Context, rec AlertRecord) error
}

// IDGenerator produces run and alert IDs.
type IDGenerator interface {
	NewID() (string, error)
}
