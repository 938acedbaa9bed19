package crawler

import (
	"fmt"
	"time"
)

const suppressionKeyFormat = "notify:stop:%s:%s"

// DefaultQuietCutoff is the daily cutoff used when a job does not set one.
var DefaultQuietCutoff = QuietCutoff{Hour: 22, Minute: 30}

// QuietCutoff is a time of day (HH:MM) in the clock's location.
type QuietCutoff struct {
	Hour   int
	Minute int
}

// ParseQuietCutoff parses an HH:MM string.
func ParseQuietCutoff(s string) (QuietCutoff, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return QuietCutoff{}, fmt.Errorf("parse quiet cutoff %q: %w", s, err)
	}
	return QuietCutoff{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c QuietCutoff) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// NextQuietCutoff returns today's cutoff when now is strictly before it and
// tomorrow's otherwise. The result always lies in (now, now+24h].
func NextQuietCutoff(now time.Time, cutoff QuietCutoff) time.Time {
	y, m, d := now.Date()
	next := time.Date(y, m, d, cutoff.Hour, cutoff.Minute, 0, 0, now.Location())
	if !now.Before(next) {
		next = time.Date(y, m, d+1, cutoff.Hour, cutoff.Minute, 0, 0, now.Location())
	}
	// A 25h day around a DST switch would overshoot the window.
	if limit := now.Add(24 * time.Hour); next.After(limit) {
		next = limit
	}
	return next
}

// SuppressionKey builds the store key shared by every process running jobName.
func SuppressionKey(jobName, target string) string {
	return fmt.Sprintf(suppressionKeyFormat, jobName, target)
}
