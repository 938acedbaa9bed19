package crawler

import (
	"errors"
	"fmt"
)

var (
	// ErrNoTargets is returned by Run when a job has nothing to monitor.
	ErrNoTargets = errors.New("job has no targets")
	// ErrStoreUnavailable wraps failures of the suppression store.
	ErrStoreUnavailable = errors.New("suppression store unavailable")
)

// TransportError reports a failed HTTP retrieval.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("GET %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ParseError reports a response body that is not a usable JSON document.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return e.Reason
}

// TargetError ties a fetch or parse failure to the target that aborted the run.
type TargetError struct {
	Job    string
	Target string
	Err    error
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("job %s target %s: %v", e.Job, e.Target, e.Err)
}

func (e *TargetError) Unwrap() error {
	return e.Err
}
