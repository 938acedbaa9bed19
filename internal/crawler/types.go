package crawler

import (
	"time"

	"github.com/tidwall/gjson"
)

// JobStatus represents the terminal state of a job run.
type JobStatus string

// Job status values reported by Run and used as exit-code source.
const (
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// Outcome is the terminal state reached by a single target within a run.
type Outcome string

// Per-target terminal states.
const (
	OutcomeSilent     Outcome = "silent"
	OutcomeSuppressed Outcome = "suppressed"
	OutcomeSent       Outcome = "sent"
	OutcomeSendFailed Outcome = "send_failed"
	OutcomeAborted    Outcome = "aborted"
)

// Evaluator inspects a parsed response for one target and decides whether to alert.
// Implementations must be pure: no I/O, no side effects.
type Evaluator func(doc gjson.Result, target string) AlertDecision

// AlertDecision is the evaluator verdict for one target.
type AlertDecision struct {
	Alert   bool
	Message string
}

// Silent is the no-alert decision.
func Silent() AlertDecision {
	return AlertDecision{}
}

// Alert requests a notification carrying message.
func Alert(message string) AlertDecision {
	return AlertDecision{Alert: true, Message: message}
}

// JobDescriptor is the static description of one kind of crawl.
type JobDescriptor struct {
	// Name is the snake_case slug used for log paths and suppression keys.
	Name string
	// URLTemplate holds exactly one %s slot for the target id.
	URLTemplate string
	Targets     []string
	QuietCutoff QuietCutoff
}

// TargetOutcome records what happened to one target during a run.
type TargetOutcome struct {
	Target  string  `json:"target"`
	URL     string  `json:"url"`
	Outcome Outcome `json:"outcome"`
	Message string  `json:"message,omitempty"`
}

// RunCounters tracks per-run statistics.
type RunCounters struct {
	Fetched     int `json:"fetched"`
	Alerts      int `json:"alerts"`
	Sent        int `json:"sent"`
	Suppressed  int `json:"suppressed"`
	SendFailed  int `json:"send_failed"`
	StoreErrors int `json:"store_errors"`
}

// RunResult summarizes a single Job.Run invocation.
type RunResult struct {
	RunID    string          `json:"run_id"`
	Job      string          `json:"job"`
	Status   JobStatus       `json:"status"`
	Started  time.Time       `json:"started_at"`
	Finished time.Time       `json:"finished_at"`
	Counters RunCounters     `json:"counters"`
	Targets  []TargetOutcome `json:"targets"`
}

// AttemptRecord is the structured log entry emitted for every HTTP attempt.
// The five fields and their JSON names are a stable external contract.
type AttemptRecord struct {
	ReqHeaders string `json:"req_headers"`
	ReqBody    string `json:"req_body"`
	ResHeaders string `json:"res_headers"`
	ResBody    string `json:"res_body"`
	Error      string `json:"error"`
}

// AlertRecord is persisted for every delivered notification.
type AlertRecord struct {
	ID              string    `json:"id"`
	RunID           string    `json:"run_id"`
	JobName         string    `json:"job_name"`
	Target          string    `json:"target"`
	Message         string    `json:"message"`
	SentAt          time.Time `json:"sent_at"`
	SuppressedUntil time.Time `json:"suppressed_until"`
}
