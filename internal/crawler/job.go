package crawler

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const stoppingMessagePrefix = "notify stopping. "

// Job sweeps every target of one JobDescriptor and notifies on alerts.
type Job struct {
	desc      JobDescriptor
	evaluator Evaluator
	fetcher   Fetcher
	notifier  Notifier
	store     SuppressionStore
	clock     Clock
	ids       IDGenerator
	recorder  AlertRecorder
	logger    *zap.Logger
}

// NewJob constructs a Job. ids and recorder may be nil.
func NewJob(
	desc JobDescriptor,
	evaluator Evaluator,
	fetcher Fetcher,
	notifier Notifier,
	store SuppressionStore,
	clock Clock,
	ids IDGenerator,
	recorder AlertRecorder,
	logger *zap.Logger,
) *Job {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Job{
		desc:      desc,
		evaluator: evaluator,
		fetcher:   fetcher,
		notifier:  notifier,
		store:     store,
		clock:     clock,
		ids:       ids,
		recorder:  recorder,
		logger:    logger,
	}
}

// Name returns the job slug.
func (j *Job) Name() string {
	return j.desc.Name
}

// Run fetches and evaluates every target in declared order. The first fetch or
// parse failure is announced through the guarded notify path and aborts the run.
func (j *Job) Run(ctx context.Context) (RunResult, error) {
	result := RunResult{
		RunID:   j.newID(),
		Job:     j.desc.Name,
		Status:  JobStatusFailed,
		Started: j.clock.Now(),
	}
	logger := j.logger.With(zap.String("job", j.desc.Name), zap.String("run_id", result.RunID))

	if len(j.desc.Targets) == 0 {
		logger.Error("job has no targets configured")
		result.Finished = j.clock.Now()
		return result, ErrNoTargets
	}

	logger.Info("run started", zap.Int("targets", len(j.desc.Targets)))
	for _, target := range j.desc.Targets {
		outcome, err := j.processTarget(ctx, logger.With(zap.String("target", target)), &result, target)
		result.Targets = append(result.Targets, outcome)
		if err != nil {
			result.Finished = j.clock.Now()
			logger.Error("run aborted", zap.String("target", target), zap.Error(err))
			return result, &TargetError{Job: j.desc.Name, Target: target, Err: err}
		}
	}

	result.Status = JobStatusSucceeded
	result.Finished = j.clock.Now()
	logger.Info("run finished",
		zap.Int("alerts", result.Counters.Alerts),
		zap.Int("sent", result.Counters.Sent),
		zap.Int("suppressed", result.Counters.Suppressed),
	)
	return result, nil
}

func (j *Job) processTarget(
	ctx context.Context,
	logger *zap.Logger,
	result *RunResult,
	target string,
) (TargetOutcome, error) {
	url := fmt.Sprintf(j.desc.URLTemplate, target)
	outcome := TargetOutcome{Target: target, URL: url}

	result.Counters.Fetched++
	body, err := j.fetcher.Fetch(ctx, url)
	if err != nil {
		return j.abort(ctx, logger, result, outcome, err)
	}
	doc, err := ParseDocument(body)
	if err != nil {
		return j.abort(ctx, logger, result, outcome, err)
	}

	decision := j.evaluator(doc, target)
	if !decision.Alert {
		logger.Debug("evaluator silent")
		outcome.Outcome = OutcomeSilent
		return outcome, nil
	}
	result.Counters.Alerts++
	outcome.Message = decision.Message
	outcome.Outcome = j.guardedNotify(ctx, logger, result, target, decision.Message)
	return outcome, nil
}

func (j *Job) abort(
	ctx context.Context,
	logger *zap.Logger,
	result *RunResult,
	outcome TargetOutcome,
	cause error,
) (TargetOutcome, error) {
	logger.Warn("target failed", zap.String("url", outcome.URL), zap.Error(cause))
	outcome.Message = stoppingMessagePrefix + cause.Error()
	j.guardedNotify(ctx, logger, result, outcome.Target, outcome.Message)
	outcome.Outcome = OutcomeAborted
	return outcome, cause
}

// guardedNotify is the only place that talks to the notifier. A store read
// failure fails open; a suppression entry is written only after a delivery.
func (j *Job) guardedNotify(
	ctx context.Context,
	logger *zap.Logger,
	result *RunResult,
	target string,
	message string,
) Outcome {
	key := SuppressionKey(j.desc.Name, target)

	suppressed, err := j.store.IsSuppressed(ctx, key)
	switch {
	case err != nil:
		result.Counters.StoreErrors++
		logger.Warn("suppression lookup failed, notifying anyway", zap.String("key", key), zap.Error(err))
	case suppressed:
		result.Counters.Suppressed++
		logger.Info("notification suppressed", zap.String("key", key))
		return OutcomeSuppressed
	}

	if err := j.notifier.Send(ctx, message); err != nil {
		result.Counters.SendFailed++
		logger.Error("notification failed", zap.Error(err))
		return OutcomeSendFailed
	}
	result.Counters.Sent++

	now := j.clock.Now()
	expiresAt := NextQuietCutoff(now, j.desc.QuietCutoff)
	if err := j.store.SuppressUntil(ctx, key, expiresAt); err != nil {
		result.Counters.StoreErrors++
		logger.Warn("suppression write failed", zap.String("key", key), zap.Error(err))
	} else {
		logger.Info("notification sent",
			zap.String("key", key),
			zap.Time("suppressed_until", expiresAt),
		)
	}

	j.recordAlert(ctx, logger, AlertRecord{
		RunID:           result.RunID,
		JobName:         j.desc.Name,
		Target:          target,
		Message:         message,
		SentAt:          now,
		SuppressedUntil: expiresAt,
	})
	return OutcomeSent
}

func (j *Job) recordAlert(ctx context.Context, logger *zap.Logger, rec AlertRecord) {
	if j.recorder == nil {
		return
	}
	rec.ID = j.newID()
	if err := j.recorder.RecordAlert(ctx, rec); err != nil {
		logger.Warn("alert history write failed", zap.Error(err))
	}
}

func (j *Job) newID() string {
	if j.ids == nil {
		return ""
	}
	id, err := j.ids.NewID()
	if err != nil {
		j.logger.Warn("id generation failed", zap.Error(err))
		return ""
	}
	return id
}
