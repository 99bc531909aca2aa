// Package generation orchestrates text-to-3D generation: it drives the
// remote job client through a bounded polling loop and composes the credit
// ledger and model record store into the operations the front door exposes.
package generation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamadhk7/3D-AR-GENERATOR/tripo"
	"github.com/hamadhk7/3D-AR-GENERATOR/types"
)

// State is the poll controller's state machine vocabulary.
type State string

const (
	StateSubmitted State = "submitted"
	StatePolling   State = "polling"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed_out"
)

// Default polling parameters, matching the remote provider's pacing.
const (
	DefaultPollInterval = 5 * time.Second
	DefaultPollTimeout  = 300 * time.Second
)

// StatusChecker is the slice of the remote client the poller needs.
type StatusChecker interface {
	GetStatus(ctx context.Context, handle tripo.JobHandle) (*tripo.Job, error)
}

// PollResult carries the terminal state, the last job snapshot observed, and
// the number of status checks performed.
type PollResult struct {
	State  State
	Job    *tripo.Job
	Checks int
}

// Poller drives a submitted job to a terminal state. No partial results are
// exposed mid-poll; callers needing progress should call GetStatus themselves.
type Poller struct {
	checker  StatusChecker
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInterval sets the pause between status checks.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithTimeout bounds the total wall-clock time spent polling.
func WithTimeout(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithPollClock overrides the time source and sleep function. Used in tests.
func WithPollClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) PollerOption {
	return func(p *Poller) {
		p.now = now
		p.sleep = sleep
	}
}

// NewPoller creates a Poller around the given status checker.
func NewPoller(checker StatusChecker, logger *zap.Logger, opts ...PollerOption) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Poller{
		checker:  checker,
		interval: DefaultPollInterval,
		timeout:  DefaultPollTimeout,
		logger:   logger.With(zap.String("component", "poller")),
		now:      time.Now,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run polls the job until it reaches a terminal state or the timeout
// elapses. The first check happens immediately; the loop sleeps the poll
// interval between checks, which is the sole suspension point, so concurrent
// generations each poll independently.
//
// On timeout the job may still complete on the remote side afterwards; that
// race is accepted and the result is reported as timed out, not failed.
// Unrecognized provider statuses are treated as transient and logged.
func (p *Poller) Run(ctx context.Context, handle tripo.JobHandle) (*PollResult, error) {
	result := &PollResult{State: StateSubmitted}
	start := p.now()
	result.State = StatePolling

	for {
		job, err := p.checker.GetStatus(ctx, handle)
		result.Checks++
		if err != nil {
			result.State = StateFailed
			return result, types.NewError(types.ErrRemoteFailure, "status check failed while polling").
				WithCause(err).
				WithProvider("tripo3d")
		}
		result.Job = job

		switch job.Status {
		case tripo.StatusSucceeded:
			result.State = StateSucceeded
			p.logger.Info("generation succeeded",
				zap.String("task_id", handle.TaskID),
				zap.Int("checks", result.Checks),
			)
			return result, nil

		case tripo.StatusFailed:
			result.State = StateFailed
			msg := job.FailureMessage
			if msg == "" {
				msg = "provider reported generation failure"
			}
			return result, types.NewError(types.ErrRemoteFailure, msg).
				WithProvider("tripo3d")

		case tripo.StatusQueued, tripo.StatusRunning:
			p.logger.Debug("generation in progress",
				zap.String("task_id", handle.TaskID),
				zap.String("status", string(job.Status)),
				zap.Int("progress", job.ProgressPercent),
			)

		default:
			// Transient: stay polling, but make the oddity visible.
			p.logger.Warn("unrecognized generation status",
				zap.String("task_id", handle.TaskID),
				zap.String("raw_status", job.RawStatus),
			)
		}

		if p.now().Sub(start)+p.interval > p.timeout {
			result.State = StateTimedOut
			return result, types.NewError(types.ErrPollTimeout,
				fmt.Sprintf("generation timed out after %s; the remote job may still complete", p.timeout)).
				WithProvider("tripo3d").
				WithRetryable(true)
		}

		if err := p.sleep(ctx, p.interval); err != nil {
			result.State = StateTimedOut
			return result, types.NewError(types.ErrPollTimeout, "polling cancelled").
				WithCause(err).
				WithProvider("tripo3d")
		}
	}
}
