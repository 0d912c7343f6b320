package downloader

import (
	"context"
	"time"

	"osudl/pkg/beatmap"
	errs "osudl/pkg/errors"
	"osudl/pkg/logger"
	"osudl/pkg/metrics"
)

const (
	DefaultPacingDelay            = 2 * time.Second
	DefaultMaxConsecutiveFailures = 4
)

// ErrDownloadLimitReached is returned when too many downloads fail in a row,
// which usually means the site is refusing further downloads for now
var ErrDownloadLimitReached = errs.New(errs.ErrorTypeRateLimit, "website download limit reached")

// State of a download loop run
type State int

const (
	StateDraining State = iota
	StateAborted
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateDraining:
		return "draining"
	case StateAborted:
		return "aborted"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// DownloadFunc fetches and stores one beatmap set. It returns true on
// success and false for a failure worth retrying later. A non-nil error
// ends the run.
type DownloadFunc func(ctx context.Context, set beatmap.Set) (bool, error)

// LoopConfig configures a Loop. Zero values select the defaults.
type LoopConfig struct {
	PacingDelay            time.Duration
	MaxConsecutiveFailures int
	Sleep                  func(ctx context.Context, d time.Duration) error
	Metrics                *metrics.Metrics
}

// Result summarises a finished run
type Result struct {
	State               State
	Downloaded          int
	ConsecutiveFailures int
	TotalFailures       int
	Remaining           int
}

// Loop drains a pending set one beatmap set at a time
type Loop struct {
	pacingDelay time.Duration
	maxFailures int
	sleep       func(ctx context.Context, d time.Duration) error
	metrics     *metrics.Metrics
	logger      logger.Logger
}

// NewLoop creates a download loop
func NewLoop(cfg LoopConfig, log logger.Logger) *Loop {
	if cfg.PacingDelay <= 0 {
		cfg.PacingDelay = DefaultPacingDelay
	}
	if cfg.MaxConsecutiveFailures <= 0 {
		cfg.MaxConsecutiveFailures = DefaultMaxConsecutiveFailures
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepContext
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Loop{
		pacingDelay: cfg.PacingDelay,
		maxFailures: cfg.MaxConsecutiveFailures,
		sleep:       cfg.Sleep,
		metrics:     cfg.Metrics,
		logger:      log.WithField("component", "download_loop"),
	}
}

// MaxConsecutiveFailures returns the number of failures in a row the loop
// tolerates before it aborts
func (l *Loop) MaxConsecutiveFailures() int {
	return l.maxFailures
}

// Run pops sets from pending and hands them to fn until pending is empty or
// the run aborts. Sets that were not downloaded stay in pending.
func (l *Loop) Run(ctx context.Context, pending *beatmap.PendingSet, fn DownloadFunc) (Result, error) {
	res := Result{State: StateDraining}

	logger.LogComponentStart(l.logger, "download_loop", map[string]interface{}{
		"pending":      pending.Len(),
		"pacing_delay": l.pacingDelay,
		"max_failures": l.maxFailures,
	})

	abort := func(reason string, err error) (Result, error) {
		res.State = StateAborted
		res.Remaining = pending.Len()
		logger.LogComponentStop(l.logger, "download_loop", reason)
		return res, err
	}

	for pending.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return abort("cancelled", err)
		}

		set, _ := pending.Pop()
		ok, err := fn(ctx, set)

		if err != nil || (!ok && ctx.Err() != nil) {
			pending.Add(set)
			if ctx.Err() != nil {
				return abort("cancelled", ctx.Err())
			}
			l.logger.WithError(err).WithField("beatmapset", set.String()).Error("Unrecoverable download error")
			return abort("unrecoverable error", err)
		}

		if !ok {
			pending.Add(set)
			res.ConsecutiveFailures++
			res.TotalFailures++
			l.metrics.SetConsecutiveFailures(res.ConsecutiveFailures)

			l.logger.WarnWithFields("Download failed, set returned to pending", map[string]interface{}{
				"beatmapset":           set.String(),
				"consecutive_failures": res.ConsecutiveFailures,
			})

			if res.ConsecutiveFailures > l.maxFailures {
				return abort("download limit reached", ErrDownloadLimitReached)
			}
			continue
		}

		res.Downloaded++
		res.ConsecutiveFailures = 0
		l.metrics.SetConsecutiveFailures(0)

		if pending.Len() > 0 {
			if err := l.sleep(ctx, l.pacingDelay); err != nil {
				return abort("cancelled", err)
			}
		}
	}

	res.State = StateFinished
	logger.LogComponentStop(l.logger, "download_loop", "finished")
	return res, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
