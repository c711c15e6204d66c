package metrics

import (
	"context"
	"errors"
	"time"
)

// PollFunc is one run of a periodic job.
type PollFunc func(ctx context.Context) error

// InstrumentPoll times every run of f under the job label.
func InstrumentPoll(job string, f PollFunc) PollFunc {
	return func(ctx context.Context) error {
		startTime := time.Now()
		err := f(ctx)
		pollerDurationHistogram.
			WithLabelValues(job, pollOutcome(err).String()).
			Observe(time.Since(startTime).Seconds())
		return err
	}
}

// a run cut short by shutdown is not a failure of the job
func pollOutcome(err error) Outcome {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, context.Canceled):
		return Cancelled
	default:
		return Error
	}
}
