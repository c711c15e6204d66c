package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPollOutcome(t *testing.T) {
	assert.Equal(t, Success, pollOutcome(nil))
	assert.Equal(t, Error, pollOutcome(errors.New("write conflict")))
	assert.Equal(t, Cancelled, pollOutcome(context.Canceled))
	assert.Equal(t, Cancelled, pollOutcome(fmt.Errorf("distribute: %w", context.Canceled)))
}

func TestInstrumentPoll(t *testing.T) {
	errFailed := errors.New("failed")
	calls := 0
	failing := false
	run := InstrumentPoll("instrument_poll_test", func(ctx context.Context) error {
		calls++
		if failing {
			return errFailed
		}
		return nil
	})

	series := promtestutil.CollectAndCount(pollerDurationHistogram)

	assert.NoError(t, run(t.Context()))
	assert.NoError(t, run(t.Context()))
	assert.Equal(t, series+1, promtestutil.CollectAndCount(pollerDurationHistogram))

	failing = true
	assert.ErrorIs(t, run(t.Context()), errFailed)
	assert.Equal(t, series+2, promtestutil.CollectAndCount(pollerDurationHistogram))
	assert.Equal(t, 3, calls)
}
