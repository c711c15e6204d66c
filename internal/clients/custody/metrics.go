package custody

import (
	"context"
	"time"

	"github.com/shade-protocol/shade-ledger/internal/observability/metrics"
	"github.com/shade-protocol/shade-ledger/internal/types"
)

type custodyWithMetrics struct {
	custody CustodyInterface
}

func NewCustodyWithMetrics(custody CustodyInterface) *custodyWithMetrics {
	return &custodyWithMetrics{custody: custody}
}

func (c *custodyWithMetrics) OpenAccount(ctx context.Context, account types.Address, owner Authority) error {
	_, err := runCustodyMethodWithMetrics("OpenAccount", func() (struct{}, error) {
		return struct{}{}, c.custody.OpenAccount(ctx, account, owner)
	})
	return err
}

func (c *custodyWithMetrics) Execute(ctx context.Context, transfers ...Transfer) error {
	_, err := runCustodyMethodWithMetrics("Execute", func() (struct{}, error) {
		return struct{}{}, c.custody.Execute(ctx, transfers...)
	})
	return err
}

func (c *custodyWithMetrics) Balance(ctx context.Context, account types.Address) (types.Amount, error) {
	return runCustodyMethodWithMetrics("Balance", func() (types.Amount, error) {
		return c.custody.Balance(ctx, account)
	})
}

func runCustodyMethodWithMetrics[T any](method string, f func() (T, error)) (T, error) {
	startTime := time.Now()
	v, err := f()
	duration := time.Since(startTime)

	metrics.RecordCustodyLatency(duration, method, err != nil)
	return v, err
}
