package optimization

import (
	"context"
	"sync/atomic"
)

// constOracle predicts the same performance for every design.
func constOracle(power, efficiency float64) Oracle {
	return OracleFunc(func(_ context.Context, _ DesignParameters) (Prediction, error) {
		return Prediction{Power: power, Efficiency: efficiency}, nil
	})
}

// countingOracle wraps an oracle and counts predictions. Safe under the
// genetic optimizer's concurrent fan-out.
type countingOracle struct {
	inner Oracle
	calls atomic.Int64
}

func (c *countingOracle) Predict(ctx context.Context, p DesignParameters) (Prediction, error) {
	c.calls.Add(1)
	return c.inner.Predict(ctx, p)
}

// failingOracle returns err on every call.
func failingOracle(err error) Oracle {
	return OracleFunc(func(_ context.Context, _ DesignParameters) (Prediction, error) {
		return Prediction{}, err
	})
}
