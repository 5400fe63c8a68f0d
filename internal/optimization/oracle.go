package optimization

import "context"

// Prediction is the oracle's performance estimate for one design.
type Prediction struct {
	Power      float64 `json:"predictedPower"` // W
	Efficiency float64 `json:"efficiency"`     // percent, 0–100
}

// Oracle estimates performance for a candidate design. Implementations may
// be expensive and may fail; any error is fatal for the in-flight run, with
// no retries. Predict must be safe for concurrent use because the genetic
// optimizer fans a whole generation out at once.
type Oracle interface {
	Predict(ctx context.Context, p DesignParameters) (Prediction, error)
}

// OracleFunc adapts a plain function to the Oracle interface.
type OracleFunc func(ctx context.Context, p DesignParameters) (Prediction, error)

// Predict calls f.
func (f OracleFunc) Predict(ctx context.Context, p DesignParameters) (Prediction, error) {
	return f(ctx, p)
}
