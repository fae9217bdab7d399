package harness

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"quoteScope/internal/model"
	"quoteScope/internal/quoteclient"
	"quoteScope/internal/refdata"
	"quoteScope/internal/validate"
)

// ImbalancedPoolError marks a transmuter pool with a constituent below the minimum liquidity.
type ImbalancedPoolError struct {
	Denom     string
	Liquidity decimal.Decimal
	Minimum   decimal.Decimal
}

func (e *ImbalancedPoolError) Error() string {
	return fmt.Sprintf("pool constituent %s liquidity %s below %s USD", e.Denom, e.Liquidity, e.Minimum)
}

// Classify maps a scenario error to its status and failure class.
func Classify(err error) (model.Status, model.FailureClass) {
	if err == nil {
		return model.StatusPassed, model.ClassNone
	}

	var (
		unavailable *refdata.DataUnavailableError
		imbalanced  *ImbalancedPoolError
		assertion   *validate.AssertionFailure
		service     *quoteclient.ServiceError
		latency     *quoteclient.LatencySLAViolation
		decode      *quoteclient.DecodeError
	)
	switch {
	case errors.As(err, &unavailable), errors.As(err, &imbalanced):
		return model.StatusSkipped, model.ClassNone
	case errors.As(err, &assertion):
		return model.StatusFailed, model.ClassAssertion
	case errors.As(err, &service):
		return model.StatusFailed, model.ClassServiceError
	case errors.As(err, &latency):
		return model.StatusFailed, model.ClassLatencySLA
	case errors.As(err, &decode):
		return model.StatusFailed, model.ClassDecodeError
	default:
		return model.StatusFailed, model.ClassTransportError
	}
}
