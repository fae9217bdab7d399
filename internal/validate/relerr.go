package validate

import (
	"github.com/shopspring/decimal"

	"quoteScope/internal/model"
)

const relErrPrecision = 36

// RelErr is a relative error that may be infinite.
type RelErr struct {
	Value decimal.Decimal
	Inf   bool
}

// Within reports whether the error does not exceed tolerance.
func (r RelErr) Within(tolerance decimal.Decimal) bool {
	return !r.Inf && r.Value.LessThanOrEqual(tolerance)
}

func (r RelErr) Equal(other RelErr) bool {
	if r.Inf || other.Inf {
		return r.Inf == other.Inf
	}
	return r.Value.Equal(other.Value)
}

func (r RelErr) String() string {
	if r.Inf {
		return "+Inf"
	}
	return r.Value.String()
}

// RelativeError returns |expected − actual| / |expected|. A zero expectation yields zero when
// actual is also zero and +Inf otherwise.
func RelativeError(expected, actual decimal.Decimal) RelErr {
	if expected.IsZero() {
		if actual.IsZero() {
			return RelErr{Value: decimal.Zero}
		}
		return RelErr{Inf: true}
	}
	return RelErr{Value: expected.Sub(actual).Abs().DivRound(expected.Abs(), relErrPrecision)}
}

// IsTransmuterInSingleRoute reports whether route is one non-empty path made only of transmuter hops.
func IsTransmuterInSingleRoute(route []model.Path) bool {
	if len(route) != 1 || len(route[0].Hops) == 0 {
		return false
	}
	for _, hop := range route[0].Hops {
		if hop.PoolType != model.PoolTypeTransmuter {
			return false
		}
	}
	return true
}
