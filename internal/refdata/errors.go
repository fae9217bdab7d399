package refdata

import "fmt"

// DataUnavailableError reports a denom whose price or exponent is not known.
// Scenarios hitting it are skipped rather than failed.
type DataUnavailableError struct {
	Denom string
	Field string
}

func (e *DataUnavailableError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("reference data unavailable for denom %s", e.Denom)
	}
	return fmt.Sprintf("reference %s unavailable for denom %s", e.Field, e.Denom)
}
