package storage

import (
	"errors"

	"quoteScope/internal/model"
)

// Multi fans results out to several sinks. Every sink receives every batch; errors are joined.
type Multi []Storage

func (m Multi) PutResults(results []model.ScenarioResult) error {
	var errs []error
	for _, s := range m {
		if err := s.PutResults(results); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
