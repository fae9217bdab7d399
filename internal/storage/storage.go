package storage

import "quoteScope/internal/model"

// Storage defines a sink for scenario results.
type Storage interface {
	PutResults(results []model.ScenarioResult) error
}
