package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quoteScope/internal/model"
)

type countingSink struct {
	n   int
	err error
}

func (c *countingSink) PutResults(results []model.ScenarioResult) error {
	c.n += len(results)
	return c.err
}

func TestMultiFansOut(t *testing.T) {
	a := &countingSink{}
	b := &countingSink{err: errors.New("db down")}
	c := &countingSink{}

	err := Multi{a, b, c}.PutResults([]model.ScenarioResult{{ScenarioID: "x"}, {ScenarioID: "y"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Equal(t, 2, a.n)
	assert.Equal(t, 2, c.n)

	require.NoError(t, Multi{a}.PutResults(nil))
}
