package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	m := Get()
	require.NotNil(t, m)
	assert.Same(t, m, Get())

	// Default global provider is a no-op; recording must not panic.
	assert.NotPanics(t, func() {
		m.LoginAttemptsTotal.Add(context.Background(), 1)
		m.DbQueryDurationSeconds.Record(context.Background(), 0.01)
	})
}
