package governor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGovernor(capKB float64, cooldown time.Duration) (*Governor, *[]time.Duration) {
	g := New(capKB, cooldown)
	var slept []time.Duration
	g.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return g, &slept
}

func TestCheck_BelowCapPassesThrough(t *testing.T) {
	g, slept := newTestGovernor(1_800_000, time.Hour)

	total, suspended, err := g.Check(context.Background(), 1_799_999)
	require.NoError(t, err)
	assert.Equal(t, 1_799_999.0, total)
	assert.False(t, suspended)
	assert.Empty(t, *slept)
}

func TestCheck_AtCapSuspendsAndResets(t *testing.T) {
	g, slept := newTestGovernor(1_800_000, time.Hour)

	total, suspended, err := g.Check(context.Background(), 1_800_000)
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)
	assert.True(t, suspended)
	require.Len(t, *slept, 1)
	assert.Equal(t, time.Hour, (*slept)[0])
}

func TestCheck_CancelledDuringCooldown(t *testing.T) {
	g := New(100, time.Hour)
	g.sleep = func(ctx context.Context, _ time.Duration) error {
		return context.Canceled
	}

	total, suspended, err := g.Check(context.Background(), 150)
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, suspended)
	// The total is not reset when the cooldown was interrupted.
	assert.Equal(t, 150.0, total)
}

func TestCheck_ZeroTotal(t *testing.T) {
	g, slept := newTestGovernor(1_800_000, time.Hour)

	total, suspended, err := g.Check(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)
	assert.False(t, suspended)
	assert.Empty(t, *slept)
}
