package simulated

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicWalk(t *testing.T) {
	now := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)
	a := New(0, 7)
	b := New(0, 7)
	a.Clock = func() time.Time { return now }
	b.Clock = a.Clock

	for i := 0; i < 20; i++ {
		sa, err := a.FetchSample(context.Background(), "instagram")
		require.NoError(t, err)
		sb, err := b.FetchSample(context.Background(), "instagram")
		require.NoError(t, err)

		assert.Equal(t, sa, sb)
		assert.Equal(t, "instagram", sa.SourceID)
		assert.GreaterOrEqual(t, sa.Engagement, 0.0)
		assert.LessOrEqual(t, sa.Engagement, 100.0)
	}
}

func TestFailureRate(t *testing.T) {
	a := New(1, 1)
	_, err := a.FetchSample(context.Background(), "x")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(0, 1).FetchSample(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
