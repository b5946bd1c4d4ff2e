package helpers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorTaxonomyUnwraps(t *testing.T) {
	cause := errors.New("boom")
	var err error = NewAdapterError("instagram", cause)

	var adapterErr *AdapterError
	require.True(t, errors.As(err, &adapterErr))
	assert.Equal(t, "instagram", adapterErr.SourceID)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "instagram")

	err = NewDeliveryError("c1", ErrQueueFull)
	assert.ErrorIs(t, err, ErrQueueFull)

	var ruleErr *RuleEvaluationError
	err = NewRuleEvaluationError("low_engagement", Recovered("nil map"))
	require.True(t, errors.As(err, &ruleErr))
	assert.Equal(t, "low_engagement", ruleErr.Rule)
}

func TestRetryWithBackoff(t *testing.T) {
	calls := 0
	res, err := RetryWithBackoff(context.Background(), "fetch", 3, time.Millisecond, func(attempt int) (int, error) {
		calls++
		if attempt < 2 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, res)
	assert.Equal(t, 3, calls)

	_, err = RetryWithBackoff(context.Background(), "fetch", 2, time.Millisecond, func(int) (int, error) {
		return 0, errors.New("still failing")
	})
	assert.EqualError(t, err, "still failing")
}

func TestRetryWithBackoffHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RetryWithBackoff(ctx, "fetch", 5, time.Hour, func(int) (string, error) {
		return "", errors.New("down")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProxyRotation(t *testing.T) {
	pm := NewProxyManager([]string{"10.0.0.1:8080", "", "https://10.0.0.2:443"}, "pulse-agent")
	require.True(t, pm.HasProxies())

	first, _ := pm.GetCurrentProxy()
	assert.Equal(t, "http://10.0.0.1:8080", first)

	pm.RotateProxy()
	second, _ := pm.GetCurrentProxy()
	assert.Equal(t, "https://10.0.0.2:443", second)

	pm.RotateProxy()
	wrapped, _ := pm.GetCurrentProxy()
	assert.Equal(t, first, wrapped)

	assert.Equal(t, "pulse-agent", pm.GetUserAgent())
}

func TestNoProxies(t *testing.T) {
	pm := NewProxyManager(nil, "")
	assert.False(t, pm.HasProxies())
	p, err := pm.GetCurrentProxy()
	assert.NoError(t, err)
	assert.Empty(t, p)
	assert.NotEmpty(t, pm.GetUserAgent())
}

func TestRecommendedMemoryLimit(t *testing.T) {
	limit := RecommendedMemoryLimitMB()
	assert.Greater(t, limit, 0)
	if total := TotalSystemMemoryMB(); total >= fallbackMemoryLimitMB {
		assert.GreaterOrEqual(t, limit, fallbackMemoryLimitMB)
		assert.LessOrEqual(t, limit, total)
	}
}
