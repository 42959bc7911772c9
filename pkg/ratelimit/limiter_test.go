package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalSpacesRequests(t *testing.T) {
	iv := NewInterval(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, iv.Wait(ctx))
	}

	// first slot is immediate, the next two wait one interval each
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestIntervalAllow(t *testing.T) {
	iv := NewInterval(time.Hour)

	assert.True(t, iv.Allow())
	assert.False(t, iv.Allow())

	iv.Reset()
	assert.True(t, iv.Allow())
	assert.Equal(t, time.Hour, iv.Interval())
}

func TestIntervalDisabled(t *testing.T) {
	iv := NewInterval(0)
	for i := 0; i < 100; i++ {
		assert.True(t, iv.Allow())
	}
}

func TestIntervalWaitHonorsContext(t *testing.T) {
	iv := NewInterval(time.Hour)
	require.True(t, iv.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.Error(t, iv.Wait(ctx))
}

func TestPause(t *testing.T) {
	start := time.Now()
	require.NoError(t, Pause(context.Background(), 30*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

	assert.NoError(t, Pause(context.Background(), 0))
}

func TestPauseCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Pause(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestUnlimited(t *testing.T) {
	var l Limiter = Unlimited{}
	assert.True(t, l.Allow())
	assert.NoError(t, l.Wait(context.Background()))
}
