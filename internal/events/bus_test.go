package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusAddPostRemove(t *testing.T) {
	bus := NewBus(nil)
	ctx := context.Background()

	var calls []string
	k1 := bus.Add("play1", func(ctx context.Context, kwargs map[string]any) error {
		calls = append(calls, "first")
		return nil
	})
	bus.Add("play1", func(ctx context.Context, kwargs map[string]any) error {
		calls = append(calls, "second")
		return nil
	})

	assert.True(t, bus.Exists("play1"))
	require.NoError(t, bus.Post(ctx, "play1", nil))
	assert.Equal(t, []string{"first", "second"}, calls)

	bus.Remove(k1)
	calls = nil
	require.NoError(t, bus.Post(ctx, "play1", nil))
	assert.Equal(t, []string{"second"}, calls)

	require.NoError(t, bus.Post(ctx, "nobody_listens", nil))
}

func TestBusRemoveLastHandlerRemovesEvent(t *testing.T) {
	bus := NewBus(nil)
	key := bus.Add("stop1", func(ctx context.Context, kwargs map[string]any) error { return nil })

	bus.Remove(key)
	assert.False(t, bus.Exists("stop1"))

	// removing twice is harmless
	bus.Remove(key)
}

func TestBusPostReturnsFirstError(t *testing.T) {
	bus := NewBus(nil)
	boom := errors.New("boom")

	ran := false
	bus.Add("e", func(ctx context.Context, kwargs map[string]any) error { return boom })
	bus.Add("e", func(ctx context.Context, kwargs map[string]any) error {
		ran = true
		return nil
	})

	err := bus.Post(context.Background(), "e", nil)
	assert.ErrorIs(t, err, boom)
	assert.True(t, ran, "later handlers still run")
}
