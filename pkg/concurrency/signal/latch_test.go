package signal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLatchWaitBlocksUntilSet(t *testing.T) {
	l := New()
	require.False(t, l.IsSet())

	done := make(chan error, 1)
	go func() {
		done <- l.Wait(context.Background())
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before Set was called")
	case <-time.After(20 * time.Millisecond):
	}

	l.Set()
	require.NoError(t, <-done)
	require.True(t, l.IsSet())
}

func TestLatchResetClosesGateAgain(t *testing.T) {
	l := NewSet()
	require.True(t, l.IsSet())

	l.Reset()
	require.False(t, l.IsSet())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, l.Wait(ctx), context.DeadlineExceeded)
}

func TestLatchWaitRespectsCanceledContext(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, l.Wait(ctx), context.Canceled)
}

func TestLatchSetIsIdempotent(t *testing.T) {
	l := New()
	l.Set()
	require.NotPanics(t, func() { l.Set() })
	require.True(t, l.IsSet())
}
