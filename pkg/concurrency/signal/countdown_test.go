package signal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCountdownEventFiresAfterAllSignals(t *testing.T) {
	c := NewCountdownEvent(3)
	require.Equal(t, 3, c.Remaining())

	c.Signal()
	c.Signal()

	select {
	case <-c.Done():
		t.Fatal("Done fired before all signals arrived")
	default:
	}

	c.Signal()
	select {
	case <-c.Done():
	case <-time.After(50 * time.Millisecond):
		t.Fatal("Done did not fire after final signal")
	}
}

func TestCountdownEventZeroCountFiresImmediately(t *testing.T) {
	c := NewCountdownEvent(0)
	require.NoError(t, c.Wait(context.Background()))
}

func TestCountdownEventOverSignalPanics(t *testing.T) {
	c := NewCountdownEvent(1)
	c.Signal()
	require.Panics(t, func() { c.Signal() })
}

func TestCountdownEventWaitRespectsContext(t *testing.T) {
	c := NewCountdownEvent(1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, c.Wait(ctx), context.DeadlineExceeded)
}

func TestCountdownEventAddParticipantsExtendsTheCount(t *testing.T) {
	c := NewCountdownEvent(1)
	c.AddParticipants(2)
	require.Equal(t, 3, c.Remaining())

	c.Signal()
	c.Signal()
	select {
	case <-c.Done():
		t.Fatal("Done fired before every participant signaled")
	default:
	}

	c.Signal()
	select {
	case <-c.Done():
	case <-time.After(50 * time.Millisecond):
		t.Fatal("Done did not fire after the last participant signaled")
	}
}

func TestCountdownEventAddParticipantsAfterFirePanics(t *testing.T) {
	c := NewCountdownEvent(1)
	c.Signal()
	require.Panics(t, func() { c.AddParticipants(1) })
}
