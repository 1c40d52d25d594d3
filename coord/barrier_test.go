package coord

import (
	"testing"
	"time"

	"github.com/ceyewan/genesis/testkit"
	"github.com/stretchr/testify/require"
)

func TestBarrier_SetWaitRemove(t *testing.T) {
	ctx, cancel := testkit.NewContext(t, 30*time.Second)
	defer cancel()

	conn := newTestConnector(t, testkit.NewEtcdContainerConnector(t))
	path := testPath(t, "barrier")

	b, err := NewBarrier(conn, path, 2*time.Second)
	require.NoError(t, err)

	set, err := b.IsSet(ctx)
	require.NoError(t, err)
	require.False(t, set)

	ok, err := b.Set(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	set, err = b.IsSet(ctx)
	require.NoError(t, err)
	require.True(t, set)

	// A second Set call on the same instance is a no-op success, not a race.
	ok, err = b.Set(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	done := make(chan bool, 1)
	go func() {
		released, _ := b.Wait(ctx, 10*time.Second)
		done <- released
	}()

	time.Sleep(200 * time.Millisecond)
	removed, err := b.Remove(ctx)
	require.NoError(t, err)
	require.True(t, removed)

	select {
	case released := <-done:
		require.True(t, released)
	case <-time.After(5 * time.Second):
		t.Fatal("waiter never released after barrier removal")
	}

	// Removing an already-removed barrier from this instance is a no-op.
	removed, err = b.Remove(ctx)
	require.NoError(t, err)
	require.False(t, removed)
}

func TestBarrier_SecondSetterLoses(t *testing.T) {
	ctx, cancel := testkit.NewContext(t, 30*time.Second)
	defer cancel()

	etcdConn := testkit.NewEtcdContainerConnector(t)
	conn := newTestConnector(t, etcdConn)
	path := testPath(t, "barrier")

	first, err := NewBarrier(conn, path, 2*time.Second)
	require.NoError(t, err)
	second, err := NewBarrier(conn, path, 2*time.Second)
	require.NoError(t, err)

	ok, err := first.Set(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.Set(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

// TestBarrier_ReleasedWhenHolderDies simulates a crashed holder: closing the
// holder's coord connector stops its keep-alive, so the lease expires and
// deletes the barrier key, releasing waiters within ~2x the lease TTL.
func TestBarrier_ReleasedWhenHolderDies(t *testing.T) {
	ctx, cancel := testkit.NewContext(t, 30*time.Second)
	defer cancel()

	etcdConn := testkit.NewEtcdContainerConnector(t)
	holderConn := newTestConnector(t, etcdConn)
	waiterConn := newTestConnector(t, etcdConn)
	path := testPath(t, "barrier")

	holder, err := NewBarrier(holderConn, path, 2*time.Second)
	require.NoError(t, err)
	ok, err := holder.Set(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	waiter, err := NewBarrier(waiterConn, path, 2*time.Second)
	require.NoError(t, err)

	done := make(chan bool, 1)
	go func() {
		released, _ := waiter.Wait(ctx, 10*time.Second)
		done <- released
	}()

	time.Sleep(200 * time.Millisecond)
	require.NoError(t, holderConn.Close()) // "crash": keep-alive stops

	select {
	case released := <-done:
		require.True(t, released)
	case <-time.After(4 * time.Second): // 2x TTL
		t.Fatal("waiter not released within 2x lease TTL after holder death")
	}
}

func TestBarrier_WaitReturnsImmediatelyWhenUnset(t *testing.T) {
	ctx, cancel := testkit.NewContext(t, 30*time.Second)
	defer cancel()

	conn := newTestConnector(t, testkit.NewEtcdContainerConnector(t))
	b, err := NewBarrier(conn, testPath(t, "barrier"), 2*time.Second)
	require.NoError(t, err)

	released, err := b.Wait(ctx, 5*time.Second)
	require.NoError(t, err)
	require.True(t, released)
}
