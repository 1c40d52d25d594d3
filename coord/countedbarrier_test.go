package coord

import (
	"sync"
	"testing"
	"time"

	"github.com/ceyewan/genesis/testkit"
	"github.com/stretchr/testify/require"
	clientv3 "go.etcd.io/etcd/client/v3"
)

func TestCountedBarrier_ReleasesAllAtN(t *testing.T) {
	ctx, cancel := testkit.NewContext(t, 30*time.Second)
	defer cancel()

	conn := newTestConnector(t, testkit.NewEtcdContainerConnector(t))
	path := testPath(t, "counted")

	const n = 5
	results := make([]bool, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(idx int) {
			defer wg.Done()
			cb, err := NewCountedBarrier(conn, path, n, 5*time.Second)
			require.NoError(t, err)
			released, err := cb.Wait(ctx, 15*time.Second)
			require.NoError(t, err)
			results[idx] = released
		}(i)
	}
	wg.Wait()

	for i, released := range results {
		require.Truef(t, released, "waiter %d was not released", i)
	}
}

func TestCountedBarrier_TimesOutBelowThreshold(t *testing.T) {
	ctx, cancel := testkit.NewContext(t, 30*time.Second)
	defer cancel()

	conn := newTestConnector(t, testkit.NewEtcdContainerConnector(t))
	path := testPath(t, "counted")

	cb, err := NewCountedBarrier(conn, path, 3, 5*time.Second)
	require.NoError(t, err)

	released, err := cb.Wait(ctx, 500*time.Millisecond)
	require.NoError(t, err)
	require.False(t, released)
}

// TestCountedBarrier_PartialCohortAllTimeOut arrives four of five members;
// all four must time out, and their waiting/ keys must be gone promptly so
// a later full cohort starts from a clean slate.
func TestCountedBarrier_PartialCohortAllTimeOut(t *testing.T) {
	ctx, cancel := testkit.NewContext(t, 30*time.Second)
	defer cancel()

	conn := newTestConnector(t, testkit.NewEtcdContainerConnector(t))
	path := testPath(t, "counted")

	const arrived = 4
	results := make([]bool, arrived)
	var wg sync.WaitGroup
	wg.Add(arrived)
	for i := 0; i < arrived; i++ {
		go func(idx int) {
			defer wg.Done()
			cb, err := NewCountedBarrier(conn, path, 5, 2*time.Second)
			require.NoError(t, err)
			released, err := cb.Wait(ctx, 2*time.Second)
			require.NoError(t, err)
			results[idx] = released
		}(i)
	}
	wg.Wait()

	for i, released := range results {
		require.Falsef(t, released, "waiter %d released without a full cohort", i)
	}

	// Timed-out waiters delete their own keys; any leftovers expire with
	// their leases.
	require.Eventually(t, func() bool {
		resp, err := conn.client.Get(ctx, path+"/waiting/", clientv3.WithPrefix(), clientv3.WithCountOnly())
		return err == nil && resp.Count == 0
	}, 5*time.Second, 100*time.Millisecond)
}

func TestDoubleBarrier_EnterThenLeave(t *testing.T) {
	ctx, cancel := testkit.NewContext(t, 30*time.Second)
	defer cancel()

	conn := newTestConnector(t, testkit.NewEtcdContainerConnector(t))
	path := testPath(t, "double")

	const n = 5
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			db, err := NewDoubleBarrier(conn, path, n, 5*time.Second)
			require.NoError(t, err)

			entered, err := db.Enter(ctx, 15*time.Second)
			require.NoError(t, err)
			require.True(t, entered)

			left, err := db.Leave(ctx, 15*time.Second)
			require.NoError(t, err)
			require.True(t, left)
		}()
	}
	wg.Wait()
}
