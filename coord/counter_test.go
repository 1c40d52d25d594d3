package coord

import (
	"sync"
	"testing"
	"time"

	"github.com/ceyewan/genesis/testkit"
	"github.com/stretchr/testify/require"
)

func TestCounter_DefaultAndGet(t *testing.T) {
	ctx, cancel := testkit.NewContext(t, 30*time.Second)
	defer cancel()

	conn := newTestConnector(t, testkit.NewEtcdContainerConnector(t))
	counter, err := NewCounter(conn, testPath(t, "counter"), 7)
	require.NoError(t, err)

	value, err := counter.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(7), value)
}

func TestCounter_IncrementDecrement(t *testing.T) {
	ctx, cancel := testkit.NewContext(t, 30*time.Second)
	defer cancel()

	conn := newTestConnector(t, testkit.NewEtcdContainerConnector(t))
	counter, err := NewCounter(conn, testPath(t, "counter"), 0)
	require.NoError(t, err)

	v, err := counter.Increment(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), v)

	v, err = counter.Add(ctx, 9)
	require.NoError(t, err)
	require.Equal(t, int64(10), v)

	v, err = counter.Decrement(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(9), v)
}

func TestCounter_ConcurrentIncrements(t *testing.T) {
	ctx, cancel := testkit.NewContext(t, 60*time.Second)
	defer cancel()

	conn := newTestConnector(t, testkit.NewEtcdContainerConnector(t))
	counter, err := NewCounter(conn, testPath(t, "counter"), 0)
	require.NoError(t, err)

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := counter.Increment(ctx)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	final, err := counter.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(workers), final)
}

// TestCounter_ConcurrentNetZero: many concurrent workers sharing one key,
// each performing a net-zero sequence of ops; the final value must still be
// exactly zero despite CAS contention.
func TestCounter_ConcurrentNetZero(t *testing.T) {
	ctx, cancel := testkit.NewContext(t, 120*time.Second)
	defer cancel()

	conn := newTestConnector(t, testkit.NewEtcdContainerConnector(t))
	counter, err := NewCounter(conn, testPath(t, "counter"), 0)
	require.NoError(t, err)

	const workers = 30
	const roundsPerWorker = 25
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for r := 0; r < roundsPerWorker; r++ {
				_, err := counter.Increment(ctx)
				require.NoError(t, err)
				_, err = counter.Decrement(ctx)
				require.NoError(t, err)
				_, err = counter.Add(ctx, 5)
				require.NoError(t, err)
				_, err = counter.Subtract(ctx, 5)
				require.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	final, err := counter.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(0), final)
}
