package coord

import (
	"testing"
	"time"

	"github.com/ceyewan/genesis/testkit"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFOOrder(t *testing.T) {
	ctx, cancel := testkit.NewContext(t, 30*time.Second)
	defer cancel()

	conn := newTestConnector(t, testkit.NewEtcdContainerConnector(t))
	q, err := NewQueue(conn, testPath(t, "queue"))
	require.NoError(t, err)

	require.NoError(t, q.Enqueue(ctx, []byte("first")))
	require.NoError(t, q.Enqueue(ctx, []byte("second")))
	require.NoError(t, q.Enqueue(ctx, []byte("third")))

	for _, want := range []string{"first", "second", "third"} {
		got, err := q.Dequeue(ctx, 5*time.Second)
		require.NoError(t, err)
		require.Equal(t, want, string(got))
	}
}

func TestQueue_DequeueBlocksUntilEnqueue(t *testing.T) {
	ctx, cancel := testkit.NewContext(t, 30*time.Second)
	defer cancel()

	conn := newTestConnector(t, testkit.NewEtcdContainerConnector(t))
	q, err := NewQueue(conn, testPath(t, "queue"))
	require.NoError(t, err)

	resultCh := make(chan []byte, 1)
	errCh := make(chan error, 1)
	go func() {
		value, err := q.Dequeue(ctx, 10*time.Second)
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- value
	}()

	time.Sleep(300 * time.Millisecond)
	require.NoError(t, q.Enqueue(ctx, []byte("late")))

	select {
	case value := <-resultCh:
		require.Equal(t, "late", string(value))
	case err := <-errCh:
		t.Fatalf("dequeue failed: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("dequeue never observed the enqueue")
	}
}

func TestQueue_DequeueTimesOutWhenEmpty(t *testing.T) {
	ctx, cancel := testkit.NewContext(t, 30*time.Second)
	defer cancel()

	conn := newTestConnector(t, testkit.NewEtcdContainerConnector(t))
	q, err := NewQueue(conn, testPath(t, "queue"))
	require.NoError(t, err)

	_, err = q.Dequeue(ctx, 500*time.Millisecond)
	require.ErrorIs(t, err, ErrInterrupted)
}

func TestPriorityQueue_LowerPriorityFirst(t *testing.T) {
	ctx, cancel := testkit.NewContext(t, 30*time.Second)
	defer cancel()

	conn := newTestConnector(t, testkit.NewEtcdContainerConnector(t))
	pq, err := NewPriorityQueue(conn, testPath(t, "pqueue"))
	require.NoError(t, err)

	require.NoError(t, pq.Enqueue(ctx, 5, []byte("low-priority")))
	require.NoError(t, pq.Enqueue(ctx, 1, []byte("high-priority")))
	require.NoError(t, pq.Enqueue(ctx, 1, []byte("high-priority-second")))

	first, err := pq.Dequeue(ctx, 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, "high-priority", string(first))

	second, err := pq.Dequeue(ctx, 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, "high-priority-second", string(second))

	third, err := pq.Dequeue(ctx, 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, "low-priority", string(third))
}

// TestPriorityQueue_DrainedBucketTimesOutInsteadOfReturningSentinel covers
// the steady-state case where a priority bucket has been fully drained:
// Dequeue must block and time out like an empty queue, never surface the
// bucket's own CAS sentinel as a bogus payload.
func TestPriorityQueue_DrainedBucketTimesOutInsteadOfReturningSentinel(t *testing.T) {
	ctx, cancel := testkit.NewContext(t, 30*time.Second)
	defer cancel()

	conn := newTestConnector(t, testkit.NewEtcdContainerConnector(t))
	pq, err := NewPriorityQueue(conn, testPath(t, "pqueue"))
	require.NoError(t, err)

	require.NoError(t, pq.Enqueue(ctx, 3, []byte("only-item")))

	value, err := pq.Dequeue(ctx, 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, "only-item", string(value))

	_, err = pq.Dequeue(ctx, 500*time.Millisecond)
	require.ErrorIs(t, err, ErrInterrupted)
}
