package coord

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ceyewan/genesis/testkit"
	"github.com/stretchr/testify/require"
)

func TestLeaderSelector_SingleInstanceBecomesLeader(t *testing.T) {
	ctx, cancel := testkit.NewContext(t, 30*time.Second)
	defer cancel()

	conn := newTestConnector(t, testkit.NewEtcdContainerConnector(t))
	path := testPath(t, "election")

	var took, relinquished atomic.Bool
	selector, err := NewLeaderSelector(conn, path, LeaderCallbacks{
		TakeLeadership: func(ctx context.Context) {
			took.Store(true)
			time.Sleep(100 * time.Millisecond)
		},
		RelinquishLeadership: func(ctx context.Context) {
			relinquished.Store(true)
		},
	}, 2*time.Second)
	require.NoError(t, err)
	defer selector.Close()

	require.NoError(t, selector.Start())

	completed, err := selector.WaitOnLeadershipComplete(ctx, 10*time.Second)
	require.NoError(t, err)
	require.True(t, completed)
	require.True(t, took.Load())
	require.True(t, relinquished.Load())
	require.Equal(t, StateIdle, selector.State())
}

func TestLeaderSelector_StartTwiceWhileInFlightFails(t *testing.T) {
	conn := newTestConnector(t, testkit.NewEtcdContainerConnector(t))
	path := testPath(t, "election")

	release := make(chan struct{})
	selector, err := NewLeaderSelector(conn, path, LeaderCallbacks{
		TakeLeadership: func(ctx context.Context) { <-release },
	}, 2*time.Second)
	require.NoError(t, err)
	defer func() {
		close(release)
		_ = selector.Close()
	}()

	require.NoError(t, selector.Start())
	time.Sleep(200 * time.Millisecond) // let it win the election
	require.ErrorIs(t, selector.Start(), ErrIllegalState)
}

func TestLeaderSelector_ManyContendersEachCompleteOnce(t *testing.T) {
	ctx, cancel := testkit.NewContext(t, 120*time.Second)
	defer cancel()

	conn := newTestConnector(t, testkit.NewEtcdContainerConnector(t))
	path := testPath(t, "election")

	const contenders = 10
	var took, relinquished atomic.Int32
	var leading atomic.Int32
	var overlap atomic.Bool

	selectors := make([]*LeaderSelector, contenders)
	for i := range selectors {
		s, err := NewLeaderSelector(conn, path, LeaderCallbacks{
			TakeLeadership: func(ctx context.Context) {
				if leading.Add(1) != 1 {
					overlap.Store(true)
				}
				took.Add(1)
				time.Sleep(20 * time.Millisecond)
				leading.Add(-1)
			},
			RelinquishLeadership: func(ctx context.Context) {
				relinquished.Add(1)
			},
		}, 2*time.Second)
		require.NoError(t, err)
		selectors[i] = s
		defer s.Close()
	}

	for _, s := range selectors {
		require.NoError(t, s.Start())
	}
	for _, s := range selectors {
		completed, err := s.WaitOnLeadershipComplete(ctx, 90*time.Second)
		require.NoError(t, err)
		require.True(t, completed)
	}

	require.Equal(t, int32(contenders), took.Load())
	require.Equal(t, int32(contenders), relinquished.Load())
	require.False(t, overlap.Load(), "two contenders held leadership at once")
}

func TestLeaderSelector_CloseWhileContendingReleasesWaiter(t *testing.T) {
	ctx, cancel := testkit.NewContext(t, 30*time.Second)
	defer cancel()

	conn := newTestConnector(t, testkit.NewEtcdContainerConnector(t))
	path := testPath(t, "election")

	blockFirst := make(chan struct{})
	first, err := NewLeaderSelector(conn, path, LeaderCallbacks{
		TakeLeadership: func(ctx context.Context) { <-blockFirst },
	}, 2*time.Second)
	require.NoError(t, err)
	defer func() {
		close(blockFirst)
		_ = first.Close()
	}()

	second, err := NewLeaderSelector(conn, path, LeaderCallbacks{}, 2*time.Second)
	require.NoError(t, err)

	require.NoError(t, first.Start())
	time.Sleep(200 * time.Millisecond) // first wins and holds
	require.NoError(t, second.Start())

	// Closing the still-contending second selector must unblock its waiter
	// without claiming a completed leadership cycle.
	require.NoError(t, second.Close())
	completed, err := second.WaitOnLeadershipComplete(ctx, 5*time.Second)
	require.NoError(t, err)
	require.False(t, completed)
}

func TestLeaderSelector_FailoverToSecondInstance(t *testing.T) {
	ctx, cancel := testkit.NewContext(t, 30*time.Second)
	defer cancel()

	etcdConn := testkit.NewEtcdContainerConnector(t)
	conn := newTestConnector(t, etcdConn)
	path := testPath(t, "election")

	firstTook := make(chan struct{})
	releaseFirst := make(chan struct{})
	first, err := NewLeaderSelector(conn, path, LeaderCallbacks{
		TakeLeadership: func(ctx context.Context) {
			close(firstTook)
			<-releaseFirst
		},
	}, 2*time.Second)
	require.NoError(t, err)
	defer first.Close()

	var secondTook atomic.Bool
	second, err := NewLeaderSelector(conn, path, LeaderCallbacks{
		TakeLeadership: func(ctx context.Context) {
			secondTook.Store(true)
		},
	}, 2*time.Second)
	require.NoError(t, err)
	defer second.Close()

	require.NoError(t, first.Start())
	<-firstTook

	require.NoError(t, second.Start())
	require.False(t, secondTook.Load())

	close(releaseFirst)
	completed, err := second.WaitOnLeadershipComplete(ctx, 15*time.Second)
	require.NoError(t, err)
	require.True(t, completed)
	require.True(t, secondTook.Load())
}
