package coord

import (
	"context"
	"sync"
	"time"

	"github.com/ceyewan/genesis/clog"
	"github.com/ceyewan/genesis/metrics"
	"github.com/ceyewan/genesis/xerrors"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// LeaderState reports where a LeaderSelector is in its contend -> lead ->
// relinquish cycle.
type LeaderState int

const (
	StateIdle LeaderState = iota
	StateStarting
	StateContending
	StateLeading
	StateRelinquished
)

// LeaderCallbacks are invoked synchronously from the selector's internal
// goroutine: TakeLeadership runs once this instance becomes leader, and
// must return for leadership to be relinquished; RelinquishLeadership runs
// immediately after, once the lease backing leadership has stopped being
// renewed.
type LeaderCallbacks struct {
	TakeLeadership       func(ctx context.Context)
	RelinquishLeadership func(ctx context.Context)
}

// LeaderSelector contends for leadership of a single key through
// CAS-to-own; the loser watches that key for deletion and re-contends.
// Start launches one contend/lead/relinquish cycle; it can be called again
// once that cycle completes to contend anew.
type LeaderSelector struct {
	conn      *Connector
	path      string
	leaseTTL  time.Duration
	callbacks LeaderCallbacks
	logger    clog.Logger
	attempts  metrics.Counter

	mu         sync.Mutex
	state      LeaderState
	cancel     context.CancelFunc
	completeCh chan struct{}
	cycleDone  bool
	completed  bool
}

// NewLeaderSelector returns a LeaderSelector contending for path.
func NewLeaderSelector(conn *Connector, path string, callbacks LeaderCallbacks, leaseTTL time.Duration, opts ...Option) (*LeaderSelector, error) {
	if conn == nil || path == "" {
		return nil, ErrInvalidArgument
	}
	opt := defaultOptions()
	for _, o := range opts {
		o(opt)
	}
	s := &LeaderSelector{
		conn:      conn,
		path:      path,
		leaseTTL:  leaseTTL,
		callbacks: callbacks,
		logger:    opt.loggerOr(conn.logger),
		state:     StateIdle,
	}
	if meter := opt.meterOr(conn.meter); meter != nil {
		if ctr, err := meter.Counter("coord_leader_election_attempts_total", "number of leader-election CAS attempts"); err == nil {
			s.attempts = ctr
		}
	}
	return s, nil
}

// State returns the selector's current phase.
func (s *LeaderSelector) State() LeaderState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start launches a single contend -> lead -> relinquish cycle in the
// background. It returns ErrIllegalState if a cycle is already in flight.
func (s *LeaderSelector) Start() error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrIllegalState
	}
	s.state = StateStarting
	s.completeCh = make(chan struct{})
	s.cycleDone = false
	s.completed = false
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	go s.run(ctx)
	return nil
}

// finishCycle closes the in-flight cycle exactly once, recording whether a
// full elected-then-relinquished round trip actually happened. Abandoned
// cycles (Close while contending) release waiters with completed=false.
func (s *LeaderSelector) finishCycle(completed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cycleDone {
		return
	}
	s.cycleDone = true
	s.completed = completed
	close(s.completeCh)
	s.state = StateIdle
}

// Close cancels the in-flight cycle's context, which stops contending.
// If this instance is leading, Close does not stop the lease keep-alive
// itself: the keep-alive stops and the lease is revoked only once
// TakeLeadership (which receives the canceled context) returns.
func (s *LeaderSelector) Close() error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

// WaitOnLeadershipComplete blocks until the in-flight cycle started by
// Start finishes a full elected-then-relinquished round trip, timeout
// elapses (timeout <= 0 waits until ctx is done), or ctx is canceled. A
// cycle abandoned before winning (Close while contending) also ends the
// wait, returning false.
func (s *LeaderSelector) WaitOnLeadershipComplete(ctx context.Context, timeout time.Duration) (bool, error) {
	s.mu.Lock()
	ch := s.completeCh
	s.mu.Unlock()
	if ch == nil {
		return false, ErrIllegalState
	}

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}
	select {
	case <-ch:
		s.mu.Lock()
		completed := s.completed
		s.mu.Unlock()
		return completed, nil
	case <-timeoutCh:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (s *LeaderSelector) run(ctx context.Context) {
	// A cycle abandoned before winning (Close, store failure) still has to
	// release anyone blocked in WaitOnLeadershipComplete.
	defer s.finishCycle(false)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		s.mu.Lock()
		s.state = StateContending
		s.mu.Unlock()

		won, err := s.tryBecomeLeader(ctx)
		if err != nil {
			if !xerrors.Is(err, context.Canceled) {
				s.logger.Warn("leader election attempt failed", clog.String("path", s.path), clog.Error(err))
			}
		}
		if won {
			return
		}

		if err := s.waitForVacancy(ctx); err != nil {
			return
		}
	}
}

// tryBecomeLeader attempts the CAS-to-own write. On success it runs the
// full leadership cycle synchronously (keep-alive, TakeLeadership callback,
// relinquish) before returning.
func (s *LeaderSelector) tryBecomeLeader(ctx context.Context) (bool, error) {
	if s.attempts != nil {
		s.attempts.Inc(ctx, metrics.L("path", s.path))
	}

	token := s.conn.uniqueToken()
	leaseID, err := s.conn.leaseGrant(ctx, s.leaseTTL)
	if err != nil {
		return false, err
	}

	resp, err := s.conn.client.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(s.path), "=", 0)).
		Then(clientv3.OpPut(s.path, token, clientv3.WithLease(leaseID))).
		Commit()
	if err != nil {
		s.conn.revokeLease(ctx, leaseID)
		return false, xerrors.Wrap(err, "leader election cas failed")
	}
	if !resp.Succeeded {
		s.conn.revokeLease(ctx, leaseID)
		return false, nil
	}

	value, ok, err := s.conn.getValue(ctx, s.path)
	if err != nil || !ok || string(value) != token {
		s.conn.revokeLease(ctx, leaseID)
		return false, nil
	}

	s.mu.Lock()
	s.state = StateLeading
	s.mu.Unlock()
	s.logger.Info("became leader", clog.String("path", s.path))

	stopKA, err := s.conn.withKeepAlive(leaseID)
	if err != nil {
		s.conn.revokeLease(ctx, leaseID)
		return false, err
	}

	if s.callbacks.TakeLeadership != nil {
		s.callbacks.TakeLeadership(ctx)
	}

	stopKA()
	// Revoke for promptness; if the revoke fails the lease still expires on
	// its own within the TTL and deletes the leader key.
	s.conn.revokeLease(context.Background(), leaseID)

	s.mu.Lock()
	s.state = StateRelinquished
	s.mu.Unlock()

	if s.callbacks.RelinquishLeadership != nil {
		s.callbacks.RelinquishLeadership(ctx)
	}
	s.logger.Info("relinquished leadership", clog.String("path", s.path))

	s.finishCycle(true)
	return true, nil
}

// waitForVacancy blocks until path is deleted (or already absent).
func (s *LeaderSelector) waitForVacancy(ctx context.Context) error {
	l := newLatch()
	cancel, resp, err := s.conn.watchArmed(ctx, s.path, false, func(ev WatchEvent) {
		if ev.Type == EventDelete {
			l.release()
		}
	})
	if err != nil {
		return err
	}
	defer cancel()

	if len(resp.Kvs) == 0 {
		return nil
	}

	if !l.wait(ctx, 0) {
		return ctx.Err()
	}
	return nil
}
