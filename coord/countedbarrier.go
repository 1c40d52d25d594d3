package coord

import (
	"context"
	"time"

	"github.com/ceyewan/genesis/clog"
	"github.com/ceyewan/genesis/xerrors"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// CountedBarrier is an N-party rendezvous: Wait blocks every caller until
// memberCount distinct waiters are registered under path, then releases
// them all at once. Each waiter holds a leased child key under
// "<path>/waiting/"; a sentinel "<path>/ready" anchor (created once, by
// whichever caller gets there first) lets every waiter watch a single
// predictable key to learn the rendezvous has fired.
type CountedBarrier struct {
	conn        *Connector
	path        string
	memberCount int
	leaseTTL    time.Duration
	logger      clog.Logger
}

// NewCountedBarrier returns a CountedBarrier that releases once
// memberCount waiters have called Wait concurrently.
func NewCountedBarrier(conn *Connector, path string, memberCount int, leaseTTL time.Duration, opts ...Option) (*CountedBarrier, error) {
	if conn == nil || path == "" || memberCount <= 0 {
		return nil, ErrInvalidArgument
	}
	opt := defaultOptions()
	for _, o := range opts {
		o(opt)
	}
	return &CountedBarrier{
		conn:        conn,
		path:        path,
		memberCount: memberCount,
		leaseTTL:    leaseTTL,
		logger:      opt.loggerOr(conn.logger),
	}, nil
}

func (b *CountedBarrier) readyKey() string      { return b.path + "/ready" }
func (b *CountedBarrier) waitingPrefix() string { return b.path + "/waiting/" }

// Wait registers this call as a waiter and blocks until memberCount
// waiters are present, timeout elapses, or ctx is done. It returns true
// only when the rendezvous actually fired for this caller.
func (b *CountedBarrier) Wait(ctx context.Context, timeout time.Duration) (bool, error) {
	if err := b.conn.checkNotClosed(); err != nil {
		return false, err
	}

	token := b.conn.uniqueToken()
	waiterKey := b.waitingPrefix() + token

	// Best-effort: ensure the ready anchor exists so every waiter has a
	// single predictable key to watch for the release signal. Losing this
	// race is fine, whoever wins is the one whose write survives.
	_, _ = b.conn.client.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(b.readyKey()), "=", 0)).
		Then(clientv3.OpPut(b.readyKey(), token)).
		Commit()

	leaseID, err := b.conn.leaseGrant(ctx, b.leaseTTL)
	if err != nil {
		return false, err
	}

	resp, err := b.conn.client.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(waiterKey), "=", 0)).
		Then(clientv3.OpPut(waiterKey, token, clientv3.WithLease(leaseID))).
		Commit()
	if err != nil {
		b.conn.revokeLease(ctx, leaseID)
		return false, xerrors.Wrap(err, "counted barrier register failed")
	}
	if !resp.Succeeded {
		// A waiter key collision under a random 9-char token is vanishingly
		// unlikely; treat it as a caller bug rather than silently retrying.
		b.conn.revokeLease(ctx, leaseID)
		return false, ErrIllegalState
	}

	stopKA, err := b.conn.withKeepAlive(leaseID)
	if err != nil {
		b.conn.revokeLease(ctx, leaseID)
		return false, err
	}

	l := newLatch()
	go func() {
		<-l.ch
		stopKA()
	}()

	check := func() {
		ready, err := b.conn.isKeyPresent(context.Background(), b.readyKey())
		if err != nil {
			return
		}
		if !ready {
			l.release()
			return
		}
		countResp, err := b.conn.client.Get(context.Background(), b.waitingPrefix(), clientv3.WithPrefix(), clientv3.WithCountOnly())
		if err != nil {
			return
		}
		if int(countResp.Count) >= b.memberCount {
			// First releaser deletes the ready anchor, turning it into the
			// broadcast signal every blocked watcher is already armed for.
			b.conn.client.Txn(context.Background()).
				If(clientv3.Compare(clientv3.CreateRevision(b.readyKey()), "!=", 0)).
				Then(clientv3.OpDelete(b.readyKey())).
				Commit()
		}
	}

	// Fast path: run once before the watch exists at all, in case this
	// caller is the Nth waiter and the rendezvous has already fired.
	check()

	if !l.isReleased() {
		// Install the watch anchored at the revision of watchArmed's own
		// read (its read-then-watch-from-revision shape), then run check()
		// once more. This closes the gap the arming
		// goroutine would otherwise leave between "we decided not to
		// release yet" and "the watch is guaranteed to observe the next
		// PUT/DELETE" — the same shape ServiceCache.start uses to seed its
		// map without missing an event during setup.
		cancel, _, err := b.conn.watchArmed(ctx, b.path+"/", true, func(ev WatchEvent) {
			if ev.Type == EventDelete && string(ev.Key) == b.readyKey() {
				l.release()
				return
			}
			check()
		})
		if err != nil {
			l.release()
			return false, err
		}
		defer cancel()

		check()
	}

	released := l.wait(ctx, timeout)
	if !released {
		l.release()
		_ = b.conn.deleteKey(context.Background(), waiterKey)
		return false, nil
	}
	b.logger.Info("counted barrier released", clog.String("path", b.path), clog.Int("member_count", b.memberCount))
	return true, nil
}
