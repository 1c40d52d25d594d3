package coord

import (
	"context"
	"sync"
	"time"

	"github.com/ceyewan/genesis/clog"
	"github.com/ceyewan/genesis/xerrors"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// Barrier is a single distributed gate: one key that is either absent
// ("open") or present ("set"), with the holding client's identity as the
// value and a lease so the gate self-clears if that client disappears.
type Barrier struct {
	conn     *Connector
	path     string
	leaseTTL time.Duration
	logger   clog.Logger

	mu      sync.Mutex
	leaseID clientv3.LeaseID
	token   string
	stopKA  func()
}

// NewBarrier returns a Barrier rooted at path. leaseTTL of 0 uses the
// Connector's configured default.
func NewBarrier(conn *Connector, path string, leaseTTL time.Duration, opts ...Option) (*Barrier, error) {
	if conn == nil || path == "" {
		return nil, ErrInvalidArgument
	}
	opt := defaultOptions()
	for _, o := range opts {
		o(opt)
	}
	return &Barrier{
		conn:     conn,
		path:     path,
		leaseTTL: leaseTTL,
		logger:   opt.loggerOr(conn.logger),
	}, nil
}

// IsSet reports whether the barrier is currently set by anyone.
func (b *Barrier) IsSet(ctx context.Context) (bool, error) {
	return b.conn.isKeyPresent(ctx, b.path)
}

// Set raises the barrier. It returns false without error if the barrier
// was already set by another holder.
func (b *Barrier) Set(ctx context.Context) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopKA != nil {
		return true, nil // already held by this instance
	}

	token := b.conn.uniqueToken()
	leaseID, err := b.conn.leaseGrant(ctx, b.leaseTTL)
	if err != nil {
		return false, err
	}

	resp, err := b.conn.client.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(b.path), "=", 0)).
		Then(clientv3.OpPut(b.path, token, clientv3.WithLease(leaseID))).
		Commit()
	if err != nil {
		b.conn.revokeLease(ctx, leaseID)
		return false, xerrors.Wrap(err, "barrier set failed")
	}
	if !resp.Succeeded {
		b.conn.revokeLease(ctx, leaseID)
		return false, nil
	}

	value, ok, err := b.conn.getValue(ctx, b.path)
	if err != nil || !ok || string(value) != token {
		// Lost a race we appeared to win. Revoking our own lease only
		// deletes keys we leased, never the winner's key.
		b.conn.revokeLease(ctx, leaseID)
		return false, nil
	}

	stopKA, err := b.conn.withKeepAlive(leaseID)
	if err != nil {
		b.conn.revokeLease(ctx, leaseID)
		return false, err
	}

	b.leaseID = leaseID
	b.token = token
	b.stopKA = stopKA
	b.logger.Info("barrier set", clog.String("path", b.path))
	return true, nil
}

// Remove lowers the barrier if this instance is the one holding it.
// Removing an unheld barrier is a no-op that returns false.
func (b *Barrier) Remove(ctx context.Context) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopKA == nil {
		return false, nil
	}
	b.stopKA()
	b.stopKA = nil
	if err := b.conn.deleteKey(ctx, b.path); err != nil {
		return false, err
	}
	b.conn.revokeLease(ctx, b.leaseID)
	b.logger.Info("barrier removed", clog.String("path", b.path))
	return true, nil
}

// Wait blocks until the barrier is no longer set, or timeout elapses
// (timeout <= 0 waits until ctx is done). It returns immediately (true,
// nil) if the barrier is already unset when called.
func (b *Barrier) Wait(ctx context.Context, timeout time.Duration) (bool, error) {
	l := newLatch()
	cancel, resp, err := b.conn.watchArmed(ctx, b.path, false, func(ev WatchEvent) {
		if ev.Type == EventDelete {
			l.release()
		}
	})
	if err != nil {
		return false, err
	}
	defer cancel()

	if len(resp.Kvs) == 0 {
		return true, nil
	}

	return l.wait(ctx, timeout), nil
}
