package coord

import (
	"context"
	"sync"
	"time"

	"github.com/ceyewan/genesis/clog"
	"github.com/ceyewan/genesis/connector"
	"github.com/ceyewan/genesis/metrics"
	"github.com/ceyewan/genesis/xerrors"

	"go.etcd.io/etcd/api/v3/v3rpc/rpctypes"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// WatchEventType distinguishes a key creation/update from a key deletion.
type WatchEventType int

const (
	EventPut WatchEventType = iota
	EventDelete
)

// WatchEvent is the coord-level projection of a clientv3 watch event; it
// drops the wire-level Kv wrapper so recipes never import clientv3 directly.
type WatchEvent struct {
	Type        WatchEventType
	Key         []byte
	Value       []byte
	ModRevision int64
}

// Connector is the shared foundation every coordination recipe in this
// package is built on. It borrows an already-connected
// connector.EtcdConnector — it never owns or closes the underlying
// *clientv3.Client — and caches nothing beyond bookkeeping for the
// watchers and lease keep-alives the recipes built on top of it spawn.
//
// Close() only tears down that bookkeeping (in "keep-alives, then
// watchers" order, mirroring the registry component's shutdown sequence);
// it never touches the borrowed client.
type Connector struct {
	client   *clientv3.Client
	cfg      *Config
	logger   clog.Logger
	meter    metrics.Meter
	clientID string

	mu               sync.Mutex
	closed           bool
	seq              uint64
	watchCancels     map[uint64]context.CancelFunc
	keepAliveCancels map[uint64]context.CancelFunc
}

// NewConnector wraps a borrowed connector.EtcdConnector for use by coord
// recipes. The EtcdConnector must already be Connect()-ed.
func NewConnector(conn connector.EtcdConnector, cfg *Config, opts ...Option) (*Connector, error) {
	if conn == nil {
		return nil, xerrors.New("coord: etcd connector is required")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	client := conn.GetClient()
	if client == nil {
		return nil, xerrors.New("coord: etcd client cannot be nil")
	}

	opt := defaultOptions()
	for _, o := range opts {
		o(opt)
	}

	c := &Connector{
		client:           client,
		cfg:              cfg,
		logger:           opt.loggerOr(nil).With(clog.String("namespace", cfg.Namespace)),
		meter:            opt.meter,
		clientID:         uniqueToken(conn.Name()),
		watchCancels:     make(map[uint64]context.CancelFunc),
		keepAliveCancels: make(map[uint64]context.CancelFunc),
	}
	return c, nil
}

// ClientID returns the process-unique identity this Connector stamps into
// every token it mints for barriers, leader election, and counted barriers.
func (c *Connector) ClientID() string {
	return c.clientID
}

func (c *Connector) checkNotClosed() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrAlreadyClosed
	}
	return nil
}

func (c *Connector) uniqueToken() string {
	return uniqueToken(c.clientID)
}

// isKeyPresent reports whether key currently exists.
func (c *Connector) isKeyPresent(ctx context.Context, key string) (bool, error) {
	if err := c.checkNotClosed(); err != nil {
		return false, err
	}
	resp, err := c.client.Get(ctx, key, clientv3.WithCountOnly())
	if err != nil {
		return false, xerrors.Wrap(err, "get failed")
	}
	return resp.Count > 0, nil
}

// getValue returns the raw value stored at key, or (nil, false, nil) if
// absent.
func (c *Connector) getValue(ctx context.Context, key string) ([]byte, bool, error) {
	if err := c.checkNotClosed(); err != nil {
		return nil, false, err
	}
	resp, err := c.client.Get(ctx, key)
	if err != nil {
		return nil, false, xerrors.Wrap(err, "get failed")
	}
	if len(resp.Kvs) == 0 {
		return nil, false, nil
	}
	return resp.Kvs[0].Value, true, nil
}

func (c *Connector) deleteKey(ctx context.Context, key string) error {
	if err := c.checkNotClosed(); err != nil {
		return err
	}
	_, err := c.client.Delete(ctx, key)
	if err != nil {
		return xerrors.Wrap(err, "delete failed")
	}
	return nil
}

// leaseGrant grants a lease for ttl, defaulting to the Connector's
// configured DefaultLeaseTTL when ttl <= 0.
func (c *Connector) leaseGrant(ctx context.Context, ttl time.Duration) (clientv3.LeaseID, error) {
	if err := c.checkNotClosed(); err != nil {
		return 0, err
	}
	if ttl <= 0 {
		ttl = c.cfg.DefaultLeaseTTL
	}
	resp, err := c.client.Grant(ctx, int64(ttl.Seconds()))
	if err != nil {
		return 0, xerrors.Wrap(err, "lease grant failed")
	}
	return resp.ID, nil
}

func (c *Connector) revokeLease(ctx context.Context, leaseID clientv3.LeaseID) {
	if _, err := c.client.Revoke(ctx, leaseID); err != nil {
		c.logger.Warn("failed to revoke lease", clog.Int64("lease_id", int64(leaseID)), clog.Error(err))
	}
}

func (c *Connector) registerWatch(cancel context.CancelFunc) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	id := c.seq
	c.watchCancels[id] = cancel
	return id
}

func (c *Connector) unregisterWatch(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.watchCancels, id)
}

func (c *Connector) registerKeepAlive(cancel context.CancelFunc) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	id := c.seq
	c.keepAliveCancels[id] = cancel
	return id
}

func (c *Connector) unregisterKeepAlive(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.keepAliveCancels, id)
}

// watch installs a scoped watcher on key (or the prefix rooted at key when
// prefix is true) and delivers every event to onEvent from a dedicated
// goroutine until the returned cancel func is called. Callers must defer
// cancel() on every exit path — Close() only catches watchers still
// outstanding when the Connector itself goes away.
func (c *Connector) watch(ctx context.Context, key string, prefix bool, startRev int64, onEvent func(WatchEvent)) (cancel func(), err error) {
	if err := c.checkNotClosed(); err != nil {
		return nil, err
	}
	watchCtx, cancelCtx := context.WithCancel(ctx)
	id := c.registerWatch(cancelCtx)

	go c.runWatch(watchCtx, key, prefix, startRev, onEvent)

	return func() {
		cancelCtx()
		c.unregisterWatch(id)
	}, nil
}

// watchArmed reads key (or the prefix rooted at key) and installs a watch
// anchored at that read's revision+1, then returns the read's own
// response alongside the watch's cancel func. Because the watch starts
// exactly where the read left off, there is no gap between "the caller's
// own snapshot" and "the watch is guaranteed to observe every subsequent
// change" for the watch goroutine to race against — the same
// read-then-watch-from-revision shape ServiceCache.start uses to seed its
// local map without missing an event during setup.
func (c *Connector) watchArmed(ctx context.Context, key string, prefix bool, onEvent func(WatchEvent)) (cancel func(), resp *clientv3.GetResponse, err error) {
	if err := c.checkNotClosed(); err != nil {
		return nil, nil, err
	}
	getOpts := make([]clientv3.OpOption, 0, 1)
	if prefix {
		getOpts = append(getOpts, clientv3.WithPrefix())
	}
	resp, err = c.client.Get(ctx, key, getOpts...)
	if err != nil {
		return nil, nil, xerrors.Wrap(err, "get failed")
	}
	cancel, err = c.watch(ctx, key, prefix, resp.Header.Revision+1, onEvent)
	if err != nil {
		return nil, nil, err
	}
	return cancel, resp, nil
}

// runWatch drives a watch stream until watchCtx is done, transparently
// resubscribing from the last-seen revision if the stream closes or the
// requested revision has been compacted away — the same resync shape the
// registry component's service watch uses.
func (c *Connector) runWatch(watchCtx context.Context, key string, prefix bool, startRev int64, onEvent func(WatchEvent)) {
	lastRev := startRev
	for {
		watchOpts := make([]clientv3.OpOption, 0, 2)
		if prefix {
			watchOpts = append(watchOpts, clientv3.WithPrefix())
		}
		if lastRev > 0 {
			watchOpts = append(watchOpts, clientv3.WithRev(lastRev))
		}
		watchCh := c.client.Watch(watchCtx, key, watchOpts...)

		for wresp := range watchCh {
			if wresp.Err() != nil {
				if xerrors.Is(wresp.Err(), rpctypes.ErrCompacted) {
					c.logger.Warn("watch revision compacted, resyncing", clog.String("key", key))
					if resp, err := c.client.Get(watchCtx, key); err == nil {
						lastRev = resp.Header.Revision + 1
					}
				} else {
					c.logger.Warn("watch error, retrying", clog.String("key", key), clog.Error(wresp.Err()))
				}
				break
			}
			for _, ev := range wresp.Events {
				if ev.Kv.ModRevision >= lastRev {
					lastRev = ev.Kv.ModRevision + 1
				}
				wt := EventPut
				if ev.Type == clientv3.EventTypeDelete {
					wt = EventDelete
				}
				onEvent(WatchEvent{Type: wt, Key: ev.Kv.Key, Value: ev.Kv.Value, ModRevision: ev.Kv.ModRevision})
			}
		}

		select {
		case <-watchCtx.Done():
			return
		default:
		}
	}
}

// withKeepAlive starts a background lease renewal loop for leaseID and
// returns a stop func that must be called (typically via defer) once the
// caller no longer wants the lease kept alive. The lease itself is not
// revoked; callers that want immediate cleanup should Revoke explicitly.
func (c *Connector) withKeepAlive(leaseID clientv3.LeaseID) (stop func(), err error) {
	if err := c.checkNotClosed(); err != nil {
		return nil, err
	}
	kaCtx, cancel := context.WithCancel(context.Background())
	id := c.registerKeepAlive(cancel)

	ch, err := c.client.KeepAlive(kaCtx, leaseID)
	if err != nil {
		cancel()
		c.unregisterKeepAlive(id)
		return nil, xerrors.Wrap(err, "keepalive failed")
	}

	go func() {
		for range ch {
			// draining renewal responses; nothing to act on when they
			// arrive, only when the channel closes below.
		}
		c.logger.Debug("keepalive channel closed", clog.Int64("lease_id", int64(leaseID)))
	}()

	return func() {
		cancel()
		c.unregisterKeepAlive(id)
	}, nil
}

// Close releases every watcher and keep-alive goroutine this Connector's
// recipes have spawned. It does not close the borrowed etcd client —
// ownership of that belongs to whoever built the connector.EtcdConnector
// passed to NewConnector.
func (c *Connector) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	keepAlives := c.keepAliveCancels
	watches := c.watchCancels
	c.keepAliveCancels = make(map[uint64]context.CancelFunc)
	c.watchCancels = make(map[uint64]context.CancelFunc)
	c.mu.Unlock()

	for _, cancel := range keepAlives {
		cancel()
	}
	for _, cancel := range watches {
		cancel()
	}

	c.logger.Info("coord connector closed")
	return nil
}
