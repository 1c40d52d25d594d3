package coord

import (
	"context"
	"encoding/binary"
	"math/rand"
	"time"

	"github.com/ceyewan/genesis/clog"
	"github.com/ceyewan/genesis/metrics"
	"github.com/ceyewan/genesis/xerrors"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// Counter is a distributed atomic int64 counter backed by a single Etcd
// key, updated through a compare-and-swap retry loop on the key's
// modRevision — the same CAS-then-retry shape the idgen allocator uses to
// hand out unique IDs.
type Counter struct {
	conn    *Connector
	key     string
	initial int64
	logger  clog.Logger

	retries metrics.Counter
}

// NewCounter returns a Counter rooted at key. If the key does not yet
// exist, it is initialized to initial; a race to perform that
// initialization is harmless, whichever write wins becomes the seed value.
func NewCounter(conn *Connector, key string, initial int64, opts ...Option) (*Counter, error) {
	if conn == nil || key == "" {
		return nil, ErrInvalidArgument
	}
	opt := defaultOptions()
	for _, o := range opts {
		o(opt)
	}

	c := &Counter{conn: conn, key: key, initial: initial, logger: opt.loggerOr(conn.logger)}
	if meter := opt.meterOr(conn.meter); meter != nil {
		if ctr, err := meter.Counter("coord_counter_cas_retries_total", "number of CAS retries performed by coord.Counter"); err == nil {
			c.retries = ctr
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.checkNotClosed(); err != nil {
		return nil, err
	}
	_, err := conn.client.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(key), "=", 0)).
		Then(clientv3.OpPut(key, encodeInt64(initial))).
		Commit()
	if err != nil {
		return nil, xerrors.Wrap(err, "counter init failed")
	}
	return c, nil
}

// Get returns the counter's current value, or the configured initial value
// if the key does not exist (e.g. it was deleted out from under us).
func (c *Counter) Get(ctx context.Context) (int64, error) {
	value, ok, err := c.conn.getValue(ctx, c.key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return c.initial, nil
	}
	return decodeInt64(value), nil
}

// Add applies delta to the counter and returns the resulting value. A
// negative delta decrements. The call retries under contention until it
// succeeds or ctx is done.
func (c *Counter) Add(ctx context.Context, delta int64) (int64, error) {
	if err := c.conn.checkNotClosed(); err != nil {
		return 0, err
	}
	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return 0, ErrInterrupted
		default:
		}

		resp, err := c.conn.client.Get(ctx, c.key)
		if err != nil {
			return 0, xerrors.Wrap(err, "get failed")
		}
		current := c.initial
		var modRev int64
		if len(resp.Kvs) > 0 {
			current = decodeInt64(resp.Kvs[0].Value)
			modRev = resp.Kvs[0].ModRevision
		}
		next := current + delta

		txnResp, err := c.conn.client.Txn(ctx).
			If(clientv3.Compare(clientv3.ModRevision(c.key), "=", modRev)).
			Then(clientv3.OpPut(c.key, encodeInt64(next))).
			Commit()
		if err != nil {
			return 0, xerrors.Wrap(err, "counter cas failed")
		}
		if txnResp.Succeeded {
			return next, nil
		}

		attempt++
		if c.retries != nil {
			c.retries.Inc(ctx, metrics.L("key", c.key))
		}
		c.logger.Debug("counter cas lost race, retrying", clog.String("key", c.key), clog.Int("attempt", attempt))
		backoff(ctx, attempt, c.conn.cfg.RetryInterval)
	}
}

// Increment is a convenience wrapper for Add(ctx, 1).
func (c *Counter) Increment(ctx context.Context) (int64, error) { return c.Add(ctx, 1) }

// Decrement is a convenience wrapper for Add(ctx, -1).
func (c *Counter) Decrement(ctx context.Context) (int64, error) { return c.Add(ctx, -1) }

// Subtract is a convenience wrapper for Add(ctx, -delta).
func (c *Counter) Subtract(ctx context.Context, delta int64) (int64, error) { return c.Add(ctx, -delta) }

func encodeInt64(v int64) string {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(v))
	return string(buf)
}

func decodeInt64(b []byte) int64 {
	if len(b) != 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(b))
}

// backoff sleeps a uniformly random duration in [0, attempt*interval) so a
// CAS retry storm doesn't synchronize across competing clients. The window
// widens with each lost attempt.
func backoff(ctx context.Context, attempt int, interval time.Duration) {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	window := time.Duration(attempt) * interval
	sleep := time.Duration(rand.Int63n(int64(window)))
	if sleep == 0 {
		return
	}
	timer := time.NewTimer(sleep)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
