package coord

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ceyewan/genesis/clog"
	"github.com/ceyewan/genesis/xerrors"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// Queue is a distributed FIFO queue: Enqueue appends a sequentially
// numbered child key under prefix, Dequeue removes and returns the
// lowest-numbered one. The only write this type ever makes outside prefix
// itself is a sentinel key "__<base>" that shares prefix's parent
// directory and anchors the CAS used to hand out sequence numbers without
// a read-then-write race between enqueuers. The sentinel deliberately lives
// outside the range Dequeue scans, so it can never be mistaken for a real
// item once the queue drains.
type Queue struct {
	conn     *Connector
	prefix   string
	sentinel string
	logger   clog.Logger
}

// NewQueue returns a Queue rooted at prefix. prefix must contain at least
// one "/" beyond the leading one, so a sentinel sibling key can be formed.
func NewQueue(conn *Connector, prefix string, opts ...Option) (*Queue, error) {
	if conn == nil {
		return nil, ErrInvalidArgument
	}
	sentinel, err := sentinelKey(prefix)
	if err != nil {
		return nil, err
	}
	opt := defaultOptions()
	for _, o := range opts {
		o(opt)
	}
	return &Queue{conn: conn, prefix: prefix, sentinel: sentinel, logger: opt.loggerOr(conn.logger)}, nil
}

// Enqueue appends value to the tail of the queue.
func (q *Queue) Enqueue(ctx context.Context, value []byte) error {
	return enqueueAt(ctx, q.conn, q.prefix, q.sentinel, value)
}

// Dequeue removes and returns the value at the head of the queue,
// blocking up to timeout (timeout <= 0 waits until ctx is done) for an
// item to appear if the queue is currently empty.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) ([]byte, error) {
	return dequeueAt(ctx, q.conn, q.prefix, timeout)
}

// splitPrefix separates prefix into its parent directory and final
// segment, the shape every queue and priority-queue bucket needs to place
// its CAS sentinel alongside itself rather than inside itself.
func splitPrefix(prefix string) (parent, base string, err error) {
	trimmed := strings.TrimSuffix(prefix, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx <= 0 || idx == len(trimmed)-1 {
		return "", "", ErrInvalidArgument
	}
	return trimmed[:idx], trimmed[idx+1:], nil
}

func sentinelKey(prefix string) (string, error) {
	parent, base, err := splitPrefix(prefix)
	if err != nil {
		return "", err
	}
	return parent + "/__" + base, nil
}

const seqKeyFormat = "%016d"

func seqKey(prefix string, seq int64) string {
	return strings.TrimSuffix(prefix, "/") + "/" + fmt.Sprintf(seqKeyFormat, seq)
}

func lastSeqOf(key, prefix string) (int64, bool) {
	trimmedPrefix := strings.TrimSuffix(prefix, "/") + "/"
	if !strings.HasPrefix(key, trimmedPrefix) {
		return 0, false
	}
	suffix := key[len(trimmedPrefix):]
	var seq int64
	if _, err := fmt.Sscanf(suffix, seqKeyFormat, &seq); err != nil {
		return 0, false
	}
	return seq, true
}

// enqueueAt appends value as the next sequential child of prefix, using a
// CAS on sentinel — a key the caller guarantees sits outside the range any
// Dequeue scans — to serialize sequence-number assignment across
// concurrent enqueuers.
func enqueueAt(ctx context.Context, conn *Connector, prefix, sentinel string, value []byte) error {
	if err := conn.checkNotClosed(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ErrInterrupted
		default:
		}

		tailResp, err := conn.client.Get(ctx, strings.TrimSuffix(prefix, "/")+"/",
			clientv3.WithPrefix(), clientv3.WithSort(clientv3.SortByKey, clientv3.SortDescend), clientv3.WithLimit(1))
		if err != nil {
			return xerrors.Wrap(err, "enqueue get tail failed")
		}
		nextSeq := int64(0)
		if len(tailResp.Kvs) > 0 {
			if seq, ok := lastSeqOf(string(tailResp.Kvs[0].Key), prefix); ok {
				nextSeq = seq + 1
			}
		}

		sentinelResp, err := conn.client.Get(ctx, sentinel)
		if err != nil {
			return xerrors.Wrap(err, "enqueue get sentinel failed")
		}
		sentinelModRev := int64(0)
		if len(sentinelResp.Kvs) > 0 {
			sentinelModRev = sentinelResp.Kvs[0].ModRevision
		}

		key := seqKey(prefix, nextSeq)
		txnResp, err := conn.client.Txn(ctx).
			If(clientv3.Compare(clientv3.ModRevision(sentinel), "=", sentinelModRev)).
			Then(clientv3.OpPut(sentinel, ""), clientv3.OpPut(key, string(value))).
			Commit()
		if err != nil {
			return xerrors.Wrap(err, "enqueue cas failed")
		}
		if txnResp.Succeeded {
			return nil
		}
		// Someone else claimed the sentinel between our reads; recompute
		// the tail and retry.
	}
}

// dequeueAt removes and returns the lowest-keyed child of prefix,
// blocking up to timeout for one to appear.
func dequeueAt(ctx context.Context, conn *Connector, prefix string, timeout time.Duration) ([]byte, error) {
	if err := conn.checkNotClosed(); err != nil {
		return nil, err
	}
	trimmed := strings.TrimSuffix(prefix, "/") + "/"

	deadline := time.Time{}
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		resp, err := conn.client.Get(ctx, trimmed,
			clientv3.WithPrefix(), clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend), clientv3.WithLimit(1))
		if err != nil {
			return nil, xerrors.Wrap(err, "dequeue get head failed")
		}

		if len(resp.Kvs) > 0 {
			kv := resp.Kvs[0]
			txnResp, err := conn.client.Txn(ctx).
				If(clientv3.Compare(clientv3.ModRevision(string(kv.Key)), "=", kv.ModRevision)).
				Then(clientv3.OpDelete(string(kv.Key))).
				Commit()
			if err != nil {
				return nil, xerrors.Wrap(err, "dequeue cas failed")
			}
			if txnResp.Succeeded {
				return kv.Value, nil
			}
			continue // someone else dequeued it first, re-read the new head
		}

		remaining := time.Duration(0)
		if !deadline.IsZero() {
			remaining = time.Until(deadline)
			if remaining <= 0 {
				return nil, ErrInterrupted
			}
		}

		// Anchor the watch at the empty read's own revision so an enqueue
		// landing between that read and the watch arming is still observed.
		wakeCh := make(chan struct{}, 1)
		cancel, err := conn.watch(ctx, trimmed, true, resp.Header.Revision+1, func(ev WatchEvent) {
			if ev.Type == EventPut {
				select {
				case wakeCh <- struct{}{}:
				default:
				}
			}
		})
		if err != nil {
			return nil, err
		}

		var timer *time.Timer
		var timeoutCh <-chan time.Time
		if !deadline.IsZero() {
			timer = time.NewTimer(remaining)
			timeoutCh = timer.C
		}
		select {
		case <-wakeCh:
		case <-timeoutCh:
			cancel()
			return nil, ErrInterrupted
		case <-ctx.Done():
			cancel()
			return nil, ErrInterrupted
		}
		if timer != nil {
			timer.Stop()
		}
		cancel()
	}
}
