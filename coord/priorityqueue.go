package coord

import (
	"context"
	"fmt"
	"time"

	"github.com/ceyewan/genesis/clog"
)

const priorityKeyFormat = "%05d"

// PriorityQueue is a FIFO queue with integer priority buckets: lower
// priority values are dequeued first, and items within the same priority
// are FIFO. Each priority gets its own 5-digit sub-prefix
// "<base>/<%05d priority>", enqueued exactly like a plain Queue; Dequeue
// simply scans the whole base prefix in key order, which lexicographically
// visits lower priority numbers first, then FIFO order within a bucket.
// Every bucket's CAS sentinel lives under a dedicated "__<base-name>/"
// directory that is a sibling of base, not a child of it — the same
// sibling-of-prefix placement a plain Queue already uses for its single
// sentinel — so a drained bucket never leaves a sentinel key inside the
// range Dequeue scans for real items.
type PriorityQueue struct {
	conn         *Connector
	base         string
	sentinelRoot string
	logger       clog.Logger
}

// NewPriorityQueue returns a PriorityQueue rooted at base. base must
// contain at least one "/" beyond the leading one, so a sentinel sibling
// directory can be formed.
func NewPriorityQueue(conn *Connector, base string, opts ...Option) (*PriorityQueue, error) {
	if conn == nil {
		return nil, ErrInvalidArgument
	}
	sentinelRoot, err := sentinelKey(base)
	if err != nil {
		return nil, err
	}
	opt := defaultOptions()
	for _, o := range opts {
		o(opt)
	}
	return &PriorityQueue{conn: conn, base: base, sentinelRoot: sentinelRoot, logger: opt.loggerOr(conn.logger)}, nil
}

func (q *PriorityQueue) bucket(priority int) string {
	return q.base + "/" + fmt.Sprintf(priorityKeyFormat, priority)
}

func (q *PriorityQueue) bucketSentinel(priority int) string {
	return q.sentinelRoot + "/" + fmt.Sprintf(priorityKeyFormat, priority)
}

// Enqueue appends value to the tail of the bucket for priority.
func (q *PriorityQueue) Enqueue(ctx context.Context, priority int, value []byte) error {
	if priority < 0 {
		return ErrInvalidArgument
	}
	return enqueueAt(ctx, q.conn, q.bucket(priority), q.bucketSentinel(priority), value)
}

// Dequeue removes and returns the value with the lowest priority (and,
// within a priority, the oldest), blocking up to timeout for one to
// appear if the queue is currently empty.
func (q *PriorityQueue) Dequeue(ctx context.Context, timeout time.Duration) ([]byte, error) {
	return dequeueAt(ctx, q.conn, q.base, timeout)
}
