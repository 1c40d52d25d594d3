package coord

import (
	"context"
	"time"
)

// DoubleBarrier synchronizes the start and end of a computation across a
// fixed set of members: Enter blocks until all members have entered,
// Leave blocks until all members have left. It is built from two
// independent CountedBarrier instances rooted at "<path>/enter" and
// "<path>/leave" — entering and leaving are otherwise identical rendezvous
// operations.
type DoubleBarrier struct {
	enter *CountedBarrier
	leave *CountedBarrier
}

// NewDoubleBarrier returns a DoubleBarrier for memberCount parties rooted
// at path.
func NewDoubleBarrier(conn *Connector, path string, memberCount int, leaseTTL time.Duration, opts ...Option) (*DoubleBarrier, error) {
	if conn == nil || path == "" || memberCount <= 0 {
		return nil, ErrInvalidArgument
	}
	enter, err := NewCountedBarrier(conn, path+"/enter", memberCount, leaseTTL, opts...)
	if err != nil {
		return nil, err
	}
	leave, err := NewCountedBarrier(conn, path+"/leave", memberCount, leaseTTL, opts...)
	if err != nil {
		return nil, err
	}
	return &DoubleBarrier{enter: enter, leave: leave}, nil
}

// Enter blocks until memberCount parties have called Enter.
func (d *DoubleBarrier) Enter(ctx context.Context, timeout time.Duration) (bool, error) {
	return d.enter.Wait(ctx, timeout)
}

// Leave blocks until memberCount parties have called Leave.
func (d *DoubleBarrier) Leave(ctx context.Context, timeout time.Duration) (bool, error) {
	return d.leave.Wait(ctx, timeout)
}
