package coord

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPrefix(t *testing.T) {
	parent, base, err := splitPrefix("/queues/jobs")
	require.NoError(t, err)
	assert.Equal(t, "/queues", parent)
	assert.Equal(t, "jobs", base)

	parent, base, err = splitPrefix("/queues/jobs/")
	require.NoError(t, err)
	assert.Equal(t, "/queues", parent)
	assert.Equal(t, "jobs", base)

	_, _, err = splitPrefix("/jobs")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, _, err = splitPrefix("")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSentinelKeySharesParentNotPrefix(t *testing.T) {
	sentinel, err := sentinelKey("/queues/jobs")
	require.NoError(t, err)
	assert.Equal(t, "/queues/__jobs", sentinel)
}

func TestSeqKeyRoundTrip(t *testing.T) {
	key := seqKey("/queues/jobs", 42)
	assert.Equal(t, "/queues/jobs/0000000000000042", key)

	seq, ok := lastSeqOf(key, "/queues/jobs")
	require.True(t, ok)
	assert.Equal(t, int64(42), seq)
}

func TestPriorityQueueSentinelLivesOutsideBaseRange(t *testing.T) {
	// A priority bucket's sentinel must never fall inside the "<base>/"
	// range Dequeue scans for real items — otherwise a drained bucket would
	// leave its sentinel behind as a bogus head-of-queue candidate. It must
	// live under a sibling directory of base instead, exactly like a plain
	// Queue's single sentinel sits alongside (not inside) its prefix.
	conn := &Connector{}
	pq, err := NewPriorityQueue(conn, "/queues/jobs")
	require.NoError(t, err)

	sentinel := pq.bucketSentinel(10)
	assert.False(t, strings.HasPrefix(sentinel, "/queues/jobs/"))
	assert.True(t, strings.HasPrefix(sentinel, "/queues/__jobs/"))
}
