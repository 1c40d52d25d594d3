package coord

import (
	"testing"
	"time"

	"github.com/ceyewan/genesis/connector"
	"github.com/ceyewan/genesis/testkit"
	"github.com/stretchr/testify/require"
)

func newTestConnector(t *testing.T, conn connector.EtcdConnector) *Connector {
	t.Helper()
	c, err := NewConnector(conn, &Config{
		Namespace:       "/genesis/coord/test",
		DefaultLeaseTTL: 2 * time.Second,
		RetryInterval:   50 * time.Millisecond,
	}, WithLogger(testkit.NewLogger()), WithMeter(testkit.NewMeter()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func testPath(t *testing.T, leaf string) string {
	t.Helper()
	return "/genesis/coord/test/" + testkit.NewID() + "/" + leaf
}
