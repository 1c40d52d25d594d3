// Package coord provides distributed coordination recipes layered on an
// Etcd-backed linearizable store: leader election, distributed and counted
// barriers, FIFO and priority queues, an atomic counter, and service
// discovery with a local cache.
//
// Like dlock and registry before it, coord borrows a connector.EtcdConnector
// rather than owning one: the caller is responsible for creating and closing
// the underlying *clientv3.Client.
//
// Basic usage:
//
//	etcdConn, _ := connector.NewEtcd(&cfg.Etcd, connector.WithLogger(logger))
//	defer etcdConn.Close()
//	etcdConn.Connect(ctx)
//
//	conn, _ := coord.NewConnector(etcdConn, &coord.Config{
//		DefaultLeaseTTL: 2 * time.Second,
//	}, coord.WithLogger(logger))
//	defer conn.Close()
//
//	selector, _ := coord.NewLeaderSelector(conn, "/election/order-service", coord.LeaderCallbacks{
//		TakeLeadership: func(ctx context.Context) { runAsLeader(ctx) },
//	}, 0) // 0 = use the connector's DefaultLeaseTTL
//	selector.Start()
//	defer selector.Close()
package coord
