package coord

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/ceyewan/genesis/clog"
	"github.com/ceyewan/genesis/xerrors"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// CacheEventType classifies a ServiceCache listener callback.
type CacheEventType int

const (
	CacheAdded CacheEventType = iota
	CacheUpdated
	CacheRemoved
)

// CacheListener is called serially, in registration order, for every
// change the cache observes. A listener that panics is recovered and
// logged; it never breaks the cache's own watch dispatch.
type CacheListener func(event CacheEventType, isNew bool, serviceName string, instance *ServiceInstance)

// ServiceCache maintains a local {id -> ServiceInstance} view of every
// instance registered under a single service name, seeded by an initial
// range read and kept current by a prefix watch.
type ServiceCache struct {
	conn   *Connector
	name   string
	prefix string
	logger clog.Logger

	mu        sync.RWMutex
	items     map[string]*ServiceInstance
	listeners []CacheListener
	cancel    func()
}

func (c *ServiceCache) start(ctx context.Context) error {
	resp, err := c.conn.client.Get(ctx, c.prefix, clientv3.WithPrefix())
	if err != nil {
		return xerrors.Wrap(err, "service cache seed failed")
	}

	c.mu.Lock()
	for _, kv := range resp.Kvs {
		var inst ServiceInstance
		if err := json.Unmarshal(kv.Value, &inst); err != nil {
			c.logger.Warn("failed to unmarshal cached instance", clog.String("key", string(kv.Key)), clog.Error(err))
			continue
		}
		c.items[idFromKey(string(kv.Key))] = &inst
	}
	c.mu.Unlock()

	cancel, err := c.conn.watch(ctx, c.prefix, true, resp.Header.Revision+1, c.handleEvent)
	if err != nil {
		return err
	}
	c.cancel = cancel
	return nil
}

// AddListener registers fn to be called on every subsequent cache change.
func (c *ServiceCache) AddListener(fn CacheListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Instances returns a snapshot of every instance currently in the cache.
func (c *ServiceCache) Instances() []*ServiceInstance {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*ServiceInstance, 0, len(c.items))
	for _, inst := range c.items {
		out = append(out, inst)
	}
	return out
}

// Close tears down the cache's watch. It does not affect the registrant's
// underlying registrations.
func (c *ServiceCache) Close() error {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

func (c *ServiceCache) handleEvent(ev WatchEvent) {
	id := idFromKey(string(ev.Key))

	switch ev.Type {
	case EventPut:
		var inst ServiceInstance
		if err := json.Unmarshal(ev.Value, &inst); err != nil {
			c.logger.Warn("failed to unmarshal watch event", clog.String("key", string(ev.Key)), clog.Error(err))
			return
		}
		c.mu.Lock()
		_, existed := c.items[id]
		c.items[id] = &inst
		c.mu.Unlock()

		eventType := CacheAdded
		if existed {
			eventType = CacheUpdated
		}
		c.notify(eventType, !existed, &inst)

	case EventDelete:
		c.mu.Lock()
		last, existed := c.items[id]
		delete(c.items, id)
		c.mu.Unlock()
		if !existed {
			last = &ServiceInstance{Name: c.name, ID: id}
		}
		c.notify(CacheRemoved, false, last)
	}
}

func (c *ServiceCache) notify(eventType CacheEventType, isNew bool, instance *ServiceInstance) {
	c.mu.RLock()
	listeners := make([]CacheListener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.RUnlock()

	for _, fn := range listeners {
		c.invokeListener(fn, eventType, isNew, instance)
	}
}

// invokeListener isolates a single listener call so a panicking listener
// is logged and skipped rather than taking down the watch dispatcher.
func (c *ServiceCache) invokeListener(fn CacheListener, eventType CacheEventType, isNew bool, instance *ServiceInstance) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("service cache listener panicked", clog.String("name", c.name), clog.Any("recovered", r))
		}
	}()
	fn(eventType, isNew, c.name, instance)
}

func idFromKey(key string) string {
	idx := strings.LastIndex(key, "/")
	if idx < 0 {
		return key
	}
	return key[idx+1:]
}
