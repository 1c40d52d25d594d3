package coord

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ceyewan/genesis/clog"
	"github.com/ceyewan/genesis/xerrors"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// ServiceInstance is the JSON payload stored at
// "<namespace>/<name>/<id>" by ServiceDiscovery.Register.
type ServiceInstance struct {
	Name                string `json:"name"`
	JSONPayload         string `json:"jsonPayload,omitempty"`
	Address             string `json:"address"`
	Port                int    `json:"port"`
	SSLPort             int    `json:"sslPort,omitempty"`
	RegistrationTimeUTC int64  `json:"registrationTimeUTC"`
	ServiceType         string `json:"serviceType"`
	URI                 string `json:"uri,omitempty"`
	Enabled             bool   `json:"enabled"`
	ID                  string `json:"id"`
}

const (
	ServiceTypeDynamic = "DYNAMIC"
	ServiceTypeStatic  = "STATIC"
)

// ServiceDiscovery registers, updates, and looks up ServiceInstance
// records under a shared namespace, each stored as JSON at
// "<namespace>/<name>/<id>" and held alive by a lease the registrant owns.
type ServiceDiscovery struct {
	conn      *Connector
	namespace string
	leaseTTL  time.Duration
	logger    clog.Logger

	mu            sync.Mutex
	registrations map[string]*registration // id -> registration
}

type registration struct {
	leaseID clientv3.LeaseID
	stopKA  func()
}

// NewServiceDiscovery returns a ServiceDiscovery rooted at namespace.
func NewServiceDiscovery(conn *Connector, namespace string, leaseTTL time.Duration, opts ...Option) (*ServiceDiscovery, error) {
	if conn == nil || namespace == "" {
		return nil, ErrInvalidArgument
	}
	opt := defaultOptions()
	for _, o := range opts {
		o(opt)
	}
	return &ServiceDiscovery{
		conn:          conn,
		namespace:     strings.TrimSuffix(namespace, "/"),
		leaseTTL:      leaseTTL,
		logger:        opt.loggerOr(conn.logger),
		registrations: make(map[string]*registration),
	}, nil
}

func (d *ServiceDiscovery) key(name, id string) string {
	return fmt.Sprintf("%s/%s/%s", d.namespace, name, id)
}

func (d *ServiceDiscovery) namePrefix(name string) string {
	return fmt.Sprintf("%s/%s/", d.namespace, name)
}

// RegisterService publishes instance under its own lease. Registering the
// same ID twice returns ErrIllegalState; call UpdateService to change an
// existing registration's payload.
func (d *ServiceDiscovery) RegisterService(ctx context.Context, instance *ServiceInstance) error {
	if instance == nil || instance.Name == "" || instance.ID == "" {
		return ErrInvalidArgument
	}
	if err := d.conn.checkNotClosed(); err != nil {
		return err
	}

	d.mu.Lock()
	if _, exists := d.registrations[instance.ID]; exists {
		d.mu.Unlock()
		return ErrIllegalState
	}
	d.mu.Unlock()

	leaseID, err := d.conn.leaseGrant(ctx, d.leaseTTL)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(instance)
	if err != nil {
		d.conn.revokeLease(ctx, leaseID)
		return xerrors.Wrap(err, "marshal service instance failed")
	}

	key := d.key(instance.Name, instance.ID)
	if _, err := d.conn.client.Put(ctx, key, string(payload), clientv3.WithLease(leaseID)); err != nil {
		d.conn.revokeLease(ctx, leaseID)
		return xerrors.Wrap(err, "register service failed")
	}

	stopKA, err := d.conn.withKeepAlive(leaseID)
	if err != nil {
		d.conn.revokeLease(ctx, leaseID)
		return err
	}

	d.mu.Lock()
	d.registrations[instance.ID] = &registration{leaseID: leaseID, stopKA: stopKA}
	d.mu.Unlock()

	d.logger.Info("service registered", clog.String("name", instance.Name), clog.String("id", instance.ID))
	return nil
}

// UpdateService rewrites the JSON payload for an already-registered
// instance, keeping its existing lease (and TTL) intact.
func (d *ServiceDiscovery) UpdateService(ctx context.Context, instance *ServiceInstance) error {
	if instance == nil || instance.Name == "" || instance.ID == "" {
		return ErrInvalidArgument
	}
	d.mu.Lock()
	reg, exists := d.registrations[instance.ID]
	d.mu.Unlock()
	if !exists {
		return ErrIllegalState
	}

	payload, err := json.Marshal(instance)
	if err != nil {
		return xerrors.Wrap(err, "marshal service instance failed")
	}
	key := d.key(instance.Name, instance.ID)
	if _, err := d.conn.client.Put(ctx, key, string(payload), clientv3.WithLease(reg.leaseID)); err != nil {
		return xerrors.Wrap(err, "update service failed")
	}
	return nil
}

// UnregisterService stops the keep-alive and revokes the lease backing id,
// which deletes its key.
func (d *ServiceDiscovery) UnregisterService(ctx context.Context, name, id string) error {
	if name == "" || id == "" {
		return ErrInvalidArgument
	}
	d.mu.Lock()
	reg, exists := d.registrations[id]
	if exists {
		delete(d.registrations, id)
	}
	d.mu.Unlock()
	if !exists {
		return ErrIllegalState
	}

	reg.stopKA()
	d.conn.revokeLease(ctx, reg.leaseID)
	d.logger.Info("service unregistered", clog.String("name", name), clog.String("id", id))
	return nil
}

// QueryForNames returns the distinct service names currently registered
// under the namespace.
func (d *ServiceDiscovery) QueryForNames(ctx context.Context) ([]string, error) {
	resp, err := d.conn.client.Get(ctx, d.namespace+"/", clientv3.WithPrefix(), clientv3.WithKeysOnly())
	if err != nil {
		return nil, xerrors.Wrap(err, "query for names failed")
	}
	seen := make(map[string]struct{})
	var names []string
	prefixLen := len(d.namespace) + 1
	for _, kv := range resp.Kvs {
		key := string(kv.Key)
		if len(key) <= prefixLen {
			continue
		}
		rest := key[prefixLen:]
		idx := strings.Index(rest, "/")
		if idx <= 0 {
			continue
		}
		name := rest[:idx]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names, nil
}

// QueryForInstances returns every currently-registered instance of name.
func (d *ServiceDiscovery) QueryForInstances(ctx context.Context, name string) ([]*ServiceInstance, error) {
	if name == "" {
		return nil, ErrInvalidArgument
	}
	resp, err := d.conn.client.Get(ctx, d.namePrefix(name), clientv3.WithPrefix())
	if err != nil {
		return nil, xerrors.Wrap(err, "query for instances failed")
	}
	instances := make([]*ServiceInstance, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var inst ServiceInstance
		if err := json.Unmarshal(kv.Value, &inst); err != nil {
			d.logger.Warn("failed to unmarshal service instance", clog.String("key", string(kv.Key)), clog.Error(err))
			continue
		}
		instances = append(instances, &inst)
	}
	return instances, nil
}

// ServiceCache returns a started cache that keeps a local view of every
// instance registered under name, kept current via a prefix watch.
func (d *ServiceDiscovery) ServiceCache(ctx context.Context, name string, opts ...Option) (*ServiceCache, error) {
	if name == "" {
		return nil, ErrInvalidArgument
	}
	opt := defaultOptions()
	for _, o := range opts {
		o(opt)
	}
	cache := &ServiceCache{
		conn:   d.conn,
		name:   name,
		prefix: d.namePrefix(name),
		items:  make(map[string]*ServiceInstance),
		logger: opt.loggerOr(d.logger),
	}
	if err := cache.start(ctx); err != nil {
		return nil, err
	}
	return cache, nil
}
