package coord

import "time"

// Config 配置 coord 包内所有协调原语共享的默认值。
type Config struct {
	// Namespace Etcd Key 前缀，各协调原语的路径均视为此前缀下的相对路径使用者
	// 自行拼接；Namespace 本身仅作为 Connector 日志的 namespace 字段，默认 "/genesis/coord"。
	Namespace string `yaml:"namespace" json:"namespace"`

	// DefaultLeaseTTL 租约型原语（barrier、leader、counted barrier、service
	// registration）未显式指定 TTL 时使用的默认租约时长，默认 2s。
	DefaultLeaseTTL time.Duration `yaml:"default_lease_ttl" json:"default_lease_ttl"`

	// RetryInterval CAS 重试的基准退避单位：第 n 次失败后随机睡眠
	// [0, n*RetryInterval) 再重试，默认 100ms。
	RetryInterval time.Duration `yaml:"retry_interval" json:"retry_interval"`
}

func (c *Config) setDefaults() {
	if c.Namespace == "" {
		c.Namespace = "/genesis/coord"
	}
	if c.DefaultLeaseTTL == 0 {
		c.DefaultLeaseTTL = 2 * time.Second
	}
	if c.RetryInterval == 0 {
		c.RetryInterval = 100 * time.Millisecond
	}
}

func (c *Config) validate() error {
	c.setDefaults()
	if c.DefaultLeaseTTL < time.Second {
		return ErrInvalidArgument
	}
	return nil
}
