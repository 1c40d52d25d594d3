package connector

import (
	"github.com/ceyewan/genesis/clog"
	"github.com/ceyewan/genesis/metrics"
)

type options struct {
	logger clog.Logger
	meter  metrics.Meter
}

// Option 配置连接器的选项
type Option func(*options)

// applyDefaults 确保未设置的选项使用默认值
func (o *options) applyDefaults() {
	if o.logger == nil {
		o.logger = clog.Discard()
	}
}

func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = clog.Discard()
		}
		o.logger = logger.WithNamespace("connector")
	}
}

// WithMeter 注入指标采集器，用于记录连接次数、活跃连接数等
func WithMeter(meter metrics.Meter) Option {
	return func(o *options) {
		o.meter = meter
	}
}
