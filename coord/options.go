package coord

import (
	"github.com/ceyewan/genesis/clog"
	"github.com/ceyewan/genesis/metrics"
)

// Option 组件初始化选项函数。
type Option func(*options)

type options struct {
	logger clog.Logger
	meter  metrics.Meter
}

func defaultOptions() *options {
	return &options{}
}

// loggerOr 返回显式注入的 logger，否则回退到 fallback（通常是所属
// Connector 的 logger），两者都缺省时静默丢弃日志。
func (o *options) loggerOr(fallback clog.Logger) clog.Logger {
	if o.logger != nil {
		return o.logger
	}
	if fallback != nil {
		return fallback
	}
	return clog.Discard()
}

// meterOr 返回显式注入的 meter，否则回退到 fallback；可能为 nil，
// 各原语需自行判空后再上报指标。
func (o *options) meterOr(fallback metrics.Meter) metrics.Meter {
	if o.meter != nil {
		return o.meter
	}
	return fallback
}

// WithLogger 注入日志记录器，组件内部会自动追加 "coord" namespace。
func WithLogger(l clog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l.WithNamespace("coord")
		}
	}
}

// WithMeter 注入指标采集器，用于记录 Counter 的 CAS 重试次数和 LeaderSelector 的选举次数。
// 原语未设置时回退到所属 Connector 的 meter；两者都未设置时静默跳过指标上报。
func WithMeter(m metrics.Meter) Option {
	return func(o *options) {
		o.meter = m
	}
}
