package metrics

// Config 指标系统的配置
type Config struct {
	Enabled     bool   `mapstructure:"enabled"`      // 是否启用 Metrics
	ServiceName string `mapstructure:"service_name"` // 服务名称
	Version     string `mapstructure:"version"`      // 服务版本
	Port        int    `mapstructure:"port"`         // Prometheus 暴露端口（无默认值；为 0 时不启动 HTTP 服务器）
	Path        string `mapstructure:"path"`         // Prometheus 指标路径（无默认值；为空时不启动 HTTP 服务器）
}

// NewDevDefaultConfig 返回适合本地开发与测试的默认配置
//
// 不启动 Prometheus HTTP 服务器（Port 为 0），指标仅在进程内注册，
// 适合单元测试和本地调试场景。
func NewDevDefaultConfig(serviceName string) *Config {
	return &Config{
		Enabled:     true,
		ServiceName: serviceName,
		Version:     "dev",
	}
}
