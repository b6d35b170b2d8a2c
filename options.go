package sysprop

import "go.uber.org/zap"

// Option 配置 Client
type Option func(*Client)

// WithLogger 设置日志记录器，默认不输出日志
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics 设置指标收集器，默认不收集
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}
