// Package config 加载 syspropctl 的 YAML 配置。
package config

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// 后端类型
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendNative = "native"
)

// 环境变量覆盖
const (
	EnvLogLevel = "SYSPROP_LOG_LEVEL"
	EnvDir      = "SYSPROP_DIR"
)

// Config 是 syspropctl 的配置
//
// Backend：属性存储后端，file、memory 或 native
// Dir：file 后端使用的目录
// LogLevel：zap 日志级别
// MetricsAddr：非空时在该地址暴露 /metrics
type Config struct {
	Backend     string `yaml:"backend"`
	Dir         string `yaml:"dir"`
	LogLevel    string `yaml:"log_level"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default 返回默认配置
func Default() Config {
	return Config{
		Backend:  BackendFile,
		Dir:      "/tmp/sysprop",
		LogLevel: "info",
	}
}

// Load 读取 path 处的 YAML 并叠加到默认配置上，path 为空时只使用默认值与环境变量
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvDir); v != "" {
		c.Dir = v
	}
}

// Validate 检查配置是否可用
func (c Config) Validate() error {
	switch c.Backend {
	case BackendFile:
		if c.Dir == "" {
			return errors.New("config: dir is required for the file backend")
		}
	case BackendMemory, BackendNative:
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level 解析日志级别
func (c Config) Level() (zapcore.Level, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return level, fmt.Errorf("config: %w", err)
	}
	return level, nil
}
