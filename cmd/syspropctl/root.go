package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shuakami/sysprop"
	"github.com/shuakami/sysprop/filestore"
	"github.com/shuakami/sysprop/internal/config"
	"github.com/shuakami/sysprop/memstore"
)

// flags 是全局标志，非空时覆盖配置文件
type flags struct {
	configPath  string
	backend     string
	dir         string
	logLevel    string
	metricsAddr string
}

func newRootCmd() *cobra.Command {
	var f flags

	rootCmd := &cobra.Command{
		Use:   "syspropctl",
		Short: "Read, write and watch system properties",
		Long: `syspropctl reads, writes and watches named properties in a shared property store.

The store is either the native bionic store (backend "native", Android only),
a directory shared between processes (backend "file"), or an in-process store
(backend "memory", useful for trying things out).`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&f.configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&f.backend, "backend", "", "store backend: file, memory or native")
	rootCmd.PersistentFlags().StringVar(&f.dir, "dir", "", "directory used by the file backend")
	rootCmd.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "log level")
	rootCmd.PersistentFlags().StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	rootCmd.AddCommand(getCmd(&f))
	rootCmd.AddCommand(getBoolCmd(&f))
	rootCmd.AddCommand(setCmd(&f))
	rootCmd.AddCommand(listCmd(&f))
	rootCmd.AddCommand(waitCmd(&f))
	rootCmd.AddCommand(watchCmd(&f))
	return rootCmd
}

// loadConfig 读取配置文件并叠加命令行标志
func loadConfig(f *flags) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}
	if f.backend != "" {
		cfg.Backend = f.backend
	}
	if f.dir != "" {
		cfg.Dir = f.dir
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if f.metricsAddr != "" {
		cfg.MetricsAddr = f.metricsAddr
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

func openStore(cfg config.Config, logger *zap.Logger) (sysprop.Store, func() error, error) {
	switch cfg.Backend {
	case config.BackendFile:
		s, err := filestore.Open(cfg.Dir, filestore.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BackendMemory:
		return memstore.New(), func() error { return nil }, nil
	case config.BackendNative:
		s, err := nativeStore()
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// withClient 按配置构造 Client 并执行 fn，结束后释放存储
func withClient(f *flags, fn func(*sysprop.Client) error) (err error) {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Backend, err)
	}
	defer func() {
		err = errors.Join(err, closeStore())
	}()

	opts := []sysprop.Option{sysprop.WithLogger(logger)}
	if cfg.MetricsAddr != "" {
		registry := prometheus.NewRegistry()
		opts = append(opts, sysprop.WithMetrics(sysprop.NewMetrics(registry)))
		serveMetrics(cfg.MetricsAddr, registry, logger)
	}
	return fn(sysprop.New(store, opts...))
}

func serveMetrics(addr string, registry *prometheus.Registry, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
}

// timeoutOf 把命令行上的 0 解释为无限等待
func timeoutOf(d time.Duration) time.Duration {
	if d <= 0 {
		return sysprop.Forever
	}
	return d
}
