package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aretw0/ruleflow"
	"github.com/aretw0/ruleflow/internal/adapters/file"
	"github.com/aretw0/ruleflow/internal/adapters/redis"
	"github.com/aretw0/ruleflow/internal/config"
	"github.com/aretw0/ruleflow/internal/logging"
	"github.com/aretw0/ruleflow/pkg/adapters/loam"
	"github.com/aretw0/ruleflow/pkg/adapters/memory"
	"github.com/aretw0/ruleflow/pkg/observability"
	"github.com/aretw0/ruleflow/pkg/persistence/middleware"
	"github.com/aretw0/ruleflow/pkg/ports"
)

// Runtime is a configured engine plus the resources backing it.
type Runtime struct {
	Engine   *ruleflow.Engine
	Logger   *slog.Logger
	Registry *prometheus.Registry
	closers  []io.Closer
}

// Close releases store connections.
func (r *Runtime) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// NewLogger builds the application logger from the log settings.
func NewLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	return logging.NewWithWriter(w, level, format), nil
}

// NewRuntime wires storage, catalog, locking and observability from cfg.
// Logs go to logOut.
func NewRuntime(cfg *config.Config, logOut io.Writer) (*Runtime, error) {
	logger, err := NewLogger(cfg.Log, logOut)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{Logger: logger, Registry: prometheus.NewRegistry()}

	rt.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := observability.NewMetrics(rt.Registry)
	if err != nil {
		return nil, err
	}

	store, locker, err := rt.buildStore(cfg)
	if err != nil {
		return nil, err
	}

	opts := []ruleflow.Option{
		ruleflow.WithStore(store),
		ruleflow.WithLogger(logger),
		ruleflow.WithLifecycleHooks(observability.Combine(
			observability.LoggingHooks(logger),
			metrics.Hooks(),
		)),
	}
	if locker != nil {
		opts = append(opts, ruleflow.WithLocker(locker, cfg.Drafts.LockTTL))
	}

	if cfg.Catalog.Dir != "" {
		catalog, err := loam.Open(cfg.Catalog.Dir)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to open catalog %s: %w", cfg.Catalog.Dir, err)
		}
		opts = append(opts, ruleflow.WithCatalog(catalog))
	}

	rt.Engine = ruleflow.New(opts...)
	logger.Debug("engine ready",
		"store", cfg.Store.Backend,
		"catalog", cfg.Catalog.Dir,
		"encrypted", cfg.Store.EncryptionKey != "",
		"redact_patterns", len(cfg.Store.Redact),
	)
	return rt, nil
}

func (rt *Runtime) buildStore(cfg *config.Config) (ports.FlowStore, ports.DistributedLocker, error) {
	var (
		store  ports.FlowStore
		locker ports.DistributedLocker
	)

	switch cfg.Store.Backend {
	case config.BackendFile:
		format := file.FormatJSON
		if cfg.Store.Format == string(file.FormatYAML) {
			format = file.FormatYAML
		}
		store = file.New(cfg.Store.Path, file.WithFormat(format))
	case config.BackendRedis:
		r := cfg.Store.Redis
		rs := redis.New(r.Addr, r.Password, r.DB, redis.WithPrefix(r.Prefix), redis.WithTTL(r.TTL))
		rt.closers = append(rt.closers, rs)
		store = rs
		locker = redis.NewLocker(rs.Client(), rs.Prefix())
	case config.BackendMemory, "":
		store = memory.NewStore()
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	var mws []middleware.Middleware
	if len(cfg.Store.Redact) > 0 {
		patterns, err := middleware.CompilePatterns(cfg.Store.Redact)
		if err != nil {
			return nil, nil, fmt.Errorf("store.redact: %w", err)
		}
		mws = append(mws, middleware.NewRedactMiddleware(patterns))
	}
	if cfg.Store.EncryptionKey != "" {
		enc, err := encryptionConfig(cfg.Store)
		if err != nil {
			return nil, nil, err
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(enc))
	}

	return middleware.Chain(store, mws...), locker, nil
}

func encryptionConfig(cfg config.StoreConfig) (middleware.EncryptionConfig, error) {
	active, err := middleware.ParseKey(cfg.EncryptionKey)
	if err != nil {
		return middleware.EncryptionConfig{}, fmt.Errorf("store.encryption_key: %w", err)
	}
	enc := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range cfg.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return middleware.EncryptionConfig{}, fmt.Errorf("store.fallback_keys[%d]: %w", i, err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	return enc, nil
}
