package assistant

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dreamstate/guest-assistant/internal/cache"
	"github.com/dreamstate/guest-assistant/internal/config"
	"github.com/dreamstate/guest-assistant/internal/dataset"
	"github.com/dreamstate/guest-assistant/internal/domain"
	"github.com/dreamstate/guest-assistant/internal/llm"
	"github.com/dreamstate/guest-assistant/internal/monitoring"
	"github.com/dreamstate/guest-assistant/internal/observability"
)

// Runtime is a fully wired engine plus the resources behind it.
type Runtime struct {
	Engine  *Engine
	// Dataset is nil when the source settings are incomplete.
	Dataset *dataset.Cache
	Audit   *monitoring.AuditLogger
	Store   cache.Client

	data    Dataset
	auditDB *sql.DB
}

// NewRuntime builds the engine from cfg. Missing source or LLM settings do
// not fail startup; they surface as configuration errors on the first
// request that needs them.
func NewRuntime(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*Runtime, error) {
	rt := &Runtime{}

	store, err := newStore(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, err
	}
	rt.Store = store

	var data Dataset
	fetcher, err := dataset.NewFetcher(ctx, cfg.Source)
	switch {
	case err == nil:
		opts := []dataset.CacheOption{dataset.WithTTL(cfg.Source.TTL)}
		if store != nil {
			opts = append(opts, dataset.WithSharedStore(store))
		}
		rt.Dataset = dataset.NewCache(fetcher, logger, opts...)
		data = rt.Dataset
	case domain.IsConfiguration(err):
		logger.Warn().Err(err).Msg("Dataset source not configured")
		data = unavailableDataset{err: err}
	default:
		rt.Close()
		return nil, fmt.Errorf("create dataset fetcher: %w", err)
	}

	var completer llm.Completer
	client, err := llm.NewClient(llm.Config{
		BaseURL:        cfg.LLM.BaseURL,
		APIKey:         cfg.LLM.APIKey,
		Model:          cfg.LLM.Model,
		Temperature:    cfg.LLM.Temperature,
		RequestsPerSec: cfg.LLM.RequestsPerSec,
		Burst:          cfg.LLM.Burst,
	}, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("LLM client not configured")
		completer = unavailableCompleter{err: err}
	} else {
		completer = client
	}

	var extractorOpts []llm.ExtractorOption
	extractorOpts = append(extractorOpts, llm.WithModelKey(cfg.LLM.Model))
	if store != nil && cfg.LLM.MemoizeExtraction {
		extractorOpts = append(extractorOpts, llm.WithMemo(store, cfg.Cache.TTL))
	}

	rt.auditDB, err = monitoring.OpenAuditDB(ctx, cfg.Audit)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Audit = monitoring.NewAuditLogger(logger, rt.auditDB, cfg.Audit.Driver)

	rt.data = data
	rt.Engine = NewEngine(
		llm.NewExtractor(completer, logger, extractorOpts...),
		llm.NewResponder(completer, cfg.LLM.ResponderModel, logger),
		data,
		rt.Audit,
		logger,
	)
	return rt, nil
}

// LoadDataset returns the current snapshot, or the configuration error that
// kept the source from being built.
func (r *Runtime) LoadDataset(ctx context.Context) (*dataset.Snapshot, error) {
	return r.data.Load(ctx)
}

// Close releases the cache and audit connections.
func (r *Runtime) Close() {
	if r.Store != nil {
		_ = r.Store.Close()
	}
	if r.auditDB != nil {
		_ = r.auditDB.Close()
	}
}

func newStore(ctx context.Context, cfg config.CacheConfig, logger *observability.Logger) (cache.Client, error) {
	switch cfg.Driver {
	case "none":
		return nil, nil
	case "redis":
		client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			URL:      cfg.Redis.URL,
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, using in-memory cache")
			return cache.NewMemoryClient(cfg.MaxEntries), nil
		}
		return client, nil
	case "memory", "":
		return cache.NewMemoryClient(cfg.MaxEntries), nil
	default:
		return nil, fmt.Errorf("unsupported cache driver: %s", cfg.Driver)
	}
}

type unavailableDataset struct{ err error }

func (u unavailableDataset) Load(context.Context) (*dataset.Snapshot, error) {
	return nil, u.err
}

type unavailableCompleter struct{ err error }

func (u unavailableCompleter) Complete(context.Context, llm.CompletionRequest) (string, error) {
	return "", u.err
}
