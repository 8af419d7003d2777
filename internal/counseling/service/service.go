// Package service assembles the counseling engine and its backing stores
// from configuration. Both the worker manager and the counsel CLI use it.
package service

import (
	"context"
	"fmt"
	"time"

	"seatsathi-workers/internal/common/config"
	"seatsathi-workers/internal/common/database"
	"seatsathi-workers/internal/common/logger"
	"seatsathi-workers/internal/counseling/dataset"
	"seatsathi-workers/internal/counseling/directory"
	"seatsathi-workers/internal/counseling/engine"
	"seatsathi-workers/internal/counseling/index"
	"seatsathi-workers/internal/counseling/resultcache"
	"seatsathi-workers/internal/counseling/supplementary"
)

// Result cache namespaces.
const (
	MatchCacheKind  = "match"
	LookupCacheKind = "lookup"
)

type Options struct {
	// ConnectAttempts bounds the retries for each backing store.
	ConnectAttempts int
	ConnectDelay    time.Duration
	// DisableCache skips the Redis result caches even when Redis is configured.
	DisableCache bool
}

func DefaultOptions() Options {
	return Options{ConnectAttempts: 10, ConnectDelay: 2 * time.Second}
}

type Service struct {
	Engine        *engine.Engine
	Index         *index.Index
	Supplementary supplementary.Store
	MatchCache    *resultcache.Cache
	LookupCache   *resultcache.Cache

	Postgres      *database.PostgresClient
	Redis         *database.RedisClient
	Elasticsearch *database.ElasticsearchClient

	logger logger.Logger
}

// Build connects whatever stores the counseling settings select and wires the
// engine over them. The index is not built until Warm or the first query.
func Build(ctx context.Context, cfg *config.Config, opts Options, log logger.Logger) (*Service, error) {
	if opts.ConnectAttempts <= 0 {
		opts.ConnectAttempts = 1
	}
	s := &Service{logger: log.WithFields(map[string]interface{}{"component": "service"})}

	if cfg.NeedsPostgres() {
		err := Retry(ctx, "PostgreSQL connection", opts.ConnectAttempts, opts.ConnectDelay, log, func(ctx context.Context) error {
			pg, err := database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			if err := pg.Ping(ctx); err != nil {
				pg.Close()
				return err
			}
			s.Postgres = pg
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if cfg.NeedsRedis() {
		err := Retry(ctx, "Redis connection", opts.ConnectAttempts, opts.ConnectDelay, log, func(ctx context.Context) error {
			rc, err := database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			if err := rc.Ping(ctx); err != nil {
				rc.Close()
				return err
			}
			s.Redis = rc
			return nil
		})
		if err != nil {
			s.Close()
			return nil, err
		}
	}

	if cfg.NeedsElasticsearch() {
		err := Retry(ctx, "Elasticsearch connection", opts.ConnectAttempts, opts.ConnectDelay, log, func(ctx context.Context) error {
			es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			if err := es.Ping(ctx); err != nil {
				return err
			}
			s.Elasticsearch = es
			return nil
		})
		if err != nil {
			s.Close()
			return nil, err
		}
	}

	counseling := cfg.Counseling
	loader := dataset.NewCachedLoader(dataset.NewDirLoader(counseling.DataDir, log))
	s.Index = index.New(loader, s.indexStore(counseling.IndexStrategy), log)

	switch {
	case counseling.Supplementary.Enabled && s.Redis != nil:
		s.Supplementary = supplementary.NewRedisSource(s.Redis.Client, counseling.Supplementary.RedisKey)
	default:
		s.Supplementary = supplementary.NewMemorySource()
	}

	var resolver directory.Resolver = directory.New()
	if s.Elasticsearch != nil {
		resolver = directory.NewElasticResolver(s.Elasticsearch, counseling.Directory.Index, resolver, log)
	}

	if s.Redis != nil && !opts.DisableCache {
		s.MatchCache = resultcache.New(s.Redis.Client, MatchCacheKind, counseling.ResultCacheTTL(), log)
		s.LookupCache = resultcache.New(s.Redis.Client, LookupCacheKind, counseling.LookupCacheTTL(), log)
	}

	s.Engine = engine.New(engine.ConfigFrom(counseling), engine.Deps{
		Index:         s.Index,
		Supplementary: s.Supplementary,
		Resolver:      resolver,
		Logger:        log,
	})

	s.logger.Info("counseling service assembled", map[string]interface{}{
		"dataDir":       counseling.DataDir,
		"strategy":      s.Index.Strategy(),
		"supplementary": fmt.Sprintf("%T", s.Supplementary),
		"resultCache":   s.MatchCache != nil,
		"elasticsearch": s.Elasticsearch != nil,
	})
	return s, nil
}

func (s *Service) indexStore(strategy string) index.Store {
	switch strategy {
	case config.IndexStrategyPostgres:
		return index.NewPostgresStore(s.Postgres)
	case config.IndexStrategyLinear:
		return nil
	default:
		return index.NewFamilyStore()
	}
}

// Caches returns the configured result caches, skipping disabled ones.
func (s *Service) Caches() []*resultcache.Cache {
	var out []*resultcache.Cache
	for _, c := range []*resultcache.Cache{s.MatchCache, s.LookupCache} {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// Close releases every connection Build opened.
func (s *Service) Close() {
	if s.Postgres != nil {
		if err := s.Postgres.Close(); err != nil {
			s.logger.Warn("postgres close failed", map[string]interface{}{"error": err.Error()})
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			s.logger.Warn("redis close failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

// Retry runs operation until it succeeds, doubling the delay between
// attempts. It gives up early when ctx is cancelled.
func Retry(ctx context.Context, name string, attempts int, delay time.Duration, log logger.Logger, operation func(context.Context) error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = operation(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		log.Warn(name+" failed, retrying", map[string]interface{}{
			"error":       err.Error(),
			"attempt":     i + 1,
			"maxAttempts": attempts,
			"nextRetryIn": delay.String(),
		})
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled after %d attempts: %w", name, i+1, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, err)
}
