package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/garagedata/vehiclefacts/internal/cache"
	"github.com/garagedata/vehiclefacts/internal/config"
	"github.com/garagedata/vehiclefacts/internal/resolver"
	"github.com/garagedata/vehiclefacts/internal/rules"
	"github.com/garagedata/vehiclefacts/internal/store"
	"github.com/garagedata/vehiclefacts/pkg/lookup"
)

// env bundles the wired collaborators for a command invocation.
type env struct {
	Resolver *resolver.Resolver
	Cache    cache.Store
	Store    store.Store
}

func (e *env) Close() {
	if e.Cache != nil {
		if err := e.Cache.Close(); err != nil {
			zap.L().Warn("close cache", zap.Error(err))
		}
	}
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
}

func ttlFromConfig(c config.CacheConfig) cache.TTLConfig {
	ttl := cache.DefaultTTLConfig()
	if c.PositiveTTLHours > 0 {
		ttl.Positive = time.Duration(c.PositiveTTLHours) * time.Hour
	}
	if c.NegativeTTLHours > 0 {
		ttl.Negative = time.Duration(c.NegativeTTLHours) * time.Hour
	}
	return ttl
}

func openCache(ctx context.Context, c config.CacheConfig) (cache.Store, error) {
	ttl := ttlFromConfig(c)
	switch c.Backend {
	case "memory":
		return cache.NewMemory(ttl), nil
	case "redis":
		return cache.NewRedis(ctx, cache.RedisOptions{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		}, ttl)
	case "sqlite", "":
		return cache.NewSQLite(c.SQLitePath, ttl)
	default:
		return nil, eris.Errorf("unknown cache backend %q", c.Backend)
	}
}

func openStore(ctx context.Context, c config.StoreConfig) (store.Store, error) {
	switch c.Driver {
	case "postgres":
		return store.NewPostgres(ctx, c.DatabaseURL)
	case "sqlite", "":
		return store.NewSQLite(c.SQLitePath)
	default:
		return nil, eris.Errorf("unknown store driver %q", c.Driver)
	}
}

// initEnv wires the resolver from configuration.
func initEnv(ctx context.Context) (*env, error) {
	evCache, err := openCache(ctx, cfg.Cache)
	if err != nil {
		return nil, eris.Wrap(err, "open cache")
	}

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		evCache.Close()
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		evCache.Close()
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	var engine *rules.Engine
	if cfg.Resolver.RulesetPath != "" {
		rulesCfg, err := rules.LoadConfig(cfg.Resolver.RulesetPath)
		if err != nil {
			evCache.Close()
			st.Close()
			return nil, eris.Wrap(err, "load ruleset")
		}
		engine = rules.NewEngine(rulesCfg)
	}

	lookupOpts := []lookup.Option{}
	if cfg.Lookup.BaseURL != "" {
		lookupOpts = append(lookupOpts, lookup.WithBaseURL(cfg.Lookup.BaseURL))
	}
	if cfg.Lookup.RatePerSec > 0 {
		lookupOpts = append(lookupOpts, lookup.WithRateLimit(cfg.Lookup.RatePerSec))
	}

	r := resolver.New(resolver.Options{
		Lookup:        lookup.NewClient(cfg.Lookup.Key, lookupOpts...),
		Cache:         evCache,
		Store:         st,
		Engine:        engine,
		Gate:          cfg.Gate,
		MaxConcurrent: cfg.Resolver.MaxConcurrentFields,
	})

	return &env{Resolver: r, Cache: evCache, Store: st}, nil
}
