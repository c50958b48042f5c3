package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/cost"
	"github.com/sells-group/outreach-cli/internal/enrichment"
	"github.com/sells-group/outreach-cli/internal/importer"
	"github.com/sells-group/outreach-cli/internal/integration"
	"github.com/sells-group/outreach-cli/internal/launch"
	"github.com/sells-group/outreach-cli/internal/preflight"
	"github.com/sells-group/outreach-cli/internal/quality"
	"github.com/sells-group/outreach-cli/internal/resilience"
	"github.com/sells-group/outreach-cli/internal/session"
	"github.com/sells-group/outreach-cli/internal/store"
	"github.com/sells-group/outreach-cli/pkg/enrich"
	"github.com/sells-group/outreach-cli/pkg/outreach"
)

// Breaker service names.
const (
	serviceEnrichment = "enrichment"
)

// outreachEnv holds the store, session store, clients and pipeline
// components shared by the CLI commands and the HTTP server.
type outreachEnv struct {
	Store      store.Store
	Sessions   session.Store
	Breakers   *resilience.Registry
	Importer   *importer.Matcher
	Enrichment *enrichment.Orchestrator // nil unless an enrichment key is configured
	Quality    *quality.Evaluator
	Prober     *integration.Prober
	Launcher   *launch.Orchestrator

	settle time.Duration
	redis  *redis.Client
}

// Close releases resources held by the environment.
func (e *outreachEnv) Close() {
	if e.redis != nil {
		_ = e.redis.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// sequencer returns a fresh pre-flight sequencer. obs may be nil.
func (e *outreachEnv) sequencer(obs preflight.Observer) *preflight.Sequencer {
	opts := []preflight.Option{preflight.WithSettleDelay(e.settle)}
	if obs != nil {
		opts = append(opts, preflight.WithObserver(obs))
	}
	return preflight.NewSequencer(opts...)
}

// initEnv validates config for mode, opens the store and session store, and
// wires every pipeline component. Callers should defer env.Close().
func initEnv(ctx context.Context, mode string) (*outreachEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	env := &outreachEnv{
		Store:  st,
		settle: time.Duration(cfg.Preflight.SettleMs) * time.Millisecond,
	}

	if err := env.initSessions(ctx); err != nil {
		env.Close()
		return nil, err
	}

	breakerCfg := resilience.FromConfig(cfg.Enrichment.FailureThreshold, cfg.Enrichment.ResetTimeoutSecs)
	breakerCfg.OnStateChange = resilience.LogStateChanges(serviceEnrichment)
	env.Breakers = resilience.NewRegistry(breakerCfg)

	env.Importer = importer.NewMatcher(st)

	if cfg.Enrichment.Key != "" {
		enrichOpts := []enrich.Option{
			enrich.WithBaseURL(cfg.Enrichment.BaseURL),
			enrich.WithTimeout(time.Duration(cfg.Enrichment.TimeoutSecs) * time.Second),
		}
		if cfg.Enrichment.RatePerSec > 0 {
			enrichOpts = append(enrichOpts, enrich.WithRateLimit(cfg.Enrichment.RatePerSec))
		}
		provider := enrich.NewClient(cfg.Enrichment.Key, enrichOpts...)
		calc := cost.NewCalculator(cost.Rates{Enrichment: cost.EnrichmentRate{
			PerMatch:   cfg.Pricing.Enrichment.PerMatch,
			PerNoMatch: cfg.Pricing.Enrichment.PerNoMatch,
		}})
		env.Enrichment = enrichment.New(provider, st, calc,
			enrichment.WithBatchSize(cfg.Enrichment.BatchSize),
			enrichment.WithBatchDelay(cfg.Enrichment.BatchDelay()),
			enrichment.WithBreaker(env.Breakers.Get(serviceEnrichment)),
		)
		zap.L().Info("enrichment provider enabled",
			zap.Int("batch_size", cfg.Enrichment.BatchSize),
			zap.Float64("rate_per_sec", cfg.Enrichment.RatePerSec),
		)
	} else {
		zap.L().Debug("OUTREACH_ENRICHMENT_KEY not set, paid enrichment disabled")
	}

	backend := outreach.NewClient(cfg.Outreach.Key,
		outreach.WithBaseURL(cfg.Outreach.BaseURL),
		outreach.WithTimeout(time.Duration(cfg.Outreach.TimeoutSecs)*time.Second),
	)
	env.Quality = quality.NewEvaluator(backend)
	env.Prober = integration.NewProber(backend)
	env.Launcher = launch.New(backend, st, env.Sessions)

	return env, nil
}

// initSessions connects to Redis when configured, otherwise drafts live in
// process memory for the duration of the command.
func (e *outreachEnv) initSessions(ctx context.Context) error {
	if cfg.Redis.Addr == "" {
		e.Sessions = session.NewMemoryStore()
		return nil
	}

	client := session.NewRedisClient(session.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	rs := session.NewRedisStore(client, cfg.Redis.SessionTTL())
	if err := rs.Ping(ctx); err != nil {
		_ = client.Close()
		return eris.Wrap(err, "connect session redis")
	}
	e.redis = client
	e.Sessions = rs
	zap.L().Info("session drafts stored in redis", zap.String("addr", cfg.Redis.Addr))
	return nil
}
