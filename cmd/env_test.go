package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/session"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Store: config.StoreConfig{
			Driver:      "sqlite",
			DatabaseURL: filepath.Join(t.TempDir(), "outreach.db"),
		},
		Enrichment: config.EnrichmentConfig{BatchSize: 5},
		Outreach:   config.OutreachConfig{BaseURL: "http://localhost:0", TimeoutSecs: 5},
	}
}

func TestOutreachEnv_Close_Nil(t *testing.T) {
	env := &outreachEnv{}
	assert.NotPanics(t, func() {
		env.Close()
	})
}

func TestInitStore(t *testing.T) {
	cfg = sqliteConfig(t)
	st, err := initStore(context.Background())
	require.NoError(t, err)
	require.NoError(t, st.Ping(context.Background()))
	require.NoError(t, st.Close())

	cfg = &config.Config{Store: config.StoreConfig{Driver: "mysql"}}
	_, err = initStore(context.Background())
	assert.ErrorContains(t, err, "unsupported store driver")

	cfg = &config.Config{Store: config.StoreConfig{Driver: "postgres"}}
	_, err = initStore(context.Background())
	assert.ErrorContains(t, err, "database url is required")
}

func TestInitEnv_SQLiteWithoutProvider(t *testing.T) {
	cfg = sqliteConfig(t)

	env, err := initEnv(context.Background(), "launch")
	require.NoError(t, err)
	defer env.Close()

	assert.Nil(t, env.Enrichment)
	assert.NotNil(t, env.Importer)
	assert.NotNil(t, env.Quality)
	assert.NotNil(t, env.Prober)
	assert.NotNil(t, env.Launcher)
	assert.IsType(t, &session.MemoryStore{}, env.Sessions)
}

func TestInitEnv_WithProviderAndRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg = sqliteConfig(t)
	cfg.Enrichment.Key = "secret"
	cfg.Enrichment.BaseURL = "http://localhost:0"
	cfg.Enrichment.RatePerSec = 2
	cfg.Redis = config.RedisConfig{Addr: mr.Addr(), SessionTTLMins: 10}

	env, err := initEnv(context.Background(), "enrich")
	require.NoError(t, err)
	defer env.Close()

	assert.NotNil(t, env.Enrichment)
	assert.IsType(t, &session.RedisStore{}, env.Sessions)
	assert.Contains(t, env.Breakers.States(), serviceEnrichment)
}

func TestInitEnv_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg = sqliteConfig(t)
	cfg.Redis = config.RedisConfig{Addr: addr}

	env, err := initEnv(context.Background(), "store")
	assert.Nil(t, env)
	assert.ErrorContains(t, err, "session redis")
}

func TestInitEnv_ValidationFails(t *testing.T) {
	cfg = sqliteConfig(t)
	env, err := initEnv(context.Background(), "enrich")
	assert.Nil(t, env)
	assert.ErrorContains(t, err, "enrichment.key is required")
}
