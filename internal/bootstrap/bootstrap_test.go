package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-raidguard/internal/config"
	"go-raidguard/internal/database"
	"go-raidguard/internal/logging"
)

func nopLogger() *logging.Logger {
	return logging.Wrap(zap.NewNop(), zap.NewAtomicLevel())
}

func TestInitializeRejectsInvalidConfig(t *testing.T) {
	b := New(config.DefaultConfig(), config.DefaultTierTable(), nopLogger())
	assert.Error(t, b.Initialize(), "missing token")
	assert.Error(t, b.Run(context.Background()), "run before initialize")
}

func TestWireBuildsComponents(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Bot.Token = "test-token"
	cfg.Database.Path = filepath.Join(t.TempDir(), "raidguard.db")
	cfg.Metrics.Enabled = false

	b := New(cfg, config.DefaultTierTable(), nopLogger())
	require.NoError(t, b.Initialize())
	c := b.Components
	t.Cleanup(func() { _ = Shutdown(c, zap.NewNop()) })

	assert.NotNil(t, c.Raid)
	assert.NotNil(t, c.Spam)
	assert.NotNil(t, c.Router)
	assert.Nil(t, c.OpsServer)
	assert.Equal(t, map[string]int{registryRaid: 0, registrySpam: 0}, c.Watchdog.GetStatus())
}

func TestPruneLoopStopsOnCancel(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "prune.db"), zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pruneIncidents(ctx, db, zap.NewNop()) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("prune loop did not stop")
	}
}
