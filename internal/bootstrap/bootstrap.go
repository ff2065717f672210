package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"go-raidguard/internal/bot"
	"go-raidguard/internal/commands"
	"go-raidguard/internal/config"
	"go-raidguard/internal/database"
	"go-raidguard/internal/detectors"
	"go-raidguard/internal/dispatcher"
	"go-raidguard/internal/forensics"
	"go-raidguard/internal/logging"
	"go-raidguard/internal/metrics"
	"go-raidguard/internal/notifier"
	"go-raidguard/internal/platform"
	"go-raidguard/internal/watchdog"
)

const (
	incidentRetention = 30 * 24 * time.Hour
	pruneInterval     = time.Hour
	shutdownTimeout   = 10 * time.Second
)

type Bootstrap struct {
	Config      *config.Config
	Tiers       config.TierTable
	Logger      *logging.Logger
	Components  *Components
	initialized bool
}

type Components struct {
	Database *database.Database
	Session  *bot.Session
	Platform *platform.Discord

	HTTPPool    *dispatcher.HTTPPool
	RateLimiter *dispatcher.RateLimitMonitor

	Resolver *forensics.Resolver
	Reporter *notifier.Reporter
	Raid     *detectors.RaidDetector
	Spam     *detectors.SpamDetector
	Router   *bot.Router
	Commands *commands.Handler

	Watchdog    *watchdog.Watchdog
	SweepHealth *metrics.SweepHealth
	OpsServer   *metrics.Server
}

func New(cfg *config.Config, tiers config.TierTable, logger *logging.Logger) *Bootstrap {
	return &Bootstrap{
		Config: cfg,
		Tiers:  tiers,
		Logger: logger,
	}
}

func (b *Bootstrap) Initialize() error {
	if err := b.Config.Validate(); err != nil {
		return err
	}
	if err := b.Tiers.Validate(); err != nil {
		return fmt.Errorf("invalid tier table: %w", err)
	}

	if err := Wire(b); err != nil {
		return fmt.Errorf("component wiring failed: %w", err)
	}

	b.initialized = true
	b.Logger.Info("Bootstrap complete")
	return nil
}

// Run connects to Discord and runs the background loops until ctx is cancelled,
// then shuts everything down.
func (b *Bootstrap) Run(ctx context.Context) error {
	if !b.initialized {
		return errors.New("bootstrap not initialized")
	}
	c := b.Components
	log := b.Logger.Named("bootstrap")

	warmCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	if err := c.HTTPPool.Warmup(warmCtx, b.Config.Network.APIBaseURL); err != nil {
		log.Warn("http pool warmup failed", zap.Error(err))
	}
	cancel()

	if err := c.Session.Connect(); err != nil {
		_ = Shutdown(c, log)
		return err
	}
	c.Session.SyncGuildsFromDatabase(c.Database)

	if b.Config.Bot.RegisterCommands {
		if err := c.Session.RegisterCommands(b.Config.Bot.ClientID, commands.GetAllCommands()); err != nil {
			log.Warn("command registration failed", zap.Error(err))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.Watchdog.Run(gctx)
	})
	g.Go(func() error {
		return pruneIncidents(gctx, c.Database, log)
	})
	if c.OpsServer != nil {
		g.Go(func() error {
			return c.OpsServer.ListenAndServe()
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return c.OpsServer.Shutdown(sctx)
		})
	}

	log.Info("raidguard running",
		zap.Bool("detection", b.Config.Detection.Enabled),
		zap.Int("tier_kinds", len(b.Tiers)))

	err := g.Wait()
	if shutdownErr := Shutdown(c, log); err == nil {
		err = shutdownErr
	}
	return err
}

func pruneIncidents(ctx context.Context, db *database.Database, log *zap.Logger) error {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := db.PruneIncidents(time.Now().Add(-incidentRetention))
			if err != nil {
				log.Warn("incident prune failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("pruned incidents", zap.Int64("count", n))
			}
		}
	}
}
