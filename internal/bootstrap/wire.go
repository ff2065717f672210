package bootstrap

import (
	"fmt"

	"go-raidguard/internal/bot"
	"go-raidguard/internal/commands"
	"go-raidguard/internal/correlator"
	"go-raidguard/internal/database"
	"go-raidguard/internal/decision"
	"go-raidguard/internal/detectors"
	"go-raidguard/internal/dispatcher"
	"go-raidguard/internal/forensics"
	"go-raidguard/internal/metrics"
	"go-raidguard/internal/notifier"
	"go-raidguard/internal/platform"
	"go-raidguard/internal/watchdog"
)

const (
	registryRaid = "raid"
	registrySpam = "spam"
)

func Wire(b *Bootstrap) error {
	cfg := b.Config
	logger := b.Logger
	logger.Info("Wiring components...")

	db, err := database.Open(cfg.Database.Path, logger.Named("database"))
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("database connection not available: %w", err)
	}

	session, err := bot.New(cfg.Bot.Token, logger.Named("bot"))
	if err != nil {
		_ = db.Close()
		return err
	}

	httpPool := dispatcher.NewHTTPPool(dispatcher.PoolOptions{
		Size:    cfg.Network.HTTPPoolSize,
		Timeout: cfg.RequestTimeout(),
	})
	rateLimiter := dispatcher.NewRateLimitMonitor()
	actions := dispatcher.NewMemberActions(httpPool, rateLimiter, cfg.Network.APIBaseURL, cfg.Bot.Token,
		cfg.RequestTimeout(), logger.Named("dispatcher"))
	discord := platform.NewDiscord(session.Discord(), actions, logger.Named("platform"))

	var archive notifier.Archive
	if cfg.Reports.Archive {
		archive = db
	}
	reporter := notifier.NewReporter(discord, db, archive, notifier.Options{
		PerGuildPerMinute: cfg.Reports.PerGuildPerMinute,
		Burst:             cfg.Reports.Burst,
	}, logger.Named("notifier"))

	orchestrator := decision.NewOrchestrator(discord, db, logger.Named("remediation"))
	resolver := forensics.NewResolver(discord, cfg.AttributionCacheTTL(), logger.Named("attribution"))

	raidRegistry := correlator.NewRegistry[struct{}]()
	spamRegistry := correlator.NewRegistry[detectors.MessageBuffer]()

	raid := detectors.NewRaidDetector(raidRegistry, b.Tiers, db, orchestrator, resolver, reporter, logger.Named("raid"))
	spam := detectors.NewSpamDetector(spamRegistry, b.Tiers, orchestrator, reporter, cfg.SpamTimeout(), logger.Named("spam"))

	health := metrics.NewSweepHealth(cfg.SweepInterval())
	dog := watchdog.NewWatchdog(cfg.SweepInterval(), health, logger.Named("watchdog"))
	dog.Register(registryRaid, raidRegistry)
	dog.Register(registrySpam, spamRegistry)

	router := bot.NewRouter(raid, spam, db, cfg.HandlerTimeout(), logger.Named("router"))
	if cfg.Detection.Enabled {
		router.Register(session)
	} else {
		logger.Warn("Detection disabled by config; only commands are served")
	}

	cmdHandler := commands.NewHandler(db, logger.Named("commands"))
	cmdHandler.Register(session)

	var ops *metrics.Server
	if cfg.Metrics.Enabled {
		ops = metrics.NewServer(cfg.Metrics.Addr, health, logger.Named("ops"))
	}

	b.Components = &Components{
		Database:    db,
		Session:     session,
		Platform:    discord,
		HTTPPool:    httpPool,
		RateLimiter: rateLimiter,
		Resolver:    resolver,
		Reporter:    reporter,
		Raid:        raid,
		Spam:        spam,
		Router:      router,
		Commands:    cmdHandler,
		Watchdog:    dog,
		SweepHealth: health,
		OpsServer:   ops,
	}

	logger.Info("Components wired")
	return nil
}
