package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"go-raidguard/internal/config"
	"go-raidguard/internal/database"
	"go-raidguard/internal/metrics"
	"go-raidguard/internal/models"
)

// EmbedSender posts an embed to a channel.
type EmbedSender interface {
	SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error
}

// Archive stores every report, delivered or not.
type Archive interface {
	LogIncident(inc *database.Incident) error
}

type Options struct {
	PerGuildPerMinute int
	Burst             int
}

// Reporter delivers reports to each guild's log channel. Posts are paced per
// guild; a report over the pace waits in that guild's queue and is posted in
// order once the bucket refills. Only an unset channel or a failed post
// drops a report.
type Reporter struct {
	sender   EmbedSender
	settings config.SettingsReader
	archive  Archive
	logger   *zap.Logger

	limit rate.Limit
	burst int

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	guilds map[string]*guildQueue
	wg     sync.WaitGroup
}

type queuedReport struct {
	channelID string
	report    *models.Report
}

type guildQueue struct {
	limiter  *rate.Limiter
	pending  []queuedReport
	draining bool
}

// NewReporter builds a reporter; archive may be nil.
func NewReporter(sender EmbedSender, settings config.SettingsReader, archive Archive, opts Options, logger *zap.Logger) *Reporter {
	if opts.PerGuildPerMinute < 1 {
		opts.PerGuildPerMinute = 30
	}
	if opts.Burst < 1 {
		opts.Burst = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Reporter{
		sender:   sender,
		settings: settings,
		archive:  archive,
		logger:   logger,
		limit:    rate.Every(time.Minute / time.Duration(opts.PerGuildPerMinute)),
		burst:    opts.Burst,
		ctx:      ctx,
		cancel:   cancel,
		guilds:   make(map[string]*guildQueue),
	}
}

func (r *Reporter) Send(ctx context.Context, report *models.Report) {
	channelID := config.LogChannel(r.settings, report.GuildID)
	if channelID == "" {
		metrics.ReportsSent.WithLabelValues("dropped").Inc()
		r.logger.Debug("no log channel configured, report dropped",
			zap.String("guild", report.GuildID),
			zap.String("incident", report.ID))
		r.archiveReport(report, false)
		return
	}

	if r.enqueueIfPaced(channelID, report) {
		return
	}
	r.post(ctx, channelID, report)
}

// Pending returns how many reports are waiting for the guild's bucket.
func (r *Reporter) Pending(guildID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if q, ok := r.guilds[guildID]; ok {
		return len(q.pending)
	}
	return 0
}

// Close stops the drainers. Reports still queued are archived as undelivered.
func (r *Reporter) Close() {
	r.cancel()
	r.wg.Wait()
}

func (r *Reporter) post(ctx context.Context, channelID string, report *models.Report) {
	delivered := true
	if err := r.sender.SendEmbed(ctx, channelID, BuildEmbed(report)); err != nil {
		delivered = false
		metrics.ReportsSent.WithLabelValues("failed").Inc()
		r.logger.Warn("failed to post report",
			zap.String("guild", report.GuildID),
			zap.String("incident", report.ID),
			zap.String("kind", report.Kind),
			zap.String("channel", channelID),
			zap.Error(err))
	} else {
		metrics.ReportsSent.WithLabelValues("sent").Inc()
	}
	r.archiveReport(report, delivered)
}

// enqueueIfPaced queues the report when the guild is over its pace or already
// has reports waiting, which keeps posts in firing order.
func (r *Reporter) enqueueIfPaced(channelID string, report *models.Report) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.guilds[report.GuildID]
	if !ok {
		q = &guildQueue{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.guilds[report.GuildID] = q
	}
	if len(q.pending) == 0 && q.limiter.Allow() {
		return false
	}

	q.pending = append(q.pending, queuedReport{channelID: channelID, report: report})
	metrics.ReportsSent.WithLabelValues("queued").Inc()
	if !q.draining {
		q.draining = true
		r.wg.Add(1)
		go r.drain(report.GuildID, q)
	}
	return true
}

func (r *Reporter) drain(guildID string, q *guildQueue) {
	defer r.wg.Done()

	for {
		r.mu.Lock()
		if len(q.pending) == 0 {
			q.draining = false
			r.mu.Unlock()
			return
		}
		r.mu.Unlock()

		if err := q.limiter.Wait(r.ctx); err != nil {
			r.abandon(guildID, q)
			return
		}

		r.mu.Lock()
		next := q.pending[0]
		q.pending = q.pending[1:]
		r.mu.Unlock()

		r.post(r.ctx, next.channelID, next.report)
	}
}

func (r *Reporter) abandon(guildID string, q *guildQueue) {
	r.mu.Lock()
	left := q.pending
	q.pending = nil
	q.draining = false
	r.mu.Unlock()

	if len(left) > 0 {
		r.logger.Warn("reporter closed with queued reports",
			zap.String("guild", guildID),
			zap.Int("queued", len(left)))
	}
	for _, qr := range left {
		metrics.ReportsSent.WithLabelValues("failed").Inc()
		r.archiveReport(qr.report, false)
	}
}

func (r *Reporter) archiveReport(report *models.Report, delivered bool) {
	if r.archive == nil {
		return
	}

	fields := make([]database.IncidentField, len(report.Fields))
	for i, f := range report.Fields {
		fields[i] = database.IncidentField{Name: f.Name, Value: f.Value}
	}

	err := r.archive.LogIncident(&database.Incident{
		ID:        report.ID,
		GuildID:   report.GuildID,
		Policy:    report.Policy,
		Kind:      report.Kind,
		Title:     report.Title,
		Actor:     report.Actor,
		Fields:    fields,
		Delivered: delivered,
		CreatedAt: report.CreatedAt,
	})
	if err != nil {
		r.logger.Warn("failed to archive report", zap.String("incident", report.ID), zap.Error(err))
	}
}

// BuildEmbed renders a report as a Discord embed.
func BuildEmbed(report *models.Report) *discordgo.MessageEmbed {
	fields := make([]*discordgo.MessageEmbedField, 0, len(report.Fields))
	for _, f := range report.Fields {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}

	return &discordgo.MessageEmbed{
		Title:  report.Title,
		Color:  report.Color,
		Fields: fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Incident " + report.ID,
		},
		Timestamp: report.CreatedAt.Format(time.RFC3339),
	}
}
