package detectors

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"go-raidguard/internal/config"
	"go-raidguard/internal/correlator"
	"go-raidguard/internal/decision"
	"go-raidguard/internal/metrics"
	"go-raidguard/internal/models"
)

const (
	PolicySpam = "spam"

	spamReason = "Sending messages too fast!"
)

// BufferedMessage is one message counted toward a flood.
type BufferedMessage struct {
	ChannelID string
	MessageID string
}

// MessageBuffer is the payload of a flood counter: every message seen in the window.
type MessageBuffer struct {
	Messages []BufferedMessage
}

// ByChannel groups the buffered ids per channel, keeping first-seen channel order.
func (b MessageBuffer) ByChannel() ([]string, map[string][]string) {
	var order []string
	groups := make(map[string][]string)
	for _, m := range b.Messages {
		if _, ok := groups[m.ChannelID]; !ok {
			order = append(order, m.ChannelID)
		}
		groups[m.ChannelID] = append(groups[m.ChannelID], m.MessageID)
	}
	return order, groups
}

// SpamDetector removes repetitive messages and responds to message floods.
type SpamDetector struct {
	evaluator *correlator.Evaluator[MessageBuffer]
	tiers     []correlator.Tier
	responder Responder
	reporter  Reporter
	timeout   time.Duration
	logger    *zap.Logger
}

func NewSpamDetector(
	registry *correlator.Registry[MessageBuffer],
	tiers config.TierTable,
	responder Responder,
	reporter Reporter,
	timeout time.Duration,
	logger *zap.Logger,
) *SpamDetector {
	return &SpamDetector{
		evaluator: correlator.NewEvaluator(registry),
		tiers:     tiers.Tiers(config.SpamKind),
		responder: responder,
		reporter:  reporter,
		timeout:   timeout,
		logger:    logger,
	}
}

// FloodScope is the counter scope of one author in one guild.
func FloodScope(guildID, authorID string) string {
	return guildID + ":" + authorID
}

func (d *SpamDetector) OnMessage(ctx context.Context, ev models.MessageCreate) error {
	if ev.GuildID == "" || ev.AuthorBot {
		return nil
	}

	deleted := d.checkRepetitive(ctx, ev)

	// a message already deleted still counts toward the flood but is not deleted twice
	buffer := func(b *MessageBuffer) {
		if deleted {
			return
		}
		b.Messages = append(b.Messages, BufferedMessage{ChannelID: ev.ChannelID, MessageID: ev.MessageID})
	}
	for _, f := range d.evaluator.Evaluate(FloodScope(ev.GuildID, ev.AuthorID), d.tiers, buffer) {
		metrics.TierFirings.WithLabelValues(PolicySpam, f.Tier.Key()).Inc()
		d.logger.Info("message flood detected",
			zap.String("guild", ev.GuildID),
			zap.String("author", ev.AuthorID),
			zap.String("tier", f.Tier.Key()),
			zap.Int("count", f.Count))
		d.respondToFlood(ctx, ev, f)
	}
	return nil
}

func (d *SpamDetector) checkRepetitive(ctx context.Context, ev models.MessageCreate) bool {
	analysis := decision.AnalyzeText(ev.Content)
	if !analysis.Repetitive {
		return false
	}
	metrics.HeuristicFlags.Inc()

	target := models.Target{
		GuildID:    ev.GuildID,
		ChannelID:  ev.ChannelID,
		UserID:     ev.AuthorID,
		MessageIDs: []string{ev.MessageID},
	}
	out := d.responder.Respond(ctx, target, models.NewDeleteAction(""), "Repetitive message")
	if out.Kind != models.OutcomeApplied && out.Kind != models.OutcomeFailed {
		return false
	}

	report := models.NewReport(ev.GuildID, PolicySpam, "repetitive-message", "A member sent a repetitive message in this Discord server")
	report.Color = models.ColorOrange
	report.AddField("Member", ev.AuthorName).
		AddField("Channel", "<#"+ev.ChannelID+">").
		AddInlineField("Diversity", fmt.Sprintf("%.2f < %.2f", analysis.Diversity, analysis.Threshold)).
		AddOutcome("Action", out)
	d.reporter.Send(ctx, report)

	return out.Applied()
}

func (d *SpamDetector) respondToFlood(ctx context.Context, ev models.MessageCreate, f correlator.Firing[MessageBuffer]) {
	member := models.Target{GuildID: ev.GuildID, ChannelID: ev.ChannelID, UserID: ev.AuthorID}

	alert := d.responder.Respond(ctx, member,
		models.NewNotifyAction(fmt.Sprintf("<@%s>, You are sending messages too fast!", ev.AuthorID), config.SettingSpamAlert), "")

	report := models.NewReport(ev.GuildID, PolicySpam, f.Tier.Key(), "A member is spamming in this Discord server")
	report.AddField("Member", ev.AuthorName).
		AddField("Jump to latest message", "[Click here]("+ev.URL()+")")
	if alert.Kind != models.OutcomeDisabled {
		report.AddOutcome("Alert", alert)
	}

	channels, groups := f.Payload.ByChannel()
	for _, channelID := range channels {
		target := models.Target{GuildID: ev.GuildID, ChannelID: channelID, UserID: ev.AuthorID, MessageIDs: groups[channelID]}
		out := d.responder.Respond(ctx, target, models.NewDeleteAction(config.SettingSpamDelete), spamReason)

		name := "Bulk delete"
		if len(channels) > 1 {
			name += " in <#" + channelID + ">"
		}
		report.AddOutcome(name, out)
	}

	timeout := d.responder.Respond(ctx, member, models.NewTimeoutAction(d.timeout, config.SettingSpamTimeout), spamReason)
	report.AddOutcome("Timeout", timeout)

	d.reporter.Send(ctx, report)
}
