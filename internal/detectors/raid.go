package detectors

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"go-raidguard/internal/config"
	"go-raidguard/internal/correlator"
	"go-raidguard/internal/forensics"
	"go-raidguard/internal/metrics"
	"go-raidguard/internal/models"
)

const (
	PolicyRaid = "raid"

	noAvatarNotice = "You have been kicked from a server for not having a profile picture. They have the bot set up like this."
	massJoinNotice = "You have been kicked from the server for suspected raiding. If you believe this was a mistake, try rejoining in a few minutes."
	dayLength      = 24 * time.Hour
)

type structuralWording struct {
	activity string
	actor    string
}

var structuralWordings = map[models.StructuralKind]structuralWording{
	models.StructuralRoleCreate:     {"mass creating roles", "Creator"},
	models.StructuralRoleDelete:     {"mass deleting roles", "Deleter"},
	models.StructuralChannelCreate:  {"mass creating channels", "Creator"},
	models.StructuralChannelDelete:  {"mass deleting channels", "Deleter"},
	models.StructuralEmojiCreate:    {"mass creating emojis", "Creator"},
	models.StructuralEmojiDelete:    {"mass deleting emojis", "Deleter"},
	models.StructuralStickerCreate:  {"mass creating stickers", "Creator"},
	models.StructuralStickerDelete:  {"mass deleting stickers", "Deleter"},
	models.StructuralNicknameChange: {"mass changing nicknames", "Changer"},
}

// RaidDetector watches joins and structural churn. Joins may be kicked;
// structural firings are reported only.
type RaidDetector struct {
	evaluator  *correlator.Evaluator[struct{}]
	tiers      config.TierTable
	settings   config.SettingsReader
	responder  Responder
	attributor Attributor
	reporter   Reporter
	logger     *zap.Logger
	now        func() time.Time
}

func NewRaidDetector(
	registry *correlator.Registry[struct{}],
	tiers config.TierTable,
	settings config.SettingsReader,
	responder Responder,
	attributor Attributor,
	reporter Reporter,
	logger *zap.Logger,
) *RaidDetector {
	return &RaidDetector{
		evaluator:  correlator.NewEvaluator(registry),
		tiers:      tiers,
		settings:   settings,
		responder:  responder,
		attributor: attributor,
		reporter:   reporter,
		logger:     logger,
		now:        time.Now,
	}
}

// OnMemberJoin runs the no-avatar and new-account checks, then the mass-join tier.
func (d *RaidDetector) OnMemberJoin(ctx context.Context, ev models.MemberJoin) error {
	if ev.GuildID == "" {
		return ErrInvalidEvent
	}

	removed := d.checkNoAvatar(ctx, ev)
	if !removed {
		removed = d.checkNewAccount(ctx, ev)
	}
	d.checkMassJoin(ctx, ev, removed)
	return nil
}

func (d *RaidDetector) checkNoAvatar(ctx context.Context, ev models.MemberJoin) bool {
	if ev.HasAvatar() {
		return false
	}

	target := models.Target{GuildID: ev.GuildID, UserID: ev.UserID}
	out := d.responder.Respond(ctx, target, models.NewKickAction(noAvatarNotice, config.SettingNoAvatarKick), "No PFP")
	if out.Kind == models.OutcomeDisabled {
		return false
	}

	report := models.NewReport(ev.GuildID, PolicyRaid, "no-avatar", "A member is joining with no PFP in this Discord server")
	report.AddField("Member", ev.Username).AddOutcome("Action", out)
	d.reporter.Send(ctx, report)

	return out.Applied()
}

func (d *RaidDetector) checkNewAccount(ctx context.Context, ev models.MemberJoin) bool {
	days := config.NewAccountDays(d.settings, ev.GuildID)
	if days == 0 || ev.CreatedAt.IsZero() {
		return false
	}

	now := d.now()
	cutoff := now.Add(-time.Duration(days) * dayLength)
	if ev.CreatedAt.Before(cutoff) {
		return false
	}
	ageDays := int(now.Sub(ev.CreatedAt) / dayLength)

	notice := fmt.Sprintf("Your account needs to be at least %d days old to join this server. Your account is %d days old.", days, ageDays)
	target := models.Target{GuildID: ev.GuildID, UserID: ev.UserID}
	out := d.responder.Respond(ctx, target, models.NewKickAction(notice, config.SettingNewAccountDays), "New account")
	if out.Kind == models.OutcomeDisabled {
		return false
	}

	report := models.NewReport(ev.GuildID, PolicyRaid, "new-account", "A member is joining with a new account in this Discord server")
	report.AddField("Member", ev.Username).
		AddOutcome("Action", out).
		AddField("Account age", fmt.Sprintf("%d days old", ageDays)).
		AddField("Server setting", fmt.Sprintf("%d days old", days))
	d.reporter.Send(ctx, report)

	return out.Applied()
}

func (d *RaidDetector) checkMassJoin(ctx context.Context, ev models.MemberJoin, removed bool) {
	people, per := config.JoinThreshold(d.settings, ev.GuildID)
	if people == 0 {
		return
	}

	tier := correlator.Tier{Kind: config.JoinKind, Name: "threshold", Window: per, Trigger: people}
	for _, f := range d.evaluator.Evaluate(ev.GuildID, []correlator.Tier{tier}, nil) {
		metrics.TierFirings.WithLabelValues(PolicyRaid, f.Tier.Key()).Inc()
		d.logger.Info("mass join detected",
			zap.String("guild", ev.GuildID),
			zap.Int("count", f.Count),
			zap.Duration("window", per))

		// the joiner that tripped the tier is kicked only when the guild opted in
		out := models.Outcome{Action: models.ActionKick, Kind: models.OutcomeDisabled}
		if !removed {
			target := models.Target{GuildID: ev.GuildID, UserID: ev.UserID}
			out = d.responder.Respond(ctx, target, models.NewKickAction(massJoinNotice, config.SettingJoinKick), "Suspected raiding")
		}

		report := models.NewReport(ev.GuildID, PolicyRaid, f.Tier.Key(), "Members are mass joining this Discord server")
		report.Color = models.ColorOrange
		report.AddField("Joins", fmt.Sprintf("%d in %s", f.Count, per)).
			AddField("Latest member", ev.Username)
		if out.Kind != models.OutcomeDisabled {
			report.AddOutcome("Action", out)
		}
		d.reporter.Send(ctx, report)
	}
}

// OnStructuralChange counts the change in every tier of its kind and reports each firing
// with the actor taken from the audit log.
func (d *RaidDetector) OnStructuralChange(ctx context.Context, ev models.StructuralChange) error {
	if ev.GuildID == "" {
		return ErrInvalidEvent
	}

	tiers := d.tiers.Tiers(ev.Kind.String())
	if len(tiers) == 0 {
		return nil
	}

	for _, f := range d.evaluator.Evaluate(ev.GuildID, tiers, nil) {
		metrics.TierFirings.WithLabelValues(PolicyRaid, f.Tier.Key()).Inc()

		actor := d.attributor.Resolve(ctx, ev.GuildID, forensics.AuditAction(ev.Kind))
		d.logger.Info("structural raid detected",
			zap.String("guild", ev.GuildID),
			zap.String("tier", f.Tier.Key()),
			zap.Int("count", f.Count),
			zap.String("actor", actor.String()),
			zap.NamedError("attribution", actor.Err))

		wording := structuralWordings[ev.Kind]
		report := models.NewReport(ev.GuildID, PolicyRaid, f.Tier.Key(), structuralTitle(wording.activity, f.Tier))
		report.Actor = actor.String()
		report.AddField(wording.actor, actor.String()).
			AddField("Events", fmt.Sprintf("%d in %s", f.Count, f.Tier.Window))
		d.reporter.Send(ctx, report)
	}
	return nil
}

func structuralTitle(activity string, tier correlator.Tier) string {
	if tier.Name == config.TierBurst {
		return "A member is " + activity + " in this Discord server"
	}
	return "A member is " + activity + " over a longer period of time in this Discord server"
}
