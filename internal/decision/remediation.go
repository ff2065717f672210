package decision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"go-raidguard/internal/config"
	"go-raidguard/internal/metrics"
	"go-raidguard/internal/models"
	"go-raidguard/internal/platform"
)

var ErrMissingPermission = errors.New("missing permission")

// Platform is the subset of the platform client the orchestrator acts through.
type Platform interface {
	SelfStanding(ctx context.Context, guildID, channelID string) (platform.Standing, error)
	MemberStanding(ctx context.Context, guildID, channelID, userID string) (platform.Standing, error)
	DeleteMessages(ctx context.Context, channelID string, messageIDs []string, reason string) error
	TimeoutMember(ctx context.Context, guildID, userID string, until time.Time, reason string) error
	KickMember(ctx context.Context, guildID, userID, reason string) error
	SendDM(ctx context.Context, userID, content string) error
	SendChannelMessage(ctx context.Context, channelID, content string) error
}

// Orchestrator runs one remediation: toggle check, permission and hierarchy
// pre-check, optional DM notice, then a single attempt.
type Orchestrator struct {
	platform Platform
	settings config.SettingsReader
	logger   *zap.Logger
	now      func() time.Time
}

func NewOrchestrator(p Platform, settings config.SettingsReader, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		platform: p,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// Respond never fails; every result, including platform errors, is carried in the outcome.
func (o *Orchestrator) Respond(ctx context.Context, target models.Target, action models.Action, reason string) models.Outcome {
	start := time.Now()
	out := o.respond(ctx, target, action, reason)

	metrics.RemediationOutcomes.WithLabelValues(action.Kind.String(), out.Kind.String()).Inc()
	if out.Kind == models.OutcomeApplied || out.Kind == models.OutcomeFailed {
		metrics.RemediationDuration.WithLabelValues(action.Kind.String()).Observe(time.Since(start).Seconds())
	}

	fields := []zap.Field{
		zap.String("action", action.Kind.String()),
		zap.String("outcome", out.Kind.String()),
		zap.String("guild", target.GuildID),
		zap.String("user", target.UserID),
		zap.String("channel", target.ChannelID),
	}
	switch out.Kind {
	case models.OutcomeFailed:
		o.logger.Warn("remediation failed", append(fields, zap.Error(out.Err))...)
	case models.OutcomeMissingPermission:
		o.logger.Info("remediation not permitted", append(fields, zap.Error(out.Err))...)
	default:
		o.logger.Debug("remediation", fields...)
	}
	if out.NoticeErr != nil {
		o.logger.Debug("notice not delivered", zap.String("user", target.UserID), zap.Error(out.NoticeErr))
	}
	return out
}

func (o *Orchestrator) respond(ctx context.Context, target models.Target, action models.Action, reason string) models.Outcome {
	out := models.Outcome{Action: action.Kind}

	if action.Toggle != "" && !config.Enabled(o.settings, target.GuildID, action.Toggle) {
		out.Kind = models.OutcomeDisabled
		return out
	}

	if err := o.authorize(ctx, target, action); err != nil {
		out.Kind = models.OutcomeMissingPermission
		out.Err = err
		return out
	}

	if action.Notice != "" && target.UserID != "" {
		out.NoticeAttempted = true
		out.NoticeErr = o.platform.SendDM(ctx, target.UserID, action.Notice)
	}

	detail, err := o.apply(ctx, target, action, reason)
	if err != nil {
		out.Kind = models.OutcomeFailed
		out.Err = err
		return out
	}
	out.Kind = models.OutcomeApplied
	out.Detail = detail
	return out
}

// authorize checks the bot's standing. A standing that cannot be read counts
// as missing permission.
func (o *Orchestrator) authorize(ctx context.Context, target models.Target, action models.Action) error {
	var perm int64
	switch action.Kind {
	case models.ActionNotify:
		return nil
	case models.ActionDelete:
		perm = discordgo.PermissionManageMessages
	case models.ActionTimeout:
		perm = discordgo.PermissionModerateMembers
	case models.ActionKick:
		perm = discordgo.PermissionKickMembers
	default:
		return fmt.Errorf("%w: unknown action %s", ErrMissingPermission, action.Kind)
	}

	channelID := ""
	if action.Kind == models.ActionDelete {
		channelID = target.ChannelID
	}
	self, err := o.platform.SelfStanding(ctx, target.GuildID, channelID)
	if err != nil {
		return fmt.Errorf("%w: reading own standing: %v", ErrMissingPermission, err)
	}
	if !self.Has(perm) {
		return fmt.Errorf("%w: %s", ErrMissingPermission, permissionName(perm))
	}

	if action.Kind == models.ActionDelete {
		return nil
	}
	member, err := o.platform.MemberStanding(ctx, target.GuildID, "", target.UserID)
	if err != nil {
		return fmt.Errorf("%w: reading member standing: %v", ErrMissingPermission, err)
	}
	if !self.Outranks(member) {
		return fmt.Errorf("%w: member is not below the bot in the role hierarchy", ErrMissingPermission)
	}
	return nil
}

func (o *Orchestrator) apply(ctx context.Context, target models.Target, action models.Action, reason string) (string, error) {
	switch action.Kind {
	case models.ActionDelete:
		if len(target.MessageIDs) == 0 {
			return "", errors.New("no messages to delete")
		}
		if err := o.platform.DeleteMessages(ctx, target.ChannelID, target.MessageIDs, reason); err != nil {
			return "", err
		}
		if len(target.MessageIDs) == 1 {
			return "1 message", nil
		}
		return fmt.Sprintf("%d messages", len(target.MessageIDs)), nil

	case models.ActionTimeout:
		if action.Duration <= 0 {
			return "", errors.New("timeout needs a positive duration")
		}
		until := o.now().Add(action.Duration)
		if err := o.platform.TimeoutMember(ctx, target.GuildID, target.UserID, until, reason); err != nil {
			return "", err
		}
		return "for " + action.Duration.String(), nil

	case models.ActionKick:
		return "", o.platform.KickMember(ctx, target.GuildID, target.UserID, reason)

	case models.ActionNotify:
		if target.ChannelID != "" {
			return "", o.platform.SendChannelMessage(ctx, target.ChannelID, action.Message)
		}
		return "", o.platform.SendDM(ctx, target.UserID, action.Message)
	}
	return "", fmt.Errorf("unknown action %s", action.Kind)
}

func permissionName(perm int64) string {
	switch perm {
	case discordgo.PermissionManageMessages:
		return "Manage Messages"
	case discordgo.PermissionModerateMembers:
		return "Moderate Members"
	case discordgo.PermissionKickMembers:
		return "Kick Members"
	}
	return fmt.Sprintf("permission %d", perm)
}
