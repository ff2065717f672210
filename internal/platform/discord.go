package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"go-raidguard/internal/dispatcher"
)

// Discord is the platform client: reads and messaging go through the discordgo
// session, member actions through the fasthttp dispatcher.
type Discord struct {
	session *discordgo.Session
	actions *dispatcher.MemberActions
	logger  *zap.Logger
}

func NewDiscord(session *discordgo.Session, actions *dispatcher.MemberActions, logger *zap.Logger) *Discord {
	return &Discord{
		session: session,
		actions: actions,
		logger:  logger,
	}
}

func (d *Discord) SelfID() string {
	if d.session.State == nil || d.session.State.User == nil {
		return ""
	}
	return d.session.State.User.ID
}

// SelfStanding is the bot's own standing, scoped to channelID when given.
func (d *Discord) SelfStanding(ctx context.Context, guildID, channelID string) (Standing, error) {
	self := d.SelfID()
	if self == "" {
		return Standing{}, fmt.Errorf("session not ready: %w", ErrNotFound)
	}
	return d.MemberStanding(ctx, guildID, channelID, self)
}

func (d *Discord) MemberStanding(ctx context.Context, guildID, channelID, userID string) (Standing, error) {
	guild, err := d.guild(ctx, guildID)
	if err != nil {
		return Standing{}, err
	}
	member, err := d.member(ctx, guildID, userID)
	if err != nil {
		return Standing{}, err
	}

	standing := Standing{Owner: guild.OwnerID == userID}
	roles := make(map[string]*discordgo.Role, len(guild.Roles))
	for _, r := range guild.Roles {
		roles[r.ID] = r
	}
	if everyone, ok := roles[guildID]; ok {
		standing.Permissions = everyone.Permissions
	}
	for _, id := range member.Roles {
		r, ok := roles[id]
		if !ok {
			continue
		}
		standing.Permissions |= r.Permissions
		if r.Position > standing.Rank {
			standing.Rank = r.Position
		}
	}

	if channelID != "" && d.session.State != nil {
		if perms, err := d.session.State.UserChannelPermissions(userID, channelID); err == nil {
			standing.Permissions = perms
		}
	}
	return standing, nil
}

func (d *Discord) guild(ctx context.Context, guildID string) (*discordgo.Guild, error) {
	if d.session.State != nil {
		if g, err := d.session.State.Guild(guildID); err == nil {
			return g, nil
		}
	}
	g, err := d.session.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, translate(err)
	}
	return g, nil
}

func (d *Discord) member(ctx context.Context, guildID, userID string) (*discordgo.Member, error) {
	if d.session.State != nil {
		if m, err := d.session.State.Member(guildID, userID); err == nil {
			return m, nil
		}
	}
	m, err := d.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, translate(err)
	}
	return m, nil
}

func (d *Discord) DeleteMessages(ctx context.Context, channelID string, messageIDs []string, reason string) error {
	return translate(d.actions.DeleteMessages(ctx, channelID, messageIDs, reason))
}

func (d *Discord) TimeoutMember(ctx context.Context, guildID, userID string, until time.Time, reason string) error {
	return translate(d.actions.Timeout(ctx, guildID, userID, until, reason))
}

func (d *Discord) KickMember(ctx context.Context, guildID, userID, reason string) error {
	return translate(d.actions.Kick(ctx, guildID, userID, reason))
}

func (d *Discord) SendDM(ctx context.Context, userID, content string) error {
	ch, err := d.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return translate(err)
	}
	_, err = d.session.ChannelMessageSend(ch.ID, content, discordgo.WithContext(ctx))
	return translate(err)
}

func (d *Discord) SendChannelMessage(ctx context.Context, channelID, content string) error {
	_, err := d.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return translate(err)
}

func (d *Discord) SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error {
	_, err := d.session.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx))
	return translate(err)
}

// LatestAuditEntry returns the newest audit log entry of the given action type.
func (d *Discord) LatestAuditEntry(ctx context.Context, guildID string, action int) (AuditEntry, error) {
	audit, err := d.session.GuildAuditLog(guildID, "", "", action, 1, discordgo.WithContext(ctx))
	if err != nil {
		return AuditEntry{}, translate(err)
	}
	if len(audit.AuditLogEntries) == 0 {
		return AuditEntry{}, ErrNotFound
	}

	entry := audit.AuditLogEntries[0]
	out := AuditEntry{
		ID:       entry.ID,
		Action:   action,
		UserID:   entry.UserID,
		TargetID: entry.TargetID,
	}
	for _, u := range audit.Users {
		if u.ID == entry.UserID {
			out.Username = u.Username
			break
		}
	}
	return out, nil
}

// translate maps REST failures from either client onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrForbidden, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return err
	}

	switch {
	case errors.Is(err, dispatcher.ErrForbidden):
		return fmt.Errorf("%w: %v", ErrForbidden, err)
	case errors.Is(err, dispatcher.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}
