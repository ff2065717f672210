package bot

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"go-raidguard/internal/metrics"
	"go-raidguard/internal/models"
)

const (
	moduleRaid = "raid"
	moduleSpam = "spam"
)

type RaidModule interface {
	OnMemberJoin(ctx context.Context, ev models.MemberJoin) error
	OnStructuralChange(ctx context.Context, ev models.StructuralChange) error
}

type SpamModule interface {
	OnMessage(ctx context.Context, ev models.MessageCreate) error
}

// GuildForgetter drops cached per-guild state when the bot leaves a guild.
type GuildForgetter interface {
	ForgetGuild(guildID string)
}

// Router turns gateway events into detector events. Every module call runs
// under its own timeout and panic guard so one module cannot stall or crash another.
type Router struct {
	raid        RaidModule
	spam        SpamModule
	forget      GuildForgetter
	expressions *expressionSnapshots
	timeout     time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

func NewRouter(raid RaidModule, spam SpamModule, forget GuildForgetter, timeout time.Duration, logger *zap.Logger) *Router {
	return &Router{
		raid:        raid,
		spam:        spam,
		forget:      forget,
		expressions: newExpressionSnapshots(),
		timeout:     timeout,
		logger:      logger,
		now:         time.Now,
	}
}

// Register attaches every handler to the session.
func (r *Router) Register(s *Session) {
	s.AddHandler(r.onReady)
	s.AddHandler(r.onGuildCreate)
	s.AddHandler(r.onGuildDelete)
	s.AddHandler(r.onMemberAdd)
	s.AddHandler(r.onMemberUpdate)
	s.AddHandler(r.onMessageCreate)
	s.AddHandler(r.onChannelCreate)
	s.AddHandler(r.onChannelDelete)
	s.AddHandler(r.onRoleCreate)
	s.AddHandler(r.onRoleDelete)
	s.AddHandler(r.onEmojisUpdate)
	s.AddHandler(r.onRawEvent)
	r.logger.Info("discord event handlers configured")
}

func (r *Router) dispatch(module, event string, fn func(ctx context.Context) error) {
	metrics.EventsReceived.WithLabelValues(event).Inc()

	defer func() {
		if p := recover(); p != nil {
			metrics.HandlerPanics.WithLabelValues(module).Inc()
			r.logger.Error("event handler panicked",
				zap.String("module", module),
				zap.String("event", event),
				zap.Any("panic", p),
				zap.Stack("stack"))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		r.logger.Warn("event handler failed",
			zap.String("module", module),
			zap.String("event", event),
			zap.Error(err))
	}
}

func (r *Router) structural(event, guildID, targetID string, kind models.StructuralKind) {
	ev := models.StructuralChange{GuildID: guildID, Kind: kind, TargetID: targetID, At: r.now()}
	r.dispatch(moduleRaid, event, func(ctx context.Context) error {
		return r.raid.OnStructuralChange(ctx, ev)
	})
}

func (r *Router) onReady(_ *discordgo.Session, ready *discordgo.Ready) {
	r.logger.Info("bot ready", zap.String("username", ready.User.Username), zap.Int("guilds", len(ready.Guilds)))
}

func (r *Router) onGuildCreate(_ *discordgo.Session, g *discordgo.GuildCreate) {
	if g.Guild == nil {
		return
	}
	r.expressions.Seed(g.ID, g.Emojis, g.Stickers)
	r.logger.Debug("guild loaded", zap.String("guild", g.ID), zap.String("name", g.Name))
}

func (r *Router) onGuildDelete(_ *discordgo.Session, g *discordgo.GuildDelete) {
	// an unavailable guild is an outage, not a removal
	if g.Guild == nil || g.Unavailable {
		return
	}
	r.expressions.Forget(g.ID)
	if r.forget != nil {
		r.forget.ForgetGuild(g.ID)
	}
	r.logger.Info("removed from guild", zap.String("guild", g.ID))
}

func (r *Router) onMemberAdd(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.Member == nil || m.User == nil || m.GuildID == "" {
		return
	}
	ev := memberJoin(m.Member)
	r.dispatch(moduleRaid, "member_join", func(ctx context.Context) error {
		return r.raid.OnMemberJoin(ctx, ev)
	})
}

func (r *Router) onMemberUpdate(_ *discordgo.Session, m *discordgo.GuildMemberUpdate) {
	// without a cached copy there is nothing to compare the nickname against
	if m.Member == nil || m.BeforeUpdate == nil || m.User == nil {
		return
	}
	if m.BeforeUpdate.Nick == m.Nick {
		return
	}
	r.structural("nickname_change", m.GuildID, m.User.ID, models.StructuralNicknameChange)
}

func (r *Router) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Message == nil || m.Author == nil || m.GuildID == "" {
		return
	}
	ev := messageCreate(m.Message)
	r.dispatch(moduleSpam, "message_create", func(ctx context.Context) error {
		return r.spam.OnMessage(ctx, ev)
	})
}

func (r *Router) onChannelCreate(_ *discordgo.Session, c *discordgo.ChannelCreate) {
	if c.Channel == nil || c.GuildID == "" {
		return
	}
	r.structural("channel_create", c.GuildID, c.ID, models.StructuralChannelCreate)
}

func (r *Router) onChannelDelete(_ *discordgo.Session, c *discordgo.ChannelDelete) {
	if c.Channel == nil || c.GuildID == "" {
		return
	}
	r.structural("channel_delete", c.GuildID, c.ID, models.StructuralChannelDelete)
}

func (r *Router) onRoleCreate(_ *discordgo.Session, g *discordgo.GuildRoleCreate) {
	if g.GuildRole == nil || g.Role == nil || g.GuildID == "" {
		return
	}
	// bot, integration and booster roles are created by Discord itself
	if g.Role.Managed {
		return
	}
	r.structural("role_create", g.GuildID, g.Role.ID, models.StructuralRoleCreate)
}

func (r *Router) onRoleDelete(_ *discordgo.Session, g *discordgo.GuildRoleDelete) {
	if g.GuildID == "" {
		return
	}
	r.structural("role_delete", g.GuildID, g.RoleID, models.StructuralRoleDelete)
}

func (r *Router) onEmojisUpdate(_ *discordgo.Session, e *discordgo.GuildEmojisUpdate) {
	if e.GuildID == "" {
		return
	}
	created, deleted := r.expressions.DiffEmojis(e.GuildID, e.Emojis)
	for _, id := range created {
		r.structural("emoji_create", e.GuildID, id, models.StructuralEmojiCreate)
	}
	for _, id := range deleted {
		r.structural("emoji_delete", e.GuildID, id, models.StructuralEmojiDelete)
	}
}

// discordgo has no typed sticker event, so sticker updates are read off the raw dispatch.
const eventGuildStickersUpdate = "GUILD_STICKERS_UPDATE"

type guildStickersUpdate struct {
	GuildID  string               `json:"guild_id"`
	Stickers []*discordgo.Sticker `json:"stickers"`
}

func (r *Router) onRawEvent(_ *discordgo.Session, e *discordgo.Event) {
	if e.Type != eventGuildStickersUpdate {
		return
	}
	var update guildStickersUpdate
	if err := json.Unmarshal(e.RawData, &update); err != nil {
		r.logger.Warn("malformed sticker update", zap.Error(err))
		return
	}
	r.onStickersUpdate(update)
}

func (r *Router) onStickersUpdate(e guildStickersUpdate) {
	if e.GuildID == "" {
		return
	}
	created, deleted := r.expressions.DiffStickers(e.GuildID, e.Stickers)
	for _, id := range created {
		r.structural("sticker_create", e.GuildID, id, models.StructuralStickerCreate)
	}
	for _, id := range deleted {
		r.structural("sticker_delete", e.GuildID, id, models.StructuralStickerDelete)
	}
}

func memberJoin(m *discordgo.Member) models.MemberJoin {
	ev := models.MemberJoin{
		GuildID:  m.GuildID,
		UserID:   m.User.ID,
		Username: m.User.Username,
		Avatar:   m.User.Avatar,
		Bot:      m.User.Bot,
		JoinedAt: m.JoinedAt,
	}
	// account creation time is encoded in the snowflake
	if created, err := discordgo.SnowflakeTimestamp(m.User.ID); err == nil {
		ev.CreatedAt = created
	}
	return ev
}

func messageCreate(m *discordgo.Message) models.MessageCreate {
	return models.MessageCreate{
		GuildID:    m.GuildID,
		ChannelID:  m.ChannelID,
		MessageID:  m.ID,
		AuthorID:   m.Author.ID,
		AuthorName: m.Author.Username,
		AuthorBot:  m.Author.Bot,
		Content:    m.Content,
		At:         m.Timestamp,
	}
}
