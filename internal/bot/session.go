package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Intents is the gateway subscription the detectors need.
const Intents = discordgo.IntentGuilds |
	discordgo.IntentGuildMembers |
	discordgo.IntentGuildMessages |
	discordgo.IntentMessageContent |
	discordgo.IntentGuildEmojis

type Session struct {
	discord *discordgo.Session
	logger  *zap.Logger
}

// New creates the Discord session without connecting it.
func New(token string, logger *zap.Logger) (*Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	dg.Identify.Intents = Intents
	// member tracking gives GuildMemberUpdate its BeforeUpdate snapshot
	dg.StateEnabled = true
	dg.State.TrackMembers = true
	dg.State.TrackRoles = true
	dg.State.TrackChannels = true

	return &Session{discord: dg, logger: logger}, nil
}

func (s *Session) Discord() *discordgo.Session {
	return s.discord
}

// Connect opens the gateway connection.
func (s *Session) Connect() error {
	if err := s.discord.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	if u := s.discord.State.User; u != nil {
		s.logger.Info("discord bot connected", zap.String("bot_id", u.ID), zap.String("username", u.Username))
	}
	return nil
}

func (s *Session) Close() error {
	if s.discord != nil {
		return s.discord.Close()
	}
	return nil
}

// RegisterCommands registers global slash commands for appID.
func (s *Session) RegisterCommands(appID string, commands []*discordgo.ApplicationCommand) error {
	if appID == "" && s.discord.State.User != nil {
		appID = s.discord.State.User.ID
	}

	for _, cmd := range commands {
		if _, err := s.discord.ApplicationCommandCreate(appID, "", cmd); err != nil {
			return fmt.Errorf("failed to register command %s: %w", cmd.Name, err)
		}
		s.logger.Info("registered command", zap.String("command", "/"+cmd.Name))
	}
	return nil
}

// AddHandler adds a discordgo event handler and returns its remover.
func (s *Session) AddHandler(handler interface{}) func() {
	return s.discord.AddHandler(handler)
}

// SyncGuildsFromDatabase warms the settings cache for every stored guild.
func (s *Session) SyncGuildsFromDatabase(db interface {
	SyncAllGuilds() (int, error)
}) {
	n, err := db.SyncAllGuilds()
	if err != nil {
		s.logger.Warn("failed to sync guild settings", zap.Error(err))
		return
	}
	s.logger.Info("guild settings synced", zap.Int("guilds", n))
}
