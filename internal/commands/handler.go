package commands

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"go-raidguard/internal/config"
)

const (
	colorGreen = 0x57F287
	colorGrey  = 0x2B2D31
	colorRed   = 0xED4245
)

// SettingsStore is the per-guild settings store the /antiraid command edits.
type SettingsStore interface {
	config.SettingsReader
	config.SettingsWriter
}

// Handler routes slash command interactions.
type Handler struct {
	store   SettingsStore
	logger  *zap.Logger
	started time.Time
}

func NewHandler(store SettingsStore, logger *zap.Logger) *Handler {
	return &Handler{
		store:   store,
		logger:  logger,
		started: time.Now(),
	}
}

// Register attaches the interaction handler to a session.
func (h *Handler) Register(session interface{ AddHandler(interface{}) func() }) {
	session.AddHandler(h.handleInteraction)
}

func (h *Handler) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	if i.GuildID == "" {
		respondError(s, i, "This command can only be used in a server.")
		return
	}

	var err error
	switch data.Name {
	case "antiraid":
		err = h.handleAntiraid(s, i)
	case "ping":
		err = handlePing(s, i)
	case "stats":
		err = h.handleStats(s, i)
	default:
		err = fmt.Errorf("unknown command: %s", data.Name)
	}

	if err != nil {
		h.logger.Error("command failed", zap.String("command", data.Name), zap.String("guild", i.GuildID), zap.Error(err))
		respondError(s, i, err.Error())
	}
}

func (h *Handler) handleAntiraid(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if !canConfigure(i.Member) {
		respondPermissionError(s, i, "You need the Manage Server permission to change protection settings.")
		return nil
	}

	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return fmt.Errorf("%w: subcommand", errMissingOption)
	}
	sub := data.Options[0]

	changes, summary, err := parseAntiraid(sub)
	if err != nil {
		return err
	}
	if sub.Name == "status" {
		return respondEmbed(s, i, statusEmbed(h.store, i.GuildID))
	}

	if err := h.apply(i.GuildID, changes); err != nil {
		return err
	}
	h.logger.Info("guild settings changed",
		zap.String("guild", i.GuildID),
		zap.String("user", memberID(i.Member)),
		zap.String("subcommand", sub.Name))

	if sub.Name == "logchannel" {
		if err := sendLogChannelTest(s, changes[0].value); err != nil {
			summary += "\nCould not post a test message there. Check the bot's permissions in that channel."
		}
	}

	return respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "Settings updated",
		Description: summary,
		Color:       colorGreen,
		Timestamp:   time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) apply(guildID string, changes []settingChange) error {
	for _, c := range changes {
		if err := h.store.SetSetting(guildID, c.key, c.value); err != nil {
			return fmt.Errorf("failed to save %s: %w", c.key, err)
		}
	}
	return nil
}

func sendLogChannelTest(s *discordgo.Session, channelID string) error {
	_, err := s.ChannelMessageSendEmbed(channelID, &discordgo.MessageEmbed{
		Title:       "Raid protection logging enabled",
		Description: "This channel will receive raid and spam reports.",
		Color:       colorGreen,
	})
	return err
}

func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
}

// respondError sends an ephemeral error message
func respondError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Error: " + message,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}
