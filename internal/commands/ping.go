package commands

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

func latencyColor(avg time.Duration) int {
	switch {
	case avg < 30*time.Millisecond:
		return 0x00FF00
	case avg < 60*time.Millisecond:
		return 0xFFFF00
	case avg < 120*time.Millisecond:
		return 0xFFA500
	default:
		return 0xFF0000
	}
}

// handlePing reports gateway heartbeat and REST round trip latency.
func handlePing(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		return err
	}

	apiStart := time.Now()
	_, _ = s.Channel(i.ChannelID)
	apiLatency := time.Since(apiStart)
	wsLatency := s.HeartbeatLatency()

	embed := &discordgo.MessageEmbed{
		Title: "Pong!",
		Color: latencyColor((wsLatency + apiLatency) / 2),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "WebSocket", Value: fmt.Sprintf("`%dms`", wsLatency.Milliseconds()), Inline: true},
			{Name: "API", Value: fmt.Sprintf("`%dms`", apiLatency.Milliseconds()), Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	_, err = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	})
	return err
}
