package commands

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"go-raidguard/internal/config"
)

func onOff(on bool) string {
	if on {
		return "Enabled"
	}
	return "Disabled"
}

// statusEmbed renders the guild's current protection settings.
func statusEmbed(r config.SettingsReader, guildID string) *discordgo.MessageEmbed {
	newMembers := "Disabled"
	if days := config.NewAccountDays(r, guildID); days > 0 {
		newMembers = fmt.Sprintf("Kick accounts younger than %d days", days)
	}

	joins := "Disabled"
	if people, per := config.JoinThreshold(r, guildID); people > 0 {
		joins = fmt.Sprintf("Alert above %d joins in %s", people, per)
	}

	logChannel := "Not configured"
	if ch := config.LogChannel(r, guildID); ch != "" {
		logChannel = fmt.Sprintf("<#%s>", ch)
	}

	return &discordgo.MessageEmbed{
		Title: "Raid protection status",
		Color: colorGrey,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "New accounts", Value: newMembers},
			{Name: "No profile picture kick", Value: onOff(config.Enabled(r, guildID, config.SettingNoAvatarKick)), Inline: true},
			{Name: "Mass join alert", Value: joins, Inline: true},
			{Name: "Mass join kick", Value: onOff(config.Enabled(r, guildID, config.SettingJoinKick)), Inline: true},
			{Name: "Spam alert", Value: onOff(config.Enabled(r, guildID, config.SettingSpamAlert)), Inline: true},
			{Name: "Spam bulk delete", Value: onOff(config.Enabled(r, guildID, config.SettingSpamDelete)), Inline: true},
			{Name: "Spam timeout", Value: onOff(config.Enabled(r, guildID, config.SettingSpamTimeout)), Inline: true},
			{Name: "Report channel", Value: logChannel},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}
