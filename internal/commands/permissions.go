package commands

import (
	"time"

	"github.com/bwmarrin/discordgo"
)

// canConfigure reports whether the invoking member may change settings.
// Interaction members carry their computed channel permissions.
func canConfigure(m *discordgo.Member) bool {
	if m == nil {
		return false
	}
	return m.Permissions&(discordgo.PermissionAdministrator|discordgo.PermissionManageServer) != 0
}

func memberID(m *discordgo.Member) string {
	if m == nil || m.User == nil {
		return ""
	}
	return m.User.ID
}

// respondPermissionError sends a permission denied error response
func respondPermissionError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	_ = respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "Access Denied",
		Description: message,
		Color:       colorRed,
		Timestamp:   time.Now().Format(time.RFC3339),
	})
}
