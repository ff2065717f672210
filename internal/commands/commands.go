package commands

import "github.com/bwmarrin/discordgo"

var manageServer int64 = discordgo.PermissionManageServer

func toggleOption(description string) []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Name:        "enabled",
			Description: description,
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Required:    true,
		},
	}
}

// GetAllCommands returns all application commands
func GetAllCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:                     "antiraid",
			Description:              "Configure raid and spam protection",
			DefaultMemberPermissions: &manageServer,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "newmembers",
					Description: "Kick accounts younger than a number of days",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{
							Name:        "days",
							Description: "Minimum account age in days, 0 to disable",
							Type:        discordgo.ApplicationCommandOptionInteger,
							Required:    true,
						},
					},
				},
				{
					Name:        "nopfp",
					Description: "Kick members joining without a profile picture",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options:     toggleOption("Kick members with no profile picture"),
				},
				{
					Name:        "spamdelete",
					Description: "Bulk delete messages from spamming members",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options:     toggleOption("Delete spam"),
				},
				{
					Name:        "spamtimeout",
					Description: "Time out spamming members",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options:     toggleOption("Time out spammers"),
				},
				{
					Name:        "spamalert",
					Description: "Warn spamming members in the channel",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options:     toggleOption("Send a warning message"),
				},
				{
					Name:        "joinkick",
					Description: "Kick members whose join trips the mass join threshold",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options:     toggleOption("Kick mass joiners"),
				},
				{
					Name:        "logchannel",
					Description: "Set the channel that receives reports",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{
							Name:         "channel",
							Description:  "Report channel",
							Type:         discordgo.ApplicationCommandOptionChannel,
							ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
							Required:     true,
						},
					},
				},
				{
					Name:        "jointhreshold",
					Description: "Alert when members mass join",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{
							Name:        "people",
							Description: "Alert when more members than this join, 0 to disable",
							Type:        discordgo.ApplicationCommandOptionInteger,
							Required:    true,
						},
						{
							Name:        "seconds",
							Description: "Window in seconds (default 60)",
							Type:        discordgo.ApplicationCommandOptionInteger,
						},
					},
				},
				{
					Name:        "status",
					Description: "Show the current protection settings",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
				},
			},
		},
		{
			Name:        "ping",
			Description: "Show gateway and API latency",
		},
		{
			Name:                     "stats",
			Description:              "Show host and runtime statistics",
			DefaultMemberPermissions: &manageServer,
		},
	}
}
