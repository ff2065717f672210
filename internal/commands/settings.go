package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"go-raidguard/internal/config"
)

const (
	maxAccountDays   = 365
	maxJoinPeople    = 1000
	maxJoinPerSecond = 3600
)

var errMissingOption = errors.New("missing option")

// settingChange is one key written by an /antiraid subcommand.
type settingChange struct {
	key   string
	value string
}

type toggleSetting struct {
	key   string
	label string
}

var toggles = map[string]toggleSetting{
	"nopfp":       {config.SettingNoAvatarKick, "No profile picture kick"},
	"spamdelete":  {config.SettingSpamDelete, "Spam bulk delete"},
	"spamtimeout": {config.SettingSpamTimeout, "Spam timeout"},
	"spamalert":   {config.SettingSpamAlert, "Spam alert"},
	"joinkick":    {config.SettingJoinKick, "Mass join kick"},
}

func findOption(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) *discordgo.ApplicationCommandInteractionDataOption {
	for _, o := range opts {
		if o.Name == name {
			return o
		}
	}
	return nil
}

func intOption(opts []*discordgo.ApplicationCommandInteractionDataOption, name string, lo, hi int64) (int64, error) {
	o := findOption(opts, name)
	if o == nil {
		return 0, fmt.Errorf("%w: %s", errMissingOption, name)
	}
	v := o.IntValue()
	if v < lo || v > hi {
		return 0, fmt.Errorf("%s must be between %d and %d", name, lo, hi)
	}
	return v, nil
}

// parseAntiraid turns one /antiraid subcommand into the settings it writes and
// a confirmation line. status writes nothing.
func parseAntiraid(sub *discordgo.ApplicationCommandInteractionDataOption) ([]settingChange, string, error) {
	switch sub.Name {
	case "newmembers":
		days, err := intOption(sub.Options, "days", 0, maxAccountDays)
		if err != nil {
			return nil, "", err
		}
		summary := "New account kick disabled"
		if days > 0 {
			summary = fmt.Sprintf("Accounts younger than %d days will be kicked", days)
		}
		return []settingChange{{config.SettingNewAccountDays, strconv.FormatInt(days, 10)}}, summary, nil

	case "nopfp", "spamdelete", "spamtimeout", "spamalert":
		o := findOption(sub.Options, "enabled")
		if o == nil {
			return nil, "", fmt.Errorf("%w: enabled", errMissingOption)
		}
		t := toggles[sub.Name]
		on := o.BoolValue()
		state := "disabled"
		if on {
			state = "enabled"
		}
		return []settingChange{{t.key, config.ToggleValue(on)}}, t.label + " " + state, nil

	case "logchannel":
		o := findOption(sub.Options, "channel")
		if o == nil {
			return nil, "", fmt.Errorf("%w: channel", errMissingOption)
		}
		channelID := o.ChannelValue(nil).ID
		return []settingChange{{config.SettingLogChannel, channelID}}, fmt.Sprintf("Reports will be sent to <#%s>", channelID), nil

	case "jointhreshold":
		people, err := intOption(sub.Options, "people", 0, maxJoinPeople)
		if err != nil {
			return nil, "", err
		}
		changes := []settingChange{{config.SettingJoinThreshold, strconv.FormatInt(people, 10)}}
		if people == 0 {
			return changes, "Mass join alert disabled", nil
		}

		seconds := int64(60)
		if findOption(sub.Options, "seconds") != nil {
			if seconds, err = intOption(sub.Options, "seconds", 1, maxJoinPerSecond); err != nil {
				return nil, "", err
			}
		}
		changes = append(changes, settingChange{config.SettingJoinThresholdPer, strconv.FormatInt(seconds, 10)})
		return changes, fmt.Sprintf("Alert when more than %d members join within %ds", people, seconds), nil

	case "status":
		return nil, "", nil
	}
	return nil, "", fmt.Errorf("unknown subcommand: %s", sub.Name)
}
