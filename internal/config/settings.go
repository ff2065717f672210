package config

import (
	"strconv"
	"strings"
	"time"
)

// Guild setting keys read by the engine. Values are strings owned by the settings store.
const (
	SettingNewAccountDays   = "AntiRaidNewMembers"
	SettingNoAvatarKick     = "AntiRaidNoPFP"
	SettingSpamDelete       = "AntiRaidSpamDelete"
	SettingSpamTimeout      = "AntiRaidSpamTimeout"
	SettingSpamAlert        = "AntiRaidSpamSendAlert"
	SettingJoinThreshold    = "AntiRaidJoinThreshold"
	SettingJoinThresholdPer = "AntiRaidJoinThresholdPer"
	SettingJoinKick         = "AntiRaidJoinKick"
	SettingLogChannel       = "loggingChannel"
)

const (
	defaultJoinThresholdPerS = 60
	toggleOn                 = "yes"
	toggleOff                = "no"
)

// SettingsReader is the read side of the per-guild settings store.
type SettingsReader interface {
	GetSetting(guildID, key, def string) string
}

// SettingsWriter is the write side, used by the /antiraid command.
type SettingsWriter interface {
	SetSetting(guildID, key, value string) error
}

func ToggleValue(on bool) string {
	if on {
		return toggleOn
	}
	return toggleOff
}

// Enabled reports whether a guild setting is switched on. Toggles accept
// yes/true/on; numeric settings count as enabled when positive.
func Enabled(r SettingsReader, guildID, key string) bool {
	v := strings.ToLower(strings.TrimSpace(r.GetSetting(guildID, key, toggleOff)))
	switch v {
	case "yes", "true", "on":
		return true
	case "", "no", "false", "off":
		return false
	}
	n, err := strconv.Atoi(v)
	return err == nil && n > 0
}

// NewAccountDays is the minimum account age for the new-account kick; 0 disables it.
// Anything that is not a non-negative integer disables it as well.
func NewAccountDays(r SettingsReader, guildID string) int {
	return nonNegativeInt(r.GetSetting(guildID, SettingNewAccountDays, "0"))
}

// JoinThreshold returns the mass-join trigger and window; trigger 0 disables the check.
func JoinThreshold(r SettingsReader, guildID string) (int, time.Duration) {
	people := nonNegativeInt(r.GetSetting(guildID, SettingJoinThreshold, "0"))
	per := nonNegativeInt(r.GetSetting(guildID, SettingJoinThresholdPer, strconv.Itoa(defaultJoinThresholdPerS)))
	if per == 0 {
		per = defaultJoinThresholdPerS
	}
	return people, time.Duration(per) * time.Second
}

func LogChannel(r SettingsReader, guildID string) string {
	return strings.TrimSpace(r.GetSetting(guildID, SettingLogChannel, ""))
}

func nonNegativeInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
