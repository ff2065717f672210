package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSettings map[string]string

func (m mapSettings) GetSetting(guildID, key, def string) string {
	if v, ok := m[guildID+"/"+key]; ok {
		return v
	}
	return def
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMergesOverDefaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	path := writeFile(t, "config.json", `{"bot":{"token":"abc"},"detection":{"spam_timeout_seconds":30}}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "abc", cfg.Bot.Token)
	assert.Equal(t, 30*time.Second, cfg.SpamTimeout())
	assert.Equal(t, "https://discord.com/api/v10", cfg.Network.APIBaseURL)
	require.NoError(t, cfg.Validate())
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "from-env")
	t.Setenv("DATABASE_PATH", "/tmp/x.db")
	path := writeFile(t, "config.json", `{"bot":{"token":"from-file"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Bot.Token)
	assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "tok")
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "tok", cfg.Bot.Token)
}

func TestValidateRejectsMissingToken(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate())

	cfg.Bot.Token = "x"
	assert.NoError(t, cfg.Validate())

	cfg.Logging.Level = "loud"
	assert.Error(t, cfg.Validate())
}

func TestDefaultTierTable(t *testing.T) {
	table := DefaultTierTable()
	require.NoError(t, table.Validate())

	roles := table.Tiers("role-create")
	require.Len(t, roles, 2)
	assert.Equal(t, 3*time.Second, roles[0].Window)
	assert.Equal(t, 2, roles[0].Trigger)
	assert.Equal(t, 30*time.Second, roles[1].Window)
	assert.Equal(t, 5, roles[1].Trigger)

	nick := table.Tiers("nickname-change")
	require.Len(t, nick, 2)
	assert.NotEqual(t, nick[0].Key(), nick[1].Key())

	spam := table.Tiers(SpamKind)
	require.Len(t, spam, 1)
	assert.Equal(t, 4, spam[0].Trigger)
}

func TestLoadTierTableOverride(t *testing.T) {
	path := writeFile(t, "tiers.yaml", `
tiers:
  role-create:
    - name: burst
      window: 5s
      trigger: 3
`)
	table, err := LoadTierTable(path)
	require.NoError(t, err)

	roles := table.Tiers("role-create")
	require.Len(t, roles, 1)
	assert.Equal(t, "role-create", roles[0].Kind)
	assert.Equal(t, 5*time.Second, roles[0].Window)
	assert.Equal(t, 3, roles[0].Trigger)

	// untouched kinds keep their defaults
	assert.Len(t, table.Tiers("channel-delete"), 2)
}

func TestLoadTierTableRejectsBadInput(t *testing.T) {
	unknown := writeFile(t, "unknown.yaml", "tiers:\n  bogus-kind:\n    - name: burst\n      window: 1s\n      trigger: 1\n")
	_, err := LoadTierTable(unknown)
	assert.Error(t, err)

	zeroWindow := writeFile(t, "zero.yaml", "tiers:\n  role-create:\n    - name: burst\n      trigger: 1\n")
	_, err = LoadTierTable(zeroWindow)
	assert.Error(t, err)
}

func TestSettingHelpers(t *testing.T) {
	s := mapSettings{
		"G1/" + SettingSpamDelete:       "yes",
		"G1/" + SettingSpamTimeout:      "no",
		"G1/" + SettingNewAccountDays:   "7",
		"G2/" + SettingNewAccountDays:   "soon",
		"G1/" + SettingJoinThreshold:    "10",
		"G1/" + SettingJoinThresholdPer: "30",
		"G1/" + SettingLogChannel:       " 123 ",
		"G2/" + SettingNoAvatarKick:     "TRUE",
	}

	assert.True(t, Enabled(s, "G1", SettingSpamDelete))
	assert.False(t, Enabled(s, "G1", SettingSpamTimeout))
	assert.False(t, Enabled(s, "G1", SettingSpamAlert))
	assert.True(t, Enabled(s, "G2", SettingNoAvatarKick))
	assert.True(t, Enabled(s, "G1", SettingNewAccountDays))

	assert.Equal(t, 7, NewAccountDays(s, "G1"))
	assert.Equal(t, 0, NewAccountDays(s, "G2"))
	assert.Equal(t, 0, NewAccountDays(s, "G3"))

	people, per := JoinThreshold(s, "G1")
	assert.Equal(t, 10, people)
	assert.Equal(t, 30*time.Second, per)

	people, per = JoinThreshold(s, "G3")
	assert.Equal(t, 0, people)
	assert.Equal(t, time.Minute, per)

	assert.Equal(t, "123", LogChannel(s, "G1"))
	assert.Equal(t, "", LogChannel(s, "G2"))
}
