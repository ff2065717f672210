package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) (*Database, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "raidguard.db")
	db, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, path
}

func TestSettingsRoundTrip(t *testing.T) {
	db, _ := openTestDB(t)

	assert.Equal(t, "no", db.GetSetting("G1", "AntiRaidSpamDelete", "no"))

	require.NoError(t, db.SetSetting("G1", "AntiRaidSpamDelete", "yes"))
	assert.Equal(t, "yes", db.GetSetting("G1", "AntiRaidSpamDelete", "no"))

	require.NoError(t, db.SetSetting("G1", "AntiRaidSpamDelete", "no"))
	assert.Equal(t, "no", db.GetSetting("G1", "AntiRaidSpamDelete", "yes"))

	assert.Equal(t, "def", db.GetSetting("G2", "AntiRaidSpamDelete", "def"))
	assert.Equal(t, "def", db.GetSetting("", "AntiRaidSpamDelete", "def"))
}

func TestSettingsSurviveReopen(t *testing.T) {
	db, path := openTestDB(t)
	require.NoError(t, db.SetSetting("G1", "loggingChannel", "123"))
	require.NoError(t, db.SetSetting("G2", "AntiRaidNewMembers", "7"))
	require.NoError(t, db.Close())

	reopened, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.SyncAllGuilds()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "123", reopened.GetSetting("G1", "loggingChannel", ""))

	all, err := reopened.Settings("G2")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"AntiRaidNewMembers": "7"}, all)
}

func TestSetSettingUpdatesCachedGuild(t *testing.T) {
	db, _ := openTestDB(t)
	assert.Equal(t, "", db.GetSetting("G1", "loggingChannel", ""))

	require.NoError(t, db.SetSetting("G1", "loggingChannel", "55"))
	assert.Equal(t, "55", db.GetSetting("G1", "loggingChannel", ""))

	db.ForgetGuild("G1")
	assert.Equal(t, "55", db.GetSetting("G1", "loggingChannel", ""))
}

func TestIncidentArchive(t *testing.T) {
	db, _ := openTestDB(t)
	base := time.Now().Add(-time.Hour).Truncate(time.Millisecond)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, db.LogIncident(&Incident{
			ID:        id,
			GuildID:   "G1",
			Policy:    "raid",
			Kind:      "role-create:burst",
			Title:     "Roles are being created rapidly",
			Actor:     "mallory",
			Fields:    []IncidentField{{Name: "Count", Value: "3"}},
			Delivered: i != 1,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	got, err := db.RecentIncidents("G1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.False(t, got[1].Delivered)
	assert.Equal(t, []IncidentField{{Name: "Count", Value: "3"}}, got[0].Fields)
	assert.True(t, base.Add(2*time.Minute).Equal(got[0].CreatedAt))

	removed, err := db.PruneIncidents(base.Add(90 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	none, err := db.RecentIncidents("G2", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
