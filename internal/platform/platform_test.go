package platform

import (
	"errors"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"

	"go-raidguard/internal/dispatcher"
)

func TestStandingHas(t *testing.T) {
	mod := Standing{Permissions: discordgo.PermissionManageMessages | discordgo.PermissionKickMembers}
	assert.True(t, mod.Has(discordgo.PermissionManageMessages))
	assert.True(t, mod.Has(discordgo.PermissionManageMessages|discordgo.PermissionKickMembers))
	assert.False(t, mod.Has(discordgo.PermissionModerateMembers))

	admin := Standing{Permissions: discordgo.PermissionAdministrator}
	assert.True(t, admin.Has(discordgo.PermissionModerateMembers))

	owner := Standing{Owner: true}
	assert.True(t, owner.Has(discordgo.PermissionKickMembers))
}

func TestStandingOutranks(t *testing.T) {
	bot := Standing{Rank: 5}
	assert.True(t, bot.Outranks(Standing{Rank: 4}))
	assert.False(t, bot.Outranks(Standing{Rank: 5}))
	assert.False(t, bot.Outranks(Standing{Rank: 9}))
	assert.False(t, bot.Outranks(Standing{Rank: 0, Owner: true}))
	assert.True(t, Standing{Owner: true}.Outranks(Standing{Rank: 100}))
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))

	forbidden := &dispatcher.APIError{Route: "kick", Status: 403}
	assert.ErrorIs(t, translate(forbidden), ErrForbidden)

	missing := &dispatcher.APIError{Route: "delete-message", Status: 404}
	assert.ErrorIs(t, translate(missing), ErrNotFound)

	rest := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusForbidden}}
	assert.ErrorIs(t, translate(rest), ErrForbidden)

	other := errors.New("connection reset")
	assert.Equal(t, other, translate(other))
}
