package platform

import (
	"errors"

	"github.com/bwmarrin/discordgo"
)

var (
	ErrForbidden = errors.New("platform: forbidden")
	ErrNotFound  = errors.New("platform: not found")
)

// Standing is a member's authority in a guild: effective permissions
// (channel-scoped when a channel is given), highest role position and ownership.
type Standing struct {
	Permissions int64
	Rank        int
	Owner       bool
}

// Has reports whether every bit of perm is granted. Administrator and ownership grant everything.
func (s Standing) Has(perm int64) bool {
	if s.Owner || s.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	return s.Permissions&perm == perm
}

// Outranks is strict: equal rank is not enough, and nobody outranks the owner.
func (s Standing) Outranks(target Standing) bool {
	if target.Owner {
		return false
	}
	if s.Owner {
		return true
	}
	return s.Rank > target.Rank
}

// AuditEntry is the most recent audit log entry for an action type.
type AuditEntry struct {
	ID       string
	Action   int
	UserID   string
	Username string
	TargetID string
}
