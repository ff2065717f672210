package models

import "time"

// StructuralKind names a class of guild structure change tracked by the raid detector.
type StructuralKind uint8

const (
	StructuralRoleCreate StructuralKind = iota + 1
	StructuralRoleDelete
	StructuralChannelCreate
	StructuralChannelDelete
	StructuralEmojiCreate
	StructuralEmojiDelete
	StructuralStickerCreate
	StructuralStickerDelete
	StructuralNicknameChange
)

var structuralKindNames = map[StructuralKind]string{
	StructuralRoleCreate:     "role-create",
	StructuralRoleDelete:     "role-delete",
	StructuralChannelCreate:  "channel-create",
	StructuralChannelDelete:  "channel-delete",
	StructuralEmojiCreate:    "emoji-create",
	StructuralEmojiDelete:    "emoji-delete",
	StructuralStickerCreate:  "sticker-create",
	StructuralStickerDelete:  "sticker-delete",
	StructuralNicknameChange: "nickname-change",
}

// String is the event kind used as the counter key prefix.
func (k StructuralKind) String() string {
	if name, ok := structuralKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// StructuralKinds lists every tracked kind in a stable order.
func StructuralKinds() []StructuralKind {
	return []StructuralKind{
		StructuralRoleCreate,
		StructuralRoleDelete,
		StructuralChannelCreate,
		StructuralChannelDelete,
		StructuralEmojiCreate,
		StructuralEmojiDelete,
		StructuralStickerCreate,
		StructuralStickerDelete,
		StructuralNicknameChange,
	}
}

// MemberJoin is delivered when a member joins a guild.
type MemberJoin struct {
	GuildID   string
	UserID    string
	Username  string
	Avatar    string
	Bot       bool
	CreatedAt time.Time
	JoinedAt  time.Time
}

func (m MemberJoin) HasAvatar() bool {
	return m.Avatar != ""
}

// StructuralChange is delivered for role, channel, emoji and sticker churn and nickname edits.
type StructuralChange struct {
	GuildID  string
	Kind     StructuralKind
	TargetID string
	At       time.Time
}

// MessageCreate is delivered for every message sent in a guild channel.
type MessageCreate struct {
	GuildID    string
	ChannelID  string
	MessageID  string
	AuthorID   string
	AuthorName string
	AuthorBot  bool
	Content    string
	At         time.Time
}

func (m MessageCreate) URL() string {
	return "https://discord.com/channels/" + m.GuildID + "/" + m.ChannelID + "/" + m.MessageID
}
