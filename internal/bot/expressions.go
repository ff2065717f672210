package bot

import (
	"sync"

	"github.com/bwmarrin/discordgo"
)

// expressionSnapshots keeps the last known emoji and sticker ids per guild.
// The gateway only sends the full list on change, so creates and deletes are
// derived by diffing against the snapshot.
type expressionSnapshots struct {
	mu       sync.Mutex
	emojis   map[string]map[string]struct{}
	stickers map[string]map[string]struct{}
}

func newExpressionSnapshots() *expressionSnapshots {
	return &expressionSnapshots{
		emojis:   make(map[string]map[string]struct{}),
		stickers: make(map[string]map[string]struct{}),
	}
}

func emojiIDs(emojis []*discordgo.Emoji) []string {
	ids := make([]string, 0, len(emojis))
	for _, e := range emojis {
		if e != nil {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

func stickerIDs(stickers []*discordgo.Sticker) []string {
	ids := make([]string, 0, len(stickers))
	for _, s := range stickers {
		if s != nil {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

func (x *expressionSnapshots) Seed(guildID string, emojis []*discordgo.Emoji, stickers []*discordgo.Sticker) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.emojis[guildID] = toSet(emojiIDs(emojis))
	x.stickers[guildID] = toSet(stickerIDs(stickers))
}

func (x *expressionSnapshots) Forget(guildID string) {
	x.mu.Lock()
	delete(x.emojis, guildID)
	delete(x.stickers, guildID)
	x.mu.Unlock()
}

// DiffEmojis replaces the emoji snapshot and returns the created and deleted ids.
// An unseeded guild is seeded and reports no changes.
func (x *expressionSnapshots) DiffEmojis(guildID string, emojis []*discordgo.Emoji) (created, deleted []string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return diffInto(x.emojis, guildID, emojiIDs(emojis))
}

func (x *expressionSnapshots) DiffStickers(guildID string, stickers []*discordgo.Sticker) (created, deleted []string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return diffInto(x.stickers, guildID, stickerIDs(stickers))
}

func diffInto(snapshots map[string]map[string]struct{}, guildID string, ids []string) (created, deleted []string) {
	next := toSet(ids)
	prev, seeded := snapshots[guildID]
	snapshots[guildID] = next
	if !seeded {
		return nil, nil
	}

	for _, id := range ids {
		if _, ok := prev[id]; !ok {
			created = append(created, id)
		}
	}
	for id := range prev {
		if _, ok := next[id]; !ok {
			deleted = append(deleted, id)
		}
	}
	return created, deleted
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
