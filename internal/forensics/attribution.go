package forensics

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"go-raidguard/internal/metrics"
	"go-raidguard/internal/models"
	"go-raidguard/internal/platform"
)

const (
	SentinelUnknown   = "Unknown"
	SentinelForbidden = "No permission"
)

var ErrNoEntry = errors.New("no audit log entry")

// AuditSource returns the newest audit log entry of an action type.
type AuditSource interface {
	LatestAuditEntry(ctx context.Context, guildID string, action int) (platform.AuditEntry, error)
}

// Attribution is the best-effort answer to "who did this". Err is set when the
// actor could not be determined; String then yields a sentinel.
type Attribution struct {
	ActorID string
	Actor   string
	Err     error
}

func (a Attribution) Resolved() bool {
	return a.Err == nil && a.ActorID != ""
}

func (a Attribution) String() string {
	switch {
	case a.Resolved() && a.Actor != "":
		return a.Actor
	case a.Resolved():
		return "<@" + a.ActorID + ">"
	case errors.Is(a.Err, platform.ErrForbidden):
		return SentinelForbidden
	default:
		return SentinelUnknown
	}
}

// AuditAction maps a structural change to the audit log action that records it.
func AuditAction(kind models.StructuralKind) int {
	var action discordgo.AuditLogAction
	switch kind {
	case models.StructuralRoleCreate:
		action = discordgo.AuditLogActionRoleCreate
	case models.StructuralRoleDelete:
		action = discordgo.AuditLogActionRoleDelete
	case models.StructuralChannelCreate:
		action = discordgo.AuditLogActionChannelCreate
	case models.StructuralChannelDelete:
		action = discordgo.AuditLogActionChannelDelete
	case models.StructuralEmojiCreate:
		action = discordgo.AuditLogActionEmojiCreate
	case models.StructuralEmojiDelete:
		action = discordgo.AuditLogActionEmojiDelete
	case models.StructuralStickerCreate:
		action = discordgo.AuditLogActionStickerCreate
	case models.StructuralStickerDelete:
		action = discordgo.AuditLogActionStickerDelete
	case models.StructuralNicknameChange:
		action = discordgo.AuditLogActionMemberUpdate
	}
	return int(action)
}

type cacheEntry struct {
	attribution Attribution
	storedAt    time.Time
}

// Resolver looks up the actor behind a change in the audit log. Successful
// answers are cached briefly per (guild, action) and concurrent lookups for the
// same key share one request.
type Resolver struct {
	source AuditSource
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

func NewResolver(source AuditSource, ttl time.Duration, logger *zap.Logger) *Resolver {
	return &Resolver{
		source:  source,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Resolve never returns an error; failures are carried in Attribution.Err.
func (r *Resolver) Resolve(ctx context.Context, guildID string, action int) Attribution {
	key := guildID + ":" + strconv.Itoa(action)

	if a, ok := r.cached(key); ok {
		metrics.AttributionLookups.WithLabelValues("cached").Inc()
		return a
	}

	v, _, _ := r.group.Do(key, func() (interface{}, error) {
		a := r.lookup(ctx, guildID, action)
		if a.Resolved() {
			r.store(key, a)
		}
		return a, nil
	})
	a := v.(Attribution)

	switch {
	case a.Resolved():
		metrics.AttributionLookups.WithLabelValues("resolved").Inc()
	case errors.Is(a.Err, platform.ErrForbidden):
		metrics.AttributionLookups.WithLabelValues("forbidden").Inc()
	default:
		metrics.AttributionLookups.WithLabelValues("unknown").Inc()
	}
	return a
}

func (r *Resolver) lookup(ctx context.Context, guildID string, action int) Attribution {
	entry, err := r.source.LatestAuditEntry(ctx, guildID, action)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			err = ErrNoEntry
		}
		r.logger.Debug("attribution unavailable",
			zap.String("guild", guildID),
			zap.Int("action", action),
			zap.Error(err))
		return Attribution{Err: err}
	}
	if entry.UserID == "" {
		return Attribution{Err: ErrNoEntry}
	}
	return Attribution{ActorID: entry.UserID, Actor: entry.Username}
}

func (r *Resolver) cached(key string) (Attribution, bool) {
	if r.ttl <= 0 {
		return Attribution{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[key]
	if !ok {
		return Attribution{}, false
	}
	if r.now().Sub(e.storedAt) >= r.ttl {
		delete(r.entries, key)
		return Attribution{}, false
	}
	return e.attribution, true
}

func (r *Resolver) store(key string, a Attribution) {
	if r.ttl <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.entries[key] = cacheEntry{attribution: a, storedAt: now}
	for k, e := range r.entries {
		if now.Sub(e.storedAt) >= r.ttl {
			delete(r.entries, k)
		}
	}
}
