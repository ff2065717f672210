package detectors

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"go-raidguard/internal/decision"
	"go-raidguard/internal/forensics"
	"go-raidguard/internal/models"
	"go-raidguard/internal/platform"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type settings map[string]string

func (s settings) GetSetting(_, key, def string) string {
	if v, ok := s[key]; ok {
		return v
	}
	return def
}

type reportLog struct {
	mu      sync.Mutex
	reports []*models.Report
}

func (r *reportLog) Send(_ context.Context, report *models.Report) {
	r.mu.Lock()
	r.reports = append(r.reports, report)
	r.mu.Unlock()
}

func (r *reportLog) all() []*models.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.Report(nil), r.reports...)
}

type staticAttributor struct {
	attribution forensics.Attribution
	calls       int
}

func (a *staticAttributor) Resolve(context.Context, string, int) forensics.Attribution {
	a.calls++
	return a.attribution
}

// fakePlatform records every platform call made through a real orchestrator.
type fakePlatform struct {
	mu      sync.Mutex
	self    platform.Standing
	members map[string]platform.Standing
	calls   []string
	deleted map[string][]string
	kickErr error
	dmErr   error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		self: platform.Standing{
			Permissions: discordgo.PermissionManageMessages | discordgo.PermissionModerateMembers | discordgo.PermissionKickMembers,
			Rank:        10,
		},
		members: map[string]platform.Standing{},
		deleted: map[string][]string{},
	}
}

func (f *fakePlatform) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakePlatform) SelfStanding(context.Context, string, string) (platform.Standing, error) {
	return f.self, nil
}

func (f *fakePlatform) MemberStanding(_ context.Context, _, _, userID string) (platform.Standing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[userID], nil
}

func (f *fakePlatform) DeleteMessages(_ context.Context, channelID string, ids []string, _ string) error {
	f.record("delete:" + channelID)
	f.mu.Lock()
	f.deleted[channelID] = append(f.deleted[channelID], ids...)
	f.mu.Unlock()
	return nil
}

func (f *fakePlatform) TimeoutMember(_ context.Context, _, userID string, _ time.Time, _ string) error {
	f.record("timeout:" + userID)
	return nil
}

func (f *fakePlatform) KickMember(_ context.Context, _, userID, _ string) error {
	f.record("kick:" + userID)
	return f.kickErr
}

func (f *fakePlatform) SendDM(_ context.Context, userID, _ string) error {
	f.record("dm:" + userID)
	return f.dmErr
}

func (f *fakePlatform) SendChannelMessage(_ context.Context, channelID, _ string) error {
	f.record("say:" + channelID)
	return nil
}

func (f *fakePlatform) callList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newOrchestrator(p *fakePlatform, s settings) *decision.Orchestrator {
	return decision.NewOrchestrator(p, s, zap.NewNop())
}
