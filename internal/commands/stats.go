package commands

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemStats holds host and runtime statistics
type SystemStats struct {
	Hostname string
	OS       string
	Uptime   time.Duration

	CPUModel   string
	CPUThreads int
	CPUUsage   float64

	TotalMemory   uint64
	UsedMemory    uint64
	MemoryPercent float64

	DiskTotal   uint64
	DiskUsed    uint64
	DiskPercent float64

	GoVersion  string
	GoRoutines int
	HeapAlloc  uint64

	BotUptime time.Duration
	Guilds    int
}

func (h *Handler) handleStats(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if !canConfigure(i.Member) {
		respondPermissionError(s, i, "You need the Manage Server permission to view host statistics.")
		return nil
	}

	// gathering cpu usage takes a moment
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats := gatherSystemStats(ctx)
	stats.BotUptime = time.Since(h.started)
	if s.State != nil {
		stats.Guilds = len(s.State.Guilds)
	}

	embeds := []*discordgo.MessageEmbed{statsEmbed(stats)}
	_, err = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Embeds: &embeds})
	return err
}

// gatherSystemStats collects what it can; unavailable sources are left zero.
func gatherSystemStats(ctx context.Context) *SystemStats {
	stats := &SystemStats{
		GoVersion:  runtime.Version(),
		GoRoutines: runtime.NumGoroutine(),
	}

	if info, err := host.InfoWithContext(ctx); err == nil {
		stats.Hostname = info.Hostname
		stats.OS = info.Platform + " " + info.PlatformVersion
		stats.Uptime = time.Duration(info.Uptime) * time.Second
	}

	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		stats.CPUModel = infos[0].ModelName
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		stats.CPUThreads = n
	}
	if pct, err := cpu.PercentWithContext(ctx, 500*time.Millisecond, false); err == nil && len(pct) > 0 {
		stats.CPUUsage = pct[0]
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.TotalMemory = vm.Total
		stats.UsedMemory = vm.Used
		stats.MemoryPercent = vm.UsedPercent
	}

	if du, err := disk.UsageWithContext(ctx, "/"); err == nil {
		stats.DiskTotal = du.Total
		stats.DiskUsed = du.Used
		stats.DiskPercent = du.UsedPercent
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	stats.HeapAlloc = ms.HeapAlloc

	return stats
}

func statsEmbed(stats *SystemStats) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "Host & Runtime Statistics",
		Color: 0x00BFFF,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "Host",
				Value: fmt.Sprintf("**Hostname:** `%s`\n**OS:** `%s`\n**Uptime:** `%s`",
					stats.Hostname, stats.OS, formatDuration(stats.Uptime)),
			},
			{
				Name: "CPU",
				Value: fmt.Sprintf("**Model:** `%s`\n**Threads:** `%d`\n**Usage:** `%.1f%%`\n%s",
					truncateString(stats.CPUModel, 40), stats.CPUThreads, stats.CPUUsage, progressBar(stats.CPUUsage)),
				Inline: true,
			},
			{
				Name: "Memory",
				Value: fmt.Sprintf("**Used:** `%s` of `%s`\n%s",
					formatBytes(stats.UsedMemory), formatBytes(stats.TotalMemory), progressBar(stats.MemoryPercent)),
				Inline: true,
			},
			{
				Name: "Disk",
				Value: fmt.Sprintf("**Used:** `%s` of `%s`\n%s",
					formatBytes(stats.DiskUsed), formatBytes(stats.DiskTotal), progressBar(stats.DiskPercent)),
				Inline: true,
			},
			{
				Name: "Bot",
				Value: fmt.Sprintf("**Uptime:** `%s`\n**Guilds:** `%d`\n**Go:** `%s`\n**Goroutines:** `%d`\n**Heap:** `%s`",
					formatDuration(stats.BotUptime), stats.Guilds, stats.GoVersion, stats.GoRoutines, formatBytes(stats.HeapAlloc)),
			},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

func progressBar(percent float64) string {
	filled := int(percent / 10)
	filled = max(0, min(filled, 10))

	bar := make([]rune, 0, 10)
	for i := 0; i < 10; i++ {
		if i < filled {
			bar = append(bar, '█')
		} else {
			bar = append(bar, '░')
		}
	}
	return "`" + string(bar) + "`"
}

func truncateString(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
