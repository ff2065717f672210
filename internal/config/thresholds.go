package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"go-raidguard/internal/correlator"
	"go-raidguard/internal/models"
)

const (
	TierBurst     = "burst"
	TierSustained = "sustained"

	// SpamKind is the message flood counter, scoped per guild and author.
	SpamKind = "message-flood"
	// JoinKind is the mass-join counter. Its tier comes from guild settings.
	JoinKind = "member-join"
)

// TierTable maps an event kind to its tiers.
type TierTable map[string][]correlator.Tier

func (t TierTable) Tiers(kind string) []correlator.Tier {
	return t[kind]
}

// Kinds returns the configured kinds sorted by name.
func (t TierTable) Kinds() []string {
	kinds := make([]string, 0, len(t))
	for k := range t {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func (t TierTable) Validate() error {
	for kind, tiers := range t {
		if len(tiers) == 0 {
			return fmt.Errorf("kind %s has no tiers", kind)
		}
		seen := make(map[string]bool, len(tiers))
		for _, tier := range tiers {
			if tier.Kind != kind {
				return fmt.Errorf("tier %s listed under kind %s", tier.Key(), kind)
			}
			if seen[tier.Key()] {
				return fmt.Errorf("duplicate tier %s", tier.Key())
			}
			seen[tier.Key()] = true
			if err := tier.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

func burstAndSustained(kind string, burstWindow time.Duration, burstTrigger int, sustainedTrigger int) []correlator.Tier {
	return []correlator.Tier{
		{Kind: kind, Name: TierBurst, Window: burstWindow, Trigger: burstTrigger},
		{Kind: kind, Name: TierSustained, Window: 30 * time.Second, Trigger: sustainedTrigger},
	}
}

// DefaultTierTable returns the stock thresholds: a strict short window to catch
// bursts and a lenient long window for sustained low-grade churn.
func DefaultTierTable() TierTable {
	table := TierTable{}

	for _, k := range []models.StructuralKind{
		models.StructuralRoleCreate,
		models.StructuralRoleDelete,
		models.StructuralChannelCreate,
		models.StructuralChannelDelete,
	} {
		table[k.String()] = burstAndSustained(k.String(), 3*time.Second, 2, 5)
	}

	for _, k := range []models.StructuralKind{
		models.StructuralEmojiCreate,
		models.StructuralEmojiDelete,
		models.StructuralStickerCreate,
		models.StructuralStickerDelete,
	} {
		table[k.String()] = burstAndSustained(k.String(), 2*time.Second, 2, 5)
	}

	nick := models.StructuralNicknameChange.String()
	table[nick] = burstAndSustained(nick, 3*time.Second, 4, 8)

	table[SpamKind] = []correlator.Tier{
		{Kind: SpamKind, Name: TierBurst, Window: 3 * time.Second, Trigger: 4},
	}

	return table
}

type tierFile struct {
	Tiers map[string][]correlator.Tier `yaml:"tiers"`
}

// LoadTierTable returns the defaults overridden per kind by the YAML file at path.
// An empty path returns the defaults.
//
//	tiers:
//	  role-create:
//	    - name: burst
//	      window: 3s
//	      trigger: 2
func LoadTierTable(path string) (TierTable, error) {
	table := DefaultTierTable()
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read threshold file: %w", err)
	}

	var file tierFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse threshold file %s: %w", path, err)
	}

	for kind, tiers := range file.Tiers {
		if _, ok := table[kind]; !ok {
			return nil, fmt.Errorf("threshold file %s: unknown event kind %q", path, kind)
		}
		override := make([]correlator.Tier, len(tiers))
		for i, tier := range tiers {
			tier.Kind = kind
			override[i] = tier
		}
		table[kind] = override
	}

	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("threshold file %s: %w", path, err)
	}
	return table, nil
}
