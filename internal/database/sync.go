package database

import "fmt"

// guildSettings returns the cached settings of a guild, loading them on first use.
func (d *Database) guildSettings(guildID string) (map[string]string, error) {
	if guildID == "" {
		return nil, errNoGuild
	}

	d.mu.RLock()
	guild, ok := d.settings[guildID]
	d.mu.RUnlock()
	if ok {
		return guild, nil
	}

	loaded, err := d.loadGuild(guildID)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if guild, ok := d.settings[guildID]; ok {
		return guild, nil
	}
	d.settings[guildID] = loaded
	return loaded, nil
}

func (d *Database) loadGuild(guildID string) (map[string]string, error) {
	rows, err := d.db.Query(`SELECT key, value FROM guild_settings WHERE guild_id = ?`, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

// SyncAllGuilds preloads the settings cache for every guild with stored settings.
func (d *Database) SyncAllGuilds() (int, error) {
	rows, err := d.db.Query(`SELECT DISTINCT guild_id FROM guild_settings`)
	if err != nil {
		return 0, fmt.Errorf("failed to query guilds: %w", err)
	}

	var guildIDs []string
	for rows.Next() {
		var guildID string
		if err := rows.Scan(&guildID); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan guild ID: %w", err)
		}
		guildIDs = append(guildIDs, guildID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, guildID := range guildIDs {
		if _, err := d.guildSettings(guildID); err != nil {
			return 0, err
		}
	}
	return len(guildIDs), nil
}

// ForgetGuild drops a guild's cached settings, e.g. when the bot leaves it.
func (d *Database) ForgetGuild(guildID string) {
	d.mu.Lock()
	delete(d.settings, guildID)
	d.mu.Unlock()
}
