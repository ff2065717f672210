package database

import (
	"encoding/json"
	"fmt"
	"time"
)

// LogIncident archives a report. Delivered records whether it reached the log channel.
func (d *Database) LogIncident(inc *Incident) error {
	fields, err := json.Marshal(inc.Fields)
	if err != nil {
		return fmt.Errorf("failed to encode incident fields: %w", err)
	}
	if inc.CreatedAt.IsZero() {
		inc.CreatedAt = time.Now()
	}

	_, err = d.db.Exec(
		`INSERT OR REPLACE INTO incidents (id, guild_id, policy, kind, title, actor, fields, delivered, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inc.ID, inc.GuildID, inc.Policy, inc.Kind, inc.Title, inc.Actor, string(fields), inc.Delivered, inc.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to log incident %s: %w", inc.ID, err)
	}
	return nil
}

// RecentIncidents returns the newest incidents of a guild, newest first.
func (d *Database) RecentIncidents(guildID string, limit int) ([]*Incident, error) {
	rows, err := d.db.Query(
		`SELECT id, guild_id, policy, kind, title, actor, fields, delivered, created_at
		 FROM incidents WHERE guild_id = ? ORDER BY created_at DESC LIMIT ?`,
		guildID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var incidents []*Incident
	for rows.Next() {
		var (
			inc     Incident
			fields  string
			created int64
		)
		if err := rows.Scan(&inc.ID, &inc.GuildID, &inc.Policy, &inc.Kind, &inc.Title, &inc.Actor, &fields, &inc.Delivered, &created); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(fields), &inc.Fields); err != nil {
			return nil, fmt.Errorf("failed to decode incident %s: %w", inc.ID, err)
		}
		inc.CreatedAt = time.UnixMilli(created)
		incidents = append(incidents, &inc)
	}
	return incidents, rows.Err()
}

// PruneIncidents deletes incidents older than the cutoff and returns how many were removed.
func (d *Database) PruneIncidents(olderThan time.Time) (int64, error) {
	res, err := d.db.Exec(`DELETE FROM incidents WHERE created_at < ?`, olderThan.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
