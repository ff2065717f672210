package database

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Database is the SQLite store behind guild settings and the incident archive.
type Database struct {
	db     *sql.DB
	logger *zap.Logger

	mu       sync.RWMutex
	settings map[string]map[string]string
}

// Open creates or opens the SQLite database at path. Use ":memory:" for a throwaway store.
func Open(path string, logger *zap.Logger) (*Database, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// modernc's driver serializes writers; one connection keeps :memory: databases shared.
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	d := &Database{
		db:       db,
		logger:   logger,
		settings: make(map[string]map[string]string),
	}
	if err := d.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return d, nil
}

func (d *Database) Ping() error {
	return d.db.Ping()
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS guild_settings (
		guild_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (guild_id, key)
	);

	CREATE TABLE IF NOT EXISTS incidents (
		id TEXT PRIMARY KEY,
		guild_id TEXT NOT NULL,
		policy TEXT NOT NULL,
		kind TEXT NOT NULL,
		title TEXT NOT NULL,
		actor TEXT DEFAULT '',
		fields TEXT NOT NULL,
		delivered INTEGER DEFAULT 0,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_incidents_guild ON incidents(guild_id);
	CREATE INDEX IF NOT EXISTS idx_incidents_created ON incidents(created_at);
	`

	_, err := d.db.Exec(schema)
	return err
}

// GetSetting returns the stored value or def. Store errors are logged and yield def.
func (d *Database) GetSetting(guildID, key, def string) string {
	guild, err := d.guildSettings(guildID)
	if err != nil {
		d.logger.Warn("failed to load guild settings", zap.String("guild", guildID), zap.Error(err))
		return def
	}
	if v, ok := guild[key]; ok {
		return v
	}
	return def
}

func (d *Database) SetSetting(guildID, key, value string) error {
	_, err := d.db.Exec(
		`INSERT INTO guild_settings (guild_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(guild_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		guildID, key, value, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store setting %s: %w", key, err)
	}

	d.mu.Lock()
	if guild, ok := d.settings[guildID]; ok {
		guild[key] = value
	}
	d.mu.Unlock()
	return nil
}

// Settings returns a copy of every stored setting for a guild.
func (d *Database) Settings(guildID string) (map[string]string, error) {
	guild, err := d.guildSettings(guildID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(guild))
	for k, v := range guild {
		out[k] = v
	}
	return out, nil
}

var errNoGuild = errors.New("guild id is empty")
