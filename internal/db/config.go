package db

import (
	"fmt"
	"strconv"

	"starmap/internal/config"
)

// LoadConfig reads config from SQLite. If empty, returns defaults.
func (d *DB) LoadConfig() *config.Config {
	cfg := config.Default()

	rows, err := d.sql.Query("SELECT key, value FROM config")
	if err != nil {
		return cfg
	}
	defer rows.Close()

	m := make(map[string]string)
	for rows.Next() {
		var k, v string
		rows.Scan(&k, &v)
		m[k] = v
	}

	if v, ok := m["galaxy_source"]; ok {
		cfg.GalaxySource = v
	}
	if v, ok := m["jump_range"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.JumpRange = f
		}
	}
	if v, ok := m["default_pilot"]; ok && v != "" {
		cfg.DefaultPilot = v
	}
	if v, ok := m["default_origin"]; ok {
		cfg.DefaultOrigin = v
	}
	if v, ok := m["port"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Port = n
		}
	}
	if v, ok := m["cache_limit"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.CacheLimit = n
		}
	}
	return cfg
}

// SaveConfig writes config to SQLite (upsert all fields).
func (d *DB) SaveConfig(cfg *config.Config) error {
	pairs := map[string]string{
		"galaxy_source":  cfg.GalaxySource,
		"jump_range":     fmt.Sprintf("%g", cfg.JumpRange),
		"default_pilot":  cfg.DefaultPilot,
		"default_origin": cfg.DefaultOrigin,
		"port":           strconv.Itoa(cfg.Port),
		"cache_limit":    strconv.Itoa(cfg.CacheLimit),
	}

	tx, err := d.sql.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare("INSERT OR REPLACE INTO config (key, value) VALUES (?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for k, v := range pairs {
		if _, err := stmt.Exec(k, v); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
