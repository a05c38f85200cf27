package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"starmap/internal/pilot"
)

// SavePilot upserts a pilot, its flagship and its map knowledge.
func (d *DB) SavePilot(p *pilot.Pilot) error {
	snap := p.Snapshot()
	ship := snap.Ship()
	hasShip := ship != nil
	if ship == nil {
		ship = &pilot.Ship{}
	}
	attrs, err := json.Marshal(ship.Attributes)
	if err != nil {
		return fmt.Errorf("encode ship attributes: %w", err)
	}

	tx, err := d.sql.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO pilots (name, has_ship, ship_name, ship_system, attributes, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			has_ship = excluded.has_ship,
			ship_name = excluded.ship_name,
			ship_system = excluded.ship_system,
			attributes = excluded.attributes,
			updated_at = excluded.updated_at
	`, p.Name, hasShip, ship.Name, ship.System, string(attrs), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert pilot %s: %w", p.Name, err)
	}

	for table, systems := range map[string][]int32{
		"pilot_seen":    snap.Seen(),
		"pilot_visited": snap.Visited(),
	} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE pilot = ?", p.Name); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
		stmt, err := tx.Prepare("INSERT INTO " + table + " (pilot, system) VALUES (?, ?)")
		if err != nil {
			return err
		}
		for _, s := range systems {
			if _, err := stmt.Exec(p.Name, s); err != nil {
				stmt.Close()
				return fmt.Errorf("insert %s: %w", table, err)
			}
		}
		stmt.Close()
	}
	return tx.Commit()
}

// LoadPilot reads a saved pilot. It returns ErrUnknownPilot if name was never saved.
func (d *DB) LoadPilot(name string) (*pilot.Pilot, error) {
	var (
		hasShip  bool
		shipName string
		system   int32
		attrs    string
	)
	err := d.sql.QueryRow(
		"SELECT has_ship, ship_name, ship_system, attributes FROM pilots WHERE name = ?", name,
	).Scan(&hasShip, &shipName, &system, &attrs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPilot, name)
	}
	if err != nil {
		return nil, fmt.Errorf("query pilot %s: %w", name, err)
	}

	p := pilot.New(name)
	if hasShip {
		ship := &pilot.Ship{Name: shipName, System: system}
		if err := json.Unmarshal([]byte(attrs), &ship.Attributes); err != nil {
			return nil, fmt.Errorf("decode ship attributes: %w", err)
		}
		p.Board(ship)
	}

	seen, err := d.pilotSystems("pilot_seen", name)
	if err != nil {
		return nil, err
	}
	p.See(seen...)

	visited, err := d.pilotSystems("pilot_visited", name)
	if err != nil {
		return nil, err
	}
	for _, s := range visited {
		p.Visit(s, nil)
	}
	return p, nil
}

// ListPilots returns saved pilot names in alphabetical order.
func (d *DB) ListPilots() ([]string, error) {
	rows, err := d.sql.Query("SELECT name FROM pilots ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (d *DB) pilotSystems(table, name string) ([]int32, error) {
	rows, err := d.sql.Query("SELECT system FROM "+table+" WHERE pilot = ? ORDER BY system", name)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []int32
	for rows.Next() {
		var s int32
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
