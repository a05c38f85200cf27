package db

import (
	"fmt"

	"starmap/internal/graph"
)

// SaveGalaxy replaces the stored galaxy with g. Link order is preserved so
// routes replay identically after a reload.
func (d *DB) SaveGalaxy(g *graph.Galaxy) error {
	tx, err := d.sql.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM links"); err != nil {
		return fmt.Errorf("clear links: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM systems"); err != nil {
		return fmt.Errorf("clear systems: %w", err)
	}

	sysStmt, err := tx.Prepare("INSERT INTO systems (id, name, x, y) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer sysStmt.Close()
	ids := g.SystemIDs()
	for _, id := range ids {
		p := g.Positions[id]
		if _, err := sysStmt.Exec(id, g.Name(id), p.X, p.Y); err != nil {
			return fmt.Errorf("insert system %d: %w", id, err)
		}
	}

	linkStmt, err := tx.Prepare("INSERT INTO links (from_system, to_system, ord) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer linkStmt.Close()
	for _, id := range ids {
		for i, to := range g.Links(id) {
			if !g.Has(to) {
				continue
			}
			if _, err := linkStmt.Exec(id, to, i); err != nil {
				return fmt.Errorf("insert link %d->%d: %w", id, to, err)
			}
		}
	}
	return tx.Commit()
}

// LoadGalaxy reads the stored galaxy and computes neighbors for jumpRange.
func (d *DB) LoadGalaxy(jumpRange float64) (*graph.Galaxy, error) {
	g := graph.NewGalaxy()

	rows, err := d.sql.Query("SELECT id, name, x, y FROM systems ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query systems: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id   int32
			name string
			x, y float64
		)
		if err := rows.Scan(&id, &name, &x, &y); err != nil {
			return nil, err
		}
		g.AddSystem(id, name, x, y)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	links, err := d.sql.Query("SELECT from_system, to_system FROM links ORDER BY from_system, ord")
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer links.Close()
	for links.Next() {
		var from, to int32
		if err := links.Scan(&from, &to); err != nil {
			return nil, err
		}
		g.AddLink(from, to)
	}
	if err := links.Err(); err != nil {
		return nil, err
	}

	g.ComputeNeighbors(jumpRange)
	return g, nil
}
