// Package pilot tracks a player's ship and what the player knows about the galaxy.
package pilot

import (
	"fmt"
	"sort"
	"sync"
)

// Ship attribute names that enable travel between systems.
const (
	AttrJumpDrive  = "jump drive"
	AttrHyperdrive = "hyperdrive"
)

// Ship is the pilot's flagship.
type Ship struct {
	Name       string             `json:"name"`
	System     int32              `json:"system"` // 0 = not in any system
	Attributes map[string]float64 `json:"attributes"`
}

// Attribute returns a ship attribute, or 0 if unset.
func (s *Ship) Attribute(name string) float64 {
	if s == nil {
		return 0
	}
	return s.Attributes[name]
}

func (s *Ship) clone() *Ship {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Attributes = make(map[string]float64, len(s.Attributes))
	for k, v := range s.Attributes {
		cp.Attributes[k] = v
	}
	return &cp
}

// Pilot holds a flagship plus the sets of systems the pilot has seen and visited.
// All methods are safe for concurrent use.
type Pilot struct {
	Name string

	mu       sync.RWMutex
	ship     *Ship
	seen     map[int32]bool
	visited  map[int32]bool
	revision uint64
}

// New creates a pilot with no ship and no map knowledge.
func New(name string) *Pilot {
	return &Pilot{
		Name:    name,
		seen:    make(map[int32]bool),
		visited: make(map[int32]bool),
	}
}

// Board makes ship the flagship. A nil ship leaves the pilot stranded.
func (p *Pilot) Board(ship *Ship) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ship = ship.clone()
	p.revision++
}

// Disembark leaves the pilot without a ship.
func (p *Pilot) Disembark() {
	p.Board(nil)
}

// Ship returns a copy of the flagship, or nil.
func (p *Pilot) Ship() *Ship {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ship.clone()
}

// MoveTo places the flagship in system without marking it visited.
// It does nothing if the pilot has no ship.
func (p *Pilot) MoveTo(system int32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ship == nil {
		return
	}
	p.ship.System = system
	p.revision++
}

// See marks systems as seen.
func (p *Pilot) See(systems ...int32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range systems {
		p.seen[s] = true
	}
	p.revision++
}

// Visit marks system visited and seen. Standing in a system reveals the
// systems its links lead to, so each of links is marked seen too.
func (p *Pilot) Visit(system int32, links []int32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visited[system] = true
	p.seen[system] = true
	for _, l := range links {
		p.seen[l] = true
	}
	p.revision++
}

// Arrive moves the flagship to system and visits it under one lock, so no
// Snapshot sees the ship moved but the system unvisited. Without a ship only
// the visit is recorded.
func (p *Pilot) Arrive(system int32, links []int32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ship != nil {
		p.ship.System = system
	}
	p.visited[system] = true
	p.seen[system] = true
	for _, l := range links {
		p.seen[l] = true
	}
	p.revision++
}

// HasSeen reports whether the pilot knows the system exists.
func (p *Pilot) HasSeen(system int32) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.seen[system]
}

// HasVisited reports whether the pilot has been in the system.
func (p *Pilot) HasVisited(system int32) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.visited[system]
}

// Seen returns the seen systems in ascending order.
func (p *Pilot) Seen() []int32 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return sortedKeys(p.seen)
}

// Visited returns the visited systems in ascending order.
func (p *Pilot) Visited() []int32 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return sortedKeys(p.visited)
}

// CurrentSystem returns the flagship's system. It is false without a ship,
// or when the ship is not in a system.
func (p *Pilot) CurrentSystem() (int32, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.ship == nil || p.ship.System == 0 {
		return 0, false
	}
	return p.ship.System, true
}

func (p *Pilot) HasJumpDrive() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ship.Attribute(AttrJumpDrive) > 0
}

func (p *Pilot) HasHyperdrive() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ship.Attribute(AttrHyperdrive) > 0
}

// CacheKey identifies this pilot instance and changes every time the ship,
// its location or the pilot's map knowledge changes.
func (p *Pilot) CacheKey() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.key()
}

// key must be called with p.mu held.
func (p *Pilot) key() string {
	return fmt.Sprintf("%s@%p#%d", p.Name, p, p.revision)
}

// Snapshot is a frozen copy of a pilot. Its methods match Pilot's read
// methods, and CacheKey is the key the pilot had when the copy was taken.
type Snapshot struct {
	Name string

	ship    *Ship
	seen    map[int32]bool
	visited map[int32]bool
	key     string
}

// Snapshot copies the ship and map knowledge under one lock.
func (p *Pilot) Snapshot() *Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := &Snapshot{
		Name:    p.Name,
		ship:    p.ship.clone(),
		seen:    make(map[int32]bool, len(p.seen)),
		visited: make(map[int32]bool, len(p.visited)),
		key:     p.key(),
	}
	for k := range p.seen {
		s.seen[k] = true
	}
	for k := range p.visited {
		s.visited[k] = true
	}
	return s
}

// Ship returns a copy of the flagship, or nil.
func (s *Snapshot) Ship() *Ship { return s.ship.clone() }

func (s *Snapshot) HasSeen(system int32) bool { return s.seen[system] }
func (s *Snapshot) HasVisited(system int32) bool { return s.visited[system] }
func (s *Snapshot) Seen() []int32 { return sortedKeys(s.seen) }
func (s *Snapshot) Visited() []int32 { return sortedKeys(s.visited) }
func (s *Snapshot) HasJumpDrive() bool { return s.ship.Attribute(AttrJumpDrive) > 0 }
func (s *Snapshot) HasHyperdrive() bool { return s.ship.Attribute(AttrHyperdrive) > 0 }
func (s *Snapshot) CacheKey() string { return s.key }

func (s *Snapshot) CurrentSystem() (int32, bool) {
	if s.ship == nil || s.ship.System == 0 {
		return 0, false
	}
	return s.ship.System, true
}

func sortedKeys(m map[int32]bool) []int32 {
	out := make([]int32, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
