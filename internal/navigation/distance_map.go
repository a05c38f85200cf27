// Package navigation computes jump distances across the galaxy and answers
// "which system do I jump to next" queries.
//
// A DistanceMap is built once, from a single origin, by a level-by-level
// breadth-first search. Which edges the search may follow depends on the
// Policy: an omniscient search follows every hyperspace link, a hyperdrive
// follows only links the traveler knows about, and a jump drive follows the
// jump-range neighbor relation to any system the traveler has seen.
package navigation

import "sort"

// Unreachable is the distance reported for a system with no route.
const Unreachable = -1

// Graph supplies the two adjacency views of the galaxy.
type Graph interface {
	// Links returns the systems connected by a hyperspace link.
	Links(system int32) []int32
	// Neighbors returns the systems within jump-drive range.
	Neighbors(system int32) []int32
}

// Traveler supplies the location, drive and map knowledge of a pilot.
type Traveler interface {
	// CurrentSystem returns false if there is no ship, or the ship is not in a system.
	CurrentSystem() (int32, bool)
	HasJumpDrive() bool
	HasHyperdrive() bool
	HasSeen(system int32) bool
	HasVisited(system int32) bool
}

// DistanceMap holds the jump count from an origin to every reachable system.
// It is immutable once built; build a new one when the origin, the galaxy or
// the traveler's knowledge changes.
type DistanceMap struct {
	graph    Graph
	policy   Policy
	origin   int32
	distance map[int32]int
	// parent is the system each label was first reached from.
	parent map[int32]int32
}

// admit reports whether the search may step from system a to system b.
type admit func(a, b int32) bool

// New builds an unrestricted map: every hyperspace link is followed,
// regardless of what anyone knows about the galaxy.
func New(origin int32, g Graph) *DistanceMap {
	m := &DistanceMap{
		graph:    g,
		policy:   Unrestricted,
		origin:   origin,
		distance: map[int32]int{origin: 0},
		parent:   make(map[int32]int32),
	}
	m.search(nil)
	return m
}

// ForTraveler builds a map centered on the traveler's current system using
// the best drive the traveler has. A jump drive wins over a hyperdrive.
//
// With no current system the map is empty. With neither drive only the
// current system is reachable.
//
// The traveler's knowledge is read once per edge while the search runs, so
// it must not change until ForTraveler returns.
func ForTraveler(t Traveler, g Graph) *DistanceMap {
	switch {
	case t.HasJumpDrive():
		return WithPolicy(t, g, JumpDrive)
	case t.HasHyperdrive():
		return WithPolicy(t, g, Hyperdrive)
	}
	return WithPolicy(t, g, None)
}

// WithPolicy builds a map centered on the traveler's current system under p,
// whatever drives the traveler has. Unrestricted ignores the traveler's
// knowledge; None reaches only the current system.
func WithPolicy(t Traveler, g Graph, p Policy) *DistanceMap {
	m := &DistanceMap{
		graph:    g,
		policy:   None,
		distance: make(map[int32]int),
		parent:   make(map[int32]int32),
	}
	origin, ok := t.CurrentSystem()
	if !ok {
		return m
	}
	m.origin = origin
	m.distance[origin] = 0

	switch p {
	case Unrestricted:
		m.policy = Unrestricted
		m.search(nil)
	case JumpDrive:
		m.policy = JumpDrive
		m.search(func(_, b int32) bool {
			return t.HasSeen(b)
		})
	case Hyperdrive:
		m.policy = Hyperdrive
		// A link is known if its far end has been visited, or if the traveler
		// has stood at its near end. The far end must always have been seen.
		m.search(func(a, b int32) bool {
			if !t.HasSeen(b) {
				return false
			}
			return t.HasVisited(b) || t.HasVisited(a)
		})
	}
	return m
}

// search labels every system reachable from the origin. Each pass expands the
// systems found in the previous pass, so a system's label is the pass that
// first reached it.
func (m *DistanceMap) search(ok admit) {
	edge := []int32{m.origin}
	for steps := 1; len(edge) > 0; steps++ {
		var next []int32
		for _, system := range edge {
			for _, link := range m.adjacent(system) {
				if _, seen := m.distance[link]; seen {
					continue
				}
				if ok != nil && !ok(system, link) {
					continue
				}
				m.distance[link] = steps
				m.parent[link] = system
				next = append(next, link)
			}
		}
		edge = next
	}
}

// adjacent returns the adjacency view the policy travels along.
func (m *DistanceMap) adjacent(system int32) []int32 {
	if m.policy == JumpDrive {
		return m.graph.Neighbors(system)
	}
	return m.graph.Links(system)
}

// HasRoute reports whether the system can be reached.
func (m *DistanceMap) HasRoute(system int32) bool {
	_, ok := m.distance[system]
	return ok
}

// Distance returns the number of jumps to the system, or Unreachable.
func (m *DistanceMap) Distance(system int32) int {
	d, ok := m.distance[system]
	if !ok {
		return Unreachable
	}
	return d
}

// Route returns the next system to jump to from system when heading back to
// the origin. The origin routes to itself. The bool is false if system is
// unreachable.
func (m *DistanceMap) Route(system int32) (int32, bool) {
	d, ok := m.distance[system]
	if !ok {
		return 0, false
	}
	for _, link := range m.adjacent(system) {
		if ld, ok := m.distance[link]; ok && ld < d {
			return link, true
		}
	}
	return system, true
}

// Path returns the systems visited when following Route from system back to
// the origin, both ends included. It returns nil if system is unreachable, or
// if Route stalls before the origin, which happens on one-way links: Route
// only looks at the links leaving a system.
func (m *DistanceMap) Path(system int32) []int32 {
	if !m.HasRoute(system) {
		return nil
	}
	path := []int32{system}
	for {
		next, _ := m.Route(system)
		if next == system {
			if system != m.origin {
				return nil
			}
			return path
		}
		path = append(path, next)
		system = next
	}
}

// PathTo returns the trip from the origin to system, both ends included,
// along the edges the search took. Every step is a jump the policy allows,
// in the direction it is flown. It returns nil if system is unreachable.
func (m *DistanceMap) PathTo(system int32) []int32 {
	d, ok := m.distance[system]
	if !ok {
		return nil
	}
	path := make([]int32, d+1)
	for i := d; i > 0; i-- {
		path[i] = system
		system = m.parent[system]
	}
	path[0] = m.origin
	return path
}

// Origin returns the system the map was built from. The bool is false for an
// empty map.
func (m *DistanceMap) Origin() (int32, bool) {
	if len(m.distance) == 0 {
		return 0, false
	}
	return m.origin, true
}

// Policy returns the traversal policy the map was built with.
func (m *DistanceMap) Policy() Policy {
	return m.policy
}

// Len returns the number of reachable systems, origin included.
func (m *DistanceMap) Len() int {
	return len(m.distance)
}

// Systems returns every reachable system, nearest first, ties by ID.
func (m *DistanceMap) Systems() []int32 {
	out := make([]int32, 0, len(m.distance))
	for id := range m.distance {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := m.distance[out[i]], m.distance[out[j]]
		if di != dj {
			return di < dj
		}
		return out[i] < out[j]
	})
	return out
}
