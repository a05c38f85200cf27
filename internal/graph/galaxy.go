package graph

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ErrUnknownSystem is returned by Resolve for a name or ID the galaxy does not have.
var ErrUnknownSystem = errors.New("unknown system")

// Point is a system's position on the galaxy map.
type Point struct {
	X float64
	Y float64
}

// Galaxy holds the star systems, the hyperspace links between them, and the
// jump-range neighbor relation used by ships with a jump drive.
type Galaxy struct {
	// Adj maps systemID -> linked systemIDs (hyperspace lanes)
	Adj map[int32][]int32
	// Near maps systemID -> systemIDs within jump range
	Near map[int32][]int32
	// Names maps systemID -> display name
	Names map[int32]string
	// ByName maps lowercase name -> systemID
	ByName map[string]int32
	// Positions maps systemID -> map coordinates
	Positions map[int32]Point
}

// NewGalaxy creates an empty Galaxy with initialized maps.
func NewGalaxy() *Galaxy {
	return &Galaxy{
		Adj:       make(map[int32][]int32),
		Near:      make(map[int32][]int32),
		Names:     make(map[int32]string),
		ByName:    make(map[string]int32),
		Positions: make(map[int32]Point),
	}
}

// AddSystem registers a system with its name and position.
func (g *Galaxy) AddSystem(id int32, name string, x, y float64) {
	if old, ok := g.Names[id]; ok {
		delete(g.ByName, strings.ToLower(old))
	}
	g.Names[id] = name
	if name != "" {
		g.ByName[strings.ToLower(name)] = id
	}
	g.Positions[id] = Point{X: x, Y: y}
}

// AddLink adds a one-way hyperspace link. Call twice for a two-way lane.
func (g *Galaxy) AddLink(fromSystem, toSystem int32) {
	g.Adj[fromSystem] = appendUnique(g.Adj[fromSystem], toSystem)
}

// AddNeighbor marks toSystem as within jump range of fromSystem.
func (g *Galaxy) AddNeighbor(fromSystem, toSystem int32) {
	g.Near[fromSystem] = appendUnique(g.Near[fromSystem], toSystem)
}

// ComputeNeighbors rebuilds the neighbor relation from system positions: every
// pair of distinct systems no further apart than jumpRange become neighbors.
func (g *Galaxy) ComputeNeighbors(jumpRange float64) {
	g.Near = make(map[int32][]int32)
	if jumpRange <= 0 {
		return
	}
	ids := g.SystemIDs()
	for i, a := range ids {
		pa := g.Positions[a]
		for _, b := range ids[i+1:] {
			pb := g.Positions[b]
			if math.Hypot(pa.X-pb.X, pa.Y-pb.Y) <= jumpRange {
				g.AddNeighbor(a, b)
				g.AddNeighbor(b, a)
			}
		}
	}
}

// Links returns the systems reachable through a hyperspace link.
func (g *Galaxy) Links(system int32) []int32 {
	return g.Adj[system]
}

// Neighbors returns the systems within jump range.
func (g *Galaxy) Neighbors(system int32) []int32 {
	return g.Near[system]
}

// Lookup resolves a system name (case-insensitive).
func (g *Galaxy) Lookup(name string) (int32, bool) {
	id, ok := g.ByName[strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}

// Resolve accepts a system name or a numeric system ID.
func (g *Galaxy) Resolve(ref string) (int32, error) {
	ref = strings.TrimSpace(ref)
	if id, ok := g.Lookup(ref); ok {
		return id, nil
	}
	if n, err := strconv.ParseInt(ref, 10, 32); err == nil && g.Has(int32(n)) {
		return int32(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSystem, ref)
}

// Name returns the display name of a system, or "" if unknown.
func (g *Galaxy) Name(system int32) string {
	return g.Names[system]
}

// Has reports whether the system is registered.
func (g *Galaxy) Has(system int32) bool {
	_, ok := g.Names[system]
	return ok
}

// SystemIDs returns all registered system IDs in ascending order.
func (g *Galaxy) SystemIDs() []int32 {
	ids := make([]int32, 0, len(g.Names))
	for id := range g.Names {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of registered systems.
func (g *Galaxy) Len() int {
	return len(g.Names)
}

func appendUnique(list []int32, id int32) []int32 {
	for _, v := range list {
		if v == id {
			return list
		}
	}
	return append(list, id)
}
