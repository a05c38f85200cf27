package navigation

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

const (
	sysA int32 = iota + 1
	sysB
	sysC
	sysD
	sysE
)

type testGraph struct {
	links map[int32][]int32
	near  map[int32][]int32
}

func newTestGraph() *testGraph {
	return &testGraph{links: map[int32][]int32{}, near: map[int32][]int32{}}
}

func (g *testGraph) Links(s int32) []int32     { return g.links[s] }
func (g *testGraph) Neighbors(s int32) []int32 { return g.near[s] }

func (g *testGraph) link(a, b int32) *testGraph {
	g.links[a] = append(g.links[a], b)
	g.links[b] = append(g.links[b], a)
	return g
}

func (g *testGraph) oneWay(a, b int32) *testGraph {
	g.links[a] = append(g.links[a], b)
	return g
}

func (g *testGraph) neighbor(a, b int32) *testGraph {
	g.near[a] = append(g.near[a], b)
	g.near[b] = append(g.near[b], a)
	return g
}

type testTraveler struct {
	system  int32
	located bool
	jump    bool
	hyper   bool
	seen    map[int32]bool
	visited map[int32]bool
}

func travelerAt(system int32) *testTraveler {
	return &testTraveler{system: system, located: true, seen: map[int32]bool{}, visited: map[int32]bool{}}
}

func (t *testTraveler) CurrentSystem() (int32, bool) { return t.system, t.located }
func (t *testTraveler) HasJumpDrive() bool           { return t.jump }
func (t *testTraveler) HasHyperdrive() bool          { return t.hyper }
func (t *testTraveler) HasSeen(s int32) bool         { return t.seen[s] }
func (t *testTraveler) HasVisited(s int32) bool      { return t.visited[s] }

func (t *testTraveler) see(systems ...int32) *testTraveler {
	for _, s := range systems {
		t.seen[s] = true
	}
	return t
}

func (t *testTraveler) visit(systems ...int32) *testTraveler {
	for _, s := range systems {
		t.visited[s] = true
	}
	return t
}

func requireRoute(t *testing.T, m *DistanceMap, from, want int32) {
	t.Helper()
	got, ok := m.Route(from)
	require.True(t, ok, "Route(%d) reported no route", from)
	assert.Equal(t, want, got, "Route(%d)", from)
}

func TestNew_LinearChain(t *testing.T) {
	g := newTestGraph().link(sysA, sysB).link(sysB, sysC).link(sysC, sysD)
	m := New(sysA, g)

	assert.Equal(t, Unrestricted, m.Policy())
	assert.Equal(t, 4, m.Len())
	for sys, want := range map[int32]int{sysA: 0, sysB: 1, sysC: 2, sysD: 3} {
		assert.Equal(t, want, m.Distance(sys), "Distance(%d)", sys)
		assert.True(t, m.HasRoute(sys))
	}
	requireRoute(t, m, sysD, sysC)
	requireRoute(t, m, sysC, sysB)
	requireRoute(t, m, sysB, sysA)
	requireRoute(t, m, sysA, sysA)

	assert.Equal(t, []int32{sysD, sysC, sysB, sysA}, m.Path(sysD))
	assert.Equal(t, []int32{sysA}, m.Path(sysA))
	assert.Equal(t, []int32{sysA, sysB, sysC, sysD}, m.Systems())

	origin, ok := m.Origin()
	assert.True(t, ok)
	assert.Equal(t, sysA, origin)
}

func TestNew_UnreachableIsAbsence(t *testing.T) {
	g := newTestGraph().link(sysA, sysB)
	m := New(sysA, g)

	assert.False(t, m.HasRoute(sysE))
	assert.Equal(t, Unreachable, m.Distance(sysE))
	_, ok := m.Route(sysE)
	assert.False(t, ok)
	assert.Nil(t, m.Path(sysE))
}

func TestNew_OneWayLinks(t *testing.T) {
	g := newTestGraph().oneWay(sysA, sysB).oneWay(sysB, sysC)

	forward := New(sysA, g)
	assert.Equal(t, 2, forward.Distance(sysC))

	backward := New(sysC, g)
	assert.False(t, backward.HasRoute(sysA))
	assert.Equal(t, 1, backward.Len())

	// Route scans the system's own links, so a one-way chain cannot be replayed.
	requireRoute(t, forward, sysC, sysC)
	assert.Nil(t, forward.Path(sysC), "Path must not report a walk that stalls before the origin")

	// PathTo follows the edges the search took, in the direction they are flown.
	assert.Equal(t, []int32{sysA, sysB, sysC}, forward.PathTo(sysC))
	assert.Nil(t, backward.PathTo(sysA))
}

func TestPathTo_FollowsFirstDiscovery(t *testing.T) {
	g := newTestGraph().link(sysA, sysB).link(sysA, sysC).link(sysB, sysD).link(sysC, sysD)
	m := New(sysA, g)

	assert.Equal(t, []int32{sysA}, m.PathTo(sysA))
	assert.Equal(t, []int32{sysA, sysB, sysD}, m.PathTo(sysD))
	assert.Nil(t, m.PathTo(sysE))
}

func TestPathTo_HyperdriveStepsAreAdmissible(t *testing.T) {
	g := newTestGraph().link(sysA, sysB).link(sysB, sysC).link(sysC, sysD)
	traveler := travelerAt(sysA).see(sysA, sysB, sysC, sysD).visit(sysA, sysC)
	traveler.hyper = true

	m := ForTraveler(traveler, g)
	path := m.PathTo(sysD)
	require.Equal(t, []int32{sysA, sysB, sysC, sysD}, path)
	for i := 1; i < len(path); i++ {
		a, b := path[i-1], path[i]
		assert.Contains(t, g.Links(a), b)
		assert.True(t, traveler.HasSeen(b) && (traveler.HasVisited(a) || traveler.HasVisited(b)), "step %d->%d", a, b)
	}
}

func TestWithPolicy_OverridesDrives(t *testing.T) {
	g := newTestGraph().link(sysA, sysB).link(sysB, sysC).neighbor(sysA, sysC)
	traveler := travelerAt(sysA).see(sysA, sysC).visit(sysA)
	traveler.hyper = true

	all := WithPolicy(traveler, g, Unrestricted)
	assert.Equal(t, Unrestricted, all.Policy())
	assert.Equal(t, 2, all.Distance(sysC), "unrestricted ignores what the traveler has seen")

	jump := WithPolicy(traveler, g, JumpDrive)
	assert.Equal(t, JumpDrive, jump.Policy())
	assert.Equal(t, 1, jump.Distance(sysC))
	assert.False(t, jump.HasRoute(sysB))

	none := WithPolicy(traveler, g, None)
	assert.Equal(t, None, none.Policy())
	assert.Equal(t, 1, none.Len())

	assert.Equal(t, ForTraveler(traveler, g).Systems(), WithPolicy(traveler, g, Hyperdrive).Systems())

	lost := travelerAt(sysA)
	lost.located = false
	empty := WithPolicy(lost, g, Unrestricted)
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, None, empty.Policy())
}

func TestNew_IsolatedOrigin(t *testing.T) {
	m := New(sysE, newTestGraph())
	assert.Equal(t, 0, m.Distance(sysE))
	assert.Equal(t, 1, m.Len())
	requireRoute(t, m, sysE, sysE)
}

func TestNew_FirstDiscoveryWins(t *testing.T) {
	// A-B-D and A-C-D: D is labelled once, from whichever of B or C is expanded first.
	g := newTestGraph().link(sysA, sysB).link(sysA, sysC).link(sysB, sysD).link(sysC, sysD)
	m := New(sysA, g)
	assert.Equal(t, 2, m.Distance(sysD))
	requireRoute(t, m, sysD, sysB)
}

func TestForTraveler_HyperdriveScenario(t *testing.T) {
	g := newTestGraph().link(sysA, sysB).link(sysA, sysC).link(sysB, sysD)
	traveler := travelerAt(sysA).see(sysA, sysB, sysC, sysD).visit(sysA)
	traveler.hyper = true

	m := ForTraveler(traveler, g)
	assert.Equal(t, Hyperdrive, m.Policy())
	assert.Equal(t, 0, m.Distance(sysA))
	assert.Equal(t, 1, m.Distance(sysB))
	assert.Equal(t, 1, m.Distance(sysC))
	assert.False(t, m.HasRoute(sysD), "neither B nor D visited")

	traveler.visit(sysB)
	m = ForTraveler(traveler, g)
	assert.Equal(t, 2, m.Distance(sysD))
	requireRoute(t, m, sysD, sysB)
}

func TestForTraveler_HyperdriveRequiresSeen(t *testing.T) {
	g := newTestGraph().link(sysA, sysB).link(sysB, sysC)
	traveler := travelerAt(sysA).see(sysA, sysC).visit(sysA, sysB, sysC)
	traveler.hyper = true

	m := ForTraveler(traveler, g)
	assert.False(t, m.HasRoute(sysB), "B unseen")
	assert.False(t, m.HasRoute(sysC), "C only reachable through B")
}

func TestForTraveler_HyperdriveVisitedDestination(t *testing.T) {
	// B was never visited but the traveler stood in A; C was visited, so the
	// B->C link is known from the far end.
	g := newTestGraph().link(sysA, sysB).link(sysB, sysC).link(sysC, sysD)
	traveler := travelerAt(sysA).see(sysA, sysB, sysC, sysD).visit(sysA, sysC)
	traveler.hyper = true

	m := ForTraveler(traveler, g)
	assert.Equal(t, 1, m.Distance(sysB))
	assert.Equal(t, 2, m.Distance(sysC))
	assert.Equal(t, 3, m.Distance(sysD), "C visited opens its outgoing links")
}

func TestForTraveler_JumpDriveUsesNeighborsOnly(t *testing.T) {
	g := newTestGraph().
		link(sysA, sysD).
		neighbor(sysA, sysB).neighbor(sysB, sysC).neighbor(sysC, sysD)
	traveler := travelerAt(sysA).see(sysA, sysB, sysC, sysD)
	traveler.jump = true

	m := ForTraveler(traveler, g)
	assert.Equal(t, JumpDrive, m.Policy())
	assert.Equal(t, 3, m.Distance(sysD), "direct link A-D must be ignored")
	requireRoute(t, m, sysD, sysC)
	assert.Equal(t, []int32{sysD, sysC, sysB, sysA}, m.Path(sysD))
}

func TestForTraveler_JumpDriveNeedsOnlySeen(t *testing.T) {
	g := newTestGraph().neighbor(sysA, sysB).neighbor(sysB, sysC).neighbor(sysC, sysD)
	traveler := travelerAt(sysA).see(sysB, sysC)
	traveler.jump = true

	m := ForTraveler(traveler, g)
	assert.Equal(t, 1, m.Distance(sysB))
	assert.Equal(t, 2, m.Distance(sysC))
	assert.False(t, m.HasRoute(sysD))
}

func TestForTraveler_JumpDriveTakesPrecedence(t *testing.T) {
	g := newTestGraph().link(sysA, sysB).neighbor(sysA, sysC)
	traveler := travelerAt(sysA).see(sysA, sysB, sysC).visit(sysA, sysB, sysC)
	traveler.jump = true
	traveler.hyper = true

	m := ForTraveler(traveler, g)
	assert.Equal(t, JumpDrive, m.Policy())
	assert.True(t, m.HasRoute(sysC))
	assert.False(t, m.HasRoute(sysB))
}

func TestForTraveler_NoShip(t *testing.T) {
	g := newTestGraph().link(sysA, sysB)
	traveler := &testTraveler{system: sysA, jump: true, hyper: true}

	m := ForTraveler(traveler, g)
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, None, m.Policy())
	for _, s := range []int32{sysA, sysB} {
		assert.False(t, m.HasRoute(s))
		assert.Equal(t, Unreachable, m.Distance(s))
		_, ok := m.Route(s)
		assert.False(t, ok)
	}
	_, ok := m.Origin()
	assert.False(t, ok)
	assert.Empty(t, m.Systems())
}

func TestForTraveler_NoDrive(t *testing.T) {
	g := newTestGraph().link(sysA, sysB)
	traveler := travelerAt(sysA).see(sysA, sysB).visit(sysA, sysB)

	m := ForTraveler(traveler, g)
	assert.Equal(t, None, m.Policy())
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 0, m.Distance(sysA))
	assert.False(t, m.HasRoute(sysB))
	requireRoute(t, m, sysA, sysA)
}

// randomGalaxy builds a symmetric random graph with n systems numbered 1..n.
func randomGalaxy(rng *rand.Rand, n, edges int) *testGraph {
	g := newTestGraph()
	for i := 0; i < edges; i++ {
		a := int32(rng.Intn(n) + 1)
		b := int32(rng.Intn(n) + 1)
		if a == b {
			continue
		}
		g.link(a, b)
	}
	return g
}

func TestNew_RouteStepsDownOneJump(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 20; round++ {
		g := randomGalaxy(rng, 40, 60)
		m := New(1, g)
		for _, s := range m.Systems() {
			d := m.Distance(s)
			require.GreaterOrEqual(t, d, 0)
			next, ok := m.Route(s)
			require.True(t, ok)
			if d == 0 {
				require.Equal(t, s, next)
				continue
			}
			require.Equal(t, d-1, m.Distance(next), "round %d: Route(%d)", round, s)
			require.Len(t, m.Path(s), d+1)

			path := m.PathTo(s)
			require.Len(t, path, d+1)
			for i := 1; i < len(path); i++ {
				require.Contains(t, g.Links(path[i-1]), path[i], "round %d: PathTo(%d)", round, s)
			}
		}
	}
}

func TestNew_MatchesGonumBreadthFirst(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const n = 60
	for round := 0; round < 10; round++ {
		g := randomGalaxy(rng, n, 80)

		ug := simple.NewUndirectedGraph()
		for id := int64(1); id <= n; id++ {
			ug.AddNode(simple.Node(id))
		}
		for a, links := range g.links {
			for _, b := range links {
				ug.SetEdge(simple.Edge{F: simple.Node(a), T: simple.Node(b)})
			}
		}
		want := map[int32]int{}
		bf := traverse.BreadthFirst{}
		bf.Walk(ug, simple.Node(1), func(node graph.Node, depth int) bool {
			want[int32(node.ID())] = depth
			return false
		})

		m := New(1, g)
		got := map[int32]int{}
		for _, s := range m.Systems() {
			got[s] = m.Distance(s)
		}
		assert.Equal(t, want, got, "round %d", round)
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{in: "unrestricted", want: Unrestricted},
		{in: "Hyperdrive", want: Hyperdrive},
		{in: "jump drive", want: JumpDrive},
		{in: " jump-drive ", want: JumpDrive},
		{in: "none", want: None},
		{in: "warp", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownPolicy)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, s string) Policy {
	t.Helper()
	p, err := ParsePolicy(s)
	require.NoError(t, err)
	return p
}
