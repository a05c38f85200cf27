package graph

import (
	"errors"
	"reflect"
	"testing"
)

func TestAddLink_OneWayAndDeduplicated(t *testing.T) {
	g := NewGalaxy()
	g.AddSystem(1, "Sol", 0, 0)
	g.AddSystem(2, "Alpha Centauri", 10, 0)

	g.AddLink(1, 2)
	g.AddLink(1, 2)

	if got := g.Links(1); !reflect.DeepEqual(got, []int32{2}) {
		t.Errorf("Links(1) = %v, want [2]", got)
	}
	if got := g.Links(2); len(got) != 0 {
		t.Errorf("Links(2) = %v, want none", got)
	}
}

func TestComputeNeighbors_WithinRange(t *testing.T) {
	g := NewGalaxy()
	g.AddSystem(1, "A", 0, 0)
	g.AddSystem(2, "B", 60, 80) // exactly 100 away
	g.AddSystem(3, "C", 0, 150)
	g.AddSystem(4, "D", 500, 500)

	g.ComputeNeighbors(100)

	tests := []struct {
		system int32
		want   []int32
	}{
		{1, []int32{2}},
		{2, []int32{1, 3}},
		{3, []int32{2}},
		{4, nil},
	}
	for _, tt := range tests {
		if got := g.Neighbors(tt.system); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Neighbors(%d) = %v, want %v", tt.system, got, tt.want)
		}
	}
}

func TestComputeNeighbors_ZeroRangeClears(t *testing.T) {
	g := NewGalaxy()
	g.AddSystem(1, "A", 0, 0)
	g.AddSystem(2, "B", 1, 0)
	g.ComputeNeighbors(10)
	g.ComputeNeighbors(0)
	if got := g.Neighbors(1); len(got) != 0 {
		t.Errorf("Neighbors(1) = %v, want none", got)
	}
}

func TestLookup_CaseInsensitiveAndRename(t *testing.T) {
	g := NewGalaxy()
	g.AddSystem(7, "Rutilicus", 0, 0)

	if id, ok := g.Lookup("  rutilicus "); !ok || id != 7 {
		t.Errorf("Lookup(rutilicus) = %d, %v", id, ok)
	}

	g.AddSystem(7, "Menkent", 0, 0)
	if _, ok := g.Lookup("Rutilicus"); ok {
		t.Error("old name still resolves after rename")
	}
	if g.Name(7) != "Menkent" {
		t.Errorf("Name(7) = %q, want Menkent", g.Name(7))
	}
	if !g.Has(7) || g.Has(8) {
		t.Error("Has mismatch")
	}
}

func TestSystemIDs_Sorted(t *testing.T) {
	g := NewGalaxy()
	for _, id := range []int32{30, 10, 20} {
		g.AddSystem(id, "", 0, 0)
	}
	if got := g.SystemIDs(); !reflect.DeepEqual(got, []int32{10, 20, 30}) {
		t.Errorf("SystemIDs() = %v", got)
	}
	if g.Len() != 3 {
		t.Errorf("Len() = %d, want 3", g.Len())
	}
}

func TestResolve(t *testing.T) {
	g := NewGalaxy()
	g.AddSystem(7, "Sol", 0, 0)
	g.AddSystem(12, "7", 1, 1) // a name that looks like an ID wins

	tests := []struct {
		ref  string
		want int32
	}{
		{"Sol", 7},
		{" sol ", 7},
		{"12", 12},
		{"7", 12},
	}
	for _, tt := range tests {
		got, err := g.Resolve(tt.ref)
		if err != nil || got != tt.want {
			t.Errorf("Resolve(%q) = %d, %v; want %d", tt.ref, got, err, tt.want)
		}
	}

	for _, ref := range []string{"", "Vega", "99", "abc"} {
		if _, err := g.Resolve(ref); !errors.Is(err, ErrUnknownSystem) {
			t.Errorf("Resolve(%q) err = %v, want ErrUnknownSystem", ref, err)
		}
	}
}
