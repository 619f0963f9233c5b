package topology

import (
	"context"
	"testing"

	"github.com/netdiscover/netdiscover/pkg/model"
	"github.com/netdiscover/netdiscover/pkg/store"
)

// buildLine wires up a -- b -- c as a linear topology (no cycle).
func buildLine(t *testing.T) *store.Memory {
	t.Helper()
	ctx := context.Background()
	m := store.NewMemory()

	a, _ := m.UpsertDevice(ctx, &model.Device{Hostname: "a"})
	b, _ := m.UpsertDevice(ctx, &model.Device{Hostname: "b"})
	c, _ := m.UpsertDevice(ctx, &model.Device{Hostname: "c"})

	ifA1, _ := m.UpsertInterface(ctx, a, &model.Interface{Name: "Gi1"})
	ifB1, _ := m.UpsertInterface(ctx, b, &model.Interface{Name: "Gi1"})
	_, _ = m.UpsertInterface(ctx, b, &model.Interface{Name: "Gi2"})
	ifC1, _ := m.UpsertInterface(ctx, c, &model.Interface{Name: "Gi1"})

	m.UpsertConnection(ctx, &model.Connection{SourceDeviceID: a, SourceIfaceID: ifA1, DestDeviceID: b, SourceIfaceName: "Gi1", DestIfaceName: "Gi1", LinkType: model.LinkCDP})
	m.UpsertConnection(ctx, &model.Connection{SourceDeviceID: b, SourceIfaceID: ifB1, DestDeviceID: c, SourceIfaceName: "Gi2", DestIfaceName: "Gi1", LinkType: model.LinkCDP})
	_ = ifC1
	return m
}

// buildTriangle wires a -- b -- c -- a, a three-node cycle.
func buildTriangle(t *testing.T) *store.Memory {
	t.Helper()
	ctx := context.Background()
	m := store.NewMemory()

	a, _ := m.UpsertDevice(ctx, &model.Device{Hostname: "a"})
	b, _ := m.UpsertDevice(ctx, &model.Device{Hostname: "b"})
	c, _ := m.UpsertDevice(ctx, &model.Device{Hostname: "c"})

	ifA1, _ := m.UpsertInterface(ctx, a, &model.Interface{Name: "Gi1"})
	_, _ = m.UpsertInterface(ctx, a, &model.Interface{Name: "Gi2"})
	ifB1, _ := m.UpsertInterface(ctx, b, &model.Interface{Name: "Gi1"})
	_, _ = m.UpsertInterface(ctx, b, &model.Interface{Name: "Gi2"})
	ifC1, _ := m.UpsertInterface(ctx, c, &model.Interface{Name: "Gi1"})
	_, _ = m.UpsertInterface(ctx, c, &model.Interface{Name: "Gi2"})

	m.UpsertConnection(ctx, &model.Connection{SourceDeviceID: a, SourceIfaceID: ifA1, DestDeviceID: b, SourceIfaceName: "Gi1", DestIfaceName: "Gi1", LinkType: model.LinkCDP})
	m.UpsertConnection(ctx, &model.Connection{SourceDeviceID: b, SourceIfaceID: ifB1, DestDeviceID: c, SourceIfaceName: "Gi2", DestIfaceName: "Gi1", LinkType: model.LinkCDP})
	m.UpsertConnection(ctx, &model.Connection{SourceDeviceID: c, SourceIfaceID: ifC1, DestDeviceID: a, SourceIfaceName: "Gi2", DestIfaceName: "Gi2", LinkType: model.LinkCDP})
	return m
}

func TestShortestPathAdjacentHops(t *testing.T) {
	g, err := Build(context.Background(), buildLine(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	path, ok := g.ShortestPath("a", "c")
	if !ok {
		t.Fatal("expected a path from a to c")
	}
	if len(path) != 3 || path[0] != "a" || path[1] != "b" || path[2] != "c" {
		t.Errorf("path = %v, want [a b c]", path)
	}
}

func TestShortestPathNoPathAcrossComponents(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	m.UpsertDevice(ctx, &model.Device{Hostname: "a"})
	m.UpsertDevice(ctx, &model.Device{Hostname: "z"})

	g, err := Build(ctx, m)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, ok := g.ShortestPath("a", "z"); ok {
		t.Error("expected no path between disconnected nodes")
	}
}

func TestNeighboursReturnsAdjacency(t *testing.T) {
	g, err := Build(context.Background(), buildLine(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	n := g.Neighbours("b")
	if len(n) != 2 {
		t.Fatalf("Neighbours(b) = %+v, want 2 entries", n)
	}
}

func TestCyclesDetectsTriangle(t *testing.T) {
	g, err := Build(context.Background(), buildTriangle(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	cycles := g.Cycles()
	if len(cycles) != 1 {
		t.Fatalf("Cycles() = %v, want exactly one cycle", cycles)
	}
	if len(cycles[0]) != 3 {
		t.Errorf("cycle length = %d, want 3", len(cycles[0]))
	}
}

func TestCyclesEmptyForLine(t *testing.T) {
	g, err := Build(context.Background(), buildLine(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cycles := g.Cycles(); len(cycles) != 0 {
		t.Errorf("Cycles() = %v, want none for an acyclic line", cycles)
	}
}

func TestSpanningTreeCoversEveryNodeOnce(t *testing.T) {
	g, err := Build(context.Background(), buildTriangle(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	tree := g.SpanningTree()
	if len(tree) != len(g.Nodes)-1 {
		t.Errorf("spanning tree has %d edges, want %d for a connected 3-node graph", len(tree), len(g.Nodes)-1)
	}
}

func TestIdentifyAccessFindsLeafNodes(t *testing.T) {
	g, err := Build(context.Background(), buildLine(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	access := g.IdentifyAccess()
	found := map[string]bool{}
	for _, h := range access {
		found[h] = true
	}
	if !found["a"] || !found["c"] {
		t.Errorf("IdentifyAccess() = %v, want a and c (degree 1)", access)
	}
}

func TestDetectRedundancyOnTriangle(t *testing.T) {
	g, err := Build(context.Background(), buildTriangle(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	redundant := g.DetectRedundancy()
	if len(redundant) == 0 {
		t.Fatal("expected at least one redundant path in a 3-node cycle")
	}
}

func TestDetectRedundancyNoneOnLine(t *testing.T) {
	g, err := Build(context.Background(), buildLine(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if redundant := g.DetectRedundancy(); len(redundant) != 0 {
		t.Errorf("expected no redundant paths in a line topology, got %v", redundant)
	}
}

func TestToJSONStats(t *testing.T) {
	g, err := Build(context.Background(), buildLine(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	j := g.ToJSON()
	if j.Stats.TotalNodes != 3 || j.Stats.TotalEdges != 2 {
		t.Errorf("stats = %+v, want 3 nodes / 2 edges", j.Stats)
	}
	if !j.Stats.Connected || j.Stats.ComponentCount != 1 {
		t.Errorf("expected a single connected component, got %+v", j.Stats)
	}
}
