package export

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/netdiscover/netdiscover/pkg/model"
	"github.com/netdiscover/netdiscover/pkg/store"
	"github.com/netdiscover/netdiscover/pkg/topology"
)

func sampleGraph(t *testing.T) *topology.Graph {
	t.Helper()
	ctx := context.Background()
	m := store.NewMemory()

	a, _ := m.UpsertDevice(ctx, &model.Device{Hostname: "a", IP: "10.0.0.1"})
	b, _ := m.UpsertDevice(ctx, &model.Device{Hostname: "b", IP: "10.0.0.2"})
	ifA, _ := m.UpsertInterface(ctx, a, &model.Interface{Name: "Gi1"})
	m.UpsertConnection(ctx, &model.Connection{SourceDeviceID: a, SourceIfaceID: ifA, DestDeviceID: b, SourceIfaceName: "Gi1", DestIfaceName: "Gi1", LinkType: model.LinkCDP})

	g, err := topology.Build(ctx, m)
	if err != nil {
		t.Fatalf("topology.Build: %v", err)
	}
	return g
}

func TestWriteJSONRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleGraph(t), FormatJSON); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var decoded topology.JSON
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(decoded.Nodes) != 2 || len(decoded.Edges) != 1 {
		t.Errorf("got %d nodes / %d edges, want 2/1", len(decoded.Nodes), len(decoded.Edges))
	}
}

func TestWriteGraphMLProducesValidXML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleGraph(t), FormatGraphML); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "<graphml") || !strings.Contains(out, `id="a"`) || !strings.Contains(out, `id="b"`) {
		t.Errorf("graphml output missing expected elements: %s", out)
	}
}

func TestWriteGEXFProducesValidXML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleGraph(t), FormatGEXF); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "<gexf") || !strings.Contains(out, `source="a"`) {
		t.Errorf("gexf output missing expected elements: %s", out)
	}
}

func TestWriteRejectsUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleGraph(t), "yaml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
