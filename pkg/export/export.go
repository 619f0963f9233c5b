// Package export serializes a topology graph to the interchange
// formats the `export --format json|graphml|gexf` CLI command accepts.
// GraphML/GEXF are produced directly with encoding/xml, and JSON with
// topology.Graph's own ToJSON.
package export

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/netdiscover/netdiscover/pkg/topology"
)

// Format names accepted by the export CLI command.
const (
	FormatJSON    = "json"
	FormatGraphML = "graphml"
	FormatGEXF    = "gexf"
)

// Write serializes g to w in the named format.
func Write(w io.Writer, g *topology.Graph, format string) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, g)
	case FormatGraphML:
		return writeGraphML(w, g)
	case FormatGEXF:
		return writeGEXF(w, g)
	default:
		return fmt.Errorf("export: unknown format %q (want json, graphml, or gexf)", format)
	}
}

func writeJSON(w io.Writer, g *topology.Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(g.ToJSON())
}

// --- GraphML ---

type graphmlDocument struct {
	XMLName xml.Name    `xml:"graphml"`
	Xmlns   string      `xml:"xmlns,attr"`
	Keys    []graphmlKey `xml:"key"`
	Graph   graphmlGraph `xml:"graph"`
}

type graphmlKey struct {
	ID     string `xml:"id,attr"`
	For    string `xml:"for,attr"`
	Name   string `xml:"attr.name,attr"`
	Type   string `xml:"attr.type,attr"`
}

type graphmlGraph struct {
	ID          string       `xml:"id,attr"`
	EdgeDefault string       `xml:"edgedefault,attr"`
	Nodes       []graphmlNode `xml:"node"`
	Edges       []graphmlEdge `xml:"edge"`
}

type graphmlNode struct {
	ID   string           `xml:"id,attr"`
	Data []graphmlDataVal `xml:"data"`
}

type graphmlEdge struct {
	Source string           `xml:"source,attr"`
	Target string           `xml:"target,attr"`
	Data   []graphmlDataVal `xml:"data"`
}

type graphmlDataVal struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

func writeGraphML(w io.Writer, g *topology.Graph) error {
	doc := graphmlDocument{
		Xmlns: "http://graphml.graphdrawing.org/xmlns",
		Keys: []graphmlKey{
			{ID: "d0", For: "node", Name: "ip", Type: "string"},
			{ID: "d1", For: "node", Name: "type", Type: "string"},
			{ID: "d2", For: "edge", Name: "link_type", Type: "string"},
		},
		Graph: graphmlGraph{ID: "topology", EdgeDefault: "undirected"},
	}

	j := g.ToJSON()
	for _, n := range j.Nodes {
		doc.Graph.Nodes = append(doc.Graph.Nodes, graphmlNode{
			ID: n.Hostname,
			Data: []graphmlDataVal{
				{Key: "d0", Value: n.IP},
				{Key: "d1", Value: string(n.Type)},
			},
		})
	}
	for _, e := range j.Edges {
		doc.Graph.Edges = append(doc.Graph.Edges, graphmlEdge{
			Source: e.A,
			Target: e.B,
			Data:   []graphmlDataVal{{Key: "d2", Value: string(e.LinkType)}},
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(doc)
}

// --- GEXF ---

type gexfDocument struct {
	XMLName xml.Name `xml:"gexf"`
	Xmlns   string   `xml:"xmlns,attr"`
	Version string   `xml:"version,attr"`
	Graph   gexfGraph `xml:"graph"`
}

type gexfGraph struct {
	DefaultEdgeType string      `xml:"defaultedgetype,attr"`
	Nodes           gexfNodes   `xml:"nodes"`
	Edges           gexfEdges   `xml:"edges"`
}

type gexfNodes struct {
	Nodes []gexfNode `xml:"node"`
}

type gexfNode struct {
	ID    string `xml:"id,attr"`
	Label string `xml:"label,attr"`
}

type gexfEdges struct {
	Edges []gexfEdge `xml:"edge"`
}

type gexfEdge struct {
	ID     string `xml:"id,attr"`
	Source string `xml:"source,attr"`
	Target string `xml:"target,attr"`
	Label  string `xml:"label,attr"`
}

func writeGEXF(w io.Writer, g *topology.Graph) error {
	doc := gexfDocument{
		Xmlns:   "http://www.gexf.net/1.2draft",
		Version: "1.2",
		Graph:   gexfGraph{DefaultEdgeType: "undirected"},
	}

	j := g.ToJSON()
	for _, n := range j.Nodes {
		doc.Graph.Nodes.Nodes = append(doc.Graph.Nodes.Nodes, gexfNode{ID: n.Hostname, Label: n.Hostname})
	}
	for i, e := range j.Edges {
		doc.Graph.Edges.Edges = append(doc.Graph.Edges.Edges, gexfEdge{
			ID:     fmt.Sprintf("%d", i),
			Source: e.A,
			Target: e.B,
			Label:  string(e.LinkType),
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(doc)
}
