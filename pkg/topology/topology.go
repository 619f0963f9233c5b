// Package topology rebuilds an undirected graph from the store's
// persisted devices and connections and answers read-only questions
// about it: shortest paths, adjacency, cycles, spanning trees, and
// simple centrality measures. The graph is rebuilt fresh from
// persisted state on each call rather than cached and incrementally
// updated.
//
// The graph is pure given a store snapshot: Build never mutates the
// store, and a Graph holds no reference back to it. Concurrent
// rebuilds by different callers each get their own consistent
// snapshot.
package topology

import (
	"context"
	"fmt"
	"sort"

	"github.com/netdiscover/netdiscover/pkg/model"
	"github.com/netdiscover/netdiscover/pkg/store"
)

// Node is one device as it appears in the topology graph.
type Node struct {
	Hostname       string          `json:"hostname"`
	IP             string          `json:"ip"`
	Type           model.DeviceType `json:"type"`
	Model          string          `json:"model"`
	OSVersion      string          `json:"os_version"`
	InterfaceCount int             `json:"interface_count"`
}

// Edge is one undirected adjacency between two hostnames. A and B are
// stored in a canonical order (A < B) so the same physical link
// reported from both ends collapses to a single Edge.
type Edge struct {
	A           string        `json:"a"`
	AInterface  string        `json:"a_interface"`
	B           string        `json:"b"`
	BInterface  string        `json:"b_interface"`
	LinkType    model.LinkType `json:"link_type"`
}

// Neighbor is one adjacency as seen from a specific host.
type Neighbor struct {
	Hostname        string
	LocalInterface  string
	RemoteInterface string
	LinkType        model.LinkType
}

// Graph is a rebuilt topology snapshot.
type Graph struct {
	Nodes map[string]*Node
	Edges []Edge

	adj map[string][]int // hostname -> indices into Edges
}

// Build reconstructs the graph from the store's current devices and
// connections. Each physical link is recorded twice in the store (once
// from each observing device's perspective); Build collapses both
// directed rows into a single undirected Edge.
func Build(ctx context.Context, st store.Store) (*Graph, error) {
	devices, err := st.AllDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("topology: load devices: %w", err)
	}

	g := &Graph{
		Nodes: make(map[string]*Node, len(devices)),
		adj:   make(map[string][]int),
	}

	idToHostname := make(map[int64]string, len(devices))
	for i := range devices {
		d := &devices[i]
		idToHostname[d.ID] = d.Hostname

		ifaces, err := st.InterfacesByDevice(ctx, d.ID)
		if err != nil {
			return nil, fmt.Errorf("topology: interfaces for %s: %w", d.Hostname, err)
		}

		g.Nodes[d.Hostname] = &Node{
			Hostname:       d.Hostname,
			IP:             d.IP,
			Type:           d.Type,
			Model:          d.Model,
			OSVersion:      d.OSVersion,
			InterfaceCount: len(ifaces),
		}
	}

	seen := make(map[string]struct{})
	for i := range devices {
		d := &devices[i]
		conns, err := st.Connections(ctx, d.ID)
		if err != nil {
			return nil, fmt.Errorf("topology: connections for %s: %w", d.Hostname, err)
		}

		for _, c := range conns {
			var otherID int64
			var localIface, remoteIface string
			if c.SourceDeviceID == d.ID {
				otherID, localIface, remoteIface = c.DestDeviceID, c.SourceIfaceName, c.DestIfaceName
			} else {
				otherID, localIface, remoteIface = c.SourceDeviceID, c.DestIfaceName, c.SourceIfaceName
			}

			otherHostname, ok := idToHostname[otherID]
			if !ok {
				continue
			}

			a, b, aIface, bIface := d.Hostname, otherHostname, localIface, remoteIface
			if b < a {
				a, b = b, a
				aIface, bIface = bIface, aIface
			}
			key := a + "\x00" + b
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			g.Edges = append(g.Edges, Edge{A: a, AInterface: aIface, B: b, BInterface: bIface, LinkType: c.LinkType})
		}
	}

	g.buildAdjacency()
	return g, nil
}

func (g *Graph) buildAdjacency() {
	g.adj = make(map[string][]int, len(g.Nodes))
	for i, e := range g.Edges {
		g.adj[e.A] = append(g.adj[e.A], i)
		g.adj[e.B] = append(g.adj[e.B], i)
	}
}

// otherEnd returns the neighbor hostname and the local/remote
// interface names of edge i as seen from host.
func (g *Graph) otherEnd(i int, host string) (neighbor, localIface, remoteIface string) {
	e := g.Edges[i]
	if e.A == host {
		return e.B, e.AInterface, e.BInterface
	}
	return e.A, e.BInterface, e.AInterface
}

// Neighbours returns host's adjacency list.
func (g *Graph) Neighbours(host string) []Neighbor {
	var out []Neighbor
	for _, i := range g.adj[host] {
		n, local, remote := g.otherEnd(i, host)
		out = append(out, Neighbor{
			Hostname:        n,
			LocalInterface:  local,
			RemoteInterface: remote,
			LinkType:        g.Edges[i].LinkType,
		})
	}
	return out
}

// ShortestPath runs unweighted BFS from src to dst and returns the hop
// list, src and dst inclusive. ok is false when no path exists (or
// either host is absent from the graph).
func (g *Graph) ShortestPath(src, dst string) (path []string, ok bool) {
	if _, exists := g.Nodes[src]; !exists {
		return nil, false
	}
	if _, exists := g.Nodes[dst]; !exists {
		return nil, false
	}
	if src == dst {
		return []string{src}, true
	}

	prev := map[string]string{src: ""}
	queue := []string{src}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == dst {
			break
		}
		for _, i := range g.adj[cur] {
			n, _, _ := g.otherEnd(i, cur)
			if _, visited := prev[n]; visited {
				continue
			}
			prev[n] = cur
			queue = append(queue, n)
		}
	}

	if _, reached := prev[dst]; !reached {
		return nil, false
	}

	for at := dst; at != ""; at = prev[at] {
		path = append([]string{at}, path...)
		if at == src {
			break
		}
	}
	return path, true
}

// Cycles returns a cycle basis: for each edge not used by a DFS
// spanning forest (a "back edge"), the cycle it closes with the tree
// path between its endpoints.
func (g *Graph) Cycles() [][]string {
	visited := make(map[string]bool)
	parent := make(map[string]string)
	parentEdge := make(map[string]int)
	order := make(map[string]int)
	clock := 0

	var cycles [][]string
	treeEdge := make([]bool, len(g.Edges))

	var dfs func(u string)
	dfs = func(u string) {
		visited[u] = true
		order[u] = clock
		clock++
		for _, i := range g.adj[u] {
			if i == parentEdge[u] && parent[u] != "" {
				continue
			}
			v, _, _ := g.otherEnd(i, u)
			if !visited[v] {
				treeEdge[i] = true
				parent[v] = u
				parentEdge[v] = i
				dfs(v)
				continue
			}
			if order[v] < order[u] && !treeEdge[i] {
				// back edge u -> v (v is an ancestor); walk the tree
				// path from u up to v to materialize the cycle.
				cycle := []string{u}
				for at := u; at != v && parent[at] != ""; at = parent[at] {
					cycle = append(cycle, parent[at])
				}
				cycles = append(cycles, cycle)
			}
		}
	}

	hostnames := g.sortedHostnames()
	for _, h := range hostnames {
		if !visited[h] {
			parentEdge[h] = -1
			dfs(h)
		}
	}
	return cycles
}

// SpanningTree returns one spanning forest (one tree per connected
// component) as the set of edges a BFS traversal uses to first reach
// each node. The graph is unweighted, so any spanning tree is minimum.
func (g *Graph) SpanningTree() []Edge {
	visited := make(map[string]bool)
	var tree []Edge

	for _, root := range g.sortedHostnames() {
		if visited[root] {
			continue
		}
		visited[root] = true
		queue := []string{root}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, i := range g.adj[cur] {
				n, _, _ := g.otherEnd(i, cur)
				if visited[n] {
					continue
				}
				visited[n] = true
				tree = append(tree, g.Edges[i])
				queue = append(queue, n)
			}
		}
	}
	return tree
}

// IdentifyCore returns up to k hostnames with the highest betweenness
// centrality: the nodes most often sitting on the shortest path
// between other pairs, i.e. the aggregation layer of the network.
func (g *Graph) IdentifyCore(k int) []string {
	scores := g.betweennessCentrality()
	hostnames := g.sortedHostnames()
	sort.SliceStable(hostnames, func(i, j int) bool {
		return scores[hostnames[i]] > scores[hostnames[j]]
	})
	if k > len(hostnames) {
		k = len(hostnames)
	}
	return hostnames[:k]
}

// betweennessCentrality implements Brandes' algorithm for unweighted
// graphs: one BFS per source accumulating each node's share of
// shortest paths that pass through it.
func (g *Graph) betweennessCentrality() map[string]float64 {
	scores := make(map[string]float64, len(g.Nodes))
	hostnames := g.sortedHostnames()
	for _, h := range hostnames {
		scores[h] = 0
	}

	for _, s := range hostnames {
		var stack []string
		preds := make(map[string][]string)
		sigma := make(map[string]float64)
		dist := make(map[string]int)
		for _, h := range hostnames {
			sigma[h] = 0
			dist[h] = -1
		}
		sigma[s] = 1
		dist[s] = 0

		queue := []string{s}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, i := range g.adj[v] {
				w, _, _ := g.otherEnd(i, v)
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], v)
				}
			}
		}

		delta := make(map[string]float64)
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range preds[w] {
				delta[v] += (sigma[v] / sigma[w]) * (1 + delta[w])
			}
			if w != s {
				scores[w] += delta[w]
			}
		}
	}

	// Undirected graph: Brandes counts each shortest path twice (once
	// from each endpoint's perspective as source).
	for h := range scores {
		scores[h] /= 2
	}
	return scores
}

// IdentifyAccess returns hostnames with degree <= 2: the edge layer of
// the network, as distinct from the more-connected core.
func (g *Graph) IdentifyAccess() []string {
	var out []string
	for _, h := range g.sortedHostnames() {
		if len(g.adj[h]) <= 2 {
			out = append(out, h)
		}
	}
	return out
}

// RedundantPath is one detected alternate path around a hub node.
type RedundantPath struct {
	Via      string
	Between  [2]string
}

// DetectRedundancy finds, for each node v with at least two neighbors,
// every pair of v's neighbors that remain connected to each other even
// with v removed from the graph, meaning v is not their only path to
// each other.
func (g *Graph) DetectRedundancy() []RedundantPath {
	var out []RedundantPath

	for _, v := range g.sortedHostnames() {
		neighbors := g.Neighbours(v)
		if len(neighbors) < 2 {
			continue
		}
		for i := 0; i < len(neighbors); i++ {
			for j := i + 1; j < len(neighbors); j++ {
				a, b := neighbors[i].Hostname, neighbors[j].Hostname
				if g.reachableExcluding(a, b, v) {
					out = append(out, RedundantPath{Via: v, Between: [2]string{a, b}})
				}
			}
		}
	}
	return out
}

// reachableExcluding reports whether dst is reachable from src via BFS
// that never steps through the excluded host.
func (g *Graph) reachableExcluding(src, dst, excluded string) bool {
	if src == dst {
		return true
	}
	visited := map[string]bool{src: true, excluded: true}
	queue := []string{src}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, i := range g.adj[cur] {
			n, _, _ := g.otherEnd(i, cur)
			if visited[n] {
				continue
			}
			if n == dst {
				return true
			}
			visited[n] = true
			queue = append(queue, n)
		}
	}
	return false
}

// Stats summarizes the graph's shape for the stats CLI command and
// /api/topology/stats.
type Stats struct {
	TotalNodes       int      `json:"total_nodes"`
	TotalEdges       int      `json:"total_edges"`
	Connected        bool     `json:"connected"`
	ComponentCount   int      `json:"component_count"`
	Density          float64  `json:"density,omitempty"`
	AverageDegree    float64  `json:"average_degree"`
	TopDegreeCentral []string `json:"top_degree_centrality"`
}

// JSON is the serializable form ToJSON() returns: nodes, edges, and
// summary statistics.
type JSON struct {
	Nodes []*Node `json:"nodes"`
	Edges []Edge  `json:"edges"`
	Stats Stats   `json:"stats"`
}

// ToJSON materializes the graph plus its statistics.
func (g *Graph) ToJSON() JSON {
	return JSON{
		Nodes: g.sortedNodes(),
		Edges: g.Edges,
		Stats: g.computeStats(),
	}
}

func (g *Graph) computeStats() Stats {
	n := len(g.Nodes)
	e := len(g.Edges)

	s := Stats{
		TotalNodes:     n,
		TotalEdges:     e,
		ComponentCount: g.componentCount(),
	}
	s.Connected = n == 0 || s.ComponentCount == 1

	if n > 1 {
		s.Density = float64(2*e) / float64(n*(n-1))
		s.AverageDegree = float64(2*e) / float64(n)
	}

	s.TopDegreeCentral = g.topDegree(5)
	return s
}

func (g *Graph) componentCount() int {
	visited := make(map[string]bool)
	count := 0
	for _, h := range g.sortedHostnames() {
		if visited[h] {
			continue
		}
		count++
		queue := []string{h}
		visited[h] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, i := range g.adj[cur] {
				n, _, _ := g.otherEnd(i, cur)
				if !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			}
		}
	}
	return count
}

func (g *Graph) topDegree(k int) []string {
	hostnames := g.sortedHostnames()
	sort.SliceStable(hostnames, func(i, j int) bool {
		return len(g.adj[hostnames[i]]) > len(g.adj[hostnames[j]])
	})
	if k > len(hostnames) {
		k = len(hostnames)
	}
	return hostnames[:k]
}

func (g *Graph) sortedHostnames() []string {
	out := make([]string, 0, len(g.Nodes))
	for h := range g.Nodes {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

func (g *Graph) sortedNodes() []*Node {
	hostnames := g.sortedHostnames()
	out := make([]*Node, 0, len(hostnames))
	for _, h := range hostnames {
		out = append(out, g.Nodes[h])
	}
	return out
}
