// Package httpapi exposes a read-only JSON query surface over the
// store and topology layers. Routing uses github.com/bmizerany/pat, a
// small pattern router rather than a full framework, appropriate for a
// thin read-only shell.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/bmizerany/pat"

	"github.com/netdiscover/netdiscover/pkg/logging"
	"github.com/netdiscover/netdiscover/pkg/macaddr"
	"github.com/netdiscover/netdiscover/pkg/model"
	"github.com/netdiscover/netdiscover/pkg/store"
	"github.com/netdiscover/netdiscover/pkg/topology"
)

// Server answers HTTP queries against a Store. Each request rebuilds
// the topology graph from the store's current state; the component
// holds no cached graph of its own.
type Server struct {
	st store.Store
	mux *pat.PatternServeMux
}

// New wires every read-only query endpoint onto a fresh pat router.
func New(st store.Store) *Server {
	s := &Server{st: st, mux: pat.New()}

	s.mux.Get("/api/topology/path", http.HandlerFunc(s.handleTopologyPath))
	s.mux.Get("/api/topology/neighbors/:host", http.HandlerFunc(s.handleTopologyNeighbors))
	s.mux.Get("/api/topology/stats", http.HandlerFunc(s.handleTopologyStats))
	s.mux.Get("/api/topology/analysis", http.HandlerFunc(s.handleTopologyAnalysis))
	s.mux.Get("/api/topology", http.HandlerFunc(s.handleTopology))

	s.mux.Get("/api/devices/hostname/:name", http.HandlerFunc(s.handleDeviceByHostname))
	s.mux.Get("/api/devices/:id/interfaces", http.HandlerFunc(s.handleDeviceInterfaces))
	s.mux.Get("/api/devices/:id/vlans", http.HandlerFunc(s.handleDeviceVLANs))
	s.mux.Get("/api/devices/:id", http.HandlerFunc(s.handleDeviceByID))
	s.mux.Get("/api/devices", http.HandlerFunc(s.handleDevices))

	s.mux.Get("/api/search/mac/:mac", http.HandlerFunc(s.handleSearchMAC))
	s.mux.Get("/api/search/device", http.HandlerFunc(s.handleSearchDevice))
	s.mux.Get("/api/search/interface", http.HandlerFunc(s.handleSearchInterface))

	return s
}

// ServeHTTP implements http.Handler so Server can be passed directly
// to http.Server / http.ListenAndServe.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.WithOperation("httpapi").WithField("err", err).Warn("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) buildGraph(ctx context.Context) (*topology.Graph, error) {
	return topology.Build(ctx, s.st)
}

func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	g, err := s.buildGraph(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, g.ToJSON())
}

func (s *Server) handleTopologyPath(w http.ResponseWriter, r *http.Request) {
	src := r.URL.Query().Get("source")
	dst := r.URL.Query().Get("target")
	if src == "" || dst == "" {
		writeError(w, http.StatusBadRequest, "source and target query parameters are required")
		return
	}

	g, err := s.buildGraph(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	path, ok := g.ShortestPath(src, dst)
	if !ok {
		writeError(w, http.StatusNotFound, "no path between "+src+" and "+dst)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": path})
}

func (s *Server) handleTopologyNeighbors(w http.ResponseWriter, r *http.Request) {
	host := r.URL.Query().Get(":host")
	g, err := s.buildGraph(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if _, ok := g.Nodes[host]; !ok {
		writeError(w, http.StatusNotFound, "unknown host "+host)
		return
	}
	writeJSON(w, http.StatusOK, g.Neighbours(host))
}

func (s *Server) handleTopologyStats(w http.ResponseWriter, r *http.Request) {
	g, err := s.buildGraph(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, g.ToJSON().Stats)
}

// analysisResponse bundles the richer graph-theoretic results behind
// /api/topology/analysis, beyond the plain stats block.
type analysisResponse struct {
	Core        []string                   `json:"core"`
	Access      []string                   `json:"access"`
	Cycles      [][]string                 `json:"cycles"`
	Redundancy  []topology.RedundantPath   `json:"redundancy"`
}

func (s *Server) handleTopologyAnalysis(w http.ResponseWriter, r *http.Request) {
	g, err := s.buildGraph(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, analysisResponse{
		Core:       g.IdentifyCore(5),
		Access:     g.IdentifyAccess(),
		Cycles:     g.Cycles(),
		Redundancy: g.DetectRedundancy(),
	})
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.st.AllDevices(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if t := r.URL.Query().Get("type"); t != "" {
		filtered := make([]model.Device, 0, len(devices))
		for _, d := range devices {
			if strings.EqualFold(string(d.Type), t) {
				filtered = append(filtered, d)
			}
		}
		devices = filtered
	}
	writeJSON(w, http.StatusOK, devices)
}

func (s *Server) handleDeviceByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get(":id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid device id")
		return
	}
	dev, err := s.st.DeviceByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

func (s *Server) handleDeviceByHostname(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get(":name")
	dev, err := s.st.DeviceByHostname(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

func (s *Server) handleDeviceInterfaces(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get(":id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid device id")
		return
	}
	ifaces, err := s.st.InterfacesByDevice(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ifaces)
}

func (s *Server) handleDeviceVLANs(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get(":id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid device id")
		return
	}
	vlans, err := s.st.VLANsByDevice(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, vlans)
}

func (s *Server) handleSearchMAC(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get(":mac")
	normalized, err := macaddr.Normalize(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := s.st.MACSearch(r.Context(), normalized)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(entries) == 0 {
		writeError(w, http.StatusNotFound, "mac "+normalized+" not found")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleSearchDevice(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q query parameter is required")
		return
	}
	devices, err := s.st.SearchDevice(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

func (s *Server) handleSearchInterface(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q query parameter is required")
		return
	}

	var deviceID *int64
	if raw := r.URL.Query().Get("device_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid device_id")
			return
		}
		deviceID = &id
	}

	ifaces, err := s.st.InterfaceSearch(r.Context(), q, deviceID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ifaces)
}
