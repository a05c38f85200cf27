package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"starmap/internal/config"
	"starmap/internal/db"
	"starmap/internal/graph"
	"starmap/internal/logger"
	"starmap/internal/navigation"
	"starmap/internal/pilot"
)

// Server is the HTTP API that answers distance and route queries over the loaded galaxy.
type Server struct {
	cfg      *config.Config
	db       *db.DB // nil: pilots live in memory only
	registry *prometheus.Registry
	metrics  *navigation.Metrics

	mu     sync.RWMutex
	galaxy *graph.Galaxy
	cache  *navigation.Cache
	ready  bool

	pilotsMu sync.Mutex
	pilots   map[string]*pilot.Pilot
}

// NewServer creates a Server. database may be nil.
func NewServer(cfg *config.Config, database *db.DB) *Server {
	reg := prometheus.NewRegistry()
	return &Server{
		cfg:      cfg,
		db:       database,
		registry: reg,
		metrics:  navigation.NewMetrics(reg),
		pilots:   make(map[string]*pilot.Pilot),
	}
}

// SetGalaxy is called when the galaxy finishes loading. Cached maps for any
// previous galaxy are dropped.
func (s *Server) SetGalaxy(g *graph.Galaxy) {
	cache := navigation.NewCache(g, s.metrics)
	cache.Limit = s.cfg.CacheLimit

	s.mu.Lock()
	defer s.mu.Unlock()
	s.galaxy = g
	s.cache = cache
	s.ready = true
}

// AddPilot makes a pilot available to the API without going through the database.
func (s *Server) AddPilot(p *pilot.Pilot) {
	s.pilotsMu.Lock()
	defer s.pilotsMu.Unlock()
	s.pilots[p.Name] = p
}

func (s *Server) snapshot() (*graph.Galaxy, *navigation.Cache, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.galaxy, s.cache, s.ready
}

// Handler returns the HTTP handler with all API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("GET /api/systems/autocomplete", s.handleAutocomplete)
	mux.HandleFunc("GET /api/distances", s.handleDistances)
	mux.HandleFunc("GET /api/route", s.handleRoute)
	mux.HandleFunc("GET /api/pilots", s.handleListPilots)
	mux.HandleFunc("GET /api/pilots/{name}", s.handleGetPilot)
	mux.HandleFunc("GET /api/pilots/{name}/distances", s.handlePilotDistances)
	mux.HandleFunc("GET /api/pilots/{name}/route", s.handlePilotRoute)
	mux.HandleFunc("POST /api/pilots/{name}/visit", s.handlePilotVisit)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	g, cache, ready := s.snapshot()
	result := map[string]interface{}{
		"galaxy_loaded": ready,
		"systems":       0,
		"cached_maps":   0,
	}
	if ready {
		result["systems"] = g.Len()
		result["cached_maps"] = cache.Len()
	}
	writeJSON(w, result)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.cfg)
}

func (s *Server) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	g, _, ready := s.snapshot()
	if q == "" || !ready {
		writeJSON(w, map[string][]string{"systems": {}})
		return
	}

	var prefix, contains []string
	for _, id := range g.SystemIDs() {
		name := g.Name(id)
		lower := strings.ToLower(name)
		if strings.HasPrefix(lower, q) {
			prefix = append(prefix, name)
		} else if strings.Contains(lower, q) {
			contains = append(contains, name)
		}
	}

	result := append(prefix, contains...)
	if len(result) > 15 {
		result = result[:15]
	}
	if result == nil {
		result = []string{}
	}
	writeJSON(w, map[string][]string{"systems": result})
}

// systemDistance is one row of a distance listing.
type systemDistance struct {
	ID       int32  `json:"id"`
	Name     string `json:"name"`
	Distance int    `json:"distance"`
	Next     int32  `json:"next"`
}

type distancesResponse struct {
	Origin  *int32           `json:"origin"`
	Policy  string           `json:"policy"`
	Systems []systemDistance `json:"systems"`
}

func listDistances(g *graph.Galaxy, m *navigation.DistanceMap) distancesResponse {
	resp := distancesResponse{Policy: m.Policy().String(), Systems: []systemDistance{}}
	if origin, ok := m.Origin(); ok {
		resp.Origin = &origin
	}
	for _, id := range m.Systems() {
		next, _ := m.Route(id)
		resp.Systems = append(resp.Systems, systemDistance{
			ID:       id,
			Name:     g.Name(id),
			Distance: m.Distance(id),
			Next:     next,
		})
	}
	return resp
}

// routeResponse lists the systems from the start of a trip to its end.
type routeResponse struct {
	From    int32    `json:"from"`
	To      int32    `json:"to"`
	Jumps   int      `json:"jumps"`
	Path    []int32  `json:"path"`
	Names   []string `json:"names"`
	Policy  string   `json:"policy"`
	Reached bool     `json:"reachable"`
}

// buildRoute reports path as reachable only if it runs from from to to.
func buildRoute(g *graph.Galaxy, path []int32, from, to int32, policy navigation.Policy) routeResponse {
	resp := routeResponse{From: from, To: to, Jumps: navigation.Unreachable, Policy: policy.String(), Path: []int32{}, Names: []string{}}
	if len(path) == 0 || path[0] != from || path[len(path)-1] != to {
		return resp
	}
	resp.Reached = true
	resp.Jumps = len(path) - 1
	resp.Path = path
	for _, id := range path {
		resp.Names = append(resp.Names, g.Name(id))
	}
	return resp
}

func (s *Server) handleDistances(w http.ResponseWriter, r *http.Request) {
	g, cache, ready := s.snapshot()
	if !ready {
		writeError(w, http.StatusServiceUnavailable, "galaxy not loaded")
		return
	}
	from := r.URL.Query().Get("from")
	if from == "" {
		from = s.cfg.DefaultOrigin
	}
	origin, err := g.Resolve(from)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, listDistances(g, cache.FromOrigin(origin)))
}

// handleRoute plots an unrestricted trip. The map is centered on the start so
// one-way links are only flown in their own direction.
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	g, cache, ready := s.snapshot()
	if !ready {
		writeError(w, http.StatusServiceUnavailable, "galaxy not loaded")
		return
	}
	q := r.URL.Query()
	from, err := g.Resolve(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := g.Resolve(q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	m := cache.FromOrigin(from)
	writeJSON(w, buildRoute(g, m.PathTo(to), from, to, m.Policy()))
}

// pilot returns the named pilot, loading it from the database on first use.
func (s *Server) pilot(name string) (*pilot.Pilot, error) {
	s.pilotsMu.Lock()
	defer s.pilotsMu.Unlock()
	if p, ok := s.pilots[name]; ok {
		return p, nil
	}
	if s.db == nil {
		return nil, fmt.Errorf("%w: %s", db.ErrUnknownPilot, name)
	}
	p, err := s.db.LoadPilot(name)
	if err != nil {
		return nil, err
	}
	s.pilots[name] = p
	return p, nil
}

func (s *Server) writePilotError(w http.ResponseWriter, err error) {
	if errors.Is(err, db.ErrUnknownPilot) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	logger.Error("API", err.Error())
	writeError(w, http.StatusInternalServerError, "pilot lookup failed")
}

type pilotResponse struct {
	Name    string      `json:"name"`
	Ship    *pilot.Ship `json:"ship"`
	Seen    []int32     `json:"seen"`
	Visited []int32     `json:"visited"`
}

func newPilotResponse(snap *pilot.Snapshot) pilotResponse {
	return pilotResponse{Name: snap.Name, Ship: snap.Ship(), Seen: snap.Seen(), Visited: snap.Visited()}
}

// handleListPilots returns the known pilot names and the configured default pilot.
func (s *Server) handleListPilots(w http.ResponseWriter, r *http.Request) {
	names := make(map[string]bool)
	if s.db != nil {
		saved, err := s.db.ListPilots()
		if err != nil {
			logger.Error("API", err.Error())
			writeError(w, http.StatusInternalServerError, "failed to list pilots")
			return
		}
		for _, n := range saved {
			names[n] = true
		}
	}
	s.pilotsMu.Lock()
	for n := range s.pilots {
		names[n] = true
	}
	s.pilotsMu.Unlock()

	result := make([]string, 0, len(names))
	for n := range names {
		result = append(result, n)
	}
	sort.Strings(result)
	writeJSON(w, map[string]interface{}{"default": s.cfg.DefaultPilot, "pilots": result})
}

func (s *Server) handleGetPilot(w http.ResponseWriter, r *http.Request) {
	p, err := s.pilot(r.PathValue("name"))
	if err != nil {
		s.writePilotError(w, err)
		return
	}
	writeJSON(w, newPilotResponse(p.Snapshot()))
}

// pilotMap returns the distance map for a frozen copy of the pilot. An
// optional ?policy= overrides the policy the pilot's drives would pick.
func pilotMap(cache *navigation.Cache, p *pilot.Pilot, r *http.Request) (*navigation.DistanceMap, error) {
	snap := p.Snapshot()
	name := r.URL.Query().Get("policy")
	if name == "" {
		return cache.ForTraveler(snap), nil
	}
	policy, err := navigation.ParsePolicy(name)
	if err != nil {
		return nil, err
	}
	return cache.WithPolicy(snap, policy), nil
}

func (s *Server) handlePilotDistances(w http.ResponseWriter, r *http.Request) {
	g, cache, ready := s.snapshot()
	if !ready {
		writeError(w, http.StatusServiceUnavailable, "galaxy not loaded")
		return
	}
	p, err := s.pilot(r.PathValue("name"))
	if err != nil {
		s.writePilotError(w, err)
		return
	}
	m, err := pilotMap(cache, p, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, listDistances(g, m))
}

// handlePilotRoute plots a trip from the pilot's system to ?to= using what
// the pilot knows.
func (s *Server) handlePilotRoute(w http.ResponseWriter, r *http.Request) {
	g, cache, ready := s.snapshot()
	if !ready {
		writeError(w, http.StatusServiceUnavailable, "galaxy not loaded")
		return
	}
	p, err := s.pilot(r.PathValue("name"))
	if err != nil {
		s.writePilotError(w, err)
		return
	}
	to, err := g.Resolve(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := pilotMap(cache, p, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	from, ok := m.Origin()
	if !ok {
		writeError(w, http.StatusConflict, "pilot has no ship in a system")
		return
	}
	writeJSON(w, buildRoute(g, m.PathTo(to), from, to, m.Policy()))
}

func (s *Server) handlePilotVisit(w http.ResponseWriter, r *http.Request) {
	g, _, ready := s.snapshot()
	if !ready {
		writeError(w, http.StatusServiceUnavailable, "galaxy not loaded")
		return
	}
	p, err := s.pilot(r.PathValue("name"))
	if err != nil {
		s.writePilotError(w, err)
		return
	}
	var req struct {
		System interface{} `json:"system"` // name or numeric ID
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	var ref string
	switch v := req.System.(type) {
	case string:
		ref = v
	case float64:
		ref = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		writeError(w, http.StatusBadRequest, "system must be a name or an ID")
		return
	}
	system, err := g.Resolve(ref)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p.Arrive(system, g.Links(system))
	if s.db != nil {
		if err := s.db.SavePilot(p); err != nil {
			logger.Error("API", fmt.Sprintf("save pilot %s: %v", p.Name, err))
			writeError(w, http.StatusInternalServerError, "failed to save pilot")
			return
		}
	}
	writeJSON(w, newPilotResponse(p.Snapshot()))
}
