// Package api provides the HTTP control plane for the game.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token and are rate limited per IP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/talgya/underworld/internal/catalog"
	"github.com/talgya/underworld/internal/engine"
	"github.com/talgya/underworld/internal/metrics"
	"github.com/talgya/underworld/internal/persistence"
	"github.com/talgya/underworld/internal/result"
	"github.com/talgya/underworld/internal/territory"
)

// Server serves the game over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB
	Metrics  *metrics.Collector
	Hub      *Hub
	Limiter  *RateLimiter
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
	Origins  []string

	srv *http.Server
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(s.Origins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints.
		r.Get("/status", s.handleStatus)
		r.Get("/catalog", s.handleCatalog)
		r.Get("/business", s.handleBusiness)
		r.Get("/territory", s.handleTerritory)
		r.Get("/crew", s.handleCrew)
		r.Get("/events", s.handleEvents)
		r.Get("/quote/{drug}", s.handleQuote)
		r.Get("/speed", s.handleSpeed)
		if s.Hub != nil {
			r.Get("/stream", s.Hub.ServeWs)
		}

		// Admin endpoints.
		r.Group(func(r chi.Router) {
			r.Use(s.adminOnly)
			if s.Limiter != nil {
				r.Use(s.Limiter.Middleware)
			}
			r.Post("/speed", s.handleSpeed)
			r.Post("/save", s.handleSave)
			r.Post("/businesses/{id}/buy", s.action(s.Sim.BuyBusiness))
			r.Post("/businesses/{id}/upgrade", s.action(s.Sim.UpgradeBusiness))
			r.Post("/warehouses/{id}/buy", s.action(s.Sim.BuyWarehouse))
			r.Post("/contracts/{id}/buy", s.action(s.Sim.BuyContract))
			r.Post("/contracts/{id}/dispatch", s.handleDispatch)
			r.Post("/territories/{id}/fortify", s.action(s.Sim.Fortify))
			r.Post("/territories/{id}/assign", s.handleAssign)
			r.Post("/sell", s.handleSell)
			r.Post("/crew", s.handleHire)
			r.Post("/crew/{id}/train", s.handleTrain)
			r.Post("/crew/{id}/unassign", s.action(s.Sim.UnassignDealer))
			r.Post("/crew/{id}/fire", s.action(s.Sim.FireDealer))
		})
	})
	return r
}

// Start begins serving in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// corsMiddleware adds CORS headers for allowed frontend origins. Localhost
// dev servers are always allowed.
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	allowed := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = true
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); allowed[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && token == s.AdminKey
}

// adminOnly requires the admin bearer token.
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no UNDERWORLD_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// action adapts a single-id simulation call to a handler.
func (s *Server) action(fn func(id string) result.Result) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, fn(chi.URLParam(r, "id")), nil)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.Sim.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"name":   "Underworld",
		"status": st,
		"speed":  s.speed(),
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sim.Business.Catalog())
}

func (s *Server) handleBusiness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sim.Business.Snapshot())
}

func (s *Server) handleTerritory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"state":   s.Sim.Territory.Snapshot(),
		"bonuses": s.Sim.Territory.ActiveBonuses(),
	})
}

func (s *Server) handleCrew(w http.ResponseWriter, r *http.Request) {
	type member struct {
		territory.Dealer
		Territory string  `json:"territory,omitempty"`
		TrainCost float64 `json:"train_cost"`
	}
	terr := s.Sim.Territory.Snapshot()
	crew := s.Sim.Crew.List()
	out := make([]member, 0, len(crew))
	for _, d := range crew {
		where, _ := terr.DealerTerritory(d.ID)
		out = append(out, member{Dealer: d, Territory: where, TrainCost: engine.TrainCost(d.Level)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			http.Error(w, "limit must be 1-500", http.StatusBadRequest)
			return
		}
		limit = n
	}
	if s.DB == nil {
		writeJSON(w, http.StatusOK, s.Sim.Business.Snapshot().Events)
		return
	}
	events, err := s.DB.RecentEvents(limit)
	if err != nil {
		slog.Error("failed to read events", "error", err)
		http.Error(w, "failed to read events", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	drug := catalog.Drug(chi.URLParam(r, "drug"))
	if s.Sim.Business.Catalog().BasePrice(drug) <= 0 {
		http.Error(w, "unknown drug", http.StatusNotFound)
		return
	}
	quality := 50.0
	if v := r.URL.Query().Get("quality"); v != "" {
		q, err := strconv.ParseFloat(v, 64)
		if err != nil || q < 0 || q > 100 {
			http.Error(w, "quality must be 0-100", http.StatusBadRequest)
			return
		}
		quality = q
	}
	ppg, bonus, demand := s.Sim.Quote(drug, quality)
	writeJSON(w, http.StatusOK, map[string]any{
		"drug":           drug,
		"quality":        quality,
		"price_per_gram": ppg,
		"bonus":          bonus,
		"demand":         demand,
		"in_stock":       s.Sim.Business.Snapshot().StockOf(drug),
	})
}

func (s *Server) speed() float64 {
	if s.Eng == nil {
		return 0
	}
	return s.Eng.Speed()
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		if s.Eng == nil {
			http.Error(w, "no engine", http.StatusServiceUnavailable)
			return
		}
		s.Eng.SetSpeed(req.Speed)
	}
	writeJSON(w, http.StatusOK, map[string]float64{"speed": s.speed()})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "persistence disabled", http.StatusServiceUnavailable)
		return
	}
	if err := s.DB.SaveGame(s.Sim); err != nil {
		slog.Error("manual save failed", "error", err)
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"saved": true, "time": engine.SimTime(s.Sim.GameMinutes())})
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	res, sh := s.Sim.DispatchShipment(chi.URLParam(r, "id"))
	writeResult(w, res, sh)
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DealerID string `json:"dealer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	writeResult(w, s.Sim.AssignDealer(chi.URLParam(r, "id"), req.DealerID), nil)
}

func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Drug       catalog.Drug `json:"drug"`
		Grams      int          `json:"grams"`
		PreferBest *bool        `json:"prefer_best"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	preferBest := req.PreferBest == nil || *req.PreferBest
	sale, res := s.Sim.SellStock(req.Drug, req.Grams, preferBest)
	writeResult(w, res, sale)
}

func (s *Server) handleHire(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string               `json:"name"`
		Type  territory.DealerType `json:"type"`
		Level int                  `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Level == 0 {
		req.Level = 1
	}
	d, res := s.Sim.HireDealer(req.Name, req.Type, req.Level)
	writeResult(w, res, d)
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	d, res := s.Sim.TrainDealer(chi.URLParam(r, "id"))
	writeResult(w, res, d)
}

// statusFor maps a refusal to an HTTP status.
func statusFor(res result.Result) int {
	switch res.Reason {
	case result.ReasonNone:
		return http.StatusOK
	case result.ReasonNotFound:
		return http.StatusNotFound
	case result.ReasonInvalid:
		return http.StatusBadRequest
	case result.ReasonInsufficientFunds:
		return http.StatusPaymentRequired
	case result.ReasonLevelTooLow:
		return http.StatusForbidden
	default:
		return http.StatusConflict
	}
}

// writeResult writes an action outcome, attaching data on success.
func writeResult(w http.ResponseWriter, res result.Result, data any) {
	body := map[string]any{"result": res}
	if res.OK && data != nil {
		body["data"] = data
	}
	writeJSON(w, statusFor(res), body)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
