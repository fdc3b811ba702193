// Package api serves the shop counter over HTTP.
// GET endpoints observe the game; POST endpoints act on it. Endpoints that
// call the model are rate limited per IP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/talgya/pawnshop/internal/negotiation"
	"github.com/talgya/pawnshop/internal/notify"
	"github.com/talgya/pawnshop/internal/persistence"
	"github.com/talgya/pawnshop/internal/shop"
)

const maxSSEConns = 4

// Server exposes a negotiation controller over HTTP.
type Server struct {
	Ctl     *negotiation.Controller
	Feed    *Feed
	Store   persistence.Store // nil disables save and load
	SaveKey string
	Model   string
	Port    int

	AdminKey    string // Bearer token for save, load and profile. Empty = open
	CORSOrigins []string

	// Per-IP hourly budgets for model-consuming endpoints. 0 = default.
	CustomersPerHour int
	MessagesPerHour  int

	// Active SSE connection count (atomic).
	sseConns int32
}

// Handler builds the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	customers := s.CustomersPerHour
	if customers <= 0 {
		customers = 30
	}
	messages := s.MessagesPerHour
	if messages <= 0 {
		messages = 300
	}
	customerLimiter := NewRateLimiter(customers, time.Hour)
	messageLimiter := NewRateLimiter(messages, time.Hour)

	mux := http.NewServeMux()

	// Observation.
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/session", s.handleSession)
	mux.HandleFunc("/api/v1/inventory", s.handleInventory)
	mux.HandleFunc("/api/v1/feed", s.handleFeed)
	mux.HandleFunc("/api/v1/stream", s.handleStream)

	// Counter actions. Each of these may call the model.
	mux.HandleFunc("/api/v1/customer", RateLimitMiddleware(customerLimiter, postOnly(s.handleCustomer)))
	mux.HandleFunc("/api/v1/message", RateLimitMiddleware(messageLimiter, postOnly(s.handleMessage)))
	mux.HandleFunc("/api/v1/accept", RateLimitMiddleware(messageLimiter, postOnly(s.handleAccept)))
	mux.HandleFunc("/api/v1/end", RateLimitMiddleware(messageLimiter, postOnly(s.handleEnd)))
	mux.HandleFunc("/api/v1/appraise", postOnly(s.handleAppraise))

	// Game state.
	mux.HandleFunc("/api/v1/save", s.adminOnly(postOnly(s.handleSave)))
	mux.HandleFunc("/api/v1/load", s.adminOnly(postOnly(s.handleLoad)))
	mux.HandleFunc("/api/v1/profile", s.adminOnly(s.handleProfile))

	return corsMiddleware(s.CORSOrigins, mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", srv.Addr, "admin_auth", s.AdminKey != "", "storage", s.Store != nil)

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("HTTP API shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Localhost dev servers are always allowed.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowedOrigins[origin] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
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

func postOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly requires the bearer token on POST requests when an admin key is set.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && s.AdminKey != "" && !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	v := s.Ctl.Snapshot()
	writeJSON(w, map[string]any{
		"name":      "Pawn Shop",
		"state":     v.State,
		"thinking":  v.Thinking,
		"model":     s.Model,
		"cash":      v.Cash,
		"items":     v.Inventory,
		"player":    v.Profile.PlayerName,
		"storage":   s.Store != nil,
		"feed_last": s.Feed.Last(),
	})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Ctl.Snapshot())
}

func (s *Server) handleCustomer(w http.ResponseWriter, r *http.Request) {
	if err := s.Ctl.StartCustomer(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, s.Ctl.Snapshot())
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := s.Ctl.Send(r.Context(), req.Text); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, s.Ctl.Snapshot())
}

func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	if err := s.Ctl.Accept(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, s.Ctl.Snapshot())
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	if err := s.Ctl.End(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, s.Ctl.Snapshot())
}

func (s *Server) handleAppraise(w http.ResponseWriter, r *http.Request) {
	a, err := s.Ctl.Appraise()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"appraisal": a,
		"summary":   a.Summary(),
	})
}

func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request) {
	type inventoryEntry struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Description   string `json:"description"`
		Condition     string `json:"condition"`
		Rarity        string `json:"rarity"`
		PurchasePrice int    `json:"purchasePrice"`
		ActualValue   int    `json:"actualValue"`
	}

	inv := s.Ctl.Ledger().Inventory()
	entries := make([]inventoryEntry, 0, len(inv))
	for _, it := range inv {
		entries = append(entries, inventoryEntry{
			ID:            it.ID,
			Name:          it.Name,
			Description:   it.Description,
			Condition:     it.Condition,
			Rarity:        it.Rarity,
			PurchasePrice: it.PurchasePrice,
			ActualValue:   it.ActualValue,
		})
	}
	if r.URL.Query().Get("sort") == "value" {
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].ActualValue > entries[j].ActualValue
		})
	}

	writeJSON(w, map[string]any{
		"cash":      s.Ctl.Ledger().Cash(),
		"count":     len(entries),
		"inventory": entries,
	})
}

func (s *Server) saveKey(r *http.Request) string {
	if key := r.URL.Query().Get("key"); key != "" {
		return key
	}
	if s.SaveKey != "" {
		return s.SaveKey
	}
	return persistence.DefaultKey
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		http.Error(w, "storage not available", http.StatusServiceUnavailable)
		return
	}
	state, err := s.Ctl.SaveState()
	if err != nil {
		writeError(w, err)
		return
	}
	key := s.saveKey(r)
	if err := s.Store.Save(r.Context(), key, state); err != nil {
		slog.Error("save failed", "key", key, "error", err)
		s.Feed.Notify("Failed to save game!", notify.Error, notify.Short)
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	s.Feed.Notify("Game Saved!", notify.Success, notify.Short)
	writeJSON(w, map[string]any{"key": key, "message": "game saved"})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		http.Error(w, "storage not available", http.StatusServiceUnavailable)
		return
	}
	key := s.saveKey(r)
	state, err := s.Store.Load(r.Context(), key)
	if err != nil {
		if errors.Is(err, persistence.ErrNoSave) {
			s.Feed.Notify("No saved game found.", notify.Info, notify.Short)
		} else {
			slog.Error("load failed", "key", key, "error", err)
			s.Feed.Notify("Failed to load game! Data might be corrupted.", notify.Error, notify.Long)
		}
		writeError(w, err)
		return
	}
	if err := s.Ctl.LoadState(state); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, s.Ctl.Snapshot())
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			PlayerName  *string `json:"playerName"`
			AvatarStyle *string `json:"avatarStyle"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.PlayerName != nil {
			if err := s.Ctl.SetPlayerName(*req.PlayerName); err != nil {
				writeError(w, err)
				return
			}
		}
		if req.AvatarStyle != nil {
			s.Ctl.SetAvatarStyle(*req.AvatarStyle)
		}
		slog.Info("profile updated", "player", s.Ctl.Profile().PlayerName)
	}
	writeJSON(w, s.Ctl.Profile())
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	var since uint64
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			http.Error(w, "since must be a non-negative integer", http.StatusBadRequest)
			return
		}
		since = n
	}
	writeJSON(w, map[string]any{
		"last":   s.Feed.Last(),
		"events": s.Feed.Since(since),
	})
}

// handleStream provides an SSE endpoint for live UI events.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	current := atomic.AddInt32(&s.sseConns, 1)
	if current > maxSSEConns {
		atomic.AddInt32(&s.sseConns, -1)
		http.Error(w, "too many SSE connections", http.StatusServiceUnavailable)
		return
	}
	defer atomic.AddInt32(&s.sseConns, -1)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	subID, ch := s.Feed.Subscribe()
	defer s.Feed.Unsubscribe(subID)

	// Catch up on the last 50 events.
	events := s.Feed.Since(0)
	if len(events) > 50 {
		events = events[len(events)-50:]
	}
	for _, e := range events {
		writeSSEEvent(w, e)
	}
	flusher.Flush()

	slog.Info("SSE client connected", "sub_id", subID)

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return
			}
			writeSSEEvent(w, e)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			slog.Info("SSE client disconnected", "sub_id", subID)
			return
		}
	}
}

// writeSSEEvent writes a single event in SSE format.
func writeSSEEvent(w http.ResponseWriter, e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", e.Seq, e.Kind, data)
}

// statusFor maps controller and storage errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, negotiation.ErrBusy),
		errors.Is(err, negotiation.ErrNoSession),
		errors.Is(err, negotiation.ErrSessionActive),
		errors.Is(err, negotiation.ErrAlreadyAppraised),
		errors.Is(err, negotiation.ErrNotSeller):
		return http.StatusConflict
	case errors.Is(err, negotiation.ErrEmptyMessage),
		errors.Is(err, negotiation.ErrEmptyName):
		return http.StatusBadRequest
	case errors.Is(err, negotiation.ErrInvalidPrice),
		errors.Is(err, negotiation.ErrCannotAfford),
		errors.Is(err, shop.ErrCorruptSave):
		return http.StatusUnprocessableEntity
	case errors.Is(err, persistence.ErrNoSave):
		return http.StatusNotFound
	case errors.Is(err, negotiation.ErrSetup):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(err))
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
