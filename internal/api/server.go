// Package api provides the HTTP and WebSocket server.
package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/atlas-desktop/tradestats/internal/analytics"
	"github.com/atlas-desktop/tradestats/internal/journal"
	"github.com/atlas-desktop/tradestats/internal/observability"
	"github.com/atlas-desktop/tradestats/internal/report"
	"github.com/atlas-desktop/tradestats/pkg/types"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Server is the HTTP/WebSocket API server
type Server struct {
	logger     *zap.Logger
	config     *types.ServerConfig
	router     *mux.Router
	handler    http.Handler
	httpServer *http.Server
	upgrader   websocket.Upgrader
	hub        *Hub
	reports    *report.Service
	metrics    *observability.Metrics
	limiter    *rate.Limiter
}

// computeRequest is the object form of a metrics request body
type computeRequest struct {
	Trades          []analytics.RawTrade `json:"trades"`
	StartingCapital float64              `json:"startingCapital"`
}

type computeBody struct {
	Trades          []json.RawMessage `json:"trades"`
	StartingCapital float64           `json:"startingCapital"`
}

type batchRequest struct {
	Requests []report.BatchRequest `json:"requests"`
}

// NewServer creates a new API server. hub and metrics may be nil.
func NewServer(logger *zap.Logger, config *types.ServerConfig, reports *report.Service, hub *Hub, metrics *observability.Metrics) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.WebSocketPath == "" {
		config.WebSocketPath = "/ws"
	}

	server := &Server{
		logger:  logger,
		config:  config,
		router:  mux.NewRouter(),
		hub:     hub,
		reports: reports,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(config.AllowedOrigins),
		},
	}
	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst <= 0 {
			burst = int(config.RateLimit) + 1
		}
		server.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}

	server.setupRoutes()
	server.handler = cors.New(cors.Options{
		AllowedOrigins: config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}).Handler(server.router)

	return server
}

// setupRoutes configures HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(s.instrument)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}
	if s.hub != nil {
		s.router.HandleFunc(s.config.WebSocketPath, s.handleWebSocket)
	}

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.Use(s.rateLimit)

	v1.HandleFunc("/metrics", s.handleComputeMetrics).Methods("POST")
	v1.HandleFunc("/metrics/batch", s.handleComputeBatch).Methods("POST")
	v1.HandleFunc("/daily", s.handleDaily).Methods("POST")
	v1.HandleFunc("/journals", s.handleListJournals).Methods("GET")
	v1.HandleFunc("/journals/{name}", s.handlePutJournal).Methods("PUT")
	v1.HandleFunc("/journals/{name}/metrics", s.handleJournalMetrics).Methods("GET")
}

// Router returns the mux router
func (s *Server) Router() *mux.Router {
	return s.router
}

// Handler returns the router wrapped with CORS
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting API server", zap.String("addr", addr))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status": "healthy",
		"time":   time.Now().Unix(),
	}
	if s.hub != nil {
		resp["websocketClients"] = s.hub.ClientCount()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleComputeMetrics(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeTrades(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, s.reports.Compute(r.Context(), req.Trades, req.StartingCapital))
}

func (s *Server) handleComputeBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := s.decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Requests) == 0 {
		writeError(w, http.StatusBadRequest, "requests must not be empty")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"results": s.reports.ComputeBatch(r.Context(), req.Requests),
	})
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeTrades(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"daily": s.reports.Daily(r.Context(), req.Trades),
	})
}

func (s *Server) handleListJournals(w http.ResponseWriter, r *http.Request) {
	names, err := s.reports.ListJournals(r.Context())
	if err != nil {
		s.logger.Error("Failed to list journals", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list journals")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"journals": names})
}

func (s *Server) handleJournalMetrics(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	rep, err := s.reports.ComputeJournal(r.Context(), name)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handlePutJournal(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var trades []analytics.RawTrade
	if strings.HasPrefix(r.Header.Get("Content-Type"), "text/csv") {
		body, err := io.ReadAll(s.limitBody(r))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read body")
			return
		}
		trades, err = journal.DecodeCSV(bytes.NewReader(body))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		req, err := s.decodeTrades(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		trades = req.Trades
	}

	meta, err := s.reports.ImportJournal(r.Context(), name, trades)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, meta)
}

// handleWebSocket upgrades the connection and attaches it to the hub
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(uuid.New().String(), s.hub, conn)
	if !s.hub.Register(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

// decodeTrades accepts either a bare JSON array of trades or a
// computeRequest object.
func (s *Server) decodeTrades(r *http.Request) (*computeRequest, error) {
	var raw json.RawMessage
	if err := s.decodeBody(r, &raw); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	req := &computeRequest{}
	if len(trimmed) > 0 && trimmed[0] == '[' {
		trades, err := journal.DecodeJSON(bytes.NewReader(trimmed))
		if err != nil {
			return nil, err
		}
		req.Trades = trades
		return req, nil
	}

	var body computeBody
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	req.Trades = journal.DecodeRecords(body.Trades)
	req.StartingCapital = body.StartingCapital
	return req, nil
}

func (s *Server) decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(s.limitBody(r))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) limitBody(r *http.Request) io.Reader {
	if s.config.MaxBodyBytes > 0 {
		return http.MaxBytesReader(nil, r.Body, s.config.MaxBodyBytes)
	}
	return r.Body
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, journal.ErrJournalNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, journal.ErrInvalidName):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("Journal operation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "journal operation failed")
	}
}

// rateLimit rejects requests once the token bucket is empty
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			if s.metrics != nil {
				s.metrics.RateLimited.Inc()
			}
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// instrument records request counts and latency per route template
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}

		if s.metrics != nil {
			s.metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
			s.metrics.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the WebSocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
