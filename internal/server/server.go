// Package server exposes the allocation pool over HTTP. Endpoint shapes and
// defaults follow the tool's wire contract: GET / for status, POST /mem/add,
// /mem/set, /mem/free, /mem/clear to mutate, GET /health for liveness.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coolyuoo/memstress/internal/journal"
	"github.com/coolyuoo/memstress/internal/pool"
	"github.com/coolyuoo/memstress/internal/sysinfo"
)

// defaultAddMB is the grow amount when /mem/add is called without mb.
const defaultAddMB = 100

// Server translates HTTP requests into pool operations.
type Server struct {
	pool    *pool.Pool
	logger  *slog.Logger
	journal *journal.Writer // optional
	metrics *metrics
	reg     *prometheus.Registry
}

// Options configures a Server. Logger defaults to slog.Default; Journal may
// be nil to disable operation journaling.
type Options struct {
	Logger  *slog.Logger
	Journal *journal.Writer
}

// New creates a server around an existing pool.
func New(p *pool.Pool, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	reg := prometheus.NewRegistry()
	return &Server{
		pool:    p,
		logger:  opts.Logger,
		journal: opts.Journal,
		metrics: newMetrics(reg),
		reg:     reg,
	}
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleStatus)
	mux.HandleFunc("POST /mem/add", s.handleAdd)
	mux.HandleFunc("POST /mem/set", s.handleSet)
	mux.HandleFunc("POST /mem/free", s.handleFree)
	mux.HandleFunc("POST /mem/clear", s.handleClear)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))
	return mux
}

// StatusResponse is the reply to GET /
type StatusResponse struct {
	AllocatedMB int `json:"allocated_mb"`
	Groups      int `json:"groups"`
	RSSMB       int `json:"rss_mb,omitempty"`
}

// OpResponse is the reply to every successful mutating endpoint
type OpResponse struct {
	OK             bool   `json:"ok"`
	AddedMB        int    `json:"added_mb,omitempty"`
	ChunkMB        int    `json:"chunk_mb,omitempty"`
	FreedRequestMB int    `json:"freed_request_mb,omitempty"`
	TotalMB        int    `json:"total_mb"`
	Note           string `json:"note,omitempty"`
}

// ErrorResponse is the reply shape for every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.pool.Stats()
	s.metrics.observe(stats)
	s.writeJSON(w, http.StatusOK, StatusResponse{
		AllocatedMB: stats.AllocatedMB,
		Groups:      stats.Groups,
		RSSMB:       sysinfo.ResidentMB(),
	})
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	mb, err := intParam(r, "mb", defaultAddMB)
	if err != nil {
		s.writeError(w, "add", err)
		return
	}
	chunk, err := intParam(r, "chunk", s.pool.DefaultChunkMB())
	if err != nil {
		s.writeError(w, "add", err)
		return
	}

	res, err := s.pool.Grow(mb, chunk)
	if err != nil {
		s.writeError(w, "add", err)
		return
	}

	s.record(journal.Entry{Op: "grow", MB: res.AddedMB, ChunkMB: res.ChunkMB, TotalMB: res.TotalMB})
	s.metrics.operation("add", "success")
	s.metrics.observe(s.pool.Stats())
	s.logger.Info("memory added",
		slog.Int("added_mb", res.AddedMB),
		slog.Int("chunk_mb", res.ChunkMB),
		slog.Int("total_mb", res.TotalMB))

	s.writeJSON(w, http.StatusOK, OpResponse{
		OK:      true,
		AddedMB: res.AddedMB,
		ChunkMB: res.ChunkMB,
		TotalMB: res.TotalMB,
	})
}

func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	target, err := intParam(r, "mb", 0)
	if err != nil {
		s.writeError(w, "set", err)
		return
	}

	res, err := s.pool.Converge(target)
	if err != nil {
		s.writeError(w, "set", err)
		return
	}

	s.record(journal.Entry{Op: "converge", MB: target, TotalMB: res.TotalMB})
	s.metrics.operation("set", "success")
	s.metrics.observe(s.pool.Stats())
	s.logger.Info("memory set",
		slog.Int("target_mb", target),
		slog.Int("total_mb", res.TotalMB))

	resp := OpResponse{OK: true, TotalMB: res.TotalMB}
	if res.AlreadyMet {
		resp.Note = "target already met"
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFree(w http.ResponseWriter, r *http.Request) {
	mb, err := intParam(r, "mb", 0)
	if err != nil {
		s.writeError(w, "free", err)
		return
	}

	res, err := s.pool.Shrink(mb)
	if err != nil {
		s.writeError(w, "free", err)
		return
	}

	s.record(journal.Entry{Op: "shrink", MB: res.RequestedMB, TotalMB: res.TotalMB})
	s.metrics.operation("free", "success")
	s.metrics.observe(s.pool.Stats())
	s.logger.Info("memory freed",
		slog.Int("requested_mb", res.RequestedMB),
		slog.Int("total_mb", res.TotalMB))

	s.writeJSON(w, http.StatusOK, OpResponse{
		OK:             true,
		FreedRequestMB: res.RequestedMB,
		TotalMB:        res.TotalMB,
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	stats := s.pool.Clear()

	s.record(journal.Entry{Op: "clear", TotalMB: stats.AllocatedMB})
	s.metrics.operation("clear", "success")
	s.metrics.observe(stats)
	s.logger.Info("memory cleared")

	s.writeJSON(w, http.StatusOK, OpResponse{OK: true, TotalMB: stats.AllocatedMB})
}

// handleHealth reports liveness regardless of pool state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok")) //nolint:errcheck // best effort write
}

// intParam parses an integer query parameter, falling back to def when absent.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &pool.Error{
			Kind:    pool.KindInvalidArgument,
			Message: name + " must be an integer",
		}
	}
	return v, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError maps pool error kinds onto HTTP statuses: caller mistakes are
// 400, a refused reservation is 507, anything unexpected is 500.
func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case pool.IsInvalidArgument(err), pool.IsLimitExceeded(err):
		status = http.StatusBadRequest
	case pool.IsAllocationFailure(err):
		status = http.StatusInsufficientStorage
	}

	s.record(journal.Entry{Op: op, TotalMB: s.pool.Stats().AllocatedMB, Error: err.Error()})
	s.metrics.operation(op, "error")
	s.logger.Warn("request failed",
		slog.String("op", op),
		slog.Int("status", status),
		slog.String("error", err.Error()))

	s.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func (s *Server) record(entry journal.Entry) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(entry); err != nil {
		s.logger.Warn("failed to record journal entry", slog.String("error", err.Error()))
	}
}
