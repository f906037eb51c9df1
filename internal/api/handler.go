package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/bayesnet/internal/config"
	"github.com/gyaneshwarpardhi/bayesnet/internal/engine"
	"github.com/gyaneshwarpardhi/bayesnet/internal/history"
	"github.com/gyaneshwarpardhi/bayesnet/internal/metrics"
	"github.com/gyaneshwarpardhi/bayesnet/internal/query"
)

const maxHistoryLimit = 500

// Reloader re-reads the service config and applies it.
type Reloader interface {
	Reload() (*config.ServiceConfig, error)
}

// HistoryReader lists recorded diagnoses.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]history.Record, error)
}

// Options wires the optional parts of the API. Nil fields disable their routes.
type Options struct {
	Reloader       Reloader
	History        HistoryReader
	RateLimitRPS   float64
	RateLimitBurst int
}

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng      *engine.Engine
	opts     Options
	validate *validator.Validate
	mux      *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(eng *engine.Engine, opts Options) http.Handler {
	h := &Handler{
		eng:      eng,
		opts:     opts,
		validate: validator.New(),
		mux:      http.NewServeMux(),
	}

	h.mux.HandleFunc("POST /v1/infer", h.infer)
	h.mux.HandleFunc("GET /v1/nodes", h.listNodes)
	h.mux.HandleFunc("GET /v1/nodes/{name}", h.describeNode)
	h.mux.HandleFunc("GET /v1/nodes/{name}/children", h.nodeChildren)
	h.mux.HandleFunc("GET /v1/nodes/{name}/cpt", h.nodeCPT)
	if opts.History != nil {
		h.mux.HandleFunc("GET /v1/queries", h.listQueries)
	}
	if opts.Reloader != nil {
		h.mux.HandleFunc("POST /v1/network/reload", h.reloadNetwork)
	}
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(rateLimitMiddleware(opts.RateLimitRPS, opts.RateLimitBurst, h.mux))
}

// inferRequest accepts either a single target or a list of targets.
type inferRequest struct {
	Evidence  map[string]string `json:"evidence"`
	Target    string            `json:"target"`
	Targets   []string          `json:"targets"`
	Algorithm string            `json:"algorithm"`
	Samples   int               `json:"samples"`
	Seed      *uint64           `json:"seed"`
}

// POST /v1/infer — synchronous diagnosis.
func (h *Handler) infer(w http.ResponseWriter, r *http.Request) {
	var req inferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	targets := req.Targets
	if req.Target != "" {
		targets = append([]string{req.Target}, targets...)
	}
	q := &query.Query{
		ID:         uuid.New().String(),
		Evidence:   req.Evidence,
		Targets:    targets,
		Algorithm:  req.Algorithm,
		Samples:    req.Samples,
		Seed:       req.Seed,
		ReceivedAt: time.Now(),
	}
	if err := h.validate.Struct(q); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.eng.Infer(r.Context(), q)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /v1/nodes — node names in evaluation order.
func (h *Handler) listNodes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"nodes": h.eng.NodeNames(),
	})
}

// GET /v1/nodes/{name}
func (h *Handler) describeNode(w http.ResponseWriter, r *http.Request) {
	info, err := h.eng.Describe(r.PathValue("name"))
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// GET /v1/nodes/{name}/children
func (h *Handler) nodeChildren(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	children, err := h.eng.Children(name)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"node":     name,
		"children": children,
	})
}

// GET /v1/nodes/{name}/cpt
func (h *Handler) nodeCPT(w http.ResponseWriter, r *http.Request) {
	cpt, err := h.eng.CPT(r.PathValue("name"))
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cpt)
}

// GET /v1/queries?limit=N — most recent diagnoses first.
func (h *Handler) listQueries(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxHistoryLimit {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be an integer in [1, %d]", maxHistoryLimit))
			return
		}
		limit = n
	}
	records, err := h.opts.History.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []history.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"queries": records})
}

// POST /v1/network/reload — re-read the config and swap in the rebuilt network.
func (h *Handler) reloadNetwork(w http.ResponseWriter, r *http.Request) {
	if _, err := h.opts.Reloader.Reload(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reloaded": true,
		"nodes":    h.eng.Network().Len(),
	})
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 if the query queue is >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ready",
		"queue_utilization": util,
	})
}
