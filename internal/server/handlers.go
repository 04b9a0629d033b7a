package server

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/policyhub/retrieval/internal/auth"
	"github.com/policyhub/retrieval/internal/eval"
	"github.com/policyhub/retrieval/internal/repository"
	"github.com/policyhub/retrieval/internal/schema"
)

// Handlers carries the wired pipeline pieces behind the JSON API. Retrievers
// is keyed by mode name (keyword, dense, hybrid); DefaultMode is used when a
// request leaves mode empty.
type Handlers struct {
	Logger      *slog.Logger
	JWTManager  *auth.JWTManager
	APIKey      string
	Retrievers  map[string]eval.Retriever
	DefaultMode string
	Answerer    eval.Answerer
	Queries     []schema.QueryExample
	DefaultTopK int
	EvalRuns    repository.EvalRunRepository // optional
	ChunkMode   string
}

// Mount registers all API routes on the router.
func (h *Handlers) Mount(router *chi.Mux) {
	router.Post("/v1/auth/token", h.handleToken)
	router.Post("/v1/retrieve", h.handleRetrieve)
	router.Post("/v1/query", h.handleQuery)
	router.Post("/v1/evaluate", h.handleEvaluate)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("encoding response", "error", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

type tokenRequest struct {
	APIKey     string `json:"api_key"`
	ClientName string `json:"client_name"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handlers) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if h.APIKey == "" || subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(h.APIKey)) != 1 {
		h.writeError(w, http.StatusUnauthorized, "invalid API key")
		return
	}

	name := req.ClientName
	if name == "" {
		name = "api-client"
	}
	token, err := h.JWTManager.GenerateToken(uuid.New(), name)
	if err != nil {
		h.Logger.Error("generating token", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	expiry, err := h.JWTManager.TokenExpiry(token)
	if err != nil {
		h.Logger.Error("reading token expiry", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	h.writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expiry})
}

type retrieveRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
	Mode     string `json:"mode"`
}

type retrieveResponse struct {
	Mode    string                   `json:"mode"`
	Results []schema.RetrievalResult `json:"results"`
}

func (h *Handlers) retrieverFor(mode string) (eval.Retriever, string, bool) {
	if mode == "" {
		mode = h.DefaultMode
	}
	retriever, ok := h.Retrievers[mode]
	return retriever, mode, ok
}

func (h *Handlers) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		h.writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	if req.TopK <= 0 {
		req.TopK = h.DefaultTopK
	}
	retriever, mode, ok := h.retrieverFor(req.Mode)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "unknown retrieval mode: "+req.Mode)
		return
	}

	results, err := retriever.Retrieve(r.Context(), req.Question, req.TopK)
	if err != nil {
		h.Logger.Error("retrieval failed", "mode", mode, "error", err)
		h.writeError(w, http.StatusInternalServerError, "retrieval failed")
		return
	}
	if results == nil {
		results = []schema.RetrievalResult{}
	}

	h.writeJSON(w, http.StatusOK, retrieveResponse{Mode: mode, Results: results})
}

type queryRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
	Mode     string `json:"mode"`
}

type queryResponse struct {
	Answer       string                   `json:"answer"`
	Sources      []schema.RetrievalResult `json:"sources"`
	Groundedness float64                  `json:"groundedness"`
	LatencyMS    float64                  `json:"latency_ms"`
}

func (h *Handlers) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		h.writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	if req.TopK <= 0 {
		req.TopK = h.DefaultTopK
	}
	retriever, mode, ok := h.retrieverFor(req.Mode)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "unknown retrieval mode: "+req.Mode)
		return
	}

	started := time.Now()
	results, err := retriever.Retrieve(r.Context(), req.Question, req.TopK)
	if err != nil {
		h.Logger.Error("retrieval failed", "mode", mode, "error", err)
		h.writeError(w, http.StatusInternalServerError, "retrieval failed")
		return
	}
	contexts := make([]string, len(results))
	for i, result := range results {
		contexts[i] = result.Text
	}

	answer, err := h.Answerer.Answer(r.Context(), req.Question, contexts)
	if err != nil {
		h.Logger.Error("generation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "generation failed")
		return
	}

	if results == nil {
		results = []schema.RetrievalResult{}
	}
	h.writeJSON(w, http.StatusOK, queryResponse{
		Answer:       answer,
		Sources:      results,
		Groundedness: eval.Groundedness(answer, contexts),
		LatencyMS:    float64(time.Since(started).Microseconds()) / 1000.0,
	})
}

type evaluateRequest struct {
	Mode  string `json:"mode"`
	TopK  int    `json:"top_k"`
	Limit int    `json:"limit"`
}

type evaluateResponse struct {
	RunID   string           `json:"run_id,omitempty"`
	Variant string           `json:"variant"`
	Summary eval.Summary     `json:"summary"`
	Rows    []schema.EvalRow `json:"rows"`
}

func (h *Handlers) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(h.Queries) == 0 {
		h.writeError(w, http.StatusConflict, "no evaluation queries loaded")
		return
	}
	if req.TopK <= 0 {
		req.TopK = h.DefaultTopK
	}
	retriever, mode, ok := h.retrieverFor(req.Mode)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "unknown retrieval mode: "+req.Mode)
		return
	}

	queries := h.Queries
	if req.Limit > 0 && req.Limit < len(queries) {
		queries = queries[:req.Limit]
	}

	rows := make([]schema.EvalRow, 0, len(queries))
	for _, query := range queries {
		row, err := eval.EvaluateSingle(r.Context(), query, retriever, h.Answerer, req.TopK)
		if err != nil {
			h.Logger.Error("evaluation failed", "query_id", query.QueryID, "error", err)
			h.writeError(w, http.StatusInternalServerError, "evaluation failed")
			return
		}
		rows = append(rows, row)
	}
	summary := eval.Summarize(rows)

	resp := evaluateResponse{Variant: mode, Summary: summary, Rows: rows}

	if h.EvalRuns != nil {
		run := &repository.EvalRun{
			ID:         uuid.New(),
			Variant:    mode,
			ChunkMode:  h.ChunkMode,
			TopK:       req.TopK,
			QueryCount: len(rows),
			Summary:    summary,
			CreatedAt:  time.Now().UTC(),
		}
		if err := h.EvalRuns.Create(r.Context(), run, rows); err != nil {
			h.Logger.Error("persisting eval run", "error", err)
		} else {
			resp.RunID = run.ID.String()
		}
	}

	h.writeJSON(w, http.StatusOK, resp)
}
