package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/stellarlinkco/briefclaw/internal/agent"
)

const maxTurnBody = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves GET /health and POST /api/turn behind the CORS filter.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", g.handleHealth)
	mux.HandleFunc("POST /api/turn", g.handleTurn)
	return g.cors(mux)
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"model":  g.cfg.Agent.Model,
	})
}

func (g *Gateway) handleTurn(w http.ResponseWriter, r *http.Request) {
	var in agent.TurnInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTurnBody)).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	out, err := g.agent.HandleTurn(r.Context(), in)
	if err != nil {
		if errors.Is(err, agent.ErrEmptyThread) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "thread_id is required"})
			return
		}
		g.logger.Error("turn failed", zap.String("thread", in.ThreadID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: replyError})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (g *Gateway) cors(next http.Handler) http.Handler {
	allowed := make(map[string]bool)
	for _, o := range g.cfg.Origins() {
		allowed[o] = true
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && allowed[origin] {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
