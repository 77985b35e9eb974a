package ipc

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"go.klb.dev/clipvault/internal/search"
)

// httpHandler serves read-only JSON views for scripts:
//
//	GET /v1/items?q=QUERY&mode=fuzzy&limit=N
//	GET /v1/status
func (s *Server) httpHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/items", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit := 0
		if l := q.Get("limit"); l != "" {
			n, err := strconv.Atoi(l)
			if err != nil || n < 0 {
				http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
				return
			}
			limit = n
		}
		page := s.v.Search(q.Get("q"), search.Options{Mode: search.ParseMode(q.Get("mode")), Limit: limit})
		writeJSON(w, page)
	})
	mux.HandleFunc("GET /v1/status", func(w http.ResponseWriter, r *http.Request) {
		resp, _ := s.status(r.Context(), &StatusRequest{})
		writeJSON(w, resp)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("http response write failed", "err", err)
	}
}
