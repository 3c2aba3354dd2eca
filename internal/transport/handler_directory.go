package transport

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func handleDirectory(dir DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		typeKey := chi.URLParam(r, "objectType")
		query := r.URL.Query().Get("q")
		page := intParam(r, "page", 1)
		limit := intParam(r, "limit", 0)

		WriteResult(w, dir.List(r.Context(), typeKey, query, page, limit))
	}
}

func intParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
