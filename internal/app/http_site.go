package app

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"costlaw/api/internal/search"
)

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	// Check database connectivity
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{
		"database": map[string]any{"status": "ok"},
	}

	if err := s.service.Ping(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		checks["database"] = map[string]any{
			"status": "error",
			"error":  err.Error(),
		}
	}

	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}

func (s *HTTPServer) handleSitemap(w http.ResponseWriter, r *http.Request) {
	body, err := s.service.Sitemap(r.Context(), s.hostname(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// hostname prefers the configured site URL and otherwise rebuilds the
// origin the request was made to.
func (s *HTTPServer) hostname(r *http.Request) string {
	if site := s.service.SiteURL(); site != "" {
		return strings.TrimRight(site, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	return scheme + "://" + r.Host
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	text := strings.TrimSpace(params.Get("q"))
	if text == "" {
		writeJSON(w, http.StatusOK, search.Response{Results: []search.Result{}, Query: ""})
		return
	}
	limit, _ := strconv.Atoi(params.Get("limit"))
	offset, _ := strconv.Atoi(params.Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	writeJSON(w, http.StatusOK, s.service.Search(r.Context(), search.Query{
		Text:       text,
		FilterType: search.ParseResultType(params.Get("type")),
		Limit:      limit,
		Offset:     offset,
	}))
}
