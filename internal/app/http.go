package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"costlaw/api/internal/auth"
	"costlaw/api/internal/logging"
	"costlaw/api/internal/store"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
	logger     *zap.Logger
	router     *mux.Router
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	s := &HTTPServer{
		service:    service,
		corsOrigin: corsOrigin,
		logger:     service.logger.Named("http"),
	}
	s.router = s.routes()
	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(s.router)
}

func (s *HTTPServer) routes() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})
	r.Use(s.service.metrics.Middleware)

	get := []string{http.MethodGet, http.MethodHead}

	r.HandleFunc("/api/health", s.handleHealth).Methods(get...)
	r.HandleFunc("/api/ready", s.handleReady).Methods(get...)
	r.HandleFunc("/sitemap.xml", s.handleSitemap).Methods(get...)
	r.Handle("/metrics", s.service.metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/api/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/logout", s.handleLogout).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/me", s.authenticated(s.handleMe)).Methods(http.MethodGet)

	r.HandleFunc("/api/search", s.handleSearch).Methods(http.MethodGet)

	r.HandleFunc("/api/services", s.handleListServices).Methods(http.MethodGet)
	r.HandleFunc("/api/services", s.admin(s.handleCreateService)).Methods(http.MethodPost)
	r.HandleFunc("/api/services/{id:[0-9]+}", s.admin(s.handleUpdateService)).Methods(http.MethodPut)
	r.HandleFunc("/api/services/{id:[0-9]+}", s.admin(s.handleDeleteService)).Methods(http.MethodDelete)
	r.HandleFunc("/api/services/{slug}", s.handleGetService).Methods(http.MethodGet)

	// Fixed case paths are registered ahead of the slug route.
	r.HandleFunc("/api/cases", s.handleListCases).Methods(http.MethodGet)
	r.HandleFunc("/api/cases", s.admin(s.handleCreateCase)).Methods(http.MethodPost)
	r.HandleFunc("/api/cases/search", s.handleSearchCases).Methods(http.MethodGet)
	r.HandleFunc("/api/cases/import", s.admin(s.handleImportCases)).Methods(http.MethodPost)
	r.HandleFunc("/api/cases/id/{id}", s.handleGetCaseByID).Methods(http.MethodGet)
	r.HandleFunc("/api/cases/{id:[0-9]+}/publish-to-discord", s.admin(s.handlePublishCase)).Methods(http.MethodPost)
	r.HandleFunc("/api/cases/{id:[0-9]+}", s.admin(s.handleUpdateCase)).Methods(http.MethodPut)
	r.HandleFunc("/api/cases/{id:[0-9]+}", s.admin(s.handleDeleteCase)).Methods(http.MethodDelete)
	r.HandleFunc("/api/cases/{slug}", s.handleGetCase).Methods(http.MethodGet)

	r.HandleFunc("/api/news", s.handleListNews).Methods(http.MethodGet)
	r.HandleFunc("/api/news", s.admin(s.handleCreateNews)).Methods(http.MethodPost)
	r.HandleFunc("/api/news/{id:[0-9]+}", s.admin(s.handleUpdateNews)).Methods(http.MethodPut)
	r.HandleFunc("/api/news/{id:[0-9]+}", s.admin(s.handleDeleteNews)).Methods(http.MethodDelete)
	r.HandleFunc("/api/news/{slug}", s.handleGetNews).Methods(http.MethodGet)

	r.HandleFunc("/api/contact", s.handleContact).Methods(http.MethodPost)
	r.HandleFunc("/api/contacts", s.admin(s.handleListContacts)).Methods(http.MethodGet)

	r.HandleFunc("/api/community", s.handleGetCommunity).Methods(http.MethodGet)
	r.HandleFunc("/api/community", s.admin(s.handleUpdateCommunity)).Methods(http.MethodPut)

	r.HandleFunc("/api/subscribe", s.handleSubscribe).Methods(http.MethodPost)
	r.HandleFunc("/api/subscriptions", s.admin(s.handleListSubscriptions)).Methods(http.MethodGet)
	r.HandleFunc("/api/subscriptions/{id:[0-9]+}", s.admin(s.handleDeleteSubscription)).Methods(http.MethodDelete)

	r.HandleFunc("/api/team", s.handleListTeam).Methods(http.MethodGet)
	r.HandleFunc("/api/team", s.admin(s.handleCreateTeamMember)).Methods(http.MethodPost)
	r.HandleFunc("/api/team/{id}", s.handleGetTeamMember).Methods(http.MethodGet)
	r.HandleFunc("/api/team/{id:[0-9]+}", s.admin(s.handleUpdateTeamMember)).Methods(http.MethodPut)
	r.HandleFunc("/api/team/{id:[0-9]+}", s.admin(s.handleDeleteTeamMember)).Methods(http.MethodDelete)

	return r
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	logged := logging.RequestLogger(s.logger)
	return logged(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w.Header(), s.corsOrigin)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// fail writes the mapped error response and logs unexpected failures.
func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message, details := mapError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	writeError(w, status, code, message, details)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	if corsOrigin != "*" {
		header.Set("Access-Control-Allow-Credentials", "true")
	}
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func noContent(w http.ResponseWriter) {
	w.Header().Del("Content-Type")
	w.WriteHeader(http.StatusNoContent)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

// decode reads a JSON body into target, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := decodeBody(r, target); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return false
	}
	return true
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func cookieToken(r *http.Request) string {
	cookie, err := r.Cookie(auth.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// pathID parses the {id} route variable, writing a 400 when it is not a
// positive integer.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid id", nil)
		return 0, false
	}
	return id, true
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	if errors.Is(err, store.ErrConflict) {
		return http.StatusConflict, "CONFLICT", "Conflict", nil
	}
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
