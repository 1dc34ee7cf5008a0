package app

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"costlaw/api/internal/auth"
	"costlaw/api/internal/rbac"
)

type identityKey struct{}

type authedHandler func(w http.ResponseWriter, r *http.Request, claims auth.Claims)

func identityFrom(ctx context.Context) (auth.Claims, bool) {
	claims, ok := ctx.Value(identityKey{}).(auth.Claims)
	return claims, ok
}

// requireAuth resolves the caller from the bearer header, then the token
// cookie. A cookie session is re-issued with a fresh expiry on every
// request.
func (s *HTTPServer) requireAuth(w http.ResponseWriter, r *http.Request) (auth.Claims, bool) {
	token := bearerToken(r)
	fromCookie := false
	if token == "" {
		token = cookieToken(r)
		fromCookie = token != ""
	}
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
		return auth.Claims{}, false
	}

	claims, err := s.service.Authenticate(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) || errors.Is(err, auth.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token", nil)
			return auth.Claims{}, false
		}
		s.fail(w, r, err)
		return auth.Claims{}, false
	}

	if fromCookie {
		renewed, _, err := s.service.Renew(claims)
		if err != nil {
			s.logger.Warn("session renewal failed", zap.Int64("user_id", claims.UserID), zap.Error(err))
		} else {
			http.SetCookie(w, auth.SessionCookie(renewed, s.service.TokenTTL(), s.service.CookieSecure()))
		}
	}
	return claims, true
}

func (s *HTTPServer) authenticated(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := s.requireAuth(w, r)
		if !ok {
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, claims)), claims)
	}
}

// admin wraps an http.HandlerFunc that manages site content.
func (s *HTTPServer) admin(next http.HandlerFunc) http.HandlerFunc {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request, claims auth.Claims) {
		if !rbac.Can(rbac.Normalize(claims.Role), rbac.ActionManage) {
			s.forbid(w, claims)
			return
		}
		next(w, r)
	})
}

// forbid writes a 403 Forbidden response and logs the denial
func (s *HTTPServer) forbid(w http.ResponseWriter, claims auth.Claims) {
	s.logger.Warn("admin access denied", zap.Int64("user_id", claims.UserID), zap.String("role", claims.Role))
	writeError(w, http.StatusForbidden, "FORBIDDEN", "Admin access required", nil)
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decode(w, r, &body) {
		return
	}

	result, err := s.service.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	http.SetCookie(w, auth.SessionCookie(result.Token, s.service.TokenTTL(), s.service.CookieSecure()))
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   result.Token,
		"user": map[string]any{
			"id":       result.User.ID,
			"username": result.User.Username,
			"name":     result.User.Name,
			"role":     result.User.Role,
		},
	})
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		token = cookieToken(r)
	}
	if err := s.service.Logout(r.Context(), token); err != nil {
		s.logger.Warn("token revocation failed", zap.Error(err))
	}
	http.SetCookie(w, auth.ClearedCookie(s.service.CookieSecure()))
	writeJSON(w, http.StatusOK, map[string]any{"message": "Logged out successfully"})
}

func (s *HTTPServer) handleMe(w http.ResponseWriter, _ *http.Request, claims auth.Claims) {
	writeJSON(w, http.StatusOK, map[string]any{
		"id":       claims.UserID,
		"username": claims.Username,
		"role":     claims.Role,
	})
}
