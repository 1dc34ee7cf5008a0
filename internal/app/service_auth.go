package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"costlaw/api/internal/auth"
	"costlaw/api/internal/authpw"
	"costlaw/api/internal/store"
)

type LoginResult struct {
	Token  string
	Claims auth.Claims
	User   store.User
}

func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var v validator
	v.require("username", username)
	v.check(password != "", "password", "is required")
	if err := v.err("Username and password are required"); err != nil {
		return LoginResult{}, err
	}

	user, err := s.passwords.SignIn(ctx, strings.TrimSpace(username), password)
	if errors.Is(err, authpw.ErrInvalidCredentials) || errors.Is(err, authpw.ErrMissingCredentials) {
		return LoginResult{}, domainError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials", nil)
	}
	if err != nil {
		return LoginResult{}, err
	}

	token, claims, err := s.issuer.Issue(user.ID, user.Username, user.Role)
	if err != nil {
		return LoginResult{}, err
	}
	s.logger.Info("user logged in", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return LoginResult{Token: token, Claims: claims, User: user}, nil
}

// Authenticate verifies a session token and rejects revoked ones.
func (s *Service) Authenticate(ctx context.Context, token string) (auth.Claims, error) {
	claims, err := s.issuer.Parse(token)
	if err != nil {
		return auth.Claims{}, err
	}
	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return auth.Claims{}, auth.ErrInvalidToken
	}
	return claims, nil
}

// Renew issues a replacement token with a fresh expiry window.
func (s *Service) Renew(claims auth.Claims) (string, auth.Claims, error) {
	return s.issuer.Renew(claims)
}

// Logout revokes the presented token until it would have expired. Tokens
// that no longer verify need no revocation.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.issuer.Parse(token)
	if err != nil {
		return nil
	}
	expiresAt := s.now().Add(s.issuer.TTL())
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.revoker.RevokeToken(ctx, claims.ID, expiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	s.logger.Info("user logged out", zap.Int64("user_id", claims.UserID))
	return nil
}

func (s *Service) TokenTTL() time.Duration {
	return s.issuer.TTL()
}

func (s *Service) CookieSecure() bool {
	return s.cfg.CookieSecure
}

func (s *Service) SiteURL() string {
	return s.cfg.SiteURL
}
