package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"costlaw/api/internal/auth"
	"costlaw/api/internal/store"
)

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	return nil
}

func TestLoginSetsCookieAndReturnsToken(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "william", "correct-horse", store.RoleAdmin)

	rr := env.do(jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "william",
		"password": "correct-horse",
	}, ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Message string `json:"message"`
		Token   string `json:"token"`
		User    struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
			Role     string `json:"role"`
		} `json:"user"`
	}
	decodeJSON(t, rr, &body)
	if body.Token == "" {
		t.Fatal("expected a token in the response")
	}
	if body.User.Username != "william" || body.User.Role != store.RoleAdmin {
		t.Errorf("unexpected user %+v", body.User)
	}

	cookie := sessionCookie(rr)
	if cookie == nil {
		t.Fatal("expected a token cookie")
	}
	if !cookie.HttpOnly || cookie.SameSite != http.SameSiteLaxMode || cookie.Path != "/" {
		t.Errorf("unexpected cookie attributes %+v", cookie)
	}
	if cookie.MaxAge != int(auth.DefaultTTL/time.Second) {
		t.Errorf("cookie MaxAge = %d", cookie.MaxAge)
	}
	if cookie.Value != body.Token {
		t.Error("cookie should carry the issued token")
	}
}

func TestLoginValidation(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "william"}, ""))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	var body struct {
		Code    string       `json:"code"`
		Details []FieldError `json:"details"`
	}
	decodeJSON(t, rr, &body)
	if body.Code != "VALIDATION_FAILED" {
		t.Errorf("code = %q", body.Code)
	}
	if len(body.Details) != 1 || body.Details[0].Field != "password" {
		t.Errorf("details = %+v, want the password field", body.Details)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "william", "correct-horse", store.RoleAdmin)

	rr := env.do(jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "william",
		"password": "battery-staple",
	}, ""))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
	if code := errorCode(t, rr); code != "INVALID_CREDENTIALS" {
		t.Errorf("code = %q", code)
	}
	if sessionCookie(rr) != nil {
		t.Error("a failed login must not set a cookie")
	}
}

func TestMeRequiresAuthentication(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
	var body map[string]any
	decodeJSON(t, rr, &body)
	if body["error"] != "Authentication required" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestMeWithBearerToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "editor", "pw", store.RoleUser)

	rr := env.do(jsonRequest(t, http.MethodGet, "/api/auth/me", nil, env.tokenFor(t, user)))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var body struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	decodeJSON(t, rr, &body)
	if body.ID != user.ID || body.Username != "editor" || body.Role != store.RoleUser {
		t.Errorf("unexpected identity %+v", body)
	}
	if sessionCookie(rr) != nil {
		t.Error("bearer sessions are not re-issued as cookies")
	}
}

func TestCookieSessionSlides(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "editor", "pw", store.RoleUser)

	original, originalClaims, err := env.service.issuer.Issue(user.ID, user.Username, user.Role)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	env.clock.Advance(3 * 24 * time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: original})
	rr := env.do(req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	refreshed := sessionCookie(rr)
	if refreshed == nil {
		t.Fatal("expected a refreshed token cookie")
	}
	claims, err := env.service.issuer.Parse(refreshed.Value)
	if err != nil {
		t.Fatalf("refreshed token does not verify: %v", err)
	}
	if !claims.ExpiresAt.After(originalClaims.ExpiresAt.Time) {
		t.Errorf("refreshed expiry %v should be later than %v", claims.ExpiresAt, originalClaims.ExpiresAt)
	}
	if claims.UserID != user.ID || claims.Role != store.RoleUser {
		t.Errorf("refreshed token changed identity: %+v", claims)
	}
}

func TestExpiredTokenRejectedByBothTransports(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "editor", "pw", store.RoleUser)
	token := env.tokenFor(t, user)
	env.clock.Advance(auth.DefaultTTL + time.Minute)

	bearer := env.do(jsonRequest(t, http.MethodGet, "/api/auth/me", nil, token))
	if bearer.Code != http.StatusUnauthorized {
		t.Errorf("bearer: expected status 401, got %d", bearer.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	cookie := env.do(req)
	if cookie.Code != http.StatusUnauthorized {
		t.Errorf("cookie: expected status 401, got %d", cookie.Code)
	}
	var body map[string]any
	decodeJSON(t, cookie, &body)
	if body["error"] != "Invalid or expired token" {
		t.Errorf("error = %v", body["error"])
	}
	if sessionCookie(cookie) != nil {
		t.Error("an expired cookie must not be renewed")
	}
}

func TestAdminRoutesForbidRegularUsers(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "editor", "pw", store.RoleUser)

	rr := env.do(jsonRequest(t, http.MethodPost, "/api/cases", map[string]string{"title": "x"}, env.tokenFor(t, user)))

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rr.Code)
	}
	if code := errorCode(t, rr); code != "FORBIDDEN" {
		t.Errorf("code = %q", code)
	}
}

func TestAdminRoutesRequireAuthentication(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(jsonRequest(t, http.MethodDelete, "/api/cases/1", nil, ""))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "editor", "pw", store.RoleUser)
	token := env.tokenFor(t, user)

	rr := env.do(jsonRequest(t, http.MethodPost, "/api/auth/logout", nil, token))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	cleared := sessionCookie(rr)
	if cleared == nil || cleared.MaxAge >= 0 || cleared.Value != "" {
		t.Errorf("expected a cleared cookie, got %+v", cleared)
	}

	after := env.do(jsonRequest(t, http.MethodGet, "/api/auth/me", nil, token))
	if after.Code != http.StatusUnauthorized {
		t.Errorf("expected revoked token to get 401, got %d", after.Code)
	}
}

func TestLogoutWithoutTokenStillClearsCookie(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if sessionCookie(rr) == nil {
		t.Error("expected a cleared cookie")
	}
}
