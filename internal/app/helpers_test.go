package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"costlaw/api/internal/auth"
	"costlaw/api/internal/caselaw"
	"costlaw/api/internal/config"
	"costlaw/api/internal/metrics"
	"costlaw/api/internal/store"
)

// fakeStore is a MemoryStore whose hooks, when set, replace single methods.
type fakeStore struct {
	*store.MemoryStore
	pingFn      func(context.Context) error
	listCasesFn func(context.Context) ([]store.Case, error)
}

func newFakeStore() *fakeStore {
	return &fakeStore{MemoryStore: store.NewMemoryStore(store.SnapshotOptions{})}
}

func (f *fakeStore) Ping(ctx context.Context) error {
	if f.pingFn != nil {
		return f.pingFn(ctx)
	}
	return f.MemoryStore.Ping(ctx)
}

func (f *fakeStore) ListCases(ctx context.Context) ([]store.Case, error) {
	if f.listCasesFn != nil {
		return f.listCasesFn(ctx)
	}
	return f.MemoryStore.ListCases(ctx)
}

type fakeNotifier struct {
	mu                 sync.Mutex
	publishCaseFn      func(context.Context, store.Case) (store.Case, error)
	queueCasePublishFn func(store.Case)
	queueContactFn     func(store.Contact)
}

func (f *fakeNotifier) PublishCase(ctx context.Context, c store.Case) (store.Case, error) {
	if f.publishCaseFn != nil {
		return f.publishCaseFn(ctx, c)
	}
	c.PublishedToDiscord = true
	return c, nil
}

func (f *fakeNotifier) QueueCasePublish(c store.Case) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queueCasePublishFn != nil {
		f.queueCasePublishFn(c)
	}
}

func (f *fakeNotifier) QueueContact(c store.Contact) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queueContactFn != nil {
		f.queueContactFn(c)
	}
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	store    *fakeStore
	notifier *fakeNotifier
	clock    *testClock
	metrics  *metrics.Metrics
	service  *Service
	handler  http.Handler
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:  "test-secret",
		TokenTTL:   auth.DefaultTTL,
		CORSOrigin: "*",
		SiteURL:    "https://costs.example",
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, testConfig())
}

func newTestEnvWithConfig(t *testing.T, cfg config.Config) *testEnv {
	t.Helper()
	env := &testEnv{
		store:    newFakeStore(),
		notifier: &fakeNotifier{},
		clock:    &testClock{now: time.Now().UTC().Truncate(time.Second)},
		metrics:  metrics.New(),
	}
	env.service = New(Options{
		Config:     cfg,
		Store:      env.store,
		Notifier:   env.notifier,
		Metrics:    env.metrics,
		BcryptCost: bcrypt.MinCost,
		Now:        env.clock.Now,
	})
	env.handler = NewHTTPServer(env.service, cfg.CORSOrigin).Handler()
	return env
}

// createUser stores a user with the given password and role.
func (e *testEnv) createUser(t *testing.T, username, password, role string) store.User {
	t.Helper()
	hash, err := e.service.passwords.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user, err := e.store.CreateUser(context.Background(), store.NewUser{
		Username: username,
		Password: hash,
		Email:    username + "@example.com",
		Name:     username,
		Role:     role,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func (e *testEnv) tokenFor(t *testing.T, user store.User) string {
	t.Helper()
	token, _, err := e.service.issuer.Issue(user.ID, user.Username, user.Role)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	return e.tokenFor(t, e.createUser(t, "admin", "admin-password", store.RoleAdmin))
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func jsonRequest(t *testing.T, method, path string, body any, token string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	decodeJSON(t, rr, &body)
	return body.Code
}

func mustParseRaw(t *testing.T, data string) []caselaw.RawCase {
	t.Helper()
	raws, err := caselaw.ParseRawCases([]byte(data))
	if err != nil {
		t.Fatalf("parse raw cases: %v", err)
	}
	return raws
}
