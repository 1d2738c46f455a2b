package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type fakeIdempotencyStore struct {
	values map[string]string
	setNX  int
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{values: map[string]string{}}
}

func (s *fakeIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (s *fakeIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.setNX++
	if _, ok := s.values[key]; ok {
		return false, nil
	}
	s.values[key] = value.(string)
	return true, nil
}

func (s *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "bm:idempotency:" + scope + ":" + id
}

func (s *fakeIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func idempotentRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+uuid.NewString()+"/status", strings.NewReader(body))
	req.Header.Set("Idempotency-Key", "key-1")
	ctx := WithUserID(req.Context(), uuid.NewString())
	ctx = WithRole(ctx, "admin")
	return req.WithContext(ctx)
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":{"status":"processing"}}`))
	})
	handler := Idempotency(store, testAuthLogger())(next)

	first := idempotentRequest(`{"target":"processing"}`)
	firstResp := httptest.NewRecorder()
	handler.ServeHTTP(firstResp, first)
	if firstResp.Code != http.StatusOK {
		t.Fatalf("unexpected first status %d", firstResp.Code)
	}

	// same user, path, key, and body replays without hitting the handler
	second := httptest.NewRequest(http.MethodPost, first.URL.Path, strings.NewReader(`{"target":"processing"}`))
	second.Header.Set("Idempotency-Key", "key-1")
	second = second.WithContext(first.Context())
	secondResp := httptest.NewRecorder()
	handler.ServeHTTP(secondResp, second)

	if calls != 1 {
		t.Fatalf("expected handler called once, got %d", calls)
	}
	if secondResp.Code != http.StatusOK {
		t.Fatalf("unexpected replay status %d", secondResp.Code)
	}
	if secondResp.Body.String() != firstResp.Body.String() {
		t.Fatalf("replayed body mismatch: %q vs %q", secondResp.Body.String(), firstResp.Body.String())
	}
	if ct := secondResp.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("replay lost content type, got %q", ct)
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newFakeIdempotencyStore()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":{}}`))
	})
	handler := Idempotency(store, testAuthLogger())(next)

	first := idempotentRequest(`{"target":"processing"}`)
	handler.ServeHTTP(httptest.NewRecorder(), first)

	second := httptest.NewRequest(http.MethodPost, first.URL.Path, strings.NewReader(`{"target":"ready"}`))
	second.Header.Set("Idempotency-Key", "key-1")
	second = second.WithContext(first.Context())
	secondResp := httptest.NewRecorder()
	handler.ServeHTTP(secondResp, second)

	if secondResp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", secondResp.Code)
	}
}

func TestIdempotencyRequiresHeaderOnGuardedRoute(t *testing.T) {
	store := newFakeIdempotencyStore()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run")
	})
	handler := Idempotency(store, testAuthLogger())(next)

	req := idempotentRequest(`{}`)
	req.Header.Del("Idempotency-Key")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestIdempotencySkipsUnguardedRoutes(t *testing.T) {
	store := newFakeIdempotencyStore()
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	handler := Idempotency(store, testAuthLogger())(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if !called {
		t.Fatal("expected unguarded route to pass through")
	}
	if store.setNX != 0 {
		t.Fatalf("expected no writes for unguarded route, got %d", store.setNX)
	}
}
