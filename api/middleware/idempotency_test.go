package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/repairops-backend/pkg/errors"
)

// memoryReplayStore is an in-process stand-in for the redis replay cache.
type memoryReplayStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemoryReplayStore() *memoryReplayStore {
	return &memoryReplayStore{values: map[string]string{}}
}

func (m *memoryReplayStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, found := m.values[key]
	if !found {
		return "", redis.Nil
	}
	return value, nil
}

func (m *memoryReplayStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.values[key]; taken {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryReplayStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value.(string)
	return nil
}

func (m *memoryReplayStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func (m *memoryReplayStore) IdempotencyKey(scope, id string) string {
	return "test:" + scope + ":" + id
}

// send posts body to path with the given Idempotency-Key ("" omits it).
func send(t *testing.T, h http.Handler, path, key, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Error.Code
}

func TestRouteTTL(t *testing.T) {
	cases := []struct {
		method, path string
		guarded      bool
	}{
		{http.MethodPost, "/api/v1/quotations", true},
		{http.MethodPost, "/api/v1/pendencies", true},
		{http.MethodPost, "/api/v1/quotations/{quotationId}/claim", false},
		{http.MethodGet, "/api/v1/quotations", false},
	}
	for _, tc := range cases {
		ttl, guarded := routeTTL(tc.method, tc.path)
		assert.Equal(t, tc.guarded, guarded, "%s %s", tc.method, tc.path)
		if guarded {
			assert.Equal(t, createRecordTTL, ttl)
		}
	}
}

func TestCreateWithoutKeyIsRejected(t *testing.T) {
	calls := 0
	h := Idempotency(newMemoryReplayStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	rec := send(t, h, "/api/v1/quotations", "", `{"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), errorCode(t, rec))

	rec = send(t, h, "/api/v1/quotations", strings.Repeat("k", maxIdempotencyKeyLen+1), `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, calls)
}

func TestRetryReplaysFirstResponse(t *testing.T) {
	calls := 0
	h := Idempotency(newMemoryReplayStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sequence_number":7}`))
	}))

	first := send(t, h, "/api/v1/pendencies", "k-1", `{"part_code":"X"}`)
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get(replayedHeader))

	again := send(t, h, "/api/v1/pendencies", "k-1", `{"part_code":"X"}`)
	assert.Equal(t, http.StatusCreated, again.Code)
	assert.Equal(t, "true", again.Header().Get(replayedHeader))
	assert.Equal(t, "application/json", again.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"sequence_number":7}`, again.Body.String())
	assert.Equal(t, 1, calls)
}

func TestReusedKeyWithDifferentBodyConflicts(t *testing.T) {
	h := Idempotency(newMemoryReplayStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	send(t, h, "/api/v1/quotations", "xyz", `{"notes":"a"}`)
	rec := send(t, h, "/api/v1/quotations", "xyz", `{"notes":"b"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeIdempotency), errorCode(t, rec))
}

func TestKeysAreScopedPerUser(t *testing.T) {
	calls := 0
	h := Idempotency(newMemoryReplayStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	for _, user := range []string{"user-a", "user-b"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/pendencies", strings.NewReader(`{}`))
		req = req.WithContext(context.WithValue(req.Context(), ctxUserID, user))
		req.Header.Set(idempotencyHeader, "same")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	assert.Equal(t, 2, calls)
}

func TestMountedCreateRouteIsGuarded(t *testing.T) {
	calls := 0
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Idempotency(newMemoryReplayStore(), nil))
		r.Post("/quotations/", func(w http.ResponseWriter, _ *http.Request) {
			calls++
			w.WriteHeader(http.StatusCreated)
		})
	})

	rec := send(t, r, "/api/v1/quotations/", "", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, calls)
}

func TestDuplicateWhileInFlightConflicts(t *testing.T) {
	var duplicate *httptest.ResponseRecorder
	var h http.Handler
	h = Idempotency(newMemoryReplayStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if duplicate == nil {
			duplicate = send(t, h, "/api/v1/quotations", "busy", `{}`)
		}
		w.WriteHeader(http.StatusCreated)
	}))

	rec := send(t, h, "/api/v1/quotations", "busy", `{}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, duplicate)
	assert.Equal(t, http.StatusConflict, duplicate.Code)
	assert.Contains(t, duplicate.Body.String(), "still in progress")
}

func TestServerErrorReleasesKey(t *testing.T) {
	statuses := []int{http.StatusServiceUnavailable, http.StatusCreated}
	calls := 0
	h := Idempotency(newMemoryReplayStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(statuses[calls])
		calls++
	}))

	for _, want := range statuses {
		rec := send(t, h, "/api/v1/quotations", "retry-me", `{}`)
		assert.Equal(t, want, rec.Code)
	}
	assert.Equal(t, 2, calls)
}
