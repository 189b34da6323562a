package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/repairops-backend/api/responses"
	"github.com/angelmondragon/repairops-backend/api/validators"
	pkgerrors "github.com/angelmondragon/repairops-backend/pkg/errors"
	"github.com/angelmondragon/repairops-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/repairops-backend/pkg/redis"
)

const (
	idempotencyHeader    = "Idempotency-Key"
	replayedHeader       = "Idempotent-Replayed"
	maxIdempotencyKeyLen = 255

	// createRecordTTL covers client retry windows for the sequence-numbered creates.
	createRecordTTL = 7 * 24 * time.Hour
	// pendingTTL bounds how long a crashed request can hold its key.
	pendingTTL = time.Minute
)

// idempotentRoutes lists the exact method and path pairs that need a key.
var idempotentRoutes = map[string]time.Duration{
	http.MethodPost + " /api/v1/quotations": createRecordTTL,
	http.MethodPost + " /api/v1/pendencies": createRecordTTL,
}

type storedResponse struct {
	Pending     bool   `json:"pending,omitempty"`
	RequestHash string `json:"request_hash"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        string `json:"body,omitempty"`
}

// Idempotency makes the create endpoints safe to retry. The first request
// with a key reserves it, runs, and stores its response; repeats with the same
// body get that response back, and a different body under the same key is a
// conflict. Server errors release the key so the client can retry.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, ok := routeTTL(r.Method, requestPath(r))
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if clientKey == "" || len(clientKey) > maxIdempotencyKeyLen {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required (max 255 characters)"))
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, validators.MaxBodyBytes))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unable to read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			hash := hashBody(body)
			key := store.IdempotencyKey(scopeFor(r), clientKey)

			existing, err := loadStored(ctx, store, key)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency key"))
				return
			}
			if existing == nil {
				reserved, err := reserve(ctx, store, key, hash)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key"))
					return
				}
				if !reserved {
					existing = &storedResponse{Pending: true, RequestHash: hash}
				}
			}
			if existing != nil {
				replay(w, r, logg, existing, hash)
				return
			}

			var captured bytes.Buffer
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&captured)
			next.ServeHTTP(ww, r)
			finish(r, logg, store, key, ttl, hash, ww, captured.Bytes())
		})
	}
}

func loadStored(ctx context.Context, store pkgredis.IdempotencyStore, key string) (*storedResponse, error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) || (err == nil && raw == "") {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stored storedResponse
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func reserve(ctx context.Context, store pkgredis.IdempotencyStore, key, hash string) (bool, error) {
	marker, err := json.Marshal(storedResponse{Pending: true, RequestHash: hash})
	if err != nil {
		return false, err
	}
	return store.SetNX(ctx, key, string(marker), pendingTTL)
}

func replay(w http.ResponseWriter, r *http.Request, logg *logger.Logger, stored *storedResponse, hash string) {
	switch {
	case stored.RequestHash != hash:
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
	case stored.Pending:
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "a request with this idempotency key is still in progress"))
	default:
		if stored.ContentType != "" {
			w.Header().Set("Content-Type", stored.ContentType)
		}
		w.Header().Set(replayedHeader, "true")
		w.WriteHeader(stored.Status)
		if body, err := base64.StdEncoding.DecodeString(stored.Body); err == nil {
			_, _ = w.Write(body)
		}
	}
}

func finish(r *http.Request, logg *logger.Logger, store pkgredis.IdempotencyStore, key string, ttl time.Duration, hash string, ww chimw.WrapResponseWriter, body []byte) {
	ctx := r.Context()
	status := ww.Status()
	if status == 0 {
		status = http.StatusOK
	}
	if status >= http.StatusInternalServerError {
		if err := store.Del(ctx, key); err != nil && logg != nil {
			logg.Error(ctx, "release idempotency key", err)
		}
		return
	}

	payload, err := json.Marshal(storedResponse{
		RequestHash: hash,
		Status:      status,
		ContentType: ww.Header().Get("Content-Type"),
		Body:        base64.StdEncoding.EncodeToString(body),
	})
	if err == nil {
		err = store.Set(ctx, key, string(payload), ttl)
	}
	if err != nil && logg != nil {
		logg.Error(ctx, "persist idempotency record", err)
	}
}

// scopeFor keeps keys private to the caller and the endpoint.
func scopeFor(r *http.Request) string {
	return strings.Join([]string{UserIDFromContext(r.Context()), r.Method, requestPath(r)}, "|")
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// requestPath matches on the concrete path: the route pattern is still partial
// when this middleware runs at a mount point.
func requestPath(r *http.Request) string {
	path := r.URL.Path
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

func routeTTL(method, path string) (time.Duration, bool) {
	ttl, ok := idempotentRoutes[method+" "+path]
	return ttl, ok
}
