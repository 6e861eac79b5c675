package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	lkproto "github.com/livekit/protocol/livekit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sodam-care/service-care-go/internal/auth"
	"github.com/sodam-care/service-care-go/internal/careuser"
	"github.com/sodam-care/service-care-go/internal/careuser/entity"
	"github.com/sodam-care/service-care-go/internal/config"
	"github.com/sodam-care/service-care-go/internal/livekit"
	"github.com/sodam-care/service-care-go/pkg/apperror"
)

type stubResolver struct{}

func (stubResolver) ResolveAuthenticatedUser(_ context.Context, raw string) (auth.Identity, error) {
	if raw == "good" {
		return auth.Identity{UserID: "u-1", Email: "a@example.com"}, nil
	}
	return auth.Identity{}, apperror.Unauthorized("invalid or expired token")
}

type emptyCareStore struct{}

func (emptyCareStore) Create(context.Context, *entity.CareUser) error       { return nil }
func (emptyCareStore) CreateBulk(context.Context, []*entity.CareUser) error { return nil }
func (emptyCareStore) ListByInstitution(context.Context, string) ([]entity.CareUser, error) {
	return []entity.CareUser{}, nil
}
func (emptyCareStore) ListByGuardian(context.Context, string) ([]entity.CareUser, error) {
	return []entity.CareUser{}, nil
}

type noRooms struct{}

func (noRooms) ListRooms(context.Context, *lkproto.ListRoomsRequest) (*lkproto.ListRoomsResponse, error) {
	return &lkproto.ListRoomsResponse{}, nil
}

func (noRooms) ListParticipants(context.Context, *lkproto.ListParticipantsRequest) (*lkproto.ListParticipantsResponse, error) {
	return &lkproto.ListParticipantsResponse{}, nil
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func newTestRouter(t *testing.T, db Pinger) http.Handler {
	t.Helper()
	logger := zap.NewNop().Sugar()
	tokens, err := auth.NewTokenIssuer(config.JWT{AccessSecret: "a", RefreshSecret: "b", AccessTTL: time.Hour, RefreshTTL: time.Hour})
	require.NoError(t, err)
	return RegisterRoutes(logger, Deps{
		Prefix:      "/api",
		CORSOrigins: []string{"https://app.example.com/"},
		Auth:        auth.NewHandler(auth.NewService(nil, nil, tokens, nil, logger), logger),
		Resolver:    stubResolver{},
		CareUsers:   careuser.NewHandler(careuser.NewService(emptyCareStore{}, logger), logger),
		LiveKit:     livekit.NewHandler(livekit.NewService(config.LiveKit{}, noRooms{}, logger), logger),
		Metrics:     NewMetrics(),
		DB:          db,
	})
}

func get(h http.Handler, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(newTestRouter(t, pinger{}), "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = get(newTestRouter(t, pinger{err: errors.New("down")}), "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHeadersAndRequestID(t *testing.T) {
	h := newTestRouter(t, nil)
	rec := get(h, "/api/health", "")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGuardedRoutes(t *testing.T) {
	h := newTestRouter(t, nil)
	assert.Equal(t, http.StatusUnauthorized, get(h, "/api/auth/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(h, "/api/care-users", "bad").Code)

	rec := get(h, "/api/auth/me", "good")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"u-1"`)

	rec = get(h, "/api/care-users", "good")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestUnguardedRoutes(t *testing.T) {
	h := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusOK, get(h, "/api/livekit/healthz", "").Code)
	assert.JSONEq(t, `{"rooms":[]}`, get(h, "/api/livekit/rooms", "").Body.String())
	assert.Equal(t, http.StatusNotFound, get(h, "/api/unknown", "").Code)
}

func TestMetricsExposeRouteCounters(t *testing.T) {
	h := newTestRouter(t, nil)
	get(h, "/api/livekit/rooms/room-1/members", "")

	rec := get(h, "/api/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "care_http_requests_total")
	assert.Contains(t, body, `route="GET /api/livekit/rooms/{roomName}/members"`)
}

func TestLoggingMiddlewareRecordsRoutePattern(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rooms/{roomName}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	mux.HandleFunc("GET /boom", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	h := RequestIDMiddleware()(LoggingMiddleware(zap.New(core).Sugar())(mux))

	get(h, "/rooms/abc", "")
	get(h, "/boom", "")

	entries := logs.All()
	require.Len(t, entries, 2)
	first := entries[0].ContextMap()
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "GET /rooms/{roomName}", first["route"])
	assert.Equal(t, "/rooms/abc", first["path"])
	assert.EqualValues(t, http.StatusTeapot, first["status"])
	assert.NotEmpty(t, first["request_id"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}
