package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sodam-care/service-care-go/internal/auth"
	"github.com/sodam-care/service-care-go/internal/careuser"
	"github.com/sodam-care/service-care-go/internal/livekit"
	"github.com/sodam-care/service-care-go/pkg/httpjson"
	"github.com/sodam-care/service-care-go/pkg/utilities"
)

// statusRecorder remembers the status code and body size a handler wrote.
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.status == 0 {
		sr.status = code
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.size += n
	return n, err
}

// Status is the written status, 200 when the handler wrote nothing.
func (sr *statusRecorder) Status() int {
	if sr.status == 0 {
		return http.StatusOK
	}
	return sr.status
}

// routeOf is the matched mux pattern, available once the mux has dispatched.
func routeOf(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	return r.Pattern
}

type requestIDKey struct{}

const RequestIDHeader = "X-Request-Id"

// RequestID returns the id assigned by RequestIDMiddleware, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestIDMiddleware keeps a caller supplied X-Request-Id or assigns a
// snowflake id, and echoes it on the response.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
			if id == "" || len(id) > 64 {
				id = utilities.NewSnowflakeID()
			}
			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
		})
	}
}

// LoggingMiddleware logs one line per request: server errors at warn,
// everything else at debug.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			fields := []any{
				"request_id", RequestID(r.Context()),
				"method", r.Method,
				"route", routeOf(r),
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", rec.Status(),
				"duration_ms", float64(time.Since(start).Microseconds()) / 1000.0,
				"size", rec.size,
			}
			if rec.Status() >= http.StatusInternalServerError {
				logger.Warnw("http request", fields...)
				return
			}
			logger.Debugw("http request", fields...)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP security headers.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")

			// camera and microphone stay allowed for same-origin room clients
			w.Header().Set("Permissions-Policy", "camera=(self), microphone=(self), geolocation=()")

			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; object-src 'none'; base-uri 'self';")
			}

			// HSTS only over TLS, 30 days
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CORSMiddleware allows the configured browser origins to call the API.
func CORSMiddleware(origins []string) func(http.Handler) http.Handler {
	var allowed []string
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			allowed = append(allowed, o)
		}
	}
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	})
}

// Pinger reports store liveness for the health endpoint.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps carries the handlers the route table mounts.
type Deps struct {
	Prefix      string
	CORSOrigins []string

	Auth      *auth.Handler
	Resolver  auth.Resolver
	CareUsers *careuser.Handler
	LiveKit   *livekit.Handler
	Metrics   *Metrics
	DB        Pinger
}

// RegisterRoutes mounts HTTP handlers using the standard library's http.ServeMux.
func RegisterRoutes(logger *zap.SugaredLogger, d Deps) http.Handler {
	mux := http.NewServeMux()
	p := strings.TrimRight(d.Prefix, "/")
	guard := auth.RequireAuth(d.Resolver, logger)

	// health
	mux.HandleFunc("GET "+p+"/health", func(w http.ResponseWriter, r *http.Request) {
		if d.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.DB.PingContext(ctx); err != nil {
				logger.Warnw("health check failed", "err", err)
				httpjson.Write(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httpjson.Write(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Metrics != nil {
		mux.Handle("GET "+p+"/metrics", d.Metrics.Handler())
	}

	// auth routes
	mux.HandleFunc("POST "+p+"/auth/signup", d.Auth.Signup)
	mux.HandleFunc("POST "+p+"/auth/login", d.Auth.Login)
	mux.HandleFunc("POST "+p+"/auth/refresh", d.Auth.Refresh)
	mux.Handle("POST "+p+"/auth/logout", guard(http.HandlerFunc(d.Auth.Logout)))
	mux.Handle("GET "+p+"/auth/me", guard(http.HandlerFunc(d.Auth.Me)))

	// care-user routes
	mux.Handle("POST "+p+"/care-users", guard(http.HandlerFunc(d.CareUsers.Create)))
	mux.Handle("GET "+p+"/care-users", guard(http.HandlerFunc(d.CareUsers.List)))
	mux.Handle("POST "+p+"/care-users/bulk", guard(http.HandlerFunc(d.CareUsers.CreateBulk)))

	// livekit routes
	mux.HandleFunc("GET "+p+"/livekit/healthz", d.LiveKit.Healthz)
	mux.HandleFunc("POST "+p+"/livekit/token", d.LiveKit.Token)
	mux.HandleFunc("GET "+p+"/livekit/rooms", d.LiveKit.Rooms)
	mux.HandleFunc("GET "+p+"/livekit/rooms/{roomName}/members", d.LiveKit.Members)

	var handler http.Handler = mux
	// metrics sit directly on the mux so r.Pattern is visible after dispatch
	if d.Metrics != nil {
		handler = d.Metrics.Middleware(handler)
	}
	handler = SecurityHeadersMiddleware()(handler)
	handler = LoggingMiddleware(logger)(handler)
	handler = RequestIDMiddleware()(handler)
	handler = CORSMiddleware(d.CORSOrigins)(handler)
	return handler
}
