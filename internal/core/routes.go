package core

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hivewatch/internal/types"
)

// defaultRequestTimeout applies when the configuration leaves it unset.
const defaultRequestTimeout = 15 * time.Second

// defaultRedactedHeaders are masked in request logs.
var defaultRedactedHeaders = []string{
	"Authorization",
	"Cookie",
	"X-Signature",
}

// MountRoutes registers the middleware chain, the /v1 group and the public
// top-level routes.
func (s *Server) MountRoutes() {
	s.registerGlobalMiddleware()

	s.router.Route("/v1", s.mountV1)

	s.router.Get("/health", s.HandleHealth)
	s.router.Get("/version", s.HandleVersion)
}

// registerGlobalMiddleware applies middleware in a fixed order:
//
//  1. Recoverer       outermost, so every panic becomes a JSON 500.
//  2. ContextTimeout  soft deadline for the whole request.
//  3. RequestID       correlation ID used by every later log line.
//  4. SecurityHeaders
//  5. RequestLogger
//  6. BodyLimit
//  7. CORS
//  8. Metrics
//  9. Auth            resolves the Actor and its account.
//  10. Idempotency    needs the account from Auth.
func (s *Server) registerGlobalMiddleware() {
	s.router.Use(s.Recoverer)
	s.router.Use(ContextTimeoutMiddleware(s.requestTimeout()))
	s.router.Use(RequestIDMiddleware)
	s.router.Use(s.SecurityHeadersMiddleware)
	s.router.Use(RequestLogger(s.Logger, defaultRedactedHeaders))
	s.router.Use(BodyLimitMiddleware(s.Config.Server.MaxBodyBytes))
	s.router.Use(NewCORSMiddleware(s.corsAllowedOrigins()))
	s.router.Use(s.MetricsMiddleware)
	s.router.Use(s.AuthMiddleware)
	s.router.Use(s.IdempotencyMiddleware)
}

func (s *Server) mountV1(r chi.Router) {
	for _, registrar := range s.V1RouteRegistrars {
		registrar(r)
	}
}

func (s *Server) requestTimeout() time.Duration {
	if s.Config != nil && s.Config.Server.RequestTimeout > 0 {
		return s.Config.Server.RequestTimeout
	}
	return defaultRequestTimeout
}

func (s *Server) corsAllowedOrigins() []string {
	if s.Config != nil && len(s.Config.Security.CorsAllowedOrigins) > 0 {
		return s.Config.Security.CorsAllowedOrigins
	}
	return []string{"*"}
}

// ContextTimeoutMiddleware sets a deadline on the request context.
// Handlers observe it through ctx; the middleware writes nothing itself.
func ContextTimeoutMiddleware(duration time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), duration)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDMiddleware propagates X-Request-Id or generates one, storing it in
// the context and echoing it on the response.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" || len(requestID) > 128 {
			requestID = generateRequestID()
		}

		ctx := types.WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-Id", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func generateRequestID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "fallback-" + hex.EncodeToString([]byte(time.Now().String()))
	}
	return hex.EncodeToString(b)
}

// versionResponse is the body of GET /version.
type versionResponse struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// HandleVersion reports the build metadata of the running binary.
func (s *Server) HandleVersion(w http.ResponseWriter, r *http.Request) {
	resp := versionResponse{}
	if s.Config != nil {
		resp = versionResponse{
			Service:   s.Config.Service,
			Version:   s.Config.Build.Version,
			Commit:    s.Config.Build.Commit,
			BuildTime: s.Config.Build.BuildTime,
		}
	}
	JSON(w, r, http.StatusOK, resp)
}
