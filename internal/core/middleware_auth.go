package core

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"hivewatch/internal/types"
)

// authPublicPaths bypass AuthMiddleware.
var authPublicPaths = map[string]bool{
	"/health":  true,
	"/version": true,
}

// AuthMiddleware resolves the bearer API key to an Actor and stores it in
// the request context. Failures are 401 with one of auth_token_missing,
// auth_token_invalid or auth_token_expired. A nil Authenticator disables
// authentication.
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Authenticator == nil || authPublicPaths[r.URL.Path] || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			s.writeAuthError(w, r, types.ErrCodeAuthTokenMissing, "Authorization header is required")
			return
		}

		token := extractBearerToken(authHeader)
		if token == "" {
			s.writeAuthError(w, r, types.ErrCodeAuthTokenMissing, "Bearer token is required")
			return
		}

		actor, err := s.Authenticator.ResolveToken(r.Context(), token)
		if err != nil {
			s.handleAuthError(w, r, err)
			return
		}
		if actor == nil {
			s.writeAuthError(w, r, types.ErrCodeAuthTokenInvalid, "Invalid authentication token")
			return
		}

		ctx := types.WithActor(r.Context(), *actor)
		if logger := types.LoggerFromContext(ctx); logger != nil {
			ctx = types.WithLogger(ctx, logger.With("account_id", actor.AccountID))
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractBearerToken returns the token from "Bearer <token>", matching the
// scheme case-insensitively. It returns "" for any other format.
func extractBearerToken(authHeader string) string {
	const prefix = "Bearer "
	if len(authHeader) < len(prefix) || !strings.EqualFold(authHeader[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(authHeader[len(prefix):])
}

func (s *Server) handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case types.ErrCodeAuthTokenExpired:
			s.Logger.Warn("authentication failed: token expired",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
			s.writeAuthError(w, r, types.ErrCodeAuthTokenExpired, "API key has expired")
			return
		case types.ErrCodeAuthTokenInvalid, types.ErrCodeAuthTokenRevoked:
			s.Logger.Warn("authentication failed: token invalid",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("error_code", string(appErr.Code)),
			)
			s.writeAuthError(w, r, types.ErrCodeAuthTokenInvalid, "Invalid authentication token")
			return
		}
	}

	s.Logger.Error("authentication failed: unexpected error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	s.writeAuthError(w, r, types.ErrCodeAuthTokenInvalid, "Authentication failed")
}

func (s *Server) writeAuthError(w http.ResponseWriter, r *http.Request, code types.ErrorCode, message string) {
	JSON(w, r, http.StatusUnauthorized, APIErrorResponse{
		Error: ErrorDetail{
			Code:      string(code),
			Message:   message,
			RequestID: types.GetRequestID(r.Context()),
		},
	})
}

// RequireScope rejects actors lacking scope with 403. Requests without an
// Actor get 401. System actors hold every scope.
func (s *Server) RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := types.GetActor(r.Context())
			if !ok {
				s.writeAuthError(w, r, types.ErrCodeAuthTokenMissing, "Authentication required")
				return
			}

			if !actor.HasScope(scope) {
				JSON(w, r, http.StatusForbidden, APIErrorResponse{
					Error: ErrorDetail{
						Code:      string(types.ErrCodePermissionScope),
						Message:   "API key lacks the " + scope + " scope",
						Details:   map[string]any{"required_scope": scope},
						RequestID: types.GetRequestID(r.Context()),
					},
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
