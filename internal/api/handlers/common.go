// Package handlers contains the HTTP handlers of the HiveWatch API.
//
// Each handler declares the narrow repository interfaces it needs and
// registers its routes on the /v1 router. Scope checks are applied per route
// through the ScopeMiddleware supplied by the server.
package handlers

import (
	"net/http"
	"time"

	"hivewatch/internal/core"
	"hivewatch/internal/types"
)

// ScopeMiddleware builds a middleware that admits actors holding scope.
// core.Server.RequireScope satisfies it.
type ScopeMiddleware func(scope string) func(http.Handler) http.Handler

// accountID returns the authenticated account or writes a 401.
func accountID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := types.GetAccountID(r.Context())
	if id == "" {
		core.Error(w, r, types.NewAppError(types.ErrCodeAuthTokenMissing, "Authentication required", nil))
		return "", false
	}
	return id, true
}

// decodeAndValidate decodes the body into dst and validates it, writing the
// error response on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *core.Validator, dst any) bool {
	if err := core.DecodeJSON(r, dst); err != nil {
		core.Error(w, r, err)
		return false
	}
	if err := v.ValidateStruct(dst); err != nil {
		core.Error(w, r, err)
		return false
	}
	return true
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
