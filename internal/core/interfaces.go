package core

import (
	"context"
	"time"

	"hivewatch/internal/types"
)

// Authenticator resolves a bearer token to the Actor it represents.
//
// Implementations return distinct error codes:
//   - ErrCodeAuthTokenInvalid if the token is malformed, unknown or revoked.
//   - ErrCodeAuthTokenExpired if the token exists but has expired.
type Authenticator interface {
	ResolveToken(ctx context.Context, token string) (*types.Actor, error)
}

// MetricsCollector records API request telemetry.
type MetricsCollector interface {
	RecordRequest(method, endpoint, status string, duration time.Duration)
}

// IdempotencyStore persists idempotency keys scoped to an account. Get
// returns (nil, nil) for an unknown key.
type IdempotencyStore interface {
	Get(ctx context.Context, key, accountID string) (*types.IdempotencyRecord, error)
	Create(ctx context.Context, key, accountID, path string) error
	Complete(ctx context.Context, key, accountID string, code int, body []byte) error
	Fail(ctx context.Context, key, accountID string) error
}
