package types

import (
	"context"
	"strings"
)

// ActorType identifies the kind of authenticated entity making a request.
type ActorType string

const (
	ActorTypeAPIKey ActorType = "api_key"
	ActorTypeSystem ActorType = "system"
)

// Actor represents the authenticated entity performing an operation.
type Actor struct {
	ID         string
	Type       ActorType
	AccountID  string
	Scopes     []string
	IsTestMode bool
}

// HasScope reports whether the actor was granted scope. System actors hold every scope.
func (a Actor) HasScope(scope string) bool {
	if a.Type == ActorTypeSystem {
		return true
	}
	for _, s := range a.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// API key scopes.
const (
	ScopeRead  = "hives:read"
	ScopeWrite = "hives:write"
	ScopeKeys  = "keys:manage"
)

type contextKey string

const (
	actorKey     contextKey = "actor"
	requestIDKey contextKey = "request_id"
	loggerKey    contextKey = "logger"
)

// WithActor stores the Actor in the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// GetActor retrieves the Actor from the context.
func GetActor(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok
}

// GetAccountID returns the authenticated account, or "" if none.
func GetAccountID(ctx context.Context) string {
	actor, ok := GetActor(ctx)
	if !ok {
		return ""
	}
	return actor.AccountID
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithLogger stores a Logger in the context.
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext retrieves the request-scoped Logger, or nil if none was set.
func LoggerFromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return nil
}

// IsTestKey returns true if the API key is a test key.
func IsTestKey(key string) bool {
	return strings.HasPrefix(key, "hw_test_")
}
