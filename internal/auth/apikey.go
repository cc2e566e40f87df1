// Package auth authenticates API requests by bearer API key.
//
// Keys have the form hw_live_<secret> or hw_test_<secret>, where the secret
// is 32 random bytes in unpadded URL-safe base64. The tag plus the first
// eight secret characters form the visible prefix used for lookup; only a
// bcrypt hash of the whole key is stored.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"hivewatch/internal/types"
)

const (
	LiveKeyTag = "hw_live_"
	TestKeyTag = "hw_test_"

	// secretBytes keeps the full key (8 + 43 chars) under bcrypt's 72 byte limit.
	secretBytes     = 32
	prefixSecretLen = 8

	DefaultBcryptCost = 12
)

// KeyStore is the API key persistence needed for authentication.
type KeyStore interface {
	ListByPrefix(ctx context.Context, prefix string) ([]*types.APIKey, error)
	TouchLastUsed(ctx context.Context, id string) error
}

// Hasher hashes and verifies key secrets.
type Hasher interface {
	Hash(secret string) (string, error)
	Compare(hash, secret string) error
}

// BcryptHasher implements Hasher with bcrypt at Cost.
type BcryptHasher struct {
	Cost int
}

func (b BcryptHasher) Hash(secret string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b BcryptHasher) Compare(hash, secret string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
}

// GeneratedKey is a freshly issued key. Plaintext is shown to the caller once.
type GeneratedKey struct {
	Plaintext string
	Prefix    string
	Hash      string
}

// GenerateAPIKey issues a new random key of the requested mode.
func GenerateAPIKey(testMode bool, hasher Hasher) (GeneratedKey, error) {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		return GeneratedKey{}, fmt.Errorf("generate api key: %w", err)
	}

	tag := LiveKeyTag
	if testMode {
		tag = TestKeyTag
	}
	plaintext := tag + base64.RawURLEncoding.EncodeToString(b)

	hash, err := hasher.Hash(plaintext)
	if err != nil {
		return GeneratedKey{}, fmt.Errorf("hash api key: %w", err)
	}

	prefix, _, _ := ParseKey(plaintext)
	return GeneratedKey{Plaintext: plaintext, Prefix: prefix, Hash: hash}, nil
}

// ParseKey returns the lookup prefix of token and whether it is a test key.
// ok is false when token is not shaped like a HiveWatch key.
func ParseKey(token string) (prefix string, testMode bool, ok bool) {
	var secret string
	switch {
	case strings.HasPrefix(token, LiveKeyTag):
		secret = token[len(LiveKeyTag):]
	case strings.HasPrefix(token, TestKeyTag):
		secret = token[len(TestKeyTag):]
		testMode = true
	default:
		return "", false, false
	}
	if len(secret) <= prefixSecretLen {
		return "", false, false
	}
	return token[:len(token)-len(secret)+prefixSecretLen], testMode, true
}

// APIKeyAuthenticator resolves bearer tokens against stored key hashes.
type APIKeyAuthenticator struct {
	store  KeyStore
	hasher Hasher
	clock  types.Clock
	logger *slog.Logger
}

// NewAPIKeyAuthenticator builds an authenticator. Nil hasher, clock and
// logger fall back to bcrypt, the system clock and slog.Default().
func NewAPIKeyAuthenticator(store KeyStore, hasher Hasher, clock types.Clock, logger *slog.Logger) *APIKeyAuthenticator {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &APIKeyAuthenticator{store: store, hasher: hasher, clock: clock, logger: logger}
}

// ResolveToken maps token to the Actor of the matching key. Revoked keys
// report auth_token_revoked and expired keys auth_token_expired, but only
// after the secret itself has been verified.
func (a *APIKeyAuthenticator) ResolveToken(ctx context.Context, token string) (*types.Actor, error) {
	prefix, testMode, ok := ParseKey(token)
	if !ok {
		return nil, types.NewAppError(types.ErrCodeAuthTokenInvalid, "malformed API key", nil)
	}

	candidates, err := a.store.ListByPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("looking up api key: %w", err)
	}

	for _, key := range candidates {
		if a.hasher.Compare(key.KeyHash, token) != nil {
			continue
		}

		now := a.clock.Now()
		if key.RevokedAt != nil {
			return nil, types.NewAppError(types.ErrCodeAuthTokenRevoked, "API key has been revoked", nil)
		}
		if key.ExpiresAt != nil && !key.ExpiresAt.After(now) {
			return nil, types.NewAppError(types.ErrCodeAuthTokenExpired, "API key has expired", nil)
		}

		if err := a.store.TouchLastUsed(ctx, key.ID); err != nil {
			a.logger.WarnContext(ctx, "failed to record api key usage",
				slog.String("key_id", key.ID),
				slog.String("error", err.Error()),
			)
		}

		return &types.Actor{
			ID:         key.ID,
			Type:       types.ActorTypeAPIKey,
			AccountID:  key.AccountID,
			Scopes:     key.Scopes,
			IsTestMode: testMode,
		}, nil
	}

	return nil, types.NewAppError(types.ErrCodeAuthTokenInvalid, "unknown API key", nil)
}
