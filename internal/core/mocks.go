package core

import (
	"context"
	"sync"
	"time"

	"hivewatch/internal/types"
)

// MockAuthenticator returns a fixed Actor or error and records every token.
// ResolveTokenFunc, when set, takes precedence.
type MockAuthenticator struct {
	Actor            *types.Actor
	Err              error
	ResolveTokenFunc func(ctx context.Context, token string) (*types.Actor, error)

	mu    sync.Mutex
	Calls []string
}

func (m *MockAuthenticator) ResolveToken(ctx context.Context, token string) (*types.Actor, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, token)
	m.mu.Unlock()

	if m.ResolveTokenFunc != nil {
		return m.ResolveTokenFunc(ctx, token)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Actor, nil
}

// MockIdempotencyStore is an in-memory IdempotencyStore. The *Err fields
// force the matching method to fail.
type MockIdempotencyStore struct {
	GetErr      error
	CreateErr   error
	CompleteErr error
	FailErr     error

	mu      sync.Mutex
	Records map[string]*types.IdempotencyRecord
}

func idempotencyMapKey(key, accountID string) string {
	return accountID + "\x00" + key
}

func (m *MockIdempotencyStore) Get(_ context.Context, key, accountID string) (*types.IdempotencyRecord, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.Records[idempotencyMapKey(key, accountID)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (m *MockIdempotencyStore) Create(_ context.Context, key, accountID, path string) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Records == nil {
		m.Records = make(map[string]*types.IdempotencyRecord)
	}
	m.Records[idempotencyMapKey(key, accountID)] = &types.IdempotencyRecord{
		Key:         key,
		AccountID:   accountID,
		Status:      types.IdempotencyStatusProcessing,
		RequestPath: path,
		CreatedAt:   time.Now().UTC(),
	}
	return nil
}

func (m *MockIdempotencyStore) Complete(_ context.Context, key, accountID string, code int, body []byte) error {
	if m.CompleteErr != nil {
		return m.CompleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.Records[idempotencyMapKey(key, accountID)]; ok {
		rec.Status = types.IdempotencyStatusCompleted
		rec.ResponseCode = code
		rec.ResponseBody = append([]byte(nil), body...)
	}
	return nil
}

func (m *MockIdempotencyStore) Fail(_ context.Context, key, accountID string) error {
	if m.FailErr != nil {
		return m.FailErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.Records[idempotencyMapKey(key, accountID)]; ok {
		rec.Status = types.IdempotencyStatusFailed
	}
	return nil
}

// Status returns the stored status for key, or "" if absent.
func (m *MockIdempotencyStore) Status(key, accountID string) types.IdempotencyStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.Records[idempotencyMapKey(key, accountID)]; ok {
		return rec.Status
	}
	return ""
}

// MetricsCall is one RecordRequest invocation.
type MetricsCall struct {
	Method   string
	Endpoint string
	Status   string
	Duration time.Duration
}

// MockMetricsCollector records RecordRequest calls.
type MockMetricsCollector struct {
	mu    sync.Mutex
	Calls []MetricsCall
}

func (m *MockMetricsCollector) RecordRequest(method, endpoint, status string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MetricsCall{Method: method, Endpoint: endpoint, Status: status, Duration: duration})
}

var (
	_ Authenticator    = (*MockAuthenticator)(nil)
	_ IdempotencyStore = (*MockIdempotencyStore)(nil)
	_ MetricsCollector = (*MockMetricsCollector)(nil)
)
