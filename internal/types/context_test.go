package types

import (
	"context"
	"testing"
)

type mockLogger struct {
	messages []string
}

func (m *mockLogger) Info(msg string, args ...any)  { m.messages = append(m.messages, "info:"+msg) }
func (m *mockLogger) Error(msg string, args ...any) { m.messages = append(m.messages, "error:"+msg) }
func (m *mockLogger) Warn(msg string, args ...any)  { m.messages = append(m.messages, "warn:"+msg) }
func (m *mockLogger) With(args ...any) Logger       { return m }

func TestWithActor_GetActor(t *testing.T) {
	actor := Actor{ID: "key_1", Type: ActorTypeAPIKey, AccountID: "acct_1", Scopes: []string{ScopeRead}}
	ctx := WithActor(context.Background(), actor)

	got, ok := GetActor(ctx)
	if !ok {
		t.Fatal("expected actor in context")
	}
	if got.ID != actor.ID || got.AccountID != actor.AccountID {
		t.Errorf("got %+v, want %+v", got, actor)
	}
	if GetAccountID(ctx) != "acct_1" {
		t.Errorf("GetAccountID() = %q", GetAccountID(ctx))
	}
	if GetAccountID(context.Background()) != "" {
		t.Error("GetAccountID() on empty context should be empty")
	}
}

func TestActor_HasScope(t *testing.T) {
	reader := Actor{Type: ActorTypeAPIKey, Scopes: []string{ScopeRead}}
	if !reader.HasScope(ScopeRead) {
		t.Error("reader should hold read scope")
	}
	if reader.HasScope(ScopeWrite) {
		t.Error("reader should not hold write scope")
	}

	system := Actor{Type: ActorTypeSystem}
	if !system.HasScope(ScopeWrite) {
		t.Error("system actor should hold every scope")
	}
}

func TestWithRequestID_GetRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-42")
	if got := GetRequestID(ctx); got != "req-42" {
		t.Errorf("GetRequestID() = %q, want req-42", got)
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID() on empty context = %q", got)
	}
}

func TestWithLogger_LoggerFromContext(t *testing.T) {
	if LoggerFromContext(context.Background()) != nil {
		t.Error("expected nil logger on empty context")
	}

	l := &mockLogger{}
	ctx := WithLogger(context.Background(), l)
	got := LoggerFromContext(ctx)
	if got == nil {
		t.Fatal("expected logger in context")
	}
	got.Info("hello")
	if len(l.messages) != 1 || l.messages[0] != "info:hello" {
		t.Errorf("messages = %v", l.messages)
	}
}

func TestIsTestKey(t *testing.T) {
	if !IsTestKey("hw_test_abc") {
		t.Error("hw_test_ prefix should be a test key")
	}
	if IsTestKey("hw_live_abc") {
		t.Error("hw_live_ prefix should not be a test key")
	}
}
