package types

import "time"

// IdempotencyStatus is the lifecycle state of an idempotency key.
type IdempotencyStatus string

const (
	IdempotencyStatusProcessing IdempotencyStatus = "processing"
	IdempotencyStatusCompleted  IdempotencyStatus = "completed"
	IdempotencyStatusFailed     IdempotencyStatus = "failed"
)

// IdempotencyRecord is the stored outcome of a POST keyed by Idempotency-Key.
type IdempotencyRecord struct {
	Key          string
	AccountID    string
	Status       IdempotencyStatus
	RequestPath  string
	ResponseCode int
	ResponseBody []byte
	CreatedAt    time.Time
}
