package types

import "time"

// AlertMessage is the SQS payload published after an assessment produces alerts.
// The alert worker consumes it and delivers it to the account's webhook.
type AlertMessage struct {
	MessageID    string    `json:"message_id"`
	AccountID    string    `json:"account_id"`
	HiveID       string    `json:"hive_id"`
	HiveName     string    `json:"hive_name"`
	AssessmentID string    `json:"assessment_id"`
	Alerts       []Alert   `json:"alerts"`
	AssessedAt   time.Time `json:"assessed_at"`

	// RetryCount is incremented by the worker before re-publishing on transient failure.
	RetryCount int `json:"retry_count"`
}

// HiveRef identifies a hive together with its owning account.
type HiveRef struct {
	AccountID string `json:"account_id"`
	HiveID    string `json:"hive_id"`
}

// ReassessMessage asks the reassessor to re-run the engine against each hive's
// latest inspection.
type ReassessMessage struct {
	Hives       []HiveRef `json:"hives"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

// Reasons carried by ReassessMessage.
const (
	ReassessReasonOverdue = "inspection_overdue"
	ReassessReasonManual  = "manual"
)
