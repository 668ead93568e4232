package models

import "time"

// InterruptStatus enumerates the interrupt-request state machine:
// pending -> approved (applied) | denied. Resolved requests are terminal.
type InterruptStatus string

const (
	InterruptPending InterruptStatus = "pending"
	InterruptApplied InterruptStatus = "applied"
	InterruptDenied  InterruptStatus = "denied"
)

// InterruptRequest is a secondary provider's ask to borrow a slice of a
// primary (base role) block's time with a patient. Validation against the
// covering block is deferred until approval.
type InterruptRequest struct {
	ID              string          `db:"id" json:"id"`
	PatientID       string          `db:"patient_id" json:"patient_id"`
	PrimaryID       string          `db:"primary_provider_id" json:"primary_provider_id"`
	RequesterRole   ProviderRole    `db:"requester_role" json:"requester_role"`
	RequesterID     string          `db:"requester_id" json:"requester_id"`
	Date            string          `db:"date" json:"date"`
	Start           string          `db:"start_time" json:"start"`
	DurationMinutes int             `db:"duration_minutes" json:"duration_minutes"`
	Status          InterruptStatus `db:"status" json:"status"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// InterruptFilter describes query params for listing interrupt requests.
type InterruptFilter struct {
	PrimaryID string
	Date      string
	Status    InterruptStatus
}
