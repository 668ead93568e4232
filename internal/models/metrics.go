package models

import "time"

// SystemMetrics is the aggregated operational snapshot served alongside the
// Prometheus endpoint.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	ProposalsAccepted        uint64    `json:"proposals_accepted"`
	ProposalsRejected        uint64    `json:"proposals_rejected"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
