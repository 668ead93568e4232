package models

import "time"

// BlockStatus enumerates the lifecycle states of a schedule block.
type BlockStatus string

const (
	StatusScheduled BlockStatus = "scheduled"
	StatusInSession BlockStatus = "in_session"
	StatusCanceled  BlockStatus = "canceled"
	StatusNoShow    BlockStatus = "no_show"
	StatusNap       BlockStatus = "nap"
	StatusSpeech    BlockStatus = "speech"
)

// CountsForConflicts reports whether a block in this status participates in
// conflict and co-presence checks. Canceled and no-show blocks are kept for
// history but can be freely overlapped by new bookings.
func (s BlockStatus) CountsForConflicts() bool {
	return s != StatusCanceled && s != StatusNoShow
}

// CountsForUtilization reports whether the block's minutes count toward a
// provider's booked time. Only cancellation releases the authorized hours.
func (s BlockStatus) CountsForUtilization() bool {
	return s != StatusCanceled
}

// ProviderRole enumerates clinician roles that can own schedule blocks.
type ProviderRole string

const (
	RoleRBT  ProviderRole = "RBT"
	RoleBCBA ProviderRole = "BCBA"
	RoleSLP  ProviderRole = "SLP"
	RoleOT   ProviderRole = "OT"
	RolePT   ProviderRole = "PT"
)

// Block is the atomic unit of scheduled time: one provider with one patient
// on one date. Times are HH:MM at minute granularity on a single local day.
type Block struct {
	ID           string       `db:"id" json:"id"`
	Date         string       `db:"date" json:"date"`
	Start        string       `db:"start_time" json:"start"`
	End          string       `db:"end_time" json:"end"`
	Status       BlockStatus  `db:"status" json:"status"`
	ProviderRole ProviderRole `db:"provider_role" json:"provider_role"`
	ProviderID   string       `db:"provider_id" json:"provider_id"`
	PatientID    string       `db:"patient_id" json:"patient_id"`
	RoomID       string       `db:"room_id" json:"room_id,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// BlockSummary is the compact form of a block attached to conflict reports.
type BlockSummary struct {
	ID           string       `json:"id"`
	Start        string       `json:"start"`
	End          string       `json:"end"`
	ProviderRole ProviderRole `json:"provider_role"`
	ProviderID   string       `json:"provider_id"`
	PatientID    string       `json:"patient_id"`
	RoomID       string       `json:"room_id,omitempty"`
	Status       BlockStatus  `json:"status"`
}

// Summary converts a block into its conflict-report form.
func (b Block) Summary() BlockSummary {
	return BlockSummary{
		ID:           b.ID,
		Start:        b.Start,
		End:          b.End,
		ProviderRole: b.ProviderRole,
		ProviderID:   b.ProviderID,
		PatientID:    b.PatientID,
		RoomID:       b.RoomID,
		Status:       b.Status,
	}
}

// Conflict dimensions reported by the detector.
const (
	ConflictProvider = "provider_overlap"
	ConflictPatient  = "patient_overlap"
	ConflictRoom     = "room_overlap"
)

// BlockConflict names one double-booking against one existing block. A single
// neighbor can produce several entries, one per dimension.
type BlockConflict struct {
	Kind string       `json:"kind"`
	With BlockSummary `json:"with"`
}

// ConflictBuffers carries per-dimension padding minutes for overlap tests.
type ConflictBuffers struct {
	Provider int `json:"provider"`
	Patient  int `json:"patient"`
	Room     int `json:"room"`
}

// CoPresenceRule requires that blocks of PartnerRole for the same patient
// jointly overlap a RequiredRole block by at least MinMinutes.
type CoPresenceRule struct {
	RequiredRole ProviderRole `json:"required_role"`
	PartnerRole  ProviderRole `json:"partner_role"`
	MinMinutes   int          `json:"min_minutes"`
}

// CoPresenceViolation reports one unmet co-presence rule.
type CoPresenceViolation struct {
	RequiredRole  ProviderRole `json:"required_role"`
	PartnerRole   ProviderRole `json:"partner_role"`
	MinutesNeeded int          `json:"minutes_needed"`
	MinutesFound  int          `json:"minutes_found"`
}

// ProposalRejection aggregates everything wrong with a proposed block so the
// caller can present all issues at once.
type ProposalRejection struct {
	Conflicts  []BlockConflict       `json:"conflicts,omitempty"`
	CoPresence []CoPresenceViolation `json:"copresence,omitempty"`
}

// BlockFilter describes query params for listing blocks.
type BlockFilter struct {
	Date         string
	ProviderRole ProviderRole
	ProviderID   string
	PatientID    string
	Status       BlockStatus
}
