package models

// Patient is a read-only directory entry.
type Patient struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	DOB  string `db:"dob" json:"dob"`
	MRN  string `db:"mrn" json:"mrn"`
}

// Clinician is a read-only directory entry with the availability window and
// monthly authorized-hours cap consumed by the utilization tracker.
type Clinician struct {
	ID                string       `db:"id" json:"id"`
	Role              ProviderRole `db:"role" json:"role"`
	Name              string       `db:"name" json:"name"`
	AvailabilityStart string       `db:"availability_start" json:"availability_start"`
	AvailabilityEnd   string       `db:"availability_end" json:"availability_end"`
	AuthorizedHours   float64      `db:"authorized_hours" json:"authorized_hours"`
}

// UtilizationWindow is the period the usage figures were computed over.
type UtilizationWindow struct {
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
}

// ClinicianUsage decorates a clinician with booked-hours figures for a window.
type ClinicianUsage struct {
	Clinician
	UsedHours          float64           `json:"used_hours"`
	UtilizationPercent float64           `json:"utilization_percent"`
	Window             UtilizationWindow `json:"window"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
