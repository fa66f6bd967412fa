package domain

import (
	"time"
)

// RunRecord is the provenance of one completed run as kept in the ledger.
type RunRecord struct {
	RunID         string    `json:"run_id" db:"run_id" validate:"required,uuid"`
	StartedAt     time.Time `json:"started_at" db:"started_at"`
	FinishedAt    time.Time `json:"finished_at" db:"finished_at"`
	DateLast      time.Time `json:"date_last" db:"date_last"`
	ReferenceFile string    `json:"reference_file" db:"reference_file"`
	ReferenceDate time.Time `json:"reference_date" db:"reference_date"`
	ReportPath    string    `json:"report_path" db:"report_path"`
	Records       int       `json:"records" db:"records"`
	Windows       []int     `json:"windows" db:"-"`
	Files         []string  `json:"files" db:"-"`
}
