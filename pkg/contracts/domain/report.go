package domain

import (
	"time"
)

// Sheet is a named table handed to the report writer. Cells are string,
// int, int64, time.Time or nil for a null.
type Sheet struct {
	Name   string          `json:"name" validate:"required,max=31"`
	Header []string        `json:"header"`
	Rows   [][]interface{} `json:"rows"`
}

// Report describes the workbook produced by one run.
type Report struct {
	Path          string    `json:"path" validate:"required"`
	DateLast      time.Time `json:"date_last" validate:"required"`
	Sheets        []Sheet   `json:"sheets" validate:"required,dive"`
	ReferenceFile string    `json:"reference_file,omitempty"`
	ReferenceDate time.Time `json:"reference_date,omitempty"`
	GeneratedAt   time.Time `json:"generated_at"`
}
