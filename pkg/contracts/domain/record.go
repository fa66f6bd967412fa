package domain

import (
	"time"
)

// DateLayout is the YYYYMMDD layout used by log filenames and Date cells.
const DateLayout = "20060102"

// Source describes one raw log file and the key encoded in its name:
// <YYYYMMDD>_<script>[-suffix].<ext>.
type Source struct {
	Path   string    `json:"path" validate:"required"`
	Name   string    `json:"name" validate:"required"`
	Date   time.Time `json:"date" validate:"required"`
	Script string    `json:"script" validate:"required"`
}

// DateKey returns the filename date as an integer, e.g. 20240102.
func (s Source) DateKey() int {
	return DateKey(s.Date)
}

// DateKey converts a calendar date to its YYYYMMDD integer form.
func DateKey(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// Record is a single parsed log row. Its presence flag is 1 in the
// column named after Script and null in every other flag column.
type Record struct {
	Ticker string    `json:"ticker" validate:"required"`
	Name   string    `json:"name"`
	Date   time.Time `json:"date" validate:"required"`
	Script string    `json:"script" validate:"required"`
}

// RecordSet is a list of records together with the ordered set of flag
// columns they may populate.
type RecordSet struct {
	Scripts []string `json:"scripts"`
	Records []Record `json:"records"`
}

// Len returns the number of records.
func (s RecordSet) Len() int {
	return len(s.Records)
}

// ScriptIndex maps each script name to its flag column position.
func (s RecordSet) ScriptIndex() map[string]int {
	idx := make(map[string]int, len(s.Scripts))
	for i, name := range s.Scripts {
		idx[name] = i
	}
	return idx
}

// Sheet renders the record set as a table: Ticker, Name, Date, then one
// flag column per script holding 1 or nil.
func (s RecordSet) Sheet(name string) Sheet {
	header := make([]string, 0, 3+len(s.Scripts))
	header = append(header, "Ticker", "Name", "Date")
	header = append(header, s.Scripts...)

	idx := s.ScriptIndex()
	rows := make([][]interface{}, 0, len(s.Records))
	for _, r := range s.Records {
		row := make([]interface{}, len(header))
		row[0] = r.Ticker
		row[1] = r.Name
		row[2] = r.Date
		if i, ok := idx[r.Script]; ok {
			row[3+i] = 1
		}
		rows = append(rows, row)
	}

	return Sheet{Name: name, Header: header, Rows: rows}
}
