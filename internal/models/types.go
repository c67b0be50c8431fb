package models

import (
	"database/sql"
	"time"
)

// PipelineRequest is the inbound trigger for one resampling run
type PipelineRequest struct {
	EquipmentNumber string `json:"equipment_number"`
	Date            string `json:"date"`
	MavgPeriod      int    `json:"mavg_period"`
}

// RawRow is one timestamped reading. Values is aligned with RawFrame.Columns;
// a nil entry is a missing value.
type RawRow struct {
	Timestamp time.Time
	Values    []any
}

// RawFrame holds the raw readings of one equipment unit for one day
type RawFrame struct {
	Columns []string
	Rows    []RawRow
}

// Len returns the number of rows in the frame.
func (f *RawFrame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// ColumnKind tags a resampled column as numeric or pass-through
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindNumeric
)

func (k ColumnKind) String() string {
	if k == KindNumeric {
		return "numeric"
	}
	return "text"
}

// Column is a single output column. Numeric columns use Numbers, every other
// column uses Values (nil is missing).
type Column struct {
	Name    string
	Kind    ColumnKind
	Numbers []sql.NullFloat64
	Values  []any
}

// Value returns the cell at row i in a form suitable for a SQL driver.
func (c *Column) Value(i int) any {
	if c.Kind == KindNumeric {
		if !c.Numbers[i].Valid {
			return nil
		}
		return c.Numbers[i].Float64
	}
	return c.Values[i]
}

// ResampledFrame is the output of the resampling engine: one row per bucket
type ResampledFrame struct {
	TimeColumn string
	Buckets    []time.Time
	Columns    []Column
}

// Len returns the number of buckets in the frame.
func (f *ResampledFrame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Buckets)
}

// ColumnNames lists the output column names, bucket timestamp first.
func (f *ResampledFrame) ColumnNames() []string {
	names := make([]string, 0, len(f.Columns)+1)
	names = append(names, f.TimeColumn)
	for _, c := range f.Columns {
		names = append(names, c.Name)
	}
	return names
}

// Column looks up an output column by name.
func (f *ResampledFrame) Column(name string) (*Column, bool) {
	for i := range f.Columns {
		if f.Columns[i].Name == name {
			return &f.Columns[i], true
		}
	}
	return nil, false
}
