package dataset

import (
	"fmt"
	"time"
)

// ColumnType is the declared type of a dataset column.
type ColumnType string

const (
	TypeString   ColumnType = "string"
	TypeFloat    ColumnType = "float"
	TypeDatetime ColumnType = "datetime"
)

// Dataset is a column-typed table as delivered by the ingestion layer.
// All columns share the same row count.
type Dataset struct {
	Name string

	rows    int
	strings map[string][]string
	floats  map[string][]float64
	times   map[string][]time.Time
}

// New creates an empty dataset with a fixed row count.
func New(name string, rows int) *Dataset {
	return &Dataset{
		Name:    name,
		rows:    rows,
		strings: make(map[string][]string),
		floats:  make(map[string][]float64),
		times:   make(map[string][]time.Time),
	}
}

// Rows returns the row count.
func (d *Dataset) Rows() int {
	return d.rows
}

// SetStrings adds a string column.
func (d *Dataset) SetStrings(col string, vals []string) error {
	if len(vals) != d.rows {
		return fmt.Errorf("column %s: got %d values, dataset has %d rows", col, len(vals), d.rows)
	}
	d.strings[col] = vals
	return nil
}

// SetFloats adds a numeric column.
func (d *Dataset) SetFloats(col string, vals []float64) error {
	if len(vals) != d.rows {
		return fmt.Errorf("column %s: got %d values, dataset has %d rows", col, len(vals), d.rows)
	}
	d.floats[col] = vals
	return nil
}

// SetTimes adds a datetime column.
func (d *Dataset) SetTimes(col string, vals []time.Time) error {
	if len(vals) != d.rows {
		return fmt.Errorf("column %s: got %d values, dataset has %d rows", col, len(vals), d.rows)
	}
	d.times[col] = vals
	return nil
}

// HasColumn reports whether the column exists under any type.
func (d *Dataset) HasColumn(col string) bool {
	_, ok := d.TypeOf(col)
	return ok
}

// TypeOf returns the stored type of a column.
func (d *Dataset) TypeOf(col string) (ColumnType, bool) {
	if _, ok := d.strings[col]; ok {
		return TypeString, true
	}
	if _, ok := d.floats[col]; ok {
		return TypeFloat, true
	}
	if _, ok := d.times[col]; ok {
		return TypeDatetime, true
	}
	return "", false
}

// Strings returns a string column, or nil if absent.
func (d *Dataset) Strings(col string) []string {
	return d.strings[col]
}

// Floats returns a numeric column, or nil if absent.
func (d *Dataset) Floats(col string) []float64 {
	return d.floats[col]
}

// Times returns a datetime column, or nil if absent.
func (d *Dataset) Times(col string) []time.Time {
	return d.times[col]
}
