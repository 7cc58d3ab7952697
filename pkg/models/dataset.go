// Package models contains domain types for ekaya-insights.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Row is one CSV data line keyed by header name. It is never persisted.
type Row map[string]string

// Table is the parsed form of an uploaded CSV file.
type Table struct {
	// Columns holds the header names in file order, without duplicates.
	Columns []string
	Rows    []Row
	// Truncated is set when reading stopped at the row cap.
	Truncated bool
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnSummary holds aggregate statistics for one numeric column.
// Avg, Min and Max are nil together when no value in the column parsed as a
// finite number.
type ColumnSummary struct {
	Column string   `json:"column"`
	Avg    *float64 `json:"avg"`
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
}

// Insight is one AI-generated observation about a dataset summary.
type Insight struct {
	Insight string `json:"insight"`
	Impact  string `json:"impact"`
}

// Dataset is the persisted result of one upload.
type Dataset struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"userId"`
	FileName  string          `json:"fileName"`
	Summary   []ColumnSummary `json:"summary"`
	Insights  []Insight       `json:"insights"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// IsOwnedBy reports whether userID owns the dataset.
func (d *Dataset) IsOwnedBy(userID uuid.UUID) bool {
	return d != nil && userID != uuid.Nil && d.UserID == userID
}

// Page describes one page of a listing.
type Page struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// Pagination bounds for dataset listings.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 50
)

// NormalizePage clamps page and limit to the supported range.
// page < 1 becomes 1, limit < 1 becomes DefaultPageLimit and limit is capped
// at MaxPageLimit.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}
