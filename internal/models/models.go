// Package models defines the domain entities and data transfer objects for the message archive.
// It includes database models mapped to PostgreSQL tables, search filters, and the
// non-persistent projections returned by the JSON API.
package models

import "time"

// ============================================================================
// Domain Models (Database Entities)
// ============================================================================

// Archive represents one archived chat message.
// Rows are written by an external ingestion process and are read-only here.
//
// Database Table: archive
// Search: txt is indexed through the generated txt_tsv column (GIN)
type Archive struct {
	ID        int64     `db:"id" json:"id"`                // Primary key, assigned at insert
	Username  string    `db:"username" json:"username"`    // Sender, denormalized (no foreign key)
	CreatedAt time.Time `db:"created_at" json:"createdAt"` // Message creation time
	Txt       string    `db:"txt" json:"txt"`              // Message body
}

// User represents an archived chat participant.
// Each user belongs to exactly one group.
//
// Database Table: users
type User struct {
	ID       int64  `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	GroupID  int64  `db:"group_id" json:"groupId"`
}

// ============================================================================
// Projections (never stored)
// ============================================================================

// TotalLabel is the label of the synthetic row returned by the total count endpoints.
const TotalLabel = "ВСЕГО"

// Report is a label/count pair used to present message counts.
// The label is a username for per-user rows and TotalLabel for aggregates.
type Report struct {
	Username string `json:"username"`
	Count    int64  `json:"count"`
}

// NewTotalReport wraps an aggregate message count as a single report row.
func NewTotalReport(count int64) Report {
	return Report{Username: TotalLabel, Count: count}
}

// ArchiveSummary describes the archive as a whole.
// FirstMessageAt and LastMessageAt are nil while the archive is empty.
type ArchiveSummary struct {
	TotalMessages  int64      `json:"totalMessages"`
	DistinctUsers  int64      `json:"distinctUsers"`
	FirstMessageAt *time.Time `json:"firstMessageAt"`
	LastMessageAt  *time.Time `json:"lastMessageAt"`
}

// ============================================================================
// Search Filters
// ============================================================================

// ArchiveFilter narrows archive queries.
//
// GroupID nil searches every group. UserID is only meaningful together with
// GroupID; nil means the whole group. From and To are inclusive bounds.
// Text holds the boolean-mode query as typed by the caller; TSQuery is its
// PostgreSQL rendering and is filled in by the service layer.
type ArchiveFilter struct {
	GroupID *int64
	UserID  *int64
	From    time.Time
	To      time.Time
	Text    string
	TSQuery string
}

// Scoped reports whether the filter restricts results to a group.
func (f ArchiveFilter) Scoped() bool {
	return f.GroupID != nil
}

// EmptyRange reports whether the time range cannot contain any row.
func (f ArchiveFilter) EmptyRange() bool {
	return f.From.After(f.To)
}
