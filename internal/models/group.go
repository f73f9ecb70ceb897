// Package models defines data structures for the message archive.
// This file contains the Group model used to scope archive searches.
package models

// Group represents a named collection of archived chat users.
//
// Database: groups table
type Group struct {
	ID   int64  `db:"id" json:"id"`     // Primary key
	Name string `db:"name" json:"name"` // Display name (e.g., "ВСЕ", "Support")
}
