// Package repository implements the database access layer for the message archive.
// This file handles group lookups used to scope archive searches.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/grigden22/temnet-parser/internal/database"
	"github.com/grigden22/temnet-parser/internal/models"
	"github.com/jackc/pgx/v5"
)

// GroupRepository handles group-related database operations.
// Groups are read-only from the archive service's perspective.
type GroupRepository struct{}

// NewGroupRepository creates a new instance of GroupRepository.
func NewGroupRepository() *GroupRepository {
	return &GroupRepository{}
}

// ListAll retrieves all groups ordered by name.
// Used to populate the group selector of the search page.
//
// Returns:
//   - []models.Group: Groups in ascending name order, empty when none exist
//   - error: Database error if query fails, nil on success
func (r *GroupRepository) ListAll(ctx context.Context) ([]models.Group, error) {
	query := `
		SELECT g.id, g.name
		FROM groups g
		ORDER BY g.name ASC, g.id ASC
	`

	rows, err := database.DB.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	groups := []models.Group{}
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("failed to scan group row: %w", err)
		}
		groups = append(groups, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group rows: %w", err)
	}

	return groups, nil
}

// GetByID retrieves a single group.
//
// Returns:
//   - *models.Group: The group, or nil when no group has this ID
//   - error: Database error if query fails; a missing group is not an error
func (r *GroupRepository) GetByID(ctx context.Context, id int64) (*models.Group, error) {
	// Lookup by primary key returns at most one row, so there is no ORDER BY.
	query := `SELECT g.id, g.name FROM groups g WHERE g.id = $1`

	var g models.Group
	err := database.DB.QueryRow(ctx, query, id).Scan(&g.ID, &g.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group %d: %w", id, err)
	}

	return &g, nil
}
