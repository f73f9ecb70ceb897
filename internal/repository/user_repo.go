// Package repository implements the database access layer for the message archive.
// This file handles archived chat users and their group membership.
package repository

import (
	"context"
	"fmt"

	"github.com/grigden22/temnet-parser/internal/database"
	"github.com/grigden22/temnet-parser/internal/models"
)

// UserRepository handles user-related database operations.
type UserRepository struct{}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// ListByGroup retrieves all users belonging to a group, ordered by username.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - groupID: ID of the group; unknown IDs yield an empty slice
//
// Returns:
//   - []models.User: Members in ascending username order, never nil
//   - error: Database error if query fails, nil on success
func (r *UserRepository) ListByGroup(ctx context.Context, groupID int64) ([]models.User, error) {
	query := `
		SELECT u.id, u.username, u.group_id
		FROM users u
		WHERE u.group_id = $1
		ORDER BY u.username ASC, u.id ASC
	`

	rows, err := database.DB.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users of group %d: %w", groupID, err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.GroupID); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}
