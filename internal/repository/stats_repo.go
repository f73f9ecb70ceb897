// Package repository implements the database access layer for the message archive.
// This file provides whole-archive aggregation queries.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/grigden22/temnet-parser/internal/database"
	"github.com/grigden22/temnet-parser/internal/models"
)

// StatsRepository handles statistical queries over the archive table.
type StatsRepository struct{}

// NewStatsRepository creates a new instance of StatsRepository.
func NewStatsRepository() *StatsRepository {
	return &StatsRepository{}
}

// Summary returns message and sender totals plus the archived time span.
// MIN/MAX are NULL on an empty archive, which leaves the time fields nil.
func (r *StatsRepository) Summary(ctx context.Context) (*models.ArchiveSummary, error) {
	query := `
		SELECT
			COUNT(*) AS total_messages,
			COUNT(DISTINCT a.username) AS distinct_users,
			MIN(a.created_at) AS first_message_at,
			MAX(a.created_at) AS last_message_at
		FROM archive a
	`

	var (
		summary     models.ArchiveSummary
		first, last *time.Time
	)
	err := database.DB.QueryRow(ctx, query).Scan(
		&summary.TotalMessages,
		&summary.DistinctUsers,
		&first,
		&last,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize archive: %w", err)
	}

	summary.FirstMessageAt = first
	summary.LastMessageAt = last
	return &summary, nil
}
