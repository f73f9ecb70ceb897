// Package repository implements the database access layer for the message archive.
// This file implements full-text searches over archived messages.
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/grigden22/temnet-parser/internal/apperr"
	"github.com/grigden22/temnet-parser/internal/database"
	"github.com/grigden22/temnet-parser/internal/models"
)

// ReportSortColumns maps the sort properties accepted for per-user reports to SQL.
var ReportSortColumns = map[string]string{
	"username": "a.username",
	"count":    "message_count",
}

// MessageSortColumns maps the sort properties accepted for message pages to SQL.
var MessageSortColumns = map[string]string{
	"createdAt": "a.created_at",
	"username":  "a.username",
	"id":        "a.id",
}

// ArchiveRepository runs filtered queries against the archive table.
//
// Every query shares one predicate:
//
//	created_at BETWEEN from AND to
//	txt_tsv @@ to_tsquery('simple', tsquery)
//	[username belongs to group (and user)]
//
// so page queries and their counts always agree.
type ArchiveRepository struct{}

// NewArchiveRepository creates a new instance of ArchiveRepository.
func NewArchiveRepository() *ArchiveRepository {
	return &ArchiveRepository{}
}

// SearchReports returns one page of per-user message counts.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - f: Filter with TSQuery already rendered
//   - p: Page request; sort properties must be keys of ReportSortColumns
//
// Returns:
//   - []models.Report: One row per matching username, never nil
//   - error: apperr.ErrBadRequest for an unknown sort property, database error otherwise
func (r *ArchiveRepository) SearchReports(ctx context.Context, f models.ArchiveFilter, p models.Pageable) ([]models.Report, error) {
	order, err := orderBy(p.Sort, ReportSortColumns, "a.username")
	if err != nil {
		return nil, err
	}

	where, args := archiveWhere(f)
	args = append(args, p.Size, p.Offset())
	query := fmt.Sprintf(`
		SELECT a.username, COUNT(*) AS message_count
		FROM archive a
		%s
		GROUP BY a.username
		ORDER BY %s
		LIMIT $%d OFFSET $%d`, where, order, len(args)-1, len(args))

	rows, err := database.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search archive reports: %w", err)
	}
	defer rows.Close()

	reports := []models.Report{}
	for rows.Next() {
		var rep models.Report
		if err := rows.Scan(&rep.Username, &rep.Count); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		reports = append(reports, rep)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report rows: %w", err)
	}

	return reports, nil
}

// CountReports returns the number of distinct usernames with matching messages,
// i.e. the total number of rows SearchReports can return across all pages.
func (r *ArchiveRepository) CountReports(ctx context.Context, f models.ArchiveFilter) (int64, error) {
	where, args := archiveWhere(f)
	query := `SELECT COUNT(DISTINCT a.username) FROM archive a ` + where

	var total int64
	if err := database.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count archive reports: %w", err)
	}
	return total, nil
}

// CountMessages returns the number of matching messages.
// This is the true aggregate behind the total count endpoints.
func (r *ArchiveRepository) CountMessages(ctx context.Context, f models.ArchiveFilter) (int64, error) {
	where, args := archiveWhere(f)
	query := `SELECT COUNT(*) FROM archive a ` + where

	var total int64
	if err := database.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count archive messages: %w", err)
	}
	return total, nil
}

// SearchMessages returns one page of matching archive rows.
// Sort properties must be keys of MessageSortColumns; rows are tie-broken by id.
func (r *ArchiveRepository) SearchMessages(ctx context.Context, f models.ArchiveFilter, p models.Pageable) ([]models.Archive, error) {
	order, err := orderBy(p.Sort, MessageSortColumns, "a.id")
	if err != nil {
		return nil, err
	}

	where, args := archiveWhere(f)
	args = append(args, p.Size, p.Offset())
	query := fmt.Sprintf(`
		SELECT a.id, a.username, a.created_at, a.txt
		FROM archive a
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`, where, order, len(args)-1, len(args))

	rows, err := database.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search archive messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Archive{}
	for rows.Next() {
		var m models.Archive
		if err := rows.Scan(&m.ID, &m.Username, &m.CreatedAt, &m.Txt); err != nil {
			return nil, fmt.Errorf("failed to scan archive row: %w", err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating archive rows: %w", err)
	}

	return messages, nil
}

// archiveWhere builds the shared WHERE clause and its positional arguments.
// Group and user restrictions resolve usernames through the users table
// because archive.username is not a foreign key.
func archiveWhere(f models.ArchiveFilter) (string, []interface{}) {
	clauses := []string{
		"a.created_at BETWEEN $1 AND $2",
		"a.txt_tsv @@ to_tsquery('simple', $3)",
	}
	args := []interface{}{f.From, f.To, f.TSQuery}

	if f.GroupID != nil {
		args = append(args, *f.GroupID)
		members := fmt.Sprintf("SELECT u.username FROM users u WHERE u.group_id = $%d", len(args))
		if f.UserID != nil {
			args = append(args, *f.UserID)
			members += fmt.Sprintf(" AND u.id = $%d", len(args))
		}
		clauses = append(clauses, "a.username IN ("+members+")")
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}

// orderBy renders an ORDER BY list from whitelisted properties.
// The tiebreak column is appended ascending unless already sorted on.
func orderBy(sort []models.SortOrder, columns map[string]string, tiebreak string) (string, error) {
	parts := make([]string, 0, len(sort)+1)
	seen := make(map[string]bool, len(sort))

	for _, s := range sort {
		col, ok := columns[s.Property]
		if !ok {
			return "", fmt.Errorf("%w: unknown sort property %q", apperr.ErrBadRequest, s.Property)
		}
		if seen[col] {
			continue
		}
		seen[col] = true

		dir := "ASC"
		if s.Direction == models.Desc {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}

	if !seen[tiebreak] {
		parts = append(parts, tiebreak+" ASC")
	}
	return strings.Join(parts, ", "), nil
}
