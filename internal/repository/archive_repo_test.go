// Package repository_test provides comprehensive unit tests for the repository layer.
// Tests use pgxmock v4 for database mocking and follow table-driven testing patterns.
// Archive repository tests verify full-text search, pagination, and aggregate counts.
package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/grigden22/temnet-parser/internal/apperr"
	"github.com/grigden22/temnet-parser/internal/database"
	"github.com/grigden22/temnet-parser/internal/models"
	"github.com/grigden22/temnet-parser/internal/repository"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testFrom = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	testTo   = time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)
)

// setupMock creates a pgxmock pool and injects it into the database package.
func setupMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	oldDB := database.DB
	database.DB = mock
	t.Cleanup(func() {
		database.DB = oldDB
		mock.Close()
	})
	return mock
}

func int64Ptr(v int64) *int64 { return &v }

// TestArchiveRepository_SearchReports verifies the grouped per-user search.
//
// Query Details:
//   - Filters by inclusive time range and tsquery
//   - Group and user restrictions resolve usernames through users
//   - Orders by requested property with username tiebreak
//   - LIMIT/OFFSET come last in the argument list
func TestArchiveRepository_SearchReports(t *testing.T) {
	tests := []struct {
		name      string
		filter    models.ArchiveFilter
		page      models.Pageable
		sqlRegexp string
		args      []interface{}
	}{
		{
			name: "group and user scoped, sorted by count",
			filter: models.ArchiveFilter{
				GroupID: int64Ptr(3), UserID: int64Ptr(7),
				From: testFrom, To: testTo, TSQuery: "'foo'",
			},
			page: models.Pageable{Page: 1, Size: 10, Sort: []models.SortOrder{{Property: "count", Direction: models.Desc}}},
			sqlRegexp: `SELECT a.username, COUNT\(\*\) AS message_count FROM archive a ` +
				`WHERE a.created_at BETWEEN \$1 AND \$2 AND a.txt_tsv @@ to_tsquery\('simple', \$3\) ` +
				`AND a.username IN \(SELECT u.username FROM users u WHERE u.group_id = \$4 AND u.id = \$5\) ` +
				`GROUP BY a.username ORDER BY message_count DESC, a.username ASC LIMIT \$6 OFFSET \$7`,
			args: []interface{}{testFrom, testTo, "'foo'", int64(3), int64(7), 10, 10},
		},
		{
			name: "whole group",
			filter: models.ArchiveFilter{
				GroupID: int64Ptr(3),
				From:    testFrom, To: testTo, TSQuery: "'foo'",
			},
			page: models.Pageable{Page: 0, Size: 20},
			sqlRegexp: `AND a.username IN \(SELECT u.username FROM users u WHERE u.group_id = \$4\) ` +
				`GROUP BY a.username ORDER BY a.username ASC LIMIT \$5 OFFSET \$6`,
			args: []interface{}{testFrom, testTo, "'foo'", int64(3), 20, 0},
		},
		{
			name:      "unscoped",
			filter:    models.ArchiveFilter{From: testFrom, To: testTo, TSQuery: "'foo' & !'bar'"},
			page:      models.Pageable{Page: 2, Size: 5},
			sqlRegexp: `to_tsquery\('simple', \$3\) GROUP BY a.username ORDER BY a.username ASC LIMIT \$4 OFFSET \$5`,
			args:      []interface{}{testFrom, testTo, "'foo' & !'bar'", 5, 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := setupMock(t)

			rows := pgxmock.NewRows([]string{"username", "message_count"}).
				AddRow("alice", int64(12)).
				AddRow("bob", int64(3))

			mock.ExpectQuery(tt.sqlRegexp).
				WithArgs(tt.args...).
				WillReturnRows(rows)

			repo := repository.NewArchiveRepository()

			reports, err := repo.SearchReports(context.Background(), tt.filter, tt.page)

			require.NoError(t, err)
			assert.Equal(t, []models.Report{{Username: "alice", Count: 12}, {Username: "bob", Count: 3}}, reports)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// TestArchiveRepository_SearchReports_Empty verifies an empty result is a non-nil slice.
func TestArchiveRepository_SearchReports_Empty(t *testing.T) {
	mock := setupMock(t)

	mock.ExpectQuery("SELECT a.username").
		WillReturnRows(pgxmock.NewRows([]string{"username", "message_count"}))

	repo := repository.NewArchiveRepository()
	reports, err := repo.SearchReports(context.Background(),
		models.ArchiveFilter{From: testFrom, To: testTo, TSQuery: "'x'"},
		models.Pageable{Size: 20})

	require.NoError(t, err)
	assert.NotNil(t, reports)
	assert.Empty(t, reports)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestArchiveRepository_SearchReports_UnknownSort verifies unknown sort properties
// are rejected before any SQL is issued.
func TestArchiveRepository_SearchReports_UnknownSort(t *testing.T) {
	mock := setupMock(t)

	repo := repository.NewArchiveRepository()
	_, err := repo.SearchReports(context.Background(),
		models.ArchiveFilter{From: testFrom, To: testTo, TSQuery: "'x'"},
		models.Pageable{Size: 20, Sort: []models.SortOrder{{Property: "txt; DROP TABLE archive", Direction: models.Asc}}})

	assert.ErrorIs(t, err, apperr.ErrBadRequest)
	assert.NoError(t, mock.ExpectationsWereMet(), "no query should be executed")
}

// TestArchiveRepository_SearchReports_QueryError verifies database failures propagate.
func TestArchiveRepository_SearchReports_QueryError(t *testing.T) {
	mock := setupMock(t)

	dbErr := errors.New("connection refused")
	mock.ExpectQuery("SELECT a.username").WillReturnError(dbErr)

	repo := repository.NewArchiveRepository()
	_, err := repo.SearchReports(context.Background(),
		models.ArchiveFilter{From: testFrom, To: testTo, TSQuery: "'x'"},
		models.Pageable{Size: 20})

	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, apperr.ErrBadRequest)
}

// TestArchiveRepository_Counts verifies the distinct-user and message aggregates.
//
// Test Scenario:
//   - 25 matching messages from 4 users in group 3
//   - Both counts share the search predicate
func TestArchiveRepository_Counts(t *testing.T) {
	filter := models.ArchiveFilter{GroupID: int64Ptr(3), From: testFrom, To: testTo, TSQuery: "'foo'"}
	args := []interface{}{testFrom, testTo, "'foo'", int64(3)}

	t.Run("distinct users", func(t *testing.T) {
		mock := setupMock(t)
		mock.ExpectQuery(`SELECT COUNT\(DISTINCT a.username\) FROM archive a WHERE (.+) AND u.group_id = \$4\)`).
			WithArgs(args...).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(4)))

		total, err := repository.NewArchiveRepository().CountReports(context.Background(), filter)

		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("messages", func(t *testing.T) {
		mock := setupMock(t)
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM archive a WHERE a.created_at BETWEEN \$1 AND \$2`).
			WithArgs(args...).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(25)))

		total, err := repository.NewArchiveRepository().CountMessages(context.Background(), filter)

		require.NoError(t, err)
		assert.Equal(t, int64(25), total)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("count failure", func(t *testing.T) {
		mock := setupMock(t)
		mock.ExpectQuery(`SELECT COUNT\(\*\)`).WillReturnError(errors.New("timeout"))

		_, err := repository.NewArchiveRepository().CountMessages(context.Background(), filter)
		assert.Error(t, err)
	})
}

// TestArchiveRepository_SearchMessages verifies raw message pages.
func TestArchiveRepository_SearchMessages(t *testing.T) {
	mock := setupMock(t)

	sent := time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"id", "username", "created_at", "txt"}).
		AddRow(int64(42), "alice", sent, "заявка в работе")

	mock.ExpectQuery(`SELECT a.id, a.username, a.created_at, a.txt FROM archive a WHERE (.+) ` +
		`ORDER BY a.created_at DESC, a.id ASC LIMIT \$4 OFFSET \$5`).
		WithArgs(testFrom, testTo, "'заявка'", 50, 0).
		WillReturnRows(rows)

	repo := repository.NewArchiveRepository()
	messages, err := repo.SearchMessages(context.Background(),
		models.ArchiveFilter{From: testFrom, To: testTo, TSQuery: "'заявка'"},
		models.Pageable{Size: 50, Sort: []models.SortOrder{{Property: "createdAt", Direction: models.Desc}}})

	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, int64(42), messages[0].ID)
	assert.Equal(t, "alice", messages[0].Username)
	assert.Equal(t, sent, messages[0].CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
