// Package services provides the business logic layer for the message archive.
// This file implements archive searches: filter preparation, full-text query
// translation, pagination, and aggregate counts.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/grigden22/temnet-parser/internal/apperr"
	"github.com/grigden22/temnet-parser/internal/fulltext"
	"github.com/grigden22/temnet-parser/internal/models"
	"github.com/grigden22/temnet-parser/internal/repository"
)

// GroupStore is the subset of group queries the service needs.
type GroupStore interface {
	ListAll(ctx context.Context) ([]models.Group, error)
	GetByID(ctx context.Context, id int64) (*models.Group, error)
}

// UserStore is the subset of user queries the service needs.
type UserStore interface {
	ListByGroup(ctx context.Context, groupID int64) ([]models.User, error)
}

// ArchiveStore is the subset of archive queries the service needs.
type ArchiveStore interface {
	SearchReports(ctx context.Context, f models.ArchiveFilter, p models.Pageable) ([]models.Report, error)
	CountReports(ctx context.Context, f models.ArchiveFilter) (int64, error)
	CountMessages(ctx context.Context, f models.ArchiveFilter) (int64, error)
	SearchMessages(ctx context.Context, f models.ArchiveFilter, p models.Pageable) ([]models.Archive, error)
}

// StatsStore provides whole-archive statistics.
type StatsStore interface {
	Summary(ctx context.Context) (*models.ArchiveSummary, error)
}

// ArchiveService answers the archive API.
//
// Dependencies:
//   - GroupStore, UserStore: membership lookups
//   - ArchiveStore: filtered searches and counts
//   - StatsStore: archive summary
//
// Every store call runs under queryTimeout derived from the caller's context.
type ArchiveService struct {
	groups       GroupStore
	users        UserStore
	archive      ArchiveStore
	stats        StatsStore
	queryTimeout time.Duration
}

// NewArchiveService creates an ArchiveService backed by the PostgreSQL repositories.
func NewArchiveService(queryTimeout time.Duration) *ArchiveService {
	return NewArchiveServiceWithStores(
		repository.NewGroupRepository(),
		repository.NewUserRepository(),
		repository.NewArchiveRepository(),
		repository.NewStatsRepository(),
		queryTimeout,
	)
}

// NewArchiveServiceWithStores creates an ArchiveService over arbitrary stores.
func NewArchiveServiceWithStores(groups GroupStore, users UserStore, archive ArchiveStore, stats StatsStore, queryTimeout time.Duration) *ArchiveService {
	return &ArchiveService{
		groups:       groups,
		users:        users,
		archive:      archive,
		stats:        stats,
		queryTimeout: queryTimeout,
	}
}

// Groups lists all groups ordered by name.
func (s *ArchiveService) Groups(ctx context.Context) ([]models.Group, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.groups.ListAll(ctx)
}

// GroupUsernames returns the usernames of a group's members in ascending order.
// An unknown group yields an empty list rather than an error.
func (s *ArchiveService) GroupUsernames(ctx context.Context, groupID int64) ([]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return []string{}, nil
	}

	users, err := s.users.ListByGroup(ctx, group.ID)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	return names, nil
}

// SearchReports returns a page of per-user counts of messages matching the filter.
// TotalElements is the number of distinct matching users.
func (s *ArchiveService) SearchReports(ctx context.Context, f models.ArchiveFilter, p models.Pageable) (*models.Page[models.Report], error) {
	if err := checkSort(p.Sort, repository.ReportSortColumns); err != nil {
		return nil, err
	}

	f, matchable, err := prepare(f)
	if err != nil {
		return nil, err
	}
	if !matchable {
		return models.NewPage[models.Report](nil, p, 0), nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	total, err := s.archive.CountReports(ctx, f)
	if err != nil {
		return nil, err
	}
	if total == 0 || int64(p.Offset()) >= total {
		return models.NewPage[models.Report](nil, p, total), nil
	}

	reports, err := s.archive.SearchReports(ctx, f, p)
	if err != nil {
		return nil, err
	}
	return models.NewPage(reports, p, total), nil
}

// TotalCount counts every message matching the filter and returns it as a
// single report row labeled models.TotalLabel. The count covers the whole
// filtered set, not just one page of per-user rows.
func (s *ArchiveService) TotalCount(ctx context.Context, f models.ArchiveFilter) (*models.Page[models.Report], error) {
	f, matchable, err := prepare(f)
	if err != nil {
		return nil, err
	}

	var total int64
	if matchable {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		total, err = s.archive.CountMessages(ctx, f)
		if err != nil {
			return nil, err
		}
	}

	return models.SinglePage([]models.Report{models.NewTotalReport(total)}), nil
}

// SearchMessages returns a page of matching archive rows, newest first by default.
func (s *ArchiveService) SearchMessages(ctx context.Context, f models.ArchiveFilter, p models.Pageable) (*models.Page[models.Archive], error) {
	if len(p.Sort) == 0 {
		p.Sort = []models.SortOrder{{Property: "createdAt", Direction: models.Desc}}
	}
	if err := checkSort(p.Sort, repository.MessageSortColumns); err != nil {
		return nil, err
	}

	f, matchable, err := prepare(f)
	if err != nil {
		return nil, err
	}
	if !matchable {
		return models.NewPage[models.Archive](nil, p, 0), nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	total, err := s.archive.CountMessages(ctx, f)
	if err != nil {
		return nil, err
	}
	if total == 0 || int64(p.Offset()) >= total {
		return models.NewPage[models.Archive](nil, p, total), nil
	}

	messages, err := s.archive.SearchMessages(ctx, f, p)
	if err != nil {
		return nil, err
	}
	return models.NewPage(messages, p, total), nil
}

// Summary returns whole-archive statistics.
func (s *ArchiveService) Summary(ctx context.Context) (*models.ArchiveSummary, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.stats.Summary(ctx)
}

func (s *ArchiveService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

// prepare renders the filter's full-text query. matchable is false when the
// filter provably selects nothing: an inverted time range or a query that
// only excludes words.
func prepare(f models.ArchiveFilter) (models.ArchiveFilter, bool, error) {
	tsquery, err := fulltext.Translate(f.Text)
	switch {
	case errors.Is(err, fulltext.ErrNoPositiveTerms):
		return f, false, nil
	case err != nil:
		return f, false, fmt.Errorf("%w: %w", apperr.ErrBadRequest, err)
	}

	f.TSQuery = tsquery
	if f.GroupID == nil {
		f.UserID = nil
	}
	return f, !f.EmptyRange(), nil
}

func checkSort(sort []models.SortOrder, columns map[string]string) error {
	for _, s := range sort {
		if _, ok := columns[s.Property]; !ok {
			return fmt.Errorf("%w: unknown sort property %q", apperr.ErrBadRequest, s.Property)
		}
	}
	return nil
}
