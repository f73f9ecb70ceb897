package services_test

import (
	"context"
	"sort"

	"github.com/grigden22/temnet-parser/internal/models"
)

// memoryArchive is an in-memory stand-in for the PostgreSQL stores.
// It applies the time range and group/user scope; full-text matching is
// delegated to the database in production, so here every message whose
// text appears in matching is treated as a hit.
type memoryArchive struct {
	groups   []models.Group
	users    []models.User
	messages []models.Archive
	matching map[string]bool

	lastTSQuery string
	queries     int
	err         error
}

func (m *memoryArchive) ListAll(ctx context.Context) ([]models.Group, error) {
	m.queries++
	return m.groups, m.err
}

func (m *memoryArchive) GetByID(ctx context.Context, id int64) (*models.Group, error) {
	m.queries++
	if m.err != nil {
		return nil, m.err
	}
	for _, g := range m.groups {
		if g.ID == id {
			g := g
			return &g, nil
		}
	}
	return nil, nil
}

func (m *memoryArchive) ListByGroup(ctx context.Context, groupID int64) ([]models.User, error) {
	m.queries++
	users := []models.User{}
	for _, u := range m.users {
		if u.GroupID == groupID {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, m.err
}

func (m *memoryArchive) filter(f models.ArchiveFilter) []models.Archive {
	m.lastTSQuery = f.TSQuery

	allowed := map[string]bool{}
	if f.GroupID != nil {
		for _, u := range m.users {
			if u.GroupID == *f.GroupID && (f.UserID == nil || u.ID == *f.UserID) {
				allowed[u.Username] = true
			}
		}
	}

	var out []models.Archive
	for _, msg := range m.messages {
		if msg.CreatedAt.Before(f.From) || msg.CreatedAt.After(f.To) {
			continue
		}
		if f.GroupID != nil && !allowed[msg.Username] {
			continue
		}
		if !m.matching[msg.Txt] {
			continue
		}
		out = append(out, msg)
	}
	return out
}

func (m *memoryArchive) reports(f models.ArchiveFilter) []models.Report {
	counts := map[string]int64{}
	for _, msg := range m.filter(f) {
		counts[msg.Username]++
	}
	reports := make([]models.Report, 0, len(counts))
	for name, n := range counts {
		reports = append(reports, models.Report{Username: name, Count: n})
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Username < reports[j].Username })
	return reports
}

func (m *memoryArchive) SearchReports(ctx context.Context, f models.ArchiveFilter, p models.Pageable) ([]models.Report, error) {
	m.queries++
	if m.err != nil {
		return nil, m.err
	}
	return window(m.reports(f), p), nil
}

func (m *memoryArchive) CountReports(ctx context.Context, f models.ArchiveFilter) (int64, error) {
	m.queries++
	if m.err != nil {
		return 0, m.err
	}
	return int64(len(m.reports(f))), nil
}

func (m *memoryArchive) CountMessages(ctx context.Context, f models.ArchiveFilter) (int64, error) {
	m.queries++
	if m.err != nil {
		return 0, m.err
	}
	return int64(len(m.filter(f))), nil
}

func (m *memoryArchive) SearchMessages(ctx context.Context, f models.ArchiveFilter, p models.Pageable) ([]models.Archive, error) {
	m.queries++
	if m.err != nil {
		return nil, m.err
	}
	msgs := m.filter(f)
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].ID < msgs[j].ID })
	return window(msgs, p), nil
}

func (m *memoryArchive) Summary(ctx context.Context) (*models.ArchiveSummary, error) {
	m.queries++
	if m.err != nil {
		return nil, m.err
	}
	return &models.ArchiveSummary{TotalMessages: int64(len(m.messages))}, nil
}

func window[T any](items []T, p models.Pageable) []T {
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
