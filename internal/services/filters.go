package services

import (
	"context"
	"github.com/maxaizer/apply-archive/internal/entities"
	"github.com/maxaizer/apply-archive/internal/events"
	"github.com/maxaizer/apply-archive/internal/logger"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"slices"
	"strings"
	"time"
)

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02", "01/02/2006"}

// ApplyFilters returns a new slice with the records matching filter, ordered by it.
// The input is left untouched.
func ApplyFilters(records []entities.JobRecord, filter entities.FilterState) []entities.JobRecord {
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	result := lo.Filter(records, func(r entities.JobRecord, _ int) bool {
		if filter.Status != "" && filter.Status != entities.StatusAll && r.Status != filter.Status {
			return false
		}
		return search == "" || matchesSearch(r, search)
	})

	compare := comparator(filter.SortBy)
	if filter.SortOrder == entities.SortDesc {
		asc := compare
		compare = func(a, b entities.JobRecord) int { return -asc(a, b) }
	}
	slices.SortStableFunc(result, compare)
	return result
}

func matchesSearch(r entities.JobRecord, search string) bool {
	return lo.SomeBy([]string{r.CompanyName, r.Position, r.Location, r.JobDescription}, func(field string) bool {
		return strings.Contains(strings.ToLower(field), search)
	})
}

func comparator(sortBy entities.SortBy) func(a, b entities.JobRecord) int {
	switch sortBy {
	case entities.SortByCompany:
		collator := collate.New(language.English)
		return func(a, b entities.JobRecord) int {
			return collator.CompareString(a.CompanyName, b.CompanyName)
		}
	case entities.SortByStatus:
		collator := collate.New(language.English)
		return func(a, b entities.JobRecord) int {
			return collator.CompareString(string(a.Status), string(b.Status))
		}
	default:
		return func(a, b entities.JobRecord) int {
			return sortDate(a).Compare(sortDate(b))
		}
	}
}

// sortDate is the application date, or the last update when there is none.
// Unparsable values sort as the earliest possible date.
func sortDate(r entities.JobRecord) time.Time {
	value := r.ApplicationDate
	if value == "" {
		value = r.LastUpdated
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (s *Storage) LoadFilter(ctx context.Context) entities.FilterState {
	return s.local.LoadFilter(ctx)
}

// SaveFilter persists a valid filter; a failed write is only reported as a notice.
func (s *Storage) SaveFilter(ctx context.Context, filter entities.FilterState) error {
	if err := filter.Validate(); err != nil {
		return err
	}
	if err := s.local.SaveFilter(ctx, filter); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeLocalStore).
			Errorf("failed to save filter: %v", err)
		s.notify(events.NoticeWarning, "filter", "Failed to save filter preferences.")
	}
	return nil
}
