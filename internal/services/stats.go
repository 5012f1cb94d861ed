package services

import (
	"github.com/maxaizer/apply-archive/internal/entities"
	"github.com/samber/lo"
	"math"
)

type Stats struct {
	Total        int
	Applied      int
	Interviewing int
	Offered      int
	ByStatus     map[entities.Status]int
	// SuccessRate is the share of offers in percent, rounded.
	SuccessRate int
}

func ComputeStats(records []entities.JobRecord) Stats {
	byStatus := lo.CountValuesBy(records, func(r entities.JobRecord) entities.Status {
		return r.Status
	})

	stats := Stats{
		Total:        len(records),
		Applied:      byStatus[entities.StatusApplied],
		Interviewing: byStatus[entities.StatusInterviewing],
		Offered:      byStatus[entities.StatusOffered],
		ByStatus:     byStatus,
	}
	if stats.Total > 0 {
		stats.SuccessRate = int(math.Round(float64(stats.Offered) / float64(stats.Total) * 100))
	}
	return stats
}

func (s *Storage) Stats(records []entities.JobRecord) Stats {
	return ComputeStats(records)
}
