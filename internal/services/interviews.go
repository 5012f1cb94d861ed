package services

import (
	"context"
	"github.com/maxaizer/apply-archive/internal/entities"
	"github.com/maxaizer/apply-archive/internal/repositories"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

var (
	ErrRecordNotFound     = errors.New("job application not found")
	ErrInterviewNotFound  = errors.New("interview not found")
	ErrDuplicateInterview = errors.New("interview with this id already exists")
)

func isInvariantViolation(err error) bool {
	return errors.Is(err, repositories.ErrDuplicateID)
}

// AddInterview appends interview to the record's list, assigning an id when it has none.
func (s *Storage) AddInterview(ctx context.Context, recordID string,
	interview entities.InterviewRecord) (entities.JobRecord, error) {

	record, err := s.loadParent(ctx, recordID)
	if err != nil {
		return entities.JobRecord{}, err
	}

	if interview.ID == "" {
		interview.ID = s.newID()
	}
	if err := interview.Validate(); err != nil {
		return entities.JobRecord{}, err
	}
	if _, _, found := record.FindInterview(interview.ID); found {
		return entities.JobRecord{}, ErrDuplicateInterview
	}

	record.Interviews = append(record.Interviews, interview)
	return s.UpdateRecord(ctx, *record)
}

func (s *Storage) UpdateInterview(ctx context.Context, recordID string,
	interview entities.InterviewRecord) (entities.JobRecord, error) {

	record, err := s.loadParent(ctx, recordID)
	if err != nil {
		return entities.JobRecord{}, err
	}

	_, index, found := record.FindInterview(interview.ID)
	if !found {
		return entities.JobRecord{}, ErrInterviewNotFound
	}
	if err := interview.Validate(); err != nil {
		return entities.JobRecord{}, err
	}

	interviews := make([]entities.InterviewRecord, len(record.Interviews))
	copy(interviews, record.Interviews)
	interviews[index] = interview
	record.Interviews = interviews

	return s.UpdateRecord(ctx, *record)
}

func (s *Storage) RemoveInterview(ctx context.Context, recordID, interviewID string) (entities.JobRecord, error) {

	record, err := s.loadParent(ctx, recordID)
	if err != nil {
		return entities.JobRecord{}, err
	}

	if _, _, found := record.FindInterview(interviewID); !found {
		return entities.JobRecord{}, ErrInterviewNotFound
	}

	record.Interviews = lo.Reject(record.Interviews, func(i entities.InterviewRecord, _ int) bool {
		return i.ID == interviewID
	})
	return s.UpdateRecord(ctx, *record)
}

func (s *Storage) loadParent(ctx context.Context, recordID string) (*entities.JobRecord, error) {
	record, err := s.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrRecordNotFound
	}
	return record, nil
}
