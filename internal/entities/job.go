package entities

import (
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

type Status string

const (
	StatusSaved        Status = "saved"
	StatusApplied      Status = "applied"
	StatusInterviewing Status = "interviewing"
	StatusOffered      Status = "offered"
	StatusRejected     Status = "rejected"
	StatusAccepted     Status = "accepted"
	StatusWithdrawn    Status = "withdrawn"
)

// StatusAll is the filter sentinel matching every status.
const StatusAll Status = "all"

var Statuses = []Status{StatusSaved, StatusApplied, StatusInterviewing, StatusOffered,
	StatusRejected, StatusAccepted, StatusWithdrawn}

func (s Status) IsValid() bool {
	return lo.Contains(Statuses, s)
}

type InterviewType string

const (
	InterviewPhone     InterviewType = "phone"
	InterviewVideo     InterviewType = "video"
	InterviewOnsite    InterviewType = "onsite"
	InterviewTechnical InterviewType = "technical"
	InterviewOther     InterviewType = "other"
)

type InterviewRecord struct {
	ID              string        `json:"id" validate:"required"`
	Date            string        `json:"date,omitempty"`
	Type            InterviewType `json:"type,omitempty" validate:"omitempty,oneof=phone video onsite technical other"`
	InterviewerName string        `json:"interviewerName,omitempty"`
	Notes           string        `json:"notes,omitempty"`
	Completed       bool          `json:"completed"`
}

// JobRecord is one job application. Descriptive fields are optional; only ID, Status and
// LastUpdated are required once the record is persisted.
type JobRecord struct {
	ID              string            `json:"id" validate:"required"`
	CompanyName     string            `json:"companyName,omitempty"`
	Position        string            `json:"position,omitempty"`
	Location        string            `json:"location,omitempty"`
	JobDescription  string            `json:"jobDescription,omitempty"`
	ApplicationDate string            `json:"applicationDate,omitempty"`
	Status          Status            `json:"status" validate:"required,oneof=saved applied interviewing offered rejected accepted withdrawn"`
	Notes           string            `json:"notes,omitempty"`
	Salary          string            `json:"salary,omitempty"`
	URL             string            `json:"url,omitempty"`
	ContactName     string            `json:"contactName,omitempty"`
	ContactEmail    string            `json:"contactEmail,omitempty"`
	ResumePath      string            `json:"resumePath,omitempty"`
	CoverLetterPath string            `json:"coverLetterPath,omitempty"`
	LastUpdated     string            `json:"lastUpdated" validate:"required"`
	Interviews      []InterviewRecord `json:"interviews,omitempty" validate:"omitempty,unique=ID,dive"`
}

var validate = validator.New()

func (j JobRecord) Validate() error {
	return validate.Struct(j)
}

func (j JobRecord) FindInterview(id string) (InterviewRecord, int, bool) {
	return lo.FindIndexOf(j.Interviews, func(i InterviewRecord) bool {
		return i.ID == id
	})
}

func (i InterviewRecord) Validate() error {
	return validate.Struct(i)
}
