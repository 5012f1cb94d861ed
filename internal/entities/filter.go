package entities

type SortBy string

const (
	SortByDate    SortBy = "date"
	SortByCompany SortBy = "company"
	SortByStatus  SortBy = "status"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// FilterState is the user's last view preference, persisted apart from the records.
type FilterState struct {
	Search    string    `json:"search"`
	Status    Status    `json:"status" validate:"required,oneof=all saved applied interviewing offered rejected accepted withdrawn"`
	SortBy    SortBy    `json:"sortBy" validate:"required,oneof=date company status"`
	SortOrder SortOrder `json:"sortOrder" validate:"required,oneof=asc desc"`
}

func DefaultFilter() FilterState {
	return FilterState{
		Search:    "",
		Status:    StatusAll,
		SortBy:    SortByDate,
		SortOrder: SortDesc,
	}
}

func (f FilterState) Validate() error {
	return validate.Struct(f)
}
