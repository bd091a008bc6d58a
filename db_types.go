package postboot

const (
	Ascending  = 1
	Descending = -1
)

type SortField struct {
	Field     string `json:"field"`
	Direction int    `json:"direction"`
}

// PageRequest limits and orders a FindBy query. A Size of zero means no limit.
type PageRequest struct {
	Page int       `json:"page"`
	Size int       `json:"size"`
	Sort SortField `json:"sort"`
}

func (p PageRequest) offset() int {
	if p.Page <= 1 || p.Size <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Size
}

// Document is implemented by every struct stored through SQLRepository.
type Document interface {
	GetTableName() string
}
