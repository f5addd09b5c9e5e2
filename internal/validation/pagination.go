package validation

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Pagination is embedded by every paginated read.
type Pagination struct {
	Page     int    `json:"page" query:"page" validate:"min=1"`
	PageSize int    `json:"pageSize" query:"pageSize" validate:"min=1,max=100"`
	Query    string `json:"query" query:"query" validate:"max=200"`
	Filter   string `json:"filter" query:"filter" validate:"max=30"`
}

func (p *Pagination) ApplyDefaults() {
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.PageSize == 0 {
		p.PageSize = DefaultPageSize
	}
}

// IsNext reports whether rows exist beyond the page that returned n rows.
func (p Pagination) IsNext(total int64, n int) bool {
	return total > int64((p.Page-1)*p.PageSize+n)
}
