package shared

// MaxPageSize caps every listing regardless of what the caller asks for
const MaxPageSize = 100

// Filter carries paging, ordering and equality filters for list queries.
// Filters keys are column names; repositories whitelist them.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Filters  map[string]any
}

// DefaultFilter returns the first page of 20, newest first
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: 20,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Filters:  make(map[string]any),
	}
}

// Limit returns the page size clamped to [1, MaxPageSize], or 0 when paging is off
func (f Filter) Limit() int {
	switch {
	case f.PageSize <= 0:
		return 0
	case f.PageSize > MaxPageSize:
		return MaxPageSize
	}
	return f.PageSize
}

// Offset returns the number of rows before the requested page
func (f Filter) Offset() int {
	if f.Page <= 1 || f.Limit() == 0 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}
