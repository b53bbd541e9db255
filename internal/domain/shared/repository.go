package shared

// Filter represents query filter options
type Filter struct {
	Page     int
	PageSize int
	// IncludeDeleted also returns soft-deleted records
	IncludeDeleted bool
}

// DefaultFilter returns a filter with default values
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: 100,
	}
}

// Offset returns the row offset for the filter's page
func (f Filter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}
