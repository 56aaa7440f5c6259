package services

// PageParams selects one page of a listing. Zero values mean page 1 and the
// service default size.
type PageParams struct {
	Page  int
	Limit int
}

func (p PageParams) normalize(defaultLimit int) PageParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	return p
}

func (p PageParams) offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is one slice of a listing plus the numbers needed to describe it
type Page[T any] struct {
	Items       []T
	Total       int64
	CurrentPage int
	PerPage     int
}

// LastPage is never below 1, even for an empty listing
func (p Page[T]) LastPage() int {
	if p.PerPage < 1 || p.Total == 0 {
		return 1
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

// From is the 1-based position of the first item, 0 when the page is empty
func (p Page[T]) From() int {
	if len(p.Items) == 0 {
		return 0
	}
	return (p.CurrentPage-1)*p.PerPage + 1
}

// To is the 1-based position of the last item, 0 when the page is empty
func (p Page[T]) To() int {
	if len(p.Items) == 0 {
		return 0
	}
	return p.From() + len(p.Items) - 1
}
