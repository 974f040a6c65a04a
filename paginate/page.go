package paginate

// PageInfo carries the continuation state of a page.
type PageInfo struct {
	// HasMore reports whether rows exist beyond this page in the
	// direction of travel.
	HasMore bool
	// NextCursor continues forward from the last row of the page.
	// Empty when the forward edge was reached.
	NextCursor string
	// PrevCursor continues backward from the first row of the page.
	// Empty on the first page.
	PrevCursor string
}

// Page is one bounded slice of a scoped, ordered result set.
type Page[E any] struct {
	Items    []*E
	PageInfo PageInfo
}
