package listing

import "sort"

// View holds the inputs of a derived list: source, named filters, sort and page.
// Changing any filter resets the page to 1. A View is not safe for concurrent use.
type View[T any] struct {
	source  []T
	filters map[string]Predicate[T]
	sort    SortSpec
	sorters Sorters[T]
	page    int
	size    int
}

// NewView creates an empty view sorted with sorters, size items per page
func NewView[T any](sorters Sorters[T], size int) *View[T] {
	if size < 1 {
		size = DefaultPageSize
	}
	return &View[T]{
		filters: map[string]Predicate[T]{},
		sorters: sorters,
		page:    1,
		size:    size,
	}
}

// SetSource replaces the source list. The page is kept and clamped on read.
func (v *View[T]) SetSource(items []T) {
	v.source = items
}

// SetFilter installs the filter called name; nil removes it. The page resets to 1.
func (v *View[T]) SetFilter(name string, p Predicate[T]) {
	if p == nil {
		delete(v.filters, name)
	} else {
		v.filters[name] = p
	}
	v.page = 1
}

// ClearFilters removes every filter and resets the page to 1
func (v *View[T]) ClearFilters() {
	v.filters = map[string]Predicate[T]{}
	v.page = 1
}

// FilterNames lists the installed filters
func (v *View[T]) FilterNames() []string {
	names := make([]string, 0, len(v.filters))
	for name := range v.filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetSort changes the sort. Unknown keys are reported as false and leave the sort unchanged.
func (v *View[T]) SetSort(spec SortSpec) bool {
	if spec.Key != "" && !v.sorters.Has(spec.Key) {
		return false
	}
	v.sort = spec
	return true
}

// Sort returns the current sort
func (v *View[T]) Sort() SortSpec { return v.sort }

// SetPage selects a page; out-of-range values clamp when the page is read
func (v *View[T]) SetPage(page int) {
	v.page = page
}

// SetPageSize changes the page size and resets the page to 1
func (v *View[T]) SetPageSize(size int) {
	if size < 1 {
		size = DefaultPageSize
	}
	v.size = size
	v.page = 1
}

// Rows returns the filtered and sorted list
func (v *View[T]) Rows() []T {
	preds := make([]Predicate[T], 0, len(v.filters))
	for _, name := range v.FilterNames() {
		preds = append(preds, v.filters[name])
	}
	return Apply(v.source, All(preds...), v.sort, v.sorters)
}

// Page returns the current page of Rows
func (v *View[T]) Page() Page[T] {
	return Paginate(v.Rows(), v.page, v.size)
}
