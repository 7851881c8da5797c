package listing

// DefaultPageSize is used when a page size below 1 is requested
const DefaultPageSize = 10

// PaginationMetadata describes one page of a derived list
type PaginationMetadata struct {
	TotalItems   int `json:"totalItems"`
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// Page is one slice of a derived list
type Page[T any] struct {
	Data       []T                `json:"data"`
	Pagination PaginationMetadata `json:"pagination"`
}

// TotalPages returns the page count for totalItems; an empty list still has one page
func TotalPages(totalItems, size int) int {
	if size < 1 {
		size = DefaultPageSize
	}
	pages := (totalItems + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	return pages
}

// Paginate slices items[(page-1)*size : page*size]. Pages below 1 clamp to the first page,
// pages past the end clamp to the last one.
func Paginate[T any](items []T, page, size int) Page[T] {
	if size < 1 {
		size = DefaultPageSize
	}
	total := TotalPages(len(items), size)
	if page < 1 {
		page = 1
	} else if page > total {
		page = total
	}

	start := (page - 1) * size
	end := start + size
	if end > len(items) {
		end = len(items)
	}

	data := make([]T, end-start)
	copy(data, items[start:end])

	return Page[T]{
		Data: data,
		Pagination: PaginationMetadata{
			TotalItems:   len(items),
			CurrentPage:  page,
			TotalPages:   total,
			ItemsPerPage: size,
		},
	}
}
