package listing

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID     int
	Name   string
	Status string
	Seats  int
	At     time.Time
}

var rowSorters = Sorters[row]{
	"id":    By(func(r row) int { return r.ID }),
	"name":  ByText(func(r row) string { return r.Name }),
	"seats": By(func(r row) int { return r.Seats }),
	"at":    ByTime(func(r row) time.Time { return r.At }),
}

func sampleRows() []row {
	day := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	return []row{
		{1, "Kadıköy", "active", 100, day},
		{2, "İstanbul Boğazı", "inactive", 50, day.Add(2 * time.Hour)},
		{3, "Datça", "active", 50, day.AddDate(0, 0, 1)},
		{4, "Çeşme", "active", 75, day},
		{5, "Cide", "inactive", 50, day.AddDate(0, 0, 2)},
	}
}

func ids(rows []row) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestApplyIsPureAndIdempotent(t *testing.T) {
	src := sampleRows()
	before := sampleRows()
	keep := All(Equals("active", func(r row) string { return r.Status }))
	spec := SortSpec{Key: "seats", Direction: Desc}

	first := Apply(src, keep, spec, rowSorters)
	second := Apply(src, keep, spec, rowSorters)

	assert.Equal(t, first, second)
	assert.Equal(t, before, src)
	assert.Equal(t, []int{1, 4, 3}, ids(first))
}

func TestApplyStableTies(t *testing.T) {
	asc := Apply(sampleRows(), nil, SortSpec{Key: "seats", Direction: Asc}, rowSorters)
	assert.Equal(t, []int{2, 3, 5, 4, 1}, ids(asc))

	// Ties stay in source order in both directions
	desc := Apply(sampleRows(), nil, SortSpec{Key: "seats", Direction: Desc}, rowSorters)
	assert.Equal(t, []int{1, 4, 2, 3, 5}, ids(desc))
}

func TestApplyUnknownSortKeepsOrder(t *testing.T) {
	out := Apply(sampleRows(), nil, SortSpec{Key: "nope"}, rowSorters)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(out))
}

func TestTurkishTextSort(t *testing.T) {
	out := Apply(sampleRows(), nil, ParseSort("name"), rowSorters)
	assert.Equal(t, []string{"Cide", "Çeşme", "Datça", "İstanbul Boğazı", "Kadıköy"}, func() []string {
		names := make([]string, len(out))
		for i, r := range out {
			names[i] = r.Name
		}
		return names
	}())
}

func TestContainsFoldsTurkish(t *testing.T) {
	name := func(r row) string { return r.Name }

	tests := []struct {
		q    string
		want []int
	}{
		{"istanbul", []int{2}},
		{"İSTANBUL", []int{2}},
		{"KADIKÖY", []int{1}},
		{"boğaz", []int{2}},
		{"  ", []int{1, 2, 3, 4, 5}},
		{"zzz", []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.q, func(t *testing.T) {
			out := Apply(sampleRows(), Contains(tt.q, name), SortSpec{}, rowSorters)
			assert.Equal(t, tt.want, ids(out))
		})
	}
}

func TestSameDayAndInRange(t *testing.T) {
	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	out := Apply(sampleRows(), SameDay(day, func(r row) time.Time { return r.At }), SortSpec{}, rowSorters)
	assert.Equal(t, []int{1, 2, 4}, ids(out))

	lo, hi := 60, 100
	out = Apply(sampleRows(), InRange(&lo, &hi, func(r row) int { return r.Seats }), SortSpec{}, rowSorters)
	assert.Equal(t, []int{1, 4}, ids(out))

	out = Apply(sampleRows(), InRange[row, int](nil, &lo, func(r row) int { return r.Seats }), SortSpec{}, rowSorters)
	assert.Equal(t, []int{2, 3, 5}, ids(out))
}

func TestParseSort(t *testing.T) {
	assert.Equal(t, SortSpec{}, ParseSort(""))
	assert.Equal(t, SortSpec{Key: "name", Direction: Asc}, ParseSort("name"))
	assert.Equal(t, SortSpec{Key: "name", Direction: Desc}, ParseSort("name:DESC"))
	assert.Equal(t, SortSpec{Key: "name", Direction: Asc}, ParseSort("name:sideways"))
	assert.Equal(t, "name:desc", ParseSort("name:desc").String())
}

func TestPaginateLastPageSize(t *testing.T) {
	for n := 1; n <= 25; n++ {
		for p := 1; p <= 7; p++ {
			items := make([]int, n)
			for i := range items {
				items[i] = i
			}

			total := TotalPages(n, p)
			seen := map[int]bool{}
			for page := 1; page <= total; page++ {
				got := Paginate(items, page, p)
				for _, it := range got.Data {
					require.False(t, seen[it], "item %d on two pages (n=%d p=%d)", it, n, p)
					seen[it] = true
				}
				if page == total {
					assert.Len(t, got.Data, n-p*((n-1)/p), fmt.Sprintf("n=%d p=%d", n, p))
				}
			}
			assert.Len(t, seen, n)
		}
	}
}

func TestPaginateClamps(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	got := Paginate(items, 99, 2)
	assert.Equal(t, []int{5}, got.Data)
	assert.Equal(t, PaginationMetadata{TotalItems: 5, CurrentPage: 3, TotalPages: 3, ItemsPerPage: 2}, got.Pagination)

	got = Paginate(items, -1, 0)
	assert.Equal(t, 1, got.Pagination.CurrentPage)
	assert.Equal(t, DefaultPageSize, got.Pagination.ItemsPerPage)

	empty := Paginate([]int{}, 3, 10)
	assert.Empty(t, empty.Data)
	assert.NotNil(t, empty.Data)
	assert.Equal(t, 1, empty.Pagination.TotalPages)
}

func TestViewResetsPageOnFilterChange(t *testing.T) {
	v := NewView(rowSorters, 2)
	v.SetSource(sampleRows())
	v.SetPage(3)
	assert.Equal(t, 3, v.Page().Pagination.CurrentPage)

	v.SetFilter("status", Equals("active", func(r row) string { return r.Status }))
	page := v.Page()
	assert.Equal(t, 1, page.Pagination.CurrentPage)
	assert.Equal(t, []int{1, 3}, ids(page.Data))

	require.True(t, v.SetSort(ParseSort("seats:asc")))
	v.SetPage(2)
	assert.Equal(t, []int{1}, ids(v.Page().Data))

	assert.False(t, v.SetSort(ParseSort("bogus")))
	assert.Equal(t, "seats", v.Sort().Key)

	v.SetFilter("status", nil)
	assert.Empty(t, v.FilterNames())
	assert.Equal(t, 1, v.Page().Pagination.CurrentPage)
	assert.Len(t, v.Rows(), 5)
}

func TestTextSortIsSafeAcrossGoroutines(t *testing.T) {
	want := []int{5, 4, 3, 2, 1}
	var wg sync.WaitGroup
	results := make([][]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = ids(Apply(sampleRows(), nil, SortSpec{Key: "name", Direction: Asc}, rowSorters))
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}
