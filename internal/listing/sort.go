package listing

import (
	"cmp"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Direction of a sort
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortSpec selects a comparator by key. A zero SortSpec keeps source order.
type SortSpec struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction"`
}

// ParseSort reads "key", "key:asc" or "key:desc". Anything but "desc" sorts ascending.
func ParseSort(s string) SortSpec {
	s = strings.TrimSpace(s)
	if s == "" {
		return SortSpec{}
	}
	key, dir, _ := strings.Cut(s, ":")
	spec := SortSpec{Key: strings.TrimSpace(key), Direction: Asc}
	if strings.EqualFold(strings.TrimSpace(dir), string(Desc)) {
		spec.Direction = Desc
	}
	return spec
}

func (s SortSpec) String() string {
	if s.Key == "" {
		return ""
	}
	dir := s.Direction
	if dir == "" {
		dir = Asc
	}
	return s.Key + ":" + string(dir)
}

// Compare orders two items, negative when a sorts first
type Compare[T any] func(a, b T) int

// Sorters maps sort keys to comparators
type Sorters[T any] map[string]Compare[T]

// Has reports whether key names a known comparator
func (s Sorters[T]) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// By compares an ordered field
func By[T any, V cmp.Ordered](field func(T) V) Compare[T] {
	return func(a, b T) int {
		return cmp.Compare(field(a), field(b))
	}
}

// ByTime compares a time field
func ByTime[T any](field func(T) time.Time) Compare[T] {
	return func(a, b T) int {
		return field(a).Compare(field(b))
	}
}

// Collators are not safe for concurrent use
var turkishCollators = sync.Pool{
	New: func() interface{} { return collate.New(language.Turkish, collate.IgnoreCase) },
}

// ByText compares a text field with Turkish collation, so "Çeşme" sorts between "Cide" and "Datça"
func ByText[T any](field func(T) string) Compare[T] {
	return func(a, b T) int {
		c := turkishCollators.Get().(*collate.Collator)
		defer turkishCollators.Put(c)
		return c.CompareString(field(a), field(b))
	}
}

// Apply filters items with keep and orders them by spec. The sort is stable, ties keep source order.
// An unknown sort key keeps source order. items is never modified.
func Apply[T any](items []T, keep Predicate[T], spec SortSpec, sorters Sorters[T]) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep == nil || keep(item) {
			out = append(out, item)
		}
	}

	compare, ok := sorters[spec.Key]
	if spec.Key == "" || !ok {
		return out
	}

	desc := spec.Direction == Desc
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return compare(out[i], out[j]) > 0
		}
		return compare(out[i], out[j]) < 0
	})
	return out
}
