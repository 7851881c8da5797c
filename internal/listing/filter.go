// Package listing derives filtered, sorted and paginated views of local collections.
// Every function here is pure: inputs are never mutated and identical inputs give identical output.
package listing

import (
	"cmp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Predicate reports whether an item stays in the derived list
type Predicate[T any] func(T) bool

// All combines predicates with AND. Nil predicates are skipped.
func All[T any](ps ...Predicate[T]) Predicate[T] {
	return func(item T) bool {
		for _, p := range ps {
			if p != nil && !p(item) {
				return false
			}
		}
		return true
	}
}

// Fold lower-cases s with Turkish rules and treats dotted and dotless i alike,
// so "istanbul", "İSTANBUL" and "Istanbul" all match "İstanbul".
func Fold(s string) string {
	// Casers keep state, one per call
	lower := cases.Lower(language.Turkish).String(s)
	return strings.ReplaceAll(lower, "ı", "i")
}

// Contains matches items where any of fields contains q, ignoring case.
// An empty (or blank) query matches everything.
func Contains[T any](q string, fields ...func(T) string) Predicate[T] {
	q = Fold(strings.TrimSpace(q))
	if q == "" {
		return nil
	}
	return func(item T) bool {
		for _, f := range fields {
			if strings.Contains(Fold(f(item)), q) {
				return true
			}
		}
		return false
	}
}

// Equals matches items whose field equals want. Used for enum filters like status or role.
func Equals[T any, V comparable](want V, field func(T) V) Predicate[T] {
	return func(item T) bool {
		return field(item) == want
	}
}

// EqualsFold is Equals for strings, ignoring case. An empty want matches everything.
func EqualsFold[T any](want string, field func(T) string) Predicate[T] {
	want = Fold(strings.TrimSpace(want))
	if want == "" {
		return nil
	}
	return func(item T) bool {
		return Fold(field(item)) == want
	}
}

// SameDay matches items whose field falls on the calendar day of day, in day's location.
// Items with a zero time never match.
func SameDay[T any](day time.Time, field func(T) time.Time) Predicate[T] {
	y, m, d := day.Date()
	return func(item T) bool {
		t := field(item)
		if t.IsZero() {
			return false
		}
		ty, tm, td := t.In(day.Location()).Date()
		return ty == y && tm == m && td == d
	}
}

// InRange matches items whose field lies within [lo, hi]. Nil bounds are open.
func InRange[T any, V cmp.Ordered](lo, hi *V, field func(T) V) Predicate[T] {
	return func(item T) bool {
		v := field(item)
		if lo != nil && v < *lo {
			return false
		}
		if hi != nil && v > *hi {
			return false
		}
		return true
	}
}
