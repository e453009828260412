package collection

import (
	"cmp"
	"slices"
	"time"

	"github.com/spf13/cast"

	"github.com/iotaledger/hive.go/datasource/keyexpr"
)

// sortItems returns a copy of the items that is stable sorted by the given criteria (ascending unless the direction of
// a criterion is descending).
func sortItems[T any](items []T, criteria []Sort) []T {
	if criteria = effectiveSort(criteria); len(criteria) == 0 {
		return items
	}

	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b T) int {
		for _, criterion := range criteria {
			valueA, _ := keyexpr.Get(a, criterion.Selector)
			valueB, _ := keyexpr.Get(b, criterion.Selector)

			result := compareValues(valueA, valueB)
			if criterion.Direction == SortDescending {
				result = -result
			}

			if result != 0 {
				return result
			}
		}

		return 0
	})

	return sorted
}

// compareValues compares two dynamically typed values. Missing values are sorted after existing ones, numbers and
// times are compared by their value and everything else by its string representation.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}

	if isNumber(a) && isNumber(b) {
		return cmp.Compare(cast.ToFloat64(a), cast.ToFloat64(b))
	}

	if timeA, isTime := a.(time.Time); isTime {
		if timeB, isTime := b.(time.Time); isTime {
			return timeA.Compare(timeB)
		}
	}

	if boolA, isBool := a.(bool); isBool {
		if boolB, isBool := b.(bool); isBool {
			return cmp.Compare(cast.ToInt(boolA), cast.ToInt(boolB))
		}
	}

	return cmp.Compare(cast.ToString(a), cast.ToString(b))
}

// isNumber returns true if the given value has a numeric type.
func isNumber(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	default:
		return false
	}
}
