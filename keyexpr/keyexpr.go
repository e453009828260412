package keyexpr

import (
	"fmt"
	"reflect"

	"github.com/spf13/cast"

	"github.com/iotaledger/hive.go/runtime/debug"
)

// Extractor derives a value (usually the identity key) from an item and its positional index.
type Extractor[T any, K comparable] func(item T, index int) K

// Build creates an Extractor from the given expression. The expression can be nil (the item itself is its key), an
// Extractor, a func(T, int) K, a func(T) K or a dotted path string that is resolved against the item.
func Build[T any, K comparable](expr any) Extractor[T, K] {
	switch typedExpr := expr.(type) {
	case nil:
		return identity[T, K]
	case Extractor[T, K]:
		if typedExpr == nil {
			return identity[T, K]
		}

		return typedExpr
	case func(T, int) K:
		if typedExpr == nil {
			return identity[T, K]
		}

		return typedExpr
	case func(T) K:
		if typedExpr == nil {
			return identity[T, K]
		}

		return func(item T, _ int) K { return typedExpr(item) }
	case string:
		if typedExpr == "" {
			return identity[T, K]
		}

		return pathExtractor[T, K](typedExpr)
	default:
		panic(fmt.Sprintf("unsupported key expression of type %T", expr))
	}
}

// Path returns an Extractor that reads the value at the given dotted path.
func Path[T any](path string) Extractor[T, any] {
	return Build[T, any](path)
}

// Identity returns an Extractor that uses the item itself as its key.
func Identity[T comparable]() Extractor[T, T] {
	return identity[T, T]
}

// Keys returns the keys of the given items in the same order.
func Keys[T any, K comparable](items []T, extractor Extractor[T, K]) []K {
	if items == nil {
		return nil
	}

	keys := make([]K, len(items))
	for i, item := range items {
		keys[i] = extractor(item, i)
	}

	return keys
}

// identity returns the item itself as its key if the item is assignable to the key type.
func identity[T any, K comparable](item T, _ int) (key K) {
	if typedKey, ok := any(item).(K); ok {
		return typedKey
	}

	return key
}

// pathExtractor creates an Extractor that resolves the given path and converts the result to the key type.
func pathExtractor[T any, K comparable](path string) Extractor[T, K] {
	segments := splitPath(path)

	return func(item T, _ int) (key K) {
		value, found := get(item, segments)
		if !found || value == nil {
			return key
		}

		if key, converted := convertKey[K](value); converted {
			return key
		}

		if debug.GetEnabled() {
			panic(fmt.Sprintf("value %v (%T) at path %q can not be used as a %s key", value, value, path, reflect.TypeFor[K]()))
		}

		return key
	}
}

// convertKey converts the given value to the key type. Numeric values are only converted if the conversion is
// lossless, so 1.0 becomes 1 but 1.5 is rejected as an int key.
func convertKey[K comparable](value any) (key K, converted bool) {
	if typedKey, ok := value.(K); ok {
		return typedKey, true
	}

	target := reflect.TypeFor[K]()
	source := reflect.ValueOf(value)

	switch {
	case target.Kind() == reflect.String:
		text, err := cast.ToStringE(value)
		if err != nil {
			return key, false
		}

		return reflect.ValueOf(text).Convert(target).Interface().(K), true
	case isNumeric(target.Kind()) && isNumeric(source.Kind()):
		result := source.Convert(target)
		if isNegative(source) && result.CanUint() || !result.Convert(source.Type()).Equal(source) {
			return key, false
		}

		return result.Interface().(K), true
	case source.CanConvert(target):
		return source.Convert(target).Interface().(K), true
	default:
		return key, false
	}
}

func isNumeric(kind reflect.Kind) bool {
	return kind >= reflect.Int && kind <= reflect.Float64
}

func isNegative(value reflect.Value) bool {
	switch {
	case value.CanInt():
		return value.Int() < 0
	case value.CanFloat():
		return value.Float() < 0
	default:
		return false
	}
}
