package keyexpr

import (
	"reflect"
	"strconv"
	"strings"
)

// Get reads the value at the given dotted path of the item. It returns false if the item is nil or if any segment of
// the path does not exist.
//
// Segments are resolved against struct fields (by name, case-insensitive, or by json tag), maps with string keys and
// slices or arrays (numeric segments).
func Get(item any, path string) (value any, found bool) {
	return get(item, splitPath(path))
}

// splitPath splits a dotted path (bracket indexes like "items[0]" are accepted as well) into its segments.
func splitPath(path string) []string {
	path = strings.NewReplacer("[", ".", "]", "").Replace(path)

	segments := make([]string, 0, strings.Count(path, ".")+1)
	for _, segment := range strings.Split(path, ".") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}

	return segments
}

// get resolves the given segments one after another.
func get(item any, segments []string) (value any, found bool) {
	current := reflect.ValueOf(item)

	for _, segment := range segments {
		if current, found = step(current, segment); !found {
			return nil, false
		}
	}

	if current = indirect(current); !current.IsValid() {
		return nil, len(segments) == 0
	}

	return current.Interface(), true
}

// step resolves a single segment of a path.
func step(current reflect.Value, segment string) (next reflect.Value, found bool) {
	if current = indirect(current); !current.IsValid() {
		return reflect.Value{}, false
	}

	//nolint:exhaustive // only container kinds can be traversed
	switch current.Kind() {
	case reflect.Struct:
		return structField(current, segment)
	case reflect.Map:
		if current.Type().Key().Kind() != reflect.String {
			return reflect.Value{}, false
		}

		if next = current.MapIndex(reflect.ValueOf(segment).Convert(current.Type().Key())); !next.IsValid() {
			return reflect.Value{}, false
		}

		return next, true
	case reflect.Slice, reflect.Array:
		index, err := strconv.Atoi(segment)
		if err != nil || index < 0 || index >= current.Len() {
			return reflect.Value{}, false
		}

		return current.Index(index), true
	default:
		return reflect.Value{}, false
	}
}

// structField looks up an exported field by its exact name, its json tag or its case-insensitive name.
func structField(current reflect.Value, name string) (field reflect.Value, found bool) {
	if field = current.FieldByName(name); field.IsValid() && field.CanInterface() {
		return field, true
	}

	currentType := current.Type()
	for i := 0; i < currentType.NumField(); i++ {
		fieldType := currentType.Field(i)
		if !fieldType.IsExported() {
			continue
		}

		if tagName, _, _ := strings.Cut(fieldType.Tag.Get("json"), ","); tagName == name || strings.EqualFold(fieldType.Name, name) {
			return current.Field(i), true
		}
	}

	return reflect.Value{}, false
}

// indirect dereferences pointers and interfaces until it reaches a concrete value (or an invalid one for nil).
func indirect(value reflect.Value) reflect.Value {
	for value.IsValid() && (value.Kind() == reflect.Pointer || value.Kind() == reflect.Interface) {
		if value.IsNil() {
			return reflect.Value{}
		}

		value = value.Elem()
	}

	return value
}
