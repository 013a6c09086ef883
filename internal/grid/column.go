package grid

import (
	"reflect"
	"strings"
)

// Align is the horizontal alignment of a column.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Column describes how to extract, render and sort one column of T.
//
// Key names a field of the row. Map rows are looked up by key, struct rows
// by `json` tag and then by field name. Synthetic columns such as "actions"
// have no underlying field; give them NoSort and a Render.
type Column[T any] struct {
	Key    string
	Header string

	// NoSort disables sorting. Columns are sortable by default.
	NoSort bool

	// Value overrides the key lookup.
	Value func(row T) any

	// Render replaces the default display conversion of the cell.
	Render func(value any, row T, index int) string

	Width string
	Align Align
}

// Sortable reports whether clicking the column header changes the sort.
func (c Column[T]) Sortable() bool {
	return !c.NoSort
}

// Resolve returns the raw value of the column for row.
func (c Column[T]) Resolve(row T) any {
	if c.Value != nil {
		return c.Value(row)
	}
	return Lookup(row, c.Key)
}

func (c Column[T]) align() Align {
	if c.Align == "" {
		return AlignLeft
	}
	return c.Align
}

// Lookup resolves key on a map with string keys or on a struct (through
// pointers). Missing keys resolve to nil.
func Lookup(row any, key string) any {
	rv := reflect.ValueOf(row)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		v := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil
		}
		return v.Interface()

	case reflect.Struct:
		idx, ok := fieldIndex(rv.Type(), key)
		if !ok {
			return nil
		}
		return rv.FieldByIndex(idx).Interface()
	}
	return nil
}

func fieldIndex(t reflect.Type, key string) ([]int, bool) {
	var byName []int
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if tag, ok := f.Tag.Lookup("json"); ok {
			name, _, _ := strings.Cut(tag, ",")
			if name == key {
				return f.Index, true
			}
		}
		if byName == nil && strings.EqualFold(f.Name, key) {
			byName = f.Index
		}
	}
	return byName, byName != nil
}
