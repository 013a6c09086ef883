package form

import (
	"fmt"
	"reflect"
	"strings"
)

// binder reads and writes named fields of a values type through
// reflection. Maps are addressed by key, structs by `form` tag, then
// `json` tag, then Go field name.
type binder struct {
	typ   reflect.Type
	isMap bool

	// names lists the known fields in declaration (struct) or sorted
	// (map) order.
	names []string
	index map[string][]int
	known map[string]bool
}

func newBinder(t reflect.Type) (*binder, error) {
	b := &binder{typ: t, index: map[string][]int{}, known: map[string]bool{}}

	switch t.Kind() {
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: %s has non-string keys", ErrUnsupportedValues, t)
		}
		b.isMap = true
		return b, nil

	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name := fieldName(f)
			if name == "-" {
				continue
			}
			b.names = append(b.names, name)
			b.index[name] = f.Index
			b.known[name] = true
		}
		return b, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedValues, t)
}

func fieldName(f reflect.StructField) string {
	for _, key := range []string{"form", "json"} {
		if tag, ok := f.Tag.Lookup(key); ok {
			name, _, _ := strings.Cut(tag, ",")
			if name != "" {
				return name
			}
		}
	}
	return f.Name
}

// learn registers map keys as known fields.
func (b *binder) learn(names ...string) {
	if !b.isMap {
		return
	}
	for _, n := range names {
		if !b.known[n] {
			b.known[n] = true
			b.names = append(b.names, n)
		}
	}
}

func (b *binder) mapKeys(v reflect.Value) []string {
	keys := make([]string, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		keys = append(keys, iter.Key().String())
	}
	return keys
}

func (b *binder) has(name string) bool {
	return b.known[name]
}

func (b *binder) get(v reflect.Value, name string) (any, error) {
	if !b.known[name] {
		return nil, &FieldError{Field: name, Err: ErrUnknownField}
	}
	if b.isMap {
		if v.IsNil() {
			return nil, nil
		}
		x := v.MapIndex(reflect.ValueOf(name).Convert(b.typ.Key()))
		if !x.IsValid() {
			return nil, nil
		}
		return deepCopy(x).Interface(), nil
	}
	return deepCopy(v.FieldByIndex(b.index[name])).Interface(), nil
}

// set stores x in field name of v. v must be addressable for structs and
// non-nil for maps.
func (b *binder) set(v reflect.Value, name string, x any) error {
	if !b.known[name] {
		return &FieldError{Field: name, Err: ErrUnknownField}
	}
	if b.isMap {
		xv, err := coerce(name, b.typ.Elem(), x)
		if err != nil {
			return err
		}
		v.SetMapIndex(reflect.ValueOf(name).Convert(b.typ.Key()), deepCopy(xv))
		return nil
	}

	fv := v.FieldByIndex(b.index[name])
	xv, err := coerce(name, fv.Type(), x)
	if err != nil {
		return err
	}
	fv.Set(deepCopy(xv))
	return nil
}

// check reports whether x could be stored in field name.
func (b *binder) check(name string, x any) error {
	if !b.known[name] {
		return &FieldError{Field: name, Err: ErrUnknownField}
	}
	t := b.typ.Elem()
	if !b.isMap {
		t = b.typ.FieldByIndex(b.index[name]).Type
	}
	_, err := coerce(name, t, x)
	return err
}

// coerce converts x to a value assignable to t. nil becomes the zero
// value of nillable types; a plain value is boxed when t is a pointer to
// its type.
func coerce(name string, t reflect.Type, x any) (reflect.Value, error) {
	if x == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, &FieldError{Field: name, Err: ErrTypeMismatch, Want: t.String(), Got: "nil"}
	}

	xv := reflect.ValueOf(x)
	if xv.Type().AssignableTo(t) {
		return xv, nil
	}
	if t.Kind() == reflect.Pointer && xv.Type().AssignableTo(t.Elem()) {
		p := reflect.New(t.Elem())
		p.Elem().Set(xv)
		return p, nil
	}
	return reflect.Value{}, &FieldError{Field: name, Err: ErrTypeMismatch, Want: t.String(), Got: xv.Type().String()}
}

// clone returns a copy of v that shares no pointer, slice or map storage
// with it. A nil map becomes an empty one so fields can be set.
func (b *binder) clone(v reflect.Value) reflect.Value {
	if b.isMap && v.IsNil() {
		return reflect.MakeMap(b.typ)
	}
	return deepCopy(v)
}

// deepCopy copies v down through pointers, slices, arrays, maps,
// interfaces and exported struct fields. Unexported fields are copied as
// they are. Values must not be cyclic.
func deepCopy(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		cp := reflect.New(v.Type().Elem())
		cp.Elem().Set(deepCopy(v.Elem()))
		return cp

	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		cp := reflect.New(v.Type()).Elem()
		cp.Set(deepCopy(v.Elem()))
		return cp

	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		cp := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := range v.Len() {
			cp.Index(i).Set(deepCopy(v.Index(i)))
		}
		return cp

	case reflect.Array:
		cp := reflect.New(v.Type()).Elem()
		for i := range v.Len() {
			cp.Index(i).Set(deepCopy(v.Index(i)))
		}
		return cp

	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		cp := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			cp.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
		}
		return cp

	case reflect.Struct:
		cp := reflect.New(v.Type()).Elem()
		cp.Set(v)
		for i := range v.NumField() {
			if fv := cp.Field(i); fv.CanSet() {
				fv.Set(deepCopy(v.Field(i)))
			}
		}
		return cp
	}
	return v
}
