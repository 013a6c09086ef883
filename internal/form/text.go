package form

import (
	"reflect"
	"strconv"
	"strings"
)

// SetText writes one field from raw input text, the way an HTML input
// delivers it. The text is parsed into the field's type: blank text clears
// pointer fields, and text that does not parse is rejected with
// ErrTypeMismatch. Map forms with interface values store the text as is.
func (f *Form[T]) SetText(field, text string) error {
	f.mu.Lock()
	t, err := f.binder.fieldType(field)
	f.mu.Unlock()
	if err != nil {
		return err
	}
	value, err := parseText(field, t, text)
	if err != nil {
		return err
	}
	return f.SetValue(field, value)
}

func (b *binder) fieldType(name string) (reflect.Type, error) {
	if !b.known[name] {
		return nil, &FieldError{Field: name, Err: ErrUnknownField}
	}
	if b.isMap {
		return b.typ.Elem(), nil
	}
	return b.typ.FieldByIndex(b.index[name]).Type, nil
}

func parseText(name string, t reflect.Type, text string) (any, error) {
	if t.Kind() == reflect.Pointer {
		if strings.TrimSpace(text) == "" {
			return nil, nil
		}
		v, err := parseText(name, t.Elem(), text)
		if err != nil {
			return nil, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(reflect.ValueOf(v))
		return p.Interface(), nil
	}

	mismatch := &FieldError{Field: name, Err: ErrTypeMismatch, Want: t.String(), Got: strconv.Quote(text)}
	trimmed := strings.TrimSpace(text)
	out := reflect.New(t).Elem()

	switch t.Kind() {
	case reflect.String:
		out.SetString(text)
	case reflect.Interface:
		return text, nil
	case reflect.Bool:
		v, err := strconv.ParseBool(trimmed)
		if err != nil {
			return nil, mismatch
		}
		out.SetBool(v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if trimmed == "" {
			break
		}
		v, err := strconv.ParseInt(trimmed, 10, t.Bits())
		if err != nil {
			return nil, mismatch
		}
		out.SetInt(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if trimmed == "" {
			break
		}
		v, err := strconv.ParseUint(trimmed, 10, t.Bits())
		if err != nil {
			return nil, mismatch
		}
		out.SetUint(v)
	case reflect.Float32, reflect.Float64:
		if trimmed == "" {
			break
		}
		v, err := strconv.ParseFloat(trimmed, t.Bits())
		if err != nil {
			return nil, mismatch
		}
		out.SetFloat(v)
	default:
		return nil, mismatch
	}
	return out.Interface(), nil
}
