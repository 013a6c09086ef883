package grid

import (
	"cmp"
	"fmt"
	"reflect"
	"strconv"
	"time"
	"unicode/utf16"

	"golang.org/x/text/collate"
)

// deref follows pointers and interfaces. A nil anywhere yields nil.
func deref(v any) any {
	for v != nil {
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Pointer, reflect.Interface:
			if rv.IsNil() {
				return nil
			}
			v = rv.Elem().Interface()
		case reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			if rv.IsNil() {
				return nil
			}
			return v
		default:
			return v
		}
	}
	return nil
}

// compareValues orders two non-nil values. Numbers compare numerically,
// strings by UTF-16 code units (or through c when set), times
// chronologically, false before true. Mixed kinds fall back to comparing
// their display strings.
func compareValues(a, b any, c *collate.Collator) int {
	if x, ok := a.(time.Time); ok {
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}

	if c, ok := compareNumbers(a, b); ok {
		return c
	}

	if x, ok := a.(bool); ok {
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	}

	return compareStrings(Display(a), Display(b), c)
}

func compareStrings(a, b string, c *collate.Collator) int {
	if c != nil {
		return c.CompareString(a, b)
	}
	return compareUTF16(a, b)
}

// compareUTF16 compares strings code unit by code unit in UTF-16, which is
// the ordering a browser applies to string < and >. Go's native string
// comparison works on UTF-8 bytes and disagrees for characters outside the
// Basic Multilingual Plane.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			return cmp.Compare(a16[i], b16[i])
		}
	}
	return cmp.Compare(len(a16), len(b16))
}

type numberKind int

const (
	notNumber numberKind = iota
	signedNumber
	unsignedNumber
	floatNumber
)

func kindOf(rv reflect.Value) numberKind {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return signedNumber
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return unsignedNumber
	case reflect.Float32, reflect.Float64:
		return floatNumber
	}
	return notNumber
}

// compareNumbers orders two numbers of any Go numeric kind. Integers
// compare exactly, so ids above 2^53 keep their order; a float on either
// side compares both as float64.
func compareNumbers(a, b any) (int, bool) {
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	ka, kb := kindOf(ra), kindOf(rb)
	if ka == notNumber || kb == notNumber {
		return 0, false
	}

	switch {
	case ka == signedNumber && kb == signedNumber:
		return cmp.Compare(ra.Int(), rb.Int()), true
	case ka == unsignedNumber && kb == unsignedNumber:
		return cmp.Compare(ra.Uint(), rb.Uint()), true
	case ka == signedNumber && kb == unsignedNumber:
		if ra.Int() < 0 {
			return -1, true
		}
		return cmp.Compare(uint64(ra.Int()), rb.Uint()), true
	case ka == unsignedNumber && kb == signedNumber:
		if rb.Int() < 0 {
			return 1, true
		}
		return cmp.Compare(ra.Uint(), uint64(rb.Int())), true
	}
	return cmp.Compare(toFloat(ra, ka), toFloat(rb, kb)), true
}

func toFloat(rv reflect.Value, k numberKind) float64 {
	switch k {
	case signedNumber:
		return float64(rv.Int())
	case unsignedNumber:
		return float64(rv.Uint())
	}
	return rv.Float()
}

// Display converts a raw cell value to text. Nil renders as "".
func Display(v any) string {
	v = deref(v)
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	}
	return fmt.Sprint(v)
}
