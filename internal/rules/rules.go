package rules

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Default messages for the built-in rules.
const (
	MsgRequired       = "This field is required"
	MsgMinLength      = "Must be at least %d characters"
	MsgMaxLength      = "Must be no more than %d characters"
	MsgEmail          = "Must be a valid email address"
	MsgNumeric        = "Must be a valid number"
	MsgPositiveNumber = "Must be a positive number"
	MsgInteger        = "Must be a whole number"
	MsgMin            = "Must be at least %v"
	MsgMax            = "Must be no more than %v"
	MsgPattern        = "Invalid format"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Rule is a predicate over a single field value plus the message reported
// when the predicate fails.
type Rule struct {
	// Name identifies the rule kind ("required", "minLength", ...).
	// Custom rules use "custom".
	Name string

	// Validate reports whether the value satisfies the rule.
	Validate func(value any) bool

	// Message is reported when Validate returns false.
	Message string
}

// Result is the outcome of validating one field.
type Result struct {
	Valid  bool
	Errors []string
}

// Set maps a field name to its ordered rule list.
type Set map[string][]Rule

// Fields returns the field names of the set in sorted order.
func (s Set) Fields() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ValidateField runs every rule in order and collects every failing message.
// Errors is never nil.
func ValidateField(value any, rules []Rule) Result {
	errs := []string{}
	for _, r := range rules {
		if r.Validate == nil {
			continue
		}
		if !r.Validate(value) {
			errs = append(errs, r.Message)
		}
	}
	return Result{Valid: len(errs) == 0, Errors: errs}
}

// ValidateForm validates every field that has rules. Fields without rules
// are not present in the result.
func ValidateForm(values map[string]any, set Set) map[string]Result {
	results := make(map[string]Result, len(set))
	for field, fieldRules := range set {
		results[field] = ValidateField(values[field], fieldRules)
	}
	return results
}

// IsFormValid reports whether every result is valid.
func IsFormValid(results map[string]Result) bool {
	for _, r := range results {
		if !r.Valid {
			return false
		}
	}
	return true
}

// IsEmpty reports whether v counts as an absent value: nil, a nil pointer,
// interface, map or slice, or the empty string. Zero numbers are not empty.
func IsEmpty(v any) bool {
	v = Indirect(v)
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// Indirect follows pointers until it reaches a non-pointer value. A nil
// pointer yields nil.
func Indirect(v any) any {
	for v != nil {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer {
			return v
		}
		if rv.IsNil() {
			return nil
		}
		v = rv.Elem().Interface()
	}
	return nil
}

// ToNumber coerces v the way a form input would: numeric kinds convert
// directly, strings are parsed as decimal floats (surrounding whitespace
// ignored, blank means zero), booleans map to 0 and 1.
func ToNumber(v any) (float64, bool) {
	v = Indirect(v)
	switch n := v.(type) {
	case nil:
		return 0, false
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f, !math.IsNaN(f)
	}
	return 0, false
}

// Length returns the number of characters in s after NFC normalization,
// so a precomposed and a decomposed accent count the same.
func Length(s string) int {
	return utf8.RuneCountInString(norm.NFC.String(s))
}

// Required fails on nil and on the empty string.
func Required(message ...string) Rule {
	return Rule{
		Name:     "required",
		Validate: func(v any) bool { return !IsEmpty(v) },
		Message:  pick(message, MsgRequired),
	}
}

// MinLength requires a string of at least min characters.
func MinLength(min int, message ...string) Rule {
	return Rule{
		Name: "minLength",
		Validate: func(v any) bool {
			if IsEmpty(v) {
				return true
			}
			s, ok := Indirect(v).(string)
			return ok && Length(s) >= min
		},
		Message: pick(message, fmt.Sprintf(MsgMinLength, min)),
	}
}

// MaxLength requires a string of at most max characters.
func MaxLength(max int, message ...string) Rule {
	return Rule{
		Name: "maxLength",
		Validate: func(v any) bool {
			if IsEmpty(v) {
				return true
			}
			s, ok := Indirect(v).(string)
			return ok && Length(s) <= max
		},
		Message: pick(message, fmt.Sprintf(MsgMaxLength, max)),
	}
}

// Email requires a string shaped like local@domain.tld.
func Email(message ...string) Rule {
	return Rule{
		Name: "email",
		Validate: func(v any) bool {
			if IsEmpty(v) {
				return true
			}
			s, ok := Indirect(v).(string)
			return ok && emailPattern.MatchString(s)
		},
		Message: pick(message, MsgEmail),
	}
}

// Numeric requires a value that coerces to a number.
func Numeric(message ...string) Rule {
	return Rule{
		Name: "numeric",
		Validate: func(v any) bool {
			if IsEmpty(v) {
				return true
			}
			_, ok := ToNumber(v)
			return ok
		},
		Message: pick(message, MsgNumeric),
	}
}

// PositiveNumber requires a number strictly greater than zero.
func PositiveNumber(message ...string) Rule {
	return Rule{
		Name: "positiveNumber",
		Validate: func(v any) bool {
			if IsEmpty(v) {
				return true
			}
			n, ok := ToNumber(v)
			return ok && n > 0
		},
		Message: pick(message, MsgPositiveNumber),
	}
}

// Integer requires a finite number with no fractional part.
func Integer(message ...string) Rule {
	return Rule{
		Name: "integer",
		Validate: func(v any) bool {
			if IsEmpty(v) {
				return true
			}
			n, ok := ToNumber(v)
			return ok && !math.IsInf(n, 0) && n == math.Trunc(n)
		},
		Message: pick(message, MsgInteger),
	}
}

// Min requires a number greater than or equal to min.
func Min(min float64, message ...string) Rule {
	return Rule{
		Name: "min",
		Validate: func(v any) bool {
			if IsEmpty(v) {
				return true
			}
			n, ok := ToNumber(v)
			return ok && n >= min
		},
		Message: pick(message, fmt.Sprintf(MsgMin, min)),
	}
}

// Max requires a number less than or equal to max.
func Max(max float64, message ...string) Rule {
	return Rule{
		Name: "max",
		Validate: func(v any) bool {
			if IsEmpty(v) {
				return true
			}
			n, ok := ToNumber(v)
			return ok && n <= max
		},
		Message: pick(message, fmt.Sprintf(MsgMax, max)),
	}
}

// Pattern requires a string matching re.
func Pattern(re *regexp.Regexp, message ...string) Rule {
	return Rule{
		Name: "pattern",
		Validate: func(v any) bool {
			if IsEmpty(v) {
				return true
			}
			s, ok := Indirect(v).(string)
			return ok && re.MatchString(s)
		},
		Message: pick(message, MsgPattern),
	}
}

// Custom wraps an arbitrary predicate. Unlike the built-in rules it is
// called for empty values too.
func Custom(fn func(value any) bool, message string) Rule {
	return Rule{Name: "custom", Validate: fn, Message: message}
}

func pick(override []string, fallback string) string {
	if len(override) > 0 && override[0] != "" {
		return override[0]
	}
	return fallback
}
