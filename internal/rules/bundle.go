package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// Bundles maps a form name to its rule set.
type Bundles map[string]Set

// BundleError reports a problem in a CUE rule bundle.
type BundleError struct {
	Form    string
	Field   string
	Message string
	Pos     token.Pos
}

func (e *BundleError) Error() string {
	loc := "form"
	if e.Form != "" {
		loc = "form." + e.Form
	}
	if e.Field != "" {
		loc += "." + e.Field
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), loc, e.Message)
	}
	return fmt.Sprintf("%s: %s", loc, e.Message)
}

// CompileBundles compiles a single CUE source holding rule bundles:
//
//	form: apparel: {
//		apparelName: [
//			{rule: "required", message: "Apparel name is required"},
//			{rule: "minLength", arg: 2},
//		]
//	}
//
// Supported rule names are required, minLength, maxLength, email, numeric,
// positiveNumber, integer, min, max and pattern. Custom predicates cannot be
// declared in CUE; add them in Go after loading.
func CompileBundles(filename string, src []byte) (Bundles, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return BundlesFromValue(v)
}

// LoadBundles loads every .cue file of the package in dir and compiles the
// rule bundles it declares.
func LoadBundles(dir string) (Bundles, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("bundle directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	v := cuecontext.New().BuildInstance(inst)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return BundlesFromValue(v)
}

// BundlesFromValue extracts rule bundles from the top-level "form" struct
// of an already built CUE value.
func BundlesFromValue(v cue.Value) (Bundles, error) {
	formsVal := v.LookupPath(cue.ParsePath("form"))
	if !formsVal.Exists() {
		return nil, &BundleError{Message: "no form bundles declared", Pos: v.Pos()}
	}

	forms, err := formsVal.Fields()
	if err != nil {
		return nil, &BundleError{Message: "form must be a struct", Pos: formsVal.Pos()}
	}

	bundles := Bundles{}
	for forms.Next() {
		formName := forms.Label()
		set, err := compileSet(formName, forms.Value())
		if err != nil {
			return nil, err
		}
		bundles[formName] = set
	}
	return bundles, nil
}

func compileSet(form string, v cue.Value) (Set, error) {
	fields, err := v.Fields()
	if err != nil {
		return nil, &BundleError{Form: form, Message: "bundle must be a struct of rule lists", Pos: v.Pos()}
	}

	set := Set{}
	for fields.Next() {
		field := fields.Label()
		list, err := fields.Value().List()
		if err != nil {
			return nil, &BundleError{Form: form, Field: field, Message: "rules must be a list", Pos: fields.Value().Pos()}
		}

		fieldRules := []Rule{}
		for list.Next() {
			r, err := compileRule(list.Value())
			if err != nil {
				err.Form = form
				err.Field = field
				return nil, err
			}
			fieldRules = append(fieldRules, r)
		}
		set[field] = fieldRules
	}
	return set, nil
}

func compileRule(v cue.Value) (Rule, *BundleError) {
	nameVal := v.LookupPath(cue.ParsePath("rule"))
	if !nameVal.Exists() {
		return Rule{}, &BundleError{Message: "rule entry is missing \"rule\"", Pos: v.Pos()}
	}
	name, err := nameVal.String()
	if err != nil {
		return Rule{}, &BundleError{Message: "rule name must be a string", Pos: nameVal.Pos()}
	}

	var msg []string
	if m := v.LookupPath(cue.ParsePath("message")); m.Exists() {
		s, err := m.String()
		if err != nil {
			return Rule{}, &BundleError{Message: "message must be a string", Pos: m.Pos()}
		}
		msg = append(msg, s)
	}

	arg := v.LookupPath(cue.ParsePath("arg"))
	missingArg := func() (Rule, *BundleError) {
		return Rule{}, &BundleError{Message: fmt.Sprintf("rule %q requires arg", name), Pos: v.Pos()}
	}

	switch name {
	case "required":
		return Required(msg...), nil
	case "email":
		return Email(msg...), nil
	case "numeric":
		return Numeric(msg...), nil
	case "positiveNumber":
		return PositiveNumber(msg...), nil
	case "integer":
		return Integer(msg...), nil

	case "minLength", "maxLength":
		if !arg.Exists() {
			return missingArg()
		}
		n, err := arg.Int64()
		if err != nil || n < 0 {
			return Rule{}, &BundleError{Message: fmt.Sprintf("rule %q needs a non-negative integer arg", name), Pos: arg.Pos()}
		}
		if name == "minLength" {
			return MinLength(int(n), msg...), nil
		}
		return MaxLength(int(n), msg...), nil

	case "min", "max":
		if !arg.Exists() {
			return missingArg()
		}
		f, err := arg.Float64()
		if err != nil {
			return Rule{}, &BundleError{Message: fmt.Sprintf("rule %q needs a numeric arg", name), Pos: arg.Pos()}
		}
		if name == "min" {
			return Min(f, msg...), nil
		}
		return Max(f, msg...), nil

	case "pattern":
		if !arg.Exists() {
			return missingArg()
		}
		expr, err := arg.String()
		if err != nil {
			return Rule{}, &BundleError{Message: "rule \"pattern\" needs a string arg", Pos: arg.Pos()}
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return Rule{}, &BundleError{Message: fmt.Sprintf("invalid pattern: %v", err), Pos: arg.Pos()}
		}
		return Pattern(re, msg...), nil
	}

	return Rule{}, &BundleError{Message: fmt.Sprintf("unknown rule %q", name), Pos: nameVal.Pos()}
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &BundleError{Message: first.Error(), Pos: positions[0]}
	}
	return &BundleError{Message: first.Error()}
}
