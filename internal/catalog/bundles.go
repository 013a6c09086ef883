package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/roach88/apparelgrid/internal/rules"
)

// Form names of the embedded rule bundles.
const (
	FormApparel  = "apparel"
	FormCustomer = "customer"
	FormOrder    = "order"
	FormShipment = "shipment"
)

//go:embed bundles.cue
var bundlesCUE []byte

var (
	bundlesOnce sync.Once
	bundles     rules.Bundles
	bundlesErr  error
)

// Bundles returns the built-in rule bundles compiled from bundles.cue.
func Bundles() (rules.Bundles, error) {
	bundlesOnce.Do(func() {
		bundles, bundlesErr = rules.CompileBundles("bundles.cue", bundlesCUE)
	})
	return bundles, bundlesErr
}

// Rules returns the rule set of one built-in form.
func Rules(form string) (rules.Set, error) {
	b, err := Bundles()
	if err != nil {
		return nil, err
	}
	set, ok := b[form]
	if !ok {
		return nil, fmt.Errorf("no rule bundle for form %q", form)
	}
	return set, nil
}

// MustRules is Rules for the built-in form names.
func MustRules(form string) rules.Set {
	set, err := Rules(form)
	if err != nil {
		panic(err)
	}
	return set
}
