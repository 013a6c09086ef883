// Package catalog holds the apparel store's records, the built-in form
// rule bundles and the list page column sets that feed the grid engine.
package catalog
