package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/apparelgrid/internal/grid"
)

// DateLayout is how list pages print created dates.
const DateLayout = "2006-01-02"

// Placeholder is printed for absent values.
const Placeholder = "-"

var symbols = map[currency.Unit]string{
	currency.USD: "$",
	currency.EUR: "€",
	currency.GBP: "£",
	currency.JPY: "¥",
}

// Formatter renders money, counts and dates for list pages.
type Formatter struct {
	printer  *message.Printer
	symbol   string
	location *time.Location
}

// NewFormatter returns a formatter for a display locale and an ISO 4217
// currency code. Unknown codes are rejected; codes without a known symbol
// print as the code followed by a space.
func NewFormatter(tag language.Tag, code string, loc *time.Location) (*Formatter, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("currency %q: %w", code, err)
	}
	symbol, ok := symbols[unit]
	if !ok {
		symbol = unit.String() + " "
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{printer: message.NewPrinter(tag), symbol: symbol, location: loc}, nil
}

// DefaultFormatter prints US dollars in English with UTC dates.
func DefaultFormatter() *Formatter {
	f, err := NewFormatter(language.AmericanEnglish, "USD", time.UTC)
	if err != nil {
		panic(err)
	}
	return f
}

// Money prints an amount with two decimals. Zero and absent amounts
// print as the placeholder.
func (f *Formatter) Money(v any) string {
	n, ok := amount(v)
	if !ok || n == 0 {
		return Placeholder
	}
	return f.symbol + strconv.FormatFloat(n, 'f', 2, 64)
}

// Count prints an integer with locale grouping. Absent counts print 0.
func (f *Formatter) Count(v any) string {
	n, ok := amount(v)
	if !ok {
		return "0"
	}
	return f.printer.Sprintf("%d", int64(n))
}

// Date prints the calendar date of a timestamp, or the placeholder.
func (f *Formatter) Date(v any) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return Placeholder
		}
		return t.In(f.location).Format(DateLayout)
	case *time.Time:
		if t == nil {
			return Placeholder
		}
		return f.Date(*t)
	}
	return Placeholder
}

func amount(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case *float64:
		if n == nil {
			return 0, false
		}
		return *n, true
	case int:
		return float64(n), true
	case *int:
		if n == nil {
			return 0, false
		}
		return float64(*n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// Row actions offered by every list page.
var Actions = []string{"View", "Edit", "Delete"}

func actionsColumn[T any]() grid.Column[T] {
	text := strings.Join(Actions, " | ")
	return grid.Column[T]{
		Key:    "actions",
		Header: "Actions",
		NoSort: true,
		Width:  "100px",
		Align:  grid.AlignCenter,
		Render: func(any, T, int) string { return text },
	}
}

func orPlaceholder(v any) string {
	if s := grid.Display(v); s != "" {
		return s
	}
	return Placeholder
}

// ApparelColumns are the columns of the apparel list page.
func ApparelColumns(f *Formatter) []grid.Column[Apparel] {
	return []grid.Column[Apparel]{
		{Key: "apparelName", Header: "Name"},
		{Key: "apparelStyle", Header: "Style"},
		{
			Key: "price", Header: "Price", Align: grid.AlignRight,
			Render: func(v any, _ Apparel, _ int) string { return f.Money(v) },
		},
		{
			Key: "quantityOnHand", Header: "Quantity", Align: grid.AlignRight,
			Render: func(v any, _ Apparel, _ int) string { return f.Count(v) },
		},
		{
			Key: "createdDate", Header: "Created",
			Render: func(v any, _ Apparel, _ int) string { return f.Date(v) },
		},
		actionsColumn[Apparel](),
	}
}

// CustomerColumns are the columns of the customer list page.
func CustomerColumns(f *Formatter) []grid.Column[Customer] {
	text := func(v any, _ Customer, _ int) string { return orPlaceholder(v) }
	return []grid.Column[Customer]{
		{Key: "name", Header: "Name"},
		{Key: "email", Header: "Email", Render: text},
		{Key: "phoneNumber", Header: "Phone", NoSort: true, Render: text},
		{Key: "city", Header: "City", Render: text},
		{Key: "state", Header: "State", Render: text},
		{
			Key: "createdDate", Header: "Created",
			Render: func(v any, _ Customer, _ int) string { return f.Date(v) },
		},
		actionsColumn[Customer](),
	}
}

// OrderColumns are the columns of the apparel order list page.
func OrderColumns(f *Formatter) []grid.Column[ApparelOrder] {
	return []grid.Column[ApparelOrder]{
		{
			Key: "id", Header: "Order ID",
			Render: func(v any, _ ApparelOrder, _ int) string { return "#" + grid.Display(v) },
		},
		{
			Key: "customerRef", Header: "Customer",
			Render: func(v any, _ ApparelOrder, _ int) string {
				if s := grid.Display(v); s != "" {
					return s
				}
				return "Unknown"
			},
		},
		{Key: "orderStatus", Header: "Status"},
		{
			Key: "lines", Header: "Items", Align: grid.AlignRight,
			Value: func(o ApparelOrder) any { return len(o.Lines) },
			Render: func(v any, _ ApparelOrder, _ int) string { return f.Count(v) },
		},
		{
			Key: "paymentAmount", Header: "Amount", Align: grid.AlignRight,
			Render: func(v any, _ ApparelOrder, _ int) string { return f.Money(v) },
		},
		{
			Key: "createdDate", Header: "Created",
			Render: func(v any, _ ApparelOrder, _ int) string { return f.Date(v) },
		},
		actionsColumn[ApparelOrder](),
	}
}

// ApparelID keys selections of apparel rows.
func ApparelID(a Apparel) int64 { return a.ID }

// CustomerID keys selections of customer rows.
func CustomerID(c Customer) int64 { return c.ID }

// OrderID keys selections of order rows.
func OrderID(o ApparelOrder) int64 { return o.ID }
