package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/apparelgrid/internal/catalog"
	"github.com/roach88/apparelgrid/internal/grid"
	"github.com/roach88/apparelgrid/internal/query"
	"github.com/roach88/apparelgrid/internal/store"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Sort       string   // column key
	Desc       bool     // descending sort
	Page       int      // 1-based page
	Size       int      // page size, 0 means the configured default
	Filters    []string // field=value or field_op=value
	ClientSort bool     // sort in memory instead of in SQL
	SelectAll  bool     // check every selectable row on the page
}

// ListResult is the JSON payload of the list command.
type ListResult struct {
	Entity     string              `json:"entity"`
	Sort       *grid.Sort          `json:"sort,omitempty"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"pageSize"`
	Total      int                 `json:"total"`
	TotalPages int                 `json:"totalPages"`
	Summary    string              `json:"summary"`
	Selected   []int64             `json:"selected"`
	View       grid.SelectableView `json:"view"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list <apparel|customer|order>",
		Short: "List a catalog table",
		Long: `List apparel, customers or orders one page at a time.

By default the database sorts, filters and paginates, the way a
server-backed grid does. With --client-sort every matching row is loaded
and sorted in memory by the grid engine instead; both orders agree, with
missing values last and ties kept in id order.

Filters use the listing query syntax: field=value for equality and
field_op=value for gt, gte, lt, lte, neq and like.

Examples:
  apparelctl list apparel --sort price --desc
  apparelctl list apparel --filter apparelStyle=Fit --filter price_lte=50
  apparelctl list customer --sort name --page 2 --size 10
  apparelctl list order --client-sort --sort createdDate --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Sort, "sort", "", "sort column key")
	cmd.Flags().BoolVar(&opts.Desc, "desc", false, "sort descending")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number (1-based)")
	cmd.Flags().IntVar(&opts.Size, "size", 0, "page size (default from config)")
	cmd.Flags().StringArrayVar(&opts.Filters, "filter", nil, "filter as field=value or field_op=value (repeatable)")
	cmd.Flags().BoolVar(&opts.ClientSort, "client-sort", false, "sort in memory instead of in the database")
	cmd.Flags().BoolVar(&opts.SelectAll, "select-all", false, "select every selectable row on the page")

	return cmd
}

func runList(ctx context.Context, opts *ListOptions, entity string, cmd *cobra.Command) error {
	e, err := opts.setup(cmd)
	if err != nil {
		return err
	}

	switch entity {
	case catalog.FormApparel:
		return listEntity(ctx, opts, e, entity, apparelListing)
	case catalog.FormCustomer:
		return listEntity(ctx, opts, e, entity, customerListing)
	case catalog.FormOrder:
		return listEntity(ctx, opts, e, entity, orderListing)
	}
	return badRequest(e.formatter, fmt.Sprintf("unknown entity %q: must be one of %v", entity, Entities))
}

// listParams turns the flags into listing params through the same query
// string parser the HTTP listing uses, so keys are checked against the
// schema whitelist.
func listParams(opts *ListOptions, schema query.Schema, defaultSize int) (query.Params, error) {
	if opts.Page < 1 {
		return query.Params{}, fmt.Errorf("page must be at least 1")
	}
	size := opts.Size
	if size == 0 {
		size = defaultSize
	}

	v := url.Values{}
	v.Set("page", strconv.Itoa(opts.Page-1))
	v.Set("size", strconv.Itoa(size))
	if opts.Sort != "" {
		v.Set("sort", opts.Sort)
		v.Set("direction", string(grid.Asc))
		if opts.Desc {
			v.Set("direction", string(grid.Desc))
		}
	}
	for _, f := range opts.Filters {
		key, value, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return query.Params{}, fmt.Errorf("filter %q: want field=value", f)
		}
		if key == "page" || key == "size" || key == "sort" || key == "direction" {
			return query.Params{}, fmt.Errorf("filter %q: %q is reserved", f, key)
		}
		v.Add(key, value)
	}
	return query.ParseValues(v, schema.Filterable())
}

func listEntity[T any](ctx context.Context, opts *ListOptions, e *env, entity string, l listing[T]) error {
	params, err := listParams(opts, l.schema, e.settings.PageSize)
	if err != nil {
		return badRequest(e.formatter, err.Error())
	}
	format, err := e.catalogFormatter()
	if err != nil {
		return err
	}

	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	fetch := l.fetch(st)

	tableOpts := []grid.Option[T]{
		grid.WithLogger[T](e.log),
		grid.WithLocale[T](e.settings.Locale),
		grid.WithEmptyMessage[T](fmt.Sprintf("No %s found", entity)),
	}
	var (
		table *grid.Table[T]
		pager grid.Pager
	)

	if opts.ClientSort {
		all, err := fetch(ctx, query.Params{
			Pagination: query.Pagination{Size: query.MaxSize},
			Filters:    params.Filters,
		})
		if err != nil {
			return fetchError(e.formatter, err)
		}
		loaded, err := clientRows(all)
		if err != nil {
			return badRequest(e.formatter, err.Error())
		}

		sorter := grid.New(l.columns(format), tableOpts...)
		sorter.SetRows(loaded)
		if params.Sort != nil {
			if _, ok := sorter.ClickHeader(params.Sort.Key); !ok {
				return badRequest(e.formatter, fmt.Sprintf("cannot sort %s by %q", entity, params.Sort.Key))
			}
			if params.Sort.Direction == grid.Desc {
				sorter.ClickHeader(params.Sort.Key)
			}
		}

		// The page is cut from the sorted rows and shown as-is.
		rows := sorter.Rows()
		start := min(params.Offset(), len(rows))
		end := min(start+params.Size, len(rows))
		table = grid.New(l.columns(format), tableOpts...)
		if s, ok := sorter.ActiveSort(); ok {
			table.SetExternalSort(&s)
		}
		table.SetRows(rows[start:end])
		pager = grid.Pager{Page: params.Page + 1, PageSize: params.Size, Total: len(rows)}
	} else {
		page, err := fetch(ctx, params)
		if err != nil {
			return fetchError(e.formatter, err)
		}
		table = grid.New(l.columns(format), tableOpts...)
		table.SetExternalSort(params.Sort)
		table.SetRows(page.Content)
		pager = page.Pager()
	}

	var selOpts []grid.SelectOption[T, int64]
	if l.selectable != nil {
		selOpts = append(selOpts, grid.WithSelectableRow[T, int64](l.selectable))
	}
	sel := grid.NewSelectable(table, l.id, selOpts...)
	if opts.SelectAll {
		sel.SelectAll(true)
	}

	result := ListResult{
		Entity:     entity,
		Page:       pager.Page,
		PageSize:   pager.PageSize,
		Total:      pager.Total,
		TotalPages: pager.TotalPages(),
		Summary:    pager.Summary(),
		Selected:   sel.SelectedIDs(),
		View:       sel.View(),
	}
	if s, ok := table.ActiveSort(); ok {
		result.Sort = &s
	}

	if e.formatter.Format == "json" {
		return e.formatter.Success(result)
	}

	w := e.formatter.Writer
	if err := RenderView(w, result.View.View); err != nil {
		return err
	}
	if pager.Total > 0 {
		fmt.Fprintf(w, "%s  (%s)\n", pager.Summary(), pager.Label())
	}
	if opts.SelectAll {
		fmt.Fprintf(w, "Selected: %v\n", result.Selected)
	}
	return nil
}

// clientRows returns the rows of a client-sort load. A load cut short by
// query.MaxSize is an error.
func clientRows[T any](all query.Page[T]) ([]T, error) {
	if all.TotalElements > len(all.Content) {
		return nil, fmt.Errorf("--client-sort loads at most %d rows but %d match; narrow the filters or sort in the database",
			query.MaxSize, all.TotalElements)
	}
	return all.Content, nil
}

func badRequest(f *OutputFormatter, msg string) error {
	if err := f.Error(ErrCodeBadRequest, msg, nil); err != nil {
		return err
	}
	return NewExitError(ExitCommandError, msg)
}

func fetchError(f *OutputFormatter, err error) error {
	code := ErrCodeGeneric
	if errors.Is(err, query.ErrUnknownField) || errors.Is(err, query.ErrUnknownOperator) {
		code = ErrCodeBadRequest
	}
	if errors.Is(err, store.ErrNotFound) {
		code = ErrCodeNotFound
	}
	if ferr := f.Error(code, err.Error(), nil); ferr != nil {
		return ferr
	}
	return WrapExitError(ExitCommandError, "list", err)
}
