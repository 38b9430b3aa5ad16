package sheets

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// EnsureTab creates title with header when it does not exist, otherwise
// appends the header names row 1 lacks after its last column. It returns the
// names it added and is safe to call repeatedly.
func EnsureTab(ctx context.Context, api ValuesAPI, title string, header []string) ([]string, error) {
	titles, err := api.SheetTitles(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(titles, title) {
		if err := api.AddSheet(ctx, title); err != nil {
			return nil, err
		}
		if err := writeHeader(ctx, api, title, 0, header); err != nil {
			return nil, err
		}
		return header, nil
	}

	existing, err := HeaderRow(ctx, api, title)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, name := range header {
		if !slices.Contains(existing, name) {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}
	if err := writeHeader(ctx, api, title, len(existing), missing); err != nil {
		return nil, err
	}
	return missing, nil
}

// HeaderRow reads row 1 as trimmed strings.
func HeaderRow(ctx context.Context, api ValuesAPI, title string) ([]string, error) {
	rows, err := api.Get(ctx, QuoteSheet(title)+"!1:1")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	header := make([]string, len(rows[0]))
	for i, v := range rows[0] {
		header[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return header, nil
}

// ColumnIndex maps header names to zero-based columns; the first occurrence wins.
func ColumnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	return idx
}

func writeHeader(ctx context.Context, api ValuesAPI, title string, startCol int, names []string) error {
	row := make([]any, len(names))
	for i, n := range names {
		row[i] = n
	}
	return api.BatchUpdate(ctx, []ValueRange{{Range: Cell(title, startCol, 1), Values: [][]any{row}}})
}
