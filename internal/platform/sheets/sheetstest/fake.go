// Package sheetstest provides an in-memory spreadsheet for tests.
package sheetstest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"enroll/internal/platform/sheets"
)

// Fake implements sheets.ValuesAPI over in-memory grids. It understands the
// ranges the service issues: a whole sheet, a whole sheet with column bounds,
// row 1 ("1:1") and single-cell anchors for writes.
type Fake struct {
	mu     sync.Mutex
	grids  map[string][][]any
	titles []string

	BatchCalls  int
	AppendCalls int

	GetErr    error
	UpdateErr error
	AppendErr error
}

func New() *Fake {
	return &Fake{grids: make(map[string][][]any)}
}

// Seed replaces a sheet's contents, creating the sheet when needed.
func (f *Fake) Seed(title string, rows [][]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.grids[title]; !ok {
		f.titles = append(f.titles, title)
	}
	cp := make([][]any, len(rows))
	for i, r := range rows {
		cp[i] = append([]any(nil), r...)
	}
	f.grids[title] = cp
}

// Rows returns a copy of a sheet's contents.
func (f *Fake) Rows(title string) [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	grid := f.grids[title]
	out := make([][]any, len(grid))
	for i, r := range grid {
		out[i] = append([]any(nil), r...)
	}
	return out
}

// CellValue reads a cell by zero-based column and one-based row.
func (f *Fake) CellValue(title string, col, row int) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	grid := f.grids[title]
	if row-1 >= len(grid) || col >= len(grid[row-1]) {
		return nil
	}
	return grid[row-1][col]
}

func (f *Fake) Get(_ context.Context, rng string) ([][]any, error) {
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	title, ref, err := split(rng)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	grid, ok := f.grids[title]
	if !ok {
		return nil, fmt.Errorf("unknown sheet %q", title)
	}
	if ref == "1:1" {
		if len(grid) == 0 {
			return nil, nil
		}
		return [][]any{append([]any(nil), grid[0]...)}, nil
	}
	out := make([][]any, len(grid))
	for i, r := range grid {
		out[i] = append([]any(nil), r...)
	}
	return out, nil
}

func (f *Fake) BatchUpdate(_ context.Context, data []sheets.ValueRange) error {
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.BatchCalls++
	for _, d := range data {
		title, ref, err := split(d.Range)
		if err != nil {
			return err
		}
		col, row, err := parseCell(ref)
		if err != nil {
			return err
		}
		grid := f.grids[title]
		for i, values := range d.Values {
			r := row - 1 + i
			for len(grid) <= r {
				grid = append(grid, nil)
			}
			for j, v := range values {
				c := col + j
				for len(grid[r]) <= c {
					grid[r] = append(grid[r], "")
				}
				grid[r][c] = v
			}
		}
		f.grids[title] = grid
	}
	return nil
}

func (f *Fake) Append(_ context.Context, rng string, rows [][]any) error {
	if f.AppendErr != nil {
		return f.AppendErr
	}
	title, _, err := split(rng)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.grids[title]; !ok {
		return fmt.Errorf("unknown sheet %q", title)
	}
	f.AppendCalls++
	for _, r := range rows {
		f.grids[title] = append(f.grids[title], append([]any(nil), r...))
	}
	return nil
}

func (f *Fake) SheetTitles(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.titles...), nil
}

func (f *Fake) AddSheet(_ context.Context, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.grids[title]; ok {
		return fmt.Errorf("sheet %q already exists", title)
	}
	f.titles = append(f.titles, title)
	f.grids[title] = nil
	return nil
}

func split(rng string) (title, ref string, err error) {
	if strings.HasPrefix(rng, "'") {
		end := strings.LastIndex(rng, "'")
		if end <= 0 {
			return "", "", fmt.Errorf("bad range %q", rng)
		}
		title = strings.ReplaceAll(rng[1:end], "''", "'")
		ref = strings.TrimPrefix(rng[end+1:], "!")
		return title, ref, nil
	}
	title, ref, _ = strings.Cut(rng, "!")
	return title, ref, nil
}

func parseCell(ref string) (col, row int, err error) {
	i := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		col = col*26 + int(ref[i]-'A'+1)
		i++
	}
	if i == 0 {
		return 0, 0, fmt.Errorf("bad cell %q", ref)
	}
	row, err = strconv.Atoi(ref[i:])
	if err != nil || row < 1 {
		return 0, 0, fmt.Errorf("bad cell %q", ref)
	}
	return col - 1, row, nil
}
