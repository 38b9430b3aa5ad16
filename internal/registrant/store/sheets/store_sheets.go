// Package sheets stores registrants as rows of a spreadsheet tab. Columns are
// located by header name on every read, so operators may reorder or add
// columns; fields without a column are skipped on write.
package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"enroll/internal/platform/sheets"
	"enroll/internal/registrant/models"
	"enroll/pkg/platform/sentinel"
	platstrings "enroll/pkg/platform/strings"
)

// Rows without an id (hand-entered in the sheet) are addressed by row number.
const rowRefPrefix = "row:"

type Store struct {
	api   sheets.ValuesAPI
	sheet string
}

func New(api sheets.ValuesAPI, sheet string) *Store {
	return &Store{api: api, sheet: sheet}
}

// EnsureSchema creates the tab or appends the headers it lacks.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := sheets.EnsureTab(ctx, s.api, s.sheet, Header()); err != nil {
		return fmt.Errorf("ensure registrants sheet: %w", err)
	}
	return nil
}

func (s *Store) MissingColumns(ctx context.Context) ([]models.Field, error) {
	header, err := sheets.HeaderRow(ctx, s.api, s.sheet)
	if err != nil {
		return nil, err
	}
	cols := sheets.ColumnIndex(header)
	var missing []models.Field
	for _, f := range models.AllFields() {
		if _, ok := cols[HeaderName(f)]; !ok {
			missing = append(missing, f)
		}
	}
	return missing, nil
}

// table is one full read of the tab.
type table struct {
	cols map[string]int
	rows []row
}

type row struct {
	number int // one-based sheet row
	r      *models.Registrant
}

func (s *Store) read(ctx context.Context) (*table, error) {
	values, err := s.api.Get(ctx, sheets.QuoteSheet(s.sheet))
	if err != nil {
		return nil, err
	}
	t := &table{cols: map[string]int{}}
	if len(values) == 0 {
		return t, nil
	}
	header := make([]string, len(values[0]))
	for i, v := range values[0] {
		header[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	t.cols = sheets.ColumnIndex(header)

	for i, cells := range values[1:] {
		number := i + 2
		if blank(cells) {
			continue
		}
		r := &models.Registrant{}
		for _, f := range models.AllFields() {
			col, ok := t.cols[HeaderName(f)]
			if !ok || col >= len(cells) {
				continue
			}
			// decode always yields the type Apply expects
			_ = models.Apply(r, f, decode(f, cells[col]))
		}
		if r.ID == "" {
			r.ID = rowRefPrefix + strconv.Itoa(number)
		}
		t.rows = append(t.rows, row{number: number, r: r})
	}
	return t, nil
}

func blank(cells []any) bool {
	for _, c := range cells {
		if cellString(c) != "" {
			return false
		}
	}
	return true
}

func (t *table) find(id string) (row, bool) {
	for _, rw := range t.rows {
		if rw.r.ID == id {
			return rw, true
		}
	}
	return row{}, false
}

func (t *table) last(match func(*models.Registrant) bool) (*models.Registrant, bool) {
	for i := len(t.rows) - 1; i >= 0; i-- {
		if match(t.rows[i].r) {
			return t.rows[i].r, true
		}
	}
	return nil, false
}

func (s *Store) AppendNew(ctx context.Context, r *models.Registrant) error {
	if r == nil || r.ID == "" {
		return fmt.Errorf("registrant id is required")
	}
	t, err := s.read(ctx)
	if err != nil {
		return err
	}
	if len(t.cols) == 0 {
		return fmt.Errorf("registrants sheet %q has no header row: %w", s.sheet, sentinel.ErrMissingColumn)
	}
	if _, exists := t.find(r.ID); exists {
		return fmt.Errorf("append registrant %s: %w", r.ID, sentinel.ErrConflict)
	}

	width := 0
	for _, col := range t.cols {
		width = max(width, col+1)
	}
	cells := make([]any, width)
	for i := range cells {
		cells[i] = ""
	}
	for _, f := range models.AllFields() {
		if col, ok := t.cols[HeaderName(f)]; ok {
			cells[col] = encode(f, models.Get(r, f))
		}
	}
	return s.api.Append(ctx, sheets.QuoteSheet(s.sheet)+"!A1", [][]any{cells})
}

func (s *Store) FindByID(ctx context.Context, id string) (*models.Registrant, error) {
	t, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	rw, ok := t.find(id)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return rw.r, nil
}

func (s *Store) FindByTaxID(ctx context.Context, taxID string) (*models.Registrant, error) {
	if taxID == "" {
		return nil, sentinel.ErrNotFound
	}
	t, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	r, ok := t.last(func(r *models.Registrant) bool {
		return platstrings.DigitsOnly(r.TaxID) == taxID
	})
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r, nil
}

func (s *Store) FindByEmail(ctx context.Context, addr string) (*models.Registrant, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, sentinel.ErrNotFound
	}
	t, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	r, ok := t.last(func(r *models.Registrant) bool { return r.MatchesEmail(addr) })
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r, nil
}

func (s *Store) List(ctx context.Context) ([]*models.Registrant, error) {
	t, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Registrant, 0, len(t.rows))
	for _, rw := range t.rows {
		out = append(out, rw.r)
	}
	return out, nil
}

func (s *Store) UpsertFields(ctx context.Context, id string, values models.Values) error {
	return s.UpsertMany(ctx, []models.Patch{{ID: id, Values: values}})
}

// UpsertMany issues one batch of single-cell writes for all patches after a
// single table read.
func (s *Store) UpsertMany(ctx context.Context, patches []models.Patch) error {
	if len(patches) == 0 {
		return nil
	}
	t, err := s.read(ctx)
	if err != nil {
		return err
	}

	var data []sheets.ValueRange
	for _, p := range patches {
		rw, ok := t.find(p.ID)
		if !ok {
			return fmt.Errorf("patch registrant %s: %w", p.ID, sentinel.ErrNotFound)
		}
		for _, f := range models.AllFields() {
			v, ok := p.Values[f]
			if !ok {
				continue
			}
			if f == models.FieldID {
				return fmt.Errorf("registrant id is immutable")
			}
			col, ok := t.cols[HeaderName(f)]
			if !ok {
				continue
			}
			data = append(data, sheets.ValueRange{
				Range:  sheets.Cell(s.sheet, col, rw.number),
				Values: [][]any{{encode(f, v)}},
			})
		}
	}
	if len(data) == 0 {
		return nil
	}
	return s.api.BatchUpdate(ctx, data)
}
