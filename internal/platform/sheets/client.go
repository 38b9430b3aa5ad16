// Package sheets wraps the Google Sheets values API behind a narrow interface
// shared by the registrant store and the activity log.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"enroll/pkg/platform/sentinel"
)

// ValueRange is one A1 range and its rows.
type ValueRange struct {
	Range  string
	Values [][]any
}

// ValuesAPI is the subset of the spreadsheet API the service needs.
// Writes use RAW input so values are stored exactly as sent.
type ValuesAPI interface {
	Get(ctx context.Context, rng string) ([][]any, error)
	BatchUpdate(ctx context.Context, data []ValueRange) error
	Append(ctx context.Context, rng string, rows [][]any) error
	SheetTitles(ctx context.Context) ([]string, error)
	AddSheet(ctx context.Context, title string) error
}

var tracer = otel.Tracer("enroll/platform/sheets")

// Client is the Google implementation of ValuesAPI for one spreadsheet.
type Client struct {
	svc           *gsheets.Service
	spreadsheetID string
}

// New authenticates with a service account JSON document.
func New(ctx context.Context, credentialsJSON, spreadsheetID string) (*Client, error) {
	creds, err := google.CredentialsFromJSON(ctx, []byte(credentialsJSON), gsheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	svc, err := gsheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func (c *Client) Get(ctx context.Context, rng string) ([][]any, error) {
	ctx, span := tracer.Start(ctx, "sheets.values.get")
	defer span.End()
	span.SetAttributes(attribute.String("sheets.range", rng))

	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, traced(span, classify("read "+rng, err))
	}
	return resp.Values, nil
}

func (c *Client) BatchUpdate(ctx context.Context, data []ValueRange) error {
	if len(data) == 0 {
		return nil
	}
	ctx, span := tracer.Start(ctx, "sheets.values.batch_update")
	defer span.End()
	span.SetAttributes(attribute.Int("sheets.ranges", len(data)))

	req := &gsheets.BatchUpdateValuesRequest{ValueInputOption: "RAW"}
	for _, d := range data {
		req.Data = append(req.Data, &gsheets.ValueRange{Range: d.Range, Values: d.Values})
	}
	if _, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return traced(span, classify("batch update", err))
	}
	return nil
}

func (c *Client) Append(ctx context.Context, rng string, rows [][]any) error {
	ctx, span := tracer.Start(ctx, "sheets.values.append")
	defer span.End()
	span.SetAttributes(attribute.String("sheets.range", rng))

	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return traced(span, classify("append "+rng, err))
	}
	return nil
}

func (c *Client) SheetTitles(ctx context.Context) ([]string, error) {
	ctx, span := tracer.Start(ctx, "sheets.get")
	defer span.End()

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, traced(span, classify("get spreadsheet", err))
	}
	titles := make([]string, 0, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			titles = append(titles, sh.Properties.Title)
		}
	}
	return titles, nil
}

func (c *Client) AddSheet(ctx context.Context, title string) error {
	ctx, span := tracer.Start(ctx, "sheets.add_sheet")
	defer span.End()

	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{Properties: &gsheets.SheetProperties{Title: title}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return traced(span, classify("add sheet "+title, err))
	}
	return nil
}

// classify marks throttling and server-side failures as ErrUnavailable.
func classify(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500 {
			return fmt.Errorf("sheets %s: %w: %w", op, sentinel.ErrUnavailable, err)
		}
		if gerr.Code == http.StatusNotFound {
			return fmt.Errorf("sheets %s: %w: %w", op, sentinel.ErrNotFound, err)
		}
	}
	return fmt.Errorf("sheets %s: %w", op, err)
}

func traced(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// QuoteSheet renders a sheet title for A1 notation.
func QuoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// ColumnLetter converts a zero-based column index to A1 letters (0 → A, 26 → AA).
func ColumnLetter(index int) string {
	var b []byte
	for n := index; n >= 0; n = n/26 - 1 {
		b = append([]byte{byte('A' + n%26)}, b...)
	}
	return string(b)
}

// Cell renders the A1 address of a zero-based column and one-based row.
func Cell(sheet string, col, row int) string {
	return fmt.Sprintf("%s!%s%d", QuoteSheet(sheet), ColumnLetter(col), row)
}
