// Package gsheets implements core.TableSource on top of the Google Sheets API.
//
// One Source wraps one long-lived *sheets.Service created at startup. Reads
// always fetch a fresh snapshot; when no sheet name is configured the first
// sheet's title is looked up on every read so renaming the tab does not need
// a restart. The resolved title travels on the Table, and writes for that
// snapshot target it rather than looking the first sheet up again.
package gsheets

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/JonMunkholm/sheetnotify/internal/core"
	"github.com/JonMunkholm/sheetnotify/internal/sheet"
)

// DefaultSpan is the column span read from the sheet.
const DefaultSpan = "A:Z"

// Config identifies the spreadsheet and how to reach it.
type Config struct {
	CredentialsFile string // service account JSON key
	SpreadsheetID   string
	SheetName       string // empty: first sheet
	Span            string // column span to read, e.g. "A:Z"; empty reads DefaultSpan
}

// Source reads and writes one sheet of a Google spreadsheet.
type Source struct {
	svc   *sheets.Service
	id    string
	sheet string
	span  string
}

// New creates a Source using a service-account credentials file.
func New(ctx context.Context, cfg Config) (*Source, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("gsheets: spreadsheet id is required")
	}

	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gsheets: create service: %w", err)
	}
	return NewWithService(svc, cfg), nil
}

// NewWithService creates a Source around an existing Sheets client.
func NewWithService(svc *sheets.Service, cfg Config) *Source {
	span := cfg.Span
	if span == "" {
		span = DefaultSpan
	}
	return &Source{
		svc:   svc,
		id:    cfg.SpreadsheetID,
		sheet: cfg.SheetName,
		span:  span,
	}
}

// ReadTable fetches the header row and all data rows.
func (s *Source) ReadTable(ctx context.Context) (*core.Table, error) {
	name, err := s.sheetName(ctx)
	if err != nil {
		return nil, &core.ReadError{Err: err}
	}

	resp, err := s.svc.Spreadsheets.Values.Get(s.id, sheet.SheetRange(name, s.span)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, &core.ReadError{Err: fmt.Errorf("get values: %w", err)}
	}
	if len(resp.Values) == 0 {
		return nil, &core.ReadError{Err: core.ErrEmptyTable}
	}

	table := core.NewTable(toStrings(resp.Values))
	table.Sheet = name
	return table, nil
}

// WriteCell writes value into the 1-based row and column as a raw string.
// An empty sheetName falls back to the configured or first sheet.
func (s *Source) WriteCell(ctx context.Context, sheetName string, row, column int, value string) error {
	name := sheetName
	if name == "" {
		var err error
		if name, err = s.sheetName(ctx); err != nil {
			return &core.WriteError{Row: row, Column: column, Err: err}
		}
	}

	rng, err := sheet.A1Range(name, column, row)
	if err != nil {
		return &core.WriteError{Row: row, Column: column, Err: err}
	}

	vr := &sheets.ValueRange{Values: [][]interface{}{{value}}}
	_, err = s.svc.Spreadsheets.Values.Update(s.id, rng, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return &core.WriteError{Row: row, Column: column, Err: fmt.Errorf("update %s: %w", rng, err)}
	}
	return nil
}

// sheetName returns the configured sheet or the title of the first sheet.
func (s *Source) sheetName(ctx context.Context) (string, error) {
	if s.sheet != "" {
		return s.sheet, nil
	}

	meta, err := s.svc.Spreadsheets.Get(s.id).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("get spreadsheet: %w", err)
	}
	if len(meta.Sheets) == 0 || meta.Sheets[0].Properties == nil {
		return "", errors.New("spreadsheet has no sheets")
	}
	return meta.Sheets[0].Properties.Title, nil
}

// toStrings converts API cell values to strings.
func toStrings(values [][]interface{}) [][]string {
	rows := make([][]string, len(values))
	for i, raw := range values {
		row := make([]string, len(raw))
		for j, v := range raw {
			switch c := v.(type) {
			case nil:
			case string:
				row[j] = c
			default:
				row[j] = fmt.Sprint(c)
			}
		}
		rows[i] = row
	}
	return rows
}
