// Package xlsx implements core.TableSource on a local Excel workbook.
//
// Every read opens the file from disk so edits made between runs are seen.
// Writes open, update and save the workbook under a mutex; they are not
// safe against other processes editing the same file.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/sheetnotify/internal/core"
	"github.com/JonMunkholm/sheetnotify/internal/sheet"
)

// Source reads and writes one sheet of an .xlsx file.
type Source struct {
	path  string
	sheet string

	mu sync.Mutex
}

// New creates a Source for path. An empty sheet name selects the first sheet.
func New(path, sheetName string) *Source {
	return &Source{path: path, sheet: sheetName}
}

// ReadTable loads the sheet's rows.
func (s *Source) ReadTable(ctx context.Context) (*core.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, &core.ReadError{Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, &core.ReadError{Err: fmt.Errorf("open %s: %w", s.path, err)}
	}
	defer f.Close()

	name, err := s.sheetName(f)
	if err != nil {
		return nil, &core.ReadError{Err: err}
	}

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, &core.ReadError{Err: fmt.Errorf("sheet %q: %w", name, err)}
	}
	if len(rows) == 0 {
		return nil, &core.ReadError{Err: core.ErrEmptyTable}
	}
	table := core.NewTable(rows)
	table.Sheet = name
	return table, nil
}

// WriteCell sets a cell and saves the workbook. An empty sheetName uses the
// configured or first sheet.
func (s *Source) WriteCell(ctx context.Context, sheetName string, row, column int, value string) error {
	if err := ctx.Err(); err != nil {
		return &core.WriteError{Row: row, Column: column, Err: err}
	}

	ref, err := sheet.CellRef(column, row)
	if err != nil {
		return &core.WriteError{Row: row, Column: column, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return &core.WriteError{Row: row, Column: column, Err: fmt.Errorf("open %s: %w", s.path, err)}
	}
	defer f.Close()

	name, err := s.resolve(f, sheetName)
	if err != nil {
		return &core.WriteError{Row: row, Column: column, Err: err}
	}
	if err := f.SetCellValue(name, ref, value); err != nil {
		return &core.WriteError{Row: row, Column: column, Err: fmt.Errorf("set %s!%s: %w", name, ref, err)}
	}
	if err := f.Save(); err != nil {
		return &core.WriteError{Row: row, Column: column, Err: fmt.Errorf("save %s: %w", s.path, err)}
	}
	return nil
}

func (s *Source) sheetName(f *excelize.File) (string, error) {
	return s.resolve(f, s.sheet)
}

// resolve returns want when the workbook has it, or the first sheet when want is empty.
func (s *Source) resolve(f *excelize.File, want string) (string, error) {
	if want != "" {
		if idx, err := f.GetSheetIndex(want); err != nil || idx < 0 {
			return "", fmt.Errorf("sheet %q not found", want)
		}
		return want, nil
	}
	name := f.GetSheetName(0)
	if name == "" {
		return "", errors.New("workbook has no sheets")
	}
	return name, nil
}
