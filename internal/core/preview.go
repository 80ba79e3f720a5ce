package core

import (
	"context"
	"errors"
)

// RowIndexKey is the key carrying a row's store position in preview data.
const RowIndexKey = "_rowIndex"

// Preview is the read-only view of the table served to the dashboard.
type Preview struct {
	Headers []string         `json:"headers"`
	Data    []map[string]any `json:"data"`
}

// Preview reads the table and returns every data row keyed by header, with
// its store position under RowIndexKey. An empty store yields an empty preview.
func (s *Service) Preview(ctx context.Context) (*Preview, error) {
	table, err := s.processor.readTable(ctx)
	if err != nil {
		if errors.Is(err, ErrEmptyTable) {
			return &Preview{Headers: []string{}, Data: []map[string]any{}}, nil
		}
		return nil, err
	}

	p := &Preview{
		Headers: table.Headers,
		Data:    make([]map[string]any, 0, len(table.Rows)),
	}
	for _, row := range table.Rows {
		obj := make(map[string]any, len(row.Values)+1)
		for h, v := range row.Values {
			obj[h] = v
		}
		obj[RowIndexKey] = row.Position
		p.Data = append(p.Data, obj)
	}
	return p, nil
}
