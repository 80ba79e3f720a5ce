package core

// RequiredColumns names the headers a table must contain.
// Matching is exact and case-sensitive.
type RequiredColumns struct {
	Name      string
	Recipient string
	Status    string
}

// DefaultColumns are the headers used by the deployed contact sheet.
var DefaultColumns = RequiredColumns{
	Name:      "姓名",
	Recipient: "Email",
	Status:    "是否自動回覆",
}

// LocateColumns finds the required headers and returns their zero-based indices.
// When a header appears more than once the first occurrence is used.
// All missing headers are reported together, in name, recipient, status order.
func LocateColumns(headers []string, req RequiredColumns) (Columns, error) {
	cols := Columns{
		Name:      indexOf(headers, req.Name),
		Recipient: indexOf(headers, req.Recipient),
		Status:    indexOf(headers, req.Status),
	}

	var missing []string
	if cols.Name < 0 {
		missing = append(missing, req.Name)
	}
	if cols.Recipient < 0 {
		missing = append(missing, req.Recipient)
	}
	if cols.Status < 0 {
		missing = append(missing, req.Status)
	}
	if len(missing) > 0 {
		return Columns{}, &MissingColumnError{Missing: missing}
	}
	return cols, nil
}

// Select projects every data row into a Record, in row order.
// Already-handled rows are included; callers decide what to skip.
func Select(t *Table, cols Columns) []Record {
	records := make([]Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		records = append(records, Record{
			Name:      t.cell(row, cols.Name),
			Recipient: t.cell(row, cols.Recipient),
			Status:    t.cell(row, cols.Status),
			Position:  row.Position,
		})
	}
	return records
}

func indexOf(headers []string, name string) int {
	for i, h := range headers {
		if h == name {
			return i
		}
	}
	return -1
}
