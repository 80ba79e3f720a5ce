// Package sheet converts between column positions and spreadsheet A1 notation.
//
// Columns are numbered from 1 using bijective base-26 letters:
//
//	1 -> A, 26 -> Z, 27 -> AA, 52 -> AZ, 702 -> ZZ, 703 -> AAA
//
// Rows are 1-based as well, so the header row of a sheet is row 1 and the
// first data row is row 2.
package sheet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidColumn is returned for column numbers below 1 or malformed letters.
var ErrInvalidColumn = errors.New("invalid column")

// maxLetters keeps ColumnNumber within int64.
const maxLetters = 13

// ErrInvalidRow is returned for row numbers below 1.
var ErrInvalidRow = errors.New("invalid row")

// ColumnLetters converts a 1-based column number to its letter form.
func ColumnLetters(n int) (string, error) {
	if n < 1 {
		return "", fmt.Errorf("%w: %d", ErrInvalidColumn, n)
	}

	// 14 letters covers every positive int64; fill from the right.
	var buf [16]byte
	i := len(buf)
	for n > 0 {
		n--
		i--
		buf[i] = byte('A' + n%26)
		n /= 26
	}
	return string(buf[i:]), nil
}

// ColumnNumber converts column letters (case-insensitive) back to a 1-based number.
func ColumnNumber(letters string) (int, error) {
	if letters == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidColumn)
	}
	if len(letters) > maxLetters {
		return 0, fmt.Errorf("%w: %q is too long", ErrInvalidColumn, letters)
	}

	n := 0
	for _, r := range letters {
		switch {
		case r >= 'A' && r <= 'Z':
			n = n*26 + int(r-'A') + 1
		case r >= 'a' && r <= 'z':
			n = n*26 + int(r-'a') + 1
		default:
			return 0, fmt.Errorf("%w: %q", ErrInvalidColumn, letters)
		}
	}
	return n, nil
}

// CellRef returns the A1 reference for a 1-based column and row, e.g. "C7".
func CellRef(col, row int) (string, error) {
	letters, err := ColumnLetters(col)
	if err != nil {
		return "", err
	}
	if row < 1 {
		return "", fmt.Errorf("%w: %d", ErrInvalidRow, row)
	}
	return letters + strconv.Itoa(row), nil
}

// A1Range returns a single-cell range qualified by sheet name: "<Sheet>!<Col><Row>".
func A1Range(sheetName string, col, row int) (string, error) {
	ref, err := CellRef(col, row)
	if err != nil {
		return "", err
	}
	return QuoteSheetName(sheetName) + "!" + ref, nil
}

// SheetRange returns a range covering the given columns of a sheet, e.g. "Sheet1!A:Z".
// An empty span selects the whole sheet.
func SheetRange(sheetName, span string) string {
	if span == "" {
		return QuoteSheetName(sheetName)
	}
	return QuoteSheetName(sheetName) + "!" + span
}

// QuoteSheetName wraps a sheet name in single quotes when A1 syntax requires it.
// Names that read as a cell reference ("A1", "R1C1") are quoted too.
// Embedded quotes are doubled.
func QuoteSheetName(name string) string {
	if name != "" && isPlainName(name) && !isCellLike(name) {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func isPlainName(name string) bool {
	for i, r := range name {
		switch {
		case r == '_':
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// isCellLike reports whether name parses as an A1 ("AB12") or R1C1 ("R2C3") reference.
func isCellLike(name string) bool {
	// Sheets and Excel both stop at three-letter columns.
	letters := strings.TrimRightFunc(name, isDigit)
	if letters != name && letters != "" && len(letters) <= 3 {
		if _, err := ColumnNumber(letters); err == nil {
			return true
		}
	}

	upper := strings.ToUpper(name)
	if !strings.HasPrefix(upper, "R") {
		return false
	}
	r, c, ok := strings.Cut(upper[1:], "C")
	return ok && r != "" && c != "" && allDigits(r) && allDigits(c)
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func allDigits(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !isDigit(r) }) < 0
}
