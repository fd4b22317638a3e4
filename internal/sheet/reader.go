package sheet

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrInvalidWorkbook is returned when the input is not an xlsx workbook.
	ErrInvalidWorkbook = errors.New("invalid workbook")

	// ErrNoSheets is returned when a workbook contains no worksheets.
	ErrNoSheets = errors.New("workbook has no sheets")
)

// dateCellLayouts are the ISO 8601 forms excelize reports for t="d" cells.
var dateCellLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ReadFirstSheet parses a workbook and returns every row of its first sheet
// as typed cells. Numeric cells (including date-formatted serials) become
// number cells; strings, booleans and formula text become text cells; ISO
// date cells become date cells. Trailing empty cells are not materialized,
// so rows may be shorter than the header.
func ReadFirstSheet(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrInvalidWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}
	name := sheets[0]

	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}

	rows := make([]Row, len(raw))
	for i, values := range raw {
		row := make(Row, len(values))
		for j, v := range values {
			cell, err := typedCell(f, name, i, j, v)
			if err != nil {
				return nil, err
			}
			row[j] = cell
		}
		rows[i] = row
	}
	return rows, nil
}

// typedCell lifts a raw cell value into a Cell using the cell's declared type.
func typedCell(f *excelize.File, sheetName string, rowIdx, colIdx int, value string) (Cell, error) {
	if value == "" {
		return Absent(), nil
	}

	axis, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
	if err != nil {
		return Absent(), fmt.Errorf("cell coordinates (%d,%d): %w", rowIdx, colIdx, err)
	}

	typ, err := f.GetCellType(sheetName, axis)
	if err != nil {
		return Absent(), fmt.Errorf("cell type %s: %w", axis, err)
	}

	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		// Unset covers numbers and numeric formula results.
		if n, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return Number(n), nil
		}
		return Text(value), nil
	case excelize.CellTypeDate:
		for _, layout := range dateCellLayouts {
			if t, err := time.Parse(layout, strings.TrimSpace(value)); err == nil {
				return Date(t), nil
			}
		}
		return Text(value), nil
	default:
		return Text(value), nil
	}
}
