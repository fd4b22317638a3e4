package sheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// defaultSheet is the sheet excelize creates in a new workbook.
const defaultSheet = "Sheet1"

// Merge spans a rectangular block of cells. Coordinates are zero-based and
// inclusive, matching the row/column indexes of Workbook.Rows.
type Merge struct {
	StartRow, StartCol int
	EndRow, EndCol     int
}

// Workbook is a single-sheet workbook ready to be serialized.
type Workbook struct {
	SheetName string
	Rows      [][]any
	Merges    []Merge
}

// Write serializes wb as an .xlsx document to w.
func Write(w io.Writer, wb Workbook) error {
	f := excelize.NewFile()
	defer f.Close()

	name := wb.SheetName
	if name == "" {
		name = defaultSheet
	}
	if name != defaultSheet {
		if err := f.SetSheetName(defaultSheet, name); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	}

	for i, values := range wb.Rows {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		row := values
		if err := f.SetSheetRow(name, axis, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	for _, m := range wb.Merges {
		from, err := excelize.CoordinatesToCellName(m.StartCol+1, m.StartRow+1)
		if err != nil {
			return fmt.Errorf("merge start: %w", err)
		}
		to, err := excelize.CoordinatesToCellName(m.EndCol+1, m.EndRow+1)
		if err != nil {
			return fmt.Errorf("merge end: %w", err)
		}
		if err := f.MergeCell(name, from, to); err != nil {
			return fmt.Errorf("merge %s:%s: %w", from, to, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
