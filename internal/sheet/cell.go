// Package sheet reads and writes the spreadsheet files exchanged with the
// roster service.
//
// Spreadsheet cells are untyped in the file format, so every value read from
// a workbook is lifted into a [Cell], a small sum type over the four shapes a
// cell can take: absent, number, text and date. Callers switch on [Cell.Kind]
// instead of guessing from strings.
package sheet

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which variant a Cell holds.
type Kind int

const (
	KindAbsent Kind = iota
	KindNumber
	KindText
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindDate:
		return "date"
	default:
		return "absent"
	}
}

// Cell is a single spreadsheet value. The zero value is an absent cell.
type Cell struct {
	kind Kind
	num  float64
	text string
	date time.Time
}

// Absent returns an empty cell.
func Absent() Cell { return Cell{} }

// Number returns a numeric cell.
func Number(v float64) Cell { return Cell{kind: KindNumber, num: v} }

// Text returns a text cell. Text is stored as given; trimming is the reader's job.
func Text(s string) Cell { return Cell{kind: KindText, text: s} }

// Date returns a date cell. A zero time yields an absent cell.
func Date(t time.Time) Cell {
	if t.IsZero() {
		return Cell{}
	}
	return Cell{kind: KindDate, date: t}
}

// Kind reports the variant held by c.
func (c Cell) Kind() Kind { return c.kind }

// IsAbsent reports whether c carries no value.
func (c Cell) IsAbsent() bool { return c.kind == KindAbsent }

// Float returns the numeric value and true for number cells.
func (c Cell) Float() (float64, bool) {
	if c.kind != KindNumber {
		return 0, false
	}
	return c.num, true
}

// Time returns the date value and true for date cells.
func (c Cell) Time() (time.Time, bool) {
	if c.kind != KindDate {
		return time.Time{}, false
	}
	return c.date, true
}

// RawText returns the text value and true for text cells.
func (c Cell) RawText() (string, bool) {
	if c.kind != KindText {
		return "", false
	}
	return c.text, true
}

// String renders the cell as trimmed text:
//   - absent: ""
//   - number: shortest exact decimal ("10", "1.5"); NaN and infinities render empty
//   - text:   trimmed
//   - date:   YYYY-MM-DD
func (c Cell) String() string {
	switch c.kind {
	case KindNumber:
		if math.IsNaN(c.num) || math.IsInf(c.num, 0) {
			return ""
		}
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case KindText:
		return strings.TrimSpace(c.text)
	case KindDate:
		return c.date.Format("2006-01-02")
	default:
		return ""
	}
}

// IsBlank reports whether the cell is absent or renders to empty text.
func (c Cell) IsBlank() bool {
	return c.String() == ""
}

// Row is an ordered sequence of cells from one spreadsheet line.
type Row []Cell

// At returns the cell at position i, or an absent cell when i is out of range.
func (r Row) At(i int) Cell {
	if i < 0 || i >= len(r) {
		return Cell{}
	}
	return r[i]
}

// IsEmpty reports whether the row has no cells or only blank ones.
func (r Row) IsEmpty() bool {
	for _, c := range r {
		if !c.IsBlank() {
			return false
		}
	}
	return true
}
