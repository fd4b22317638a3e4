package core

import (
	"strings"

	"github.com/JonMunkholm/roster/internal/sheet"
)

// Line is a sheet row tagged with its 1-based position in the source file.
type Line struct {
	Number int
	Cells  sheet.Row
}

// SkipHeader drops the leading HeaderRows rows of a sheet and numbers the rest.
func SkipHeader(rows []sheet.Row) []Line {
	if len(rows) <= HeaderRows {
		return nil
	}

	lines := make([]Line, 0, len(rows)-HeaderRows)
	for i := HeaderRows; i < len(rows); i++ {
		lines = append(lines, Line{Number: i + 1, Cells: rows[i]})
	}
	return lines
}

// NormalizeRows drops repeated header rows, i.e. rows whose first cell reads
// NameHeaderLabel once trimmed. Sheets concatenated from several exports
// carry their headers mid-sheet. Blank rows and rows with an absent first
// cell are kept; skipping them is the extractor's job.
func NormalizeRows(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		if isHeaderRow(line.Cells) {
			continue
		}
		out = append(out, line)
	}
	return out
}

func isHeaderRow(row sheet.Row) bool {
	text, ok := row.At(ColName).RawText()
	if !ok {
		return false
	}
	return strings.TrimSpace(text) == NameHeaderLabel
}

// ExtractCandidates turns normalized lines into candidate records. Empty rows
// and rows without a name are skipped; a missing registration becomes "".
func ExtractCandidates(lines []Line) []Candidate {
	candidates := make([]Candidate, 0, len(lines))
	for _, line := range lines {
		if line.Cells.IsEmpty() {
			continue
		}
		name := line.Cells.At(ColName).String()
		if name == "" {
			continue
		}
		candidates = append(candidates, Candidate{
			Line:         line.Number,
			Name:         name,
			Registration: line.Cells.At(ColRegistration).String(),
			Row:          line.Cells,
		})
	}
	return candidates
}
