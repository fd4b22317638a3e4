package core

// convert.go turns spreadsheet cells into the values stored on a certificate.
//
// Dates arrive in whatever shape the sheet's author typed or the spreadsheet
// application stored:
//   - native date cells
//   - serial day counts (numbers formatted as dates)
//   - DD.MM.YY / DD.MM.YYYY text
//   - DD/MM/YYYY text
//   - anything else a generic parser recognizes
//
// ResolveDate never fails. A value it cannot read becomes an invalid
// pgtype.Date, which is stored as NULL.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/roster/internal/sheet"
)

// ExportDateLayout is the DD/MM/YYYY layout used in exported sheets.
const ExportDateLayout = "02/01/2006"

// Serial dates count days from 1900-01-01. The two-day shift absorbs the
// 1-based count and the phantom 1900-02-29 of the spreadsheet format.
const (
	serialOffsetDays = 2
	maxSerial        = 2958465 // 9999-12-31
)

var serialEpoch = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

var (
	dottedDateRegex = regexp.MustCompile(`^(\d{2})\.(\d{2})\.(\d{2}|\d{4})$`)
	slashDateRegex  = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)
)

// fallbackDateLayouts are tried in order once the explicit day-first forms
// have not matched. Ambiguous slash and dot forms read month-first here.
var fallbackDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"1/2/2006",
	"01/02/2006",
	"1-2-2006",
	"01-02-2006",
	"1.2.2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	time.RFC1123,
	time.RFC1123Z,
	"20060102",
}

// ResolveDate converts a cell into a calendar date. The first matching rule
// wins:
//  1. date cell: its calendar day
//  2. number: serial day count
//  3. DD.MM.YY or DD.MM.YYYY text (two-digit years are 20YY)
//  4. DD/MM/YYYY text
//  5. generic parse
//
// Anything else, including impossible dates such as 31.02.2022, resolves to
// an invalid (absent) date.
func ResolveDate(c sheet.Cell) pgtype.Date {
	switch c.Kind() {
	case sheet.KindDate:
		t, _ := c.Time()
		return civilDate(t.Year(), int(t.Month()), t.Day())
	case sheet.KindNumber:
		v, _ := c.Float()
		return serialDate(v)
	case sheet.KindText:
		return textDate(c.String())
	default:
		return pgtype.Date{}
	}
}

// serialDate converts a spreadsheet serial number. The fractional part
// (time of day) is discarded. Zero is an empty cell and resolves to absent;
// negative serials count back from the epoch. Results outside years
// 1-9999 are absent.
func serialDate(v float64) pgtype.Date {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return pgtype.Date{}
	}
	days := math.Floor(v)
	if days < -maxSerial || days > maxSerial {
		return pgtype.Date{}
	}
	t := serialEpoch.AddDate(0, 0, int(days)-serialOffsetDays)
	if t.Year() < 1 || t.Year() > 9999 {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: t, Valid: true}
}

func textDate(s string) pgtype.Date {
	if s == "" {
		return pgtype.Date{}
	}

	if m := dottedDateRegex.FindStringSubmatch(s); m != nil {
		year := m[3]
		if len(year) == 2 {
			year = "20" + year
		}
		return civilDateStrings(year, m[2], m[1])
	}

	if m := slashDateRegex.FindStringSubmatch(s); m != nil {
		return civilDateStrings(m[3], m[2], m[1])
	}

	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civilDate(t.Year(), int(t.Month()), t.Day())
		}
	}
	return pgtype.Date{}
}

func civilDateStrings(year, month, day string) pgtype.Date {
	y, errY := strconv.Atoi(year)
	m, errM := strconv.Atoi(month)
	d, errD := strconv.Atoi(day)
	if errY != nil || errM != nil || errD != nil {
		return pgtype.Date{}
	}
	return civilDate(y, m, d)
}

// civilDate validates y-m-d as a real calendar day in years 1-9999.
func civilDate(y, m, d int) pgtype.Date {
	if y < 1 || y > 9999 || m < 1 || m > 12 || d < 1 {
		return pgtype.Date{}
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: t, Valid: true}
}

// FormatDate renders a date as DD/MM/YYYY, or "" when absent.
func FormatDate(d pgtype.Date) string {
	if !d.Valid || d.InfinityModifier != pgtype.Finite || d.Time.IsZero() {
		return ""
	}
	return d.Time.Format(ExportDateLayout)
}

// cellText renders an auxiliary (non-date) cell for storage.
func cellText(c sheet.Cell) string {
	return strings.TrimSpace(c.String())
}

// BuildCertificateParams resolves a candidate's auxiliary columns. Each date
// column is resolved on its own, so one unreadable date never affects another.
func BuildCertificateParams(row sheet.Row) CertificateParams {
	return CertificateParams{
		PublicationDate:   ResolveDate(row.At(ColPublicationDate)),
		PublicationPage:   cellText(row.At(ColPublicationPage)),
		CertificateNumber: cellText(row.At(ColCertificateNumber)),
		SecondIssue:       cellText(row.At(ColSecondIssue)),
		Book:              cellText(row.At(ColBook)),
		BookPage:          cellText(row.At(ColBookPage)),
		EnrollmentStart:   ResolveDate(row.At(ColEnrollmentStart)),
		EnrollmentEnd:     ResolveDate(row.At(ColEnrollmentEnd)),
		ProcessNumber:     cellText(row.At(ColProcessNumber)),
	}
}
