package core

import (
	"math"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"

	"github.com/JonMunkholm/roster/internal/sheet"
)

func day(y int, m time.Month, d int) pgtype.Date {
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

// ----------------------------------------------------------------------------
// ResolveDate Tests
// ----------------------------------------------------------------------------

func TestResolveDate(t *testing.T) {
	tests := []struct {
		name string
		cell sheet.Cell
		want pgtype.Date
	}{
		// Date cells
		{"date cell", sheet.Date(time.Date(2021, 7, 4, 15, 30, 0, 0, time.UTC)), day(2021, 7, 4)},

		// Serial numbers
		{"serial 44000", sheet.Number(44000), day(2020, 6, 18)},
		{"serial with time of day", sheet.Number(44000.75), day(2020, 6, 18)},
		{"serial 1", sheet.Number(1), day(1899, 12, 31)},
		{"serial zero", sheet.Number(0), pgtype.Date{}},
		{"negative serial counts back", sheet.Number(-5), day(1899, 12, 25)},
		{"fractional below one", sheet.Number(0.5), day(1899, 12, 30)},
		{"serial before year one", sheet.Number(-2e6), pgtype.Date{}},
		{"serial past 9999", sheet.Number(3e6), pgtype.Date{}},
		{"NaN", sheet.Number(math.NaN()), pgtype.Date{}},
		{"infinity", sheet.Number(math.Inf(-1)), pgtype.Date{}},

		// Dotted text
		{"dotted two-digit year", sheet.Text("15.03.22"), day(2022, 3, 15)},
		{"dotted four-digit year", sheet.Text("15.03.1998"), day(1998, 3, 15)},
		{"dotted impossible day", sheet.Text("31.02.2022"), pgtype.Date{}},
		{"dotted surrounding space", sheet.Text("  01.01.20 "), day(2020, 1, 1)},

		// Slash text
		{"slash day first", sheet.Text("31/12/2020"), day(2020, 12, 31)},
		{"slash impossible month", sheet.Text("01/13/2020"), pgtype.Date{}},

		// Fallback parse
		{"ISO", sheet.Text("2021-05-06"), day(2021, 5, 6)},
		{"RFC3339", sheet.Text("2021-05-06T10:00:00Z"), day(2021, 5, 6)},
		{"month name", sheet.Text("January 2, 2006"), day(2006, 1, 2)},

		// Absent
		{"garbage", sheet.Text("não informado"), pgtype.Date{}},
		{"empty text", sheet.Text(""), pgtype.Date{}},
		{"blank text", sheet.Text("   "), pgtype.Date{}},
		{"absent", sheet.Absent(), pgtype.Date{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveDate(tt.cell)
			assert.Equal(t, tt.want.Valid, got.Valid)
			if tt.want.Valid {
				assert.True(t, tt.want.Time.Equal(got.Time), "got %s, want %s", got.Time, tt.want.Time)
			}
		})
	}
}

func TestResolveDate_NeverPanics(t *testing.T) {
	inputs := []sheet.Cell{
		sheet.Number(math.MaxFloat64),
		sheet.Number(-math.MaxFloat64),
		sheet.Number(math.SmallestNonzeroFloat64),
		sheet.Text("99.99.99"),
		sheet.Text("00/00/0000"),
		sheet.Text("...."),
		sheet.Text("//"),
		sheet.Text("2021-02-30"),
		sheet.Date(time.Time{}),
	}
	for _, c := range inputs {
		assert.NotPanics(t, func() { ResolveDate(c) }, "cell %q", c.String())
	}
}

// ----------------------------------------------------------------------------
// FormatDate Tests
// ----------------------------------------------------------------------------

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "15/03/2022", FormatDate(day(2022, 3, 15)))
	assert.Equal(t, "", FormatDate(pgtype.Date{}))
	assert.Equal(t, "", FormatDate(pgtype.Date{Valid: true, InfinityModifier: pgtype.Infinity}))
}

// ----------------------------------------------------------------------------
// BuildCertificateParams Tests
// ----------------------------------------------------------------------------

func TestBuildCertificateParams(t *testing.T) {
	row := sheet.Row{
		sheet.Text("Ana Silva"), sheet.Text("123"),
		sheet.Text("15.03.22"), sheet.Number(10),
		sheet.Text(" CERT-1 "), sheet.Absent(),
		sheet.Text("B1"), sheet.Text("P5"),
		sheet.Text("not a date"), sheet.Text("31/12/2020"),
		sheet.Text("PRC-9"),
	}

	got := BuildCertificateParams(row)

	assert.Equal(t, day(2022, 3, 15), got.PublicationDate)
	assert.Equal(t, "10", got.PublicationPage)
	assert.Equal(t, "CERT-1", got.CertificateNumber)
	assert.Equal(t, "", got.SecondIssue)
	assert.Equal(t, "B1", got.Book)
	assert.Equal(t, "P5", got.BookPage)
	assert.False(t, got.EnrollmentStart.Valid, "unreadable date is absent")
	assert.Equal(t, day(2020, 12, 31), got.EnrollmentEnd, "sibling date unaffected")
	assert.Equal(t, "PRC-9", got.ProcessNumber)
}

func TestBuildCertificateParams_ShortRow(t *testing.T) {
	got := BuildCertificateParams(sheet.Row{sheet.Text("Ana")})
	assert.Equal(t, CertificateParams{}, got)
}
