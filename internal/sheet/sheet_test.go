package sheet

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestCell_String(t *testing.T) {
	tests := []struct {
		name string
		cell Cell
		want string
	}{
		{"absent", Absent(), ""},
		{"integer number", Number(10), "10"},
		{"fractional number", Number(1.5), "1.5"},
		{"large serial", Number(44000), "44000"},
		{"NaN renders empty", Number(math.NaN()), ""},
		{"infinity renders empty", Number(math.Inf(1)), ""},
		{"text is trimmed", Text("  Ana Silva \t"), "Ana Silva"},
		{"date is ISO", Date(time.Date(2022, 3, 15, 0, 0, 0, 0, time.UTC)), "2022-03-15"},
		{"zero date is absent", Date(time.Time{}), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cell.String())
		})
	}
}

func TestCell_Accessors(t *testing.T) {
	n, ok := Number(3).Float()
	assert.True(t, ok)
	assert.Equal(t, 3.0, n)

	_, ok = Text("3").Float()
	assert.False(t, ok, "text cells are not coerced to numbers")

	_, ok = Number(3).Time()
	assert.False(t, ok)

	s, ok := Text(" x ").RawText()
	assert.True(t, ok)
	assert.Equal(t, " x ", s, "RawText keeps surrounding whitespace")

	assert.Equal(t, KindAbsent, Date(time.Time{}).Kind())
}

func TestRow_AtAndIsEmpty(t *testing.T) {
	row := Row{Text("Ana"), Absent(), Text("  ")}

	assert.Equal(t, "Ana", row.At(0).String())
	assert.True(t, row.At(-1).IsAbsent())
	assert.True(t, row.At(99).IsAbsent())
	assert.False(t, row.IsEmpty())

	assert.True(t, Row{}.IsEmpty())
	assert.True(t, Row{Absent(), Text(" ")}.IsEmpty())
	assert.False(t, Row{Absent(), Number(0)}.IsEmpty(), "zero is a value")
}

func buildWorkbook(t *testing.T, fill func(f *excelize.File, sheet string)) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	fill(f, "Sheet1")

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestReadFirstSheet_TypedCells(t *testing.T) {
	buf := buildWorkbook(t, func(f *excelize.File, sheet string) {
		require.NoError(t, f.SetCellValue(sheet, "A1", "Ana Silva"))
		require.NoError(t, f.SetCellValue(sheet, "B1", 123))
		require.NoError(t, f.SetCellValue(sheet, "C1", 44000.5))
		require.NoError(t, f.SetCellValue(sheet, "D1", "15.03.22"))
		require.NoError(t, f.SetCellValue(sheet, "A2", "Bob"))
	})

	rows, err := ReadFirstSheet(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, KindText, first.At(0).Kind())
	assert.Equal(t, "Ana Silva", first.At(0).String())

	assert.Equal(t, KindNumber, first.At(1).Kind())
	assert.Equal(t, "123", first.At(1).String())

	serial, ok := first.At(2).Float()
	require.True(t, ok)
	assert.InDelta(t, 44000.5, serial, 1e-9)

	assert.Equal(t, KindText, first.At(3).Kind())
	assert.True(t, first.At(10).IsAbsent())

	assert.Equal(t, "Bob", rows[1].At(0).String())
}

func TestReadFirstSheet_OnlyFirstSheet(t *testing.T) {
	buf := buildWorkbook(t, func(f *excelize.File, sheet string) {
		require.NoError(t, f.SetCellValue(sheet, "A1", "first"))
		_, err := f.NewSheet("Other")
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue("Other", "A1", "second"))
	})

	rows, err := ReadFirstSheet(buf)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "first", rows[0].At(0).String())
}

func TestReadFirstSheet_NotAWorkbook(t *testing.T) {
	_, err := ReadFirstSheet(bytes.NewBufferString("name,registration\nAna,1\n"))
	require.ErrorIs(t, err, ErrInvalidWorkbook)
}

func TestWrite_RoundTrip(t *testing.T) {
	wb := Workbook{
		SheetName: "Alunos",
		Rows: [][]any{
			{"Nome do Aluno", "Matrícula", "Diário Oficial", ""},
			{"", "", "Data", "Página"},
			{"Ana", "123", "15/03/2022", "10"},
		},
		Merges: []Merge{
			{StartRow: 0, StartCol: 0, EndRow: 1, EndCol: 0},
			{StartRow: 0, StartCol: 2, EndRow: 0, EndCol: 3},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, wb))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Alunos"}, f.GetSheetList())

	merged, err := f.GetMergeCells("Alunos")
	require.NoError(t, err)
	require.Len(t, merged, 2)
	assert.Equal(t, "A1", merged[0].GetStartAxis())
	assert.Equal(t, "A2", merged[0].GetEndAxis())
	assert.Equal(t, "C1", merged[1].GetStartAxis())
	assert.Equal(t, "D1", merged[1].GetEndAxis())

	rows, err := ReadFirstSheet(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Nome do Aluno", rows[0].At(0).String())
	assert.Equal(t, "Página", rows[1].At(3).String())
	assert.Equal(t, "15/03/2022", rows[2].At(2).String())
}
