package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ppiankov/crmimport/internal/model"
)

var testColumns = model.Columns{
	"ID":       model.FieldID,
	"Vorname":  model.FieldFirstName,
	"Nachname": model.FieldLastName,
	"Land":     model.FieldCountry,
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestOpen_PicksByExtension(t *testing.T) {
	s, err := Open("export.XLSX", testColumns, "Kontakte")
	require.NoError(t, err)
	assert.IsType(t, &XLSX{}, s)

	s, err = Open("export.csv", testColumns, "")
	require.NoError(t, err)
	assert.IsType(t, &CSV{}, s)

	_, err = Open(filepath.Join(t.TempDir(), "missing.ods"), testColumns, "")
	assert.Error(t, err)
}

func TestOpen_DetectsContent(t *testing.T) {
	path := writeFile(t, "export", "ID,Vorname,Nachname\n1,Max,Muster\n2,Eva,Lang\n")
	s, err := Open(path, testColumns, "")
	require.NoError(t, err)
	require.IsType(t, &CSV{}, s)

	rows, err := s.Rows(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	png := writeFile(t, "image", "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	_, err = Open(png, testColumns, "")
	assert.ErrorContains(t, err, "unsupported input format")
}

func TestSuggest(t *testing.T) {
	columns := model.Columns{"Telefon privat": model.FieldPhoneHome, "Telefon berufl.": model.FieldPhoneWork}
	assert.Equal(t, "Telefon privat", suggest("telefon priv", columns))
	assert.Equal(t, "", suggest("Fax", columns))
}

func TestCSV_SemicolonWithBOM(t *testing.T) {
	path := writeFile(t, "in.csv", "\ufeffid; Vorname ;Nachname;Unbekannt\n"+
		"1;Max;Muster;x\n"+
		";;;\n"+
		"2;Eva;\"Lang; Kurz\";y\n")

	rows, err := (&CSV{Path: path, Columns: testColumns}).Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, model.Row{Line: 2, ID: "1", FirstName: "Max", LastName: "Muster"}, rows[0])
	assert.Equal(t, "Lang; Kurz", rows[1].LastName)
	assert.Equal(t, 4, rows[1].Line)
}

func TestCSV_Comma(t *testing.T) {
	path := writeFile(t, "in.csv", "ID,Vorname,Nachname,Land\n7,Anna,Bauer,DE\n")

	rows, err := (&CSV{Path: path, Columns: testColumns}).Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "DE", rows[0].Country)
}

func TestCSV_Errors(t *testing.T) {
	_, err := (&CSV{Path: writeFile(t, "empty.csv", ""), Columns: testColumns}).Rows(context.Background())
	assert.ErrorContains(t, err, "missing header")

	_, err = (&CSV{Path: writeFile(t, "foreign.csv", "a;b\n1;2\n"), Columns: testColumns}).Rows(context.Background())
	assert.ErrorContains(t, err, "none of the rule set's columns")

	_, err = (&CSV{Path: filepath.Join(t.TempDir(), "missing.csv"), Columns: testColumns}).Rows(context.Background())
	assert.Error(t, err)
}

func TestXLSX_Rows(t *testing.T) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := "Sheet1"
	require.NoError(t, f.SetCellValue(sheet, "A2", "ID"))
	require.NoError(t, f.SetCellValue(sheet, "B2", "Vorname"))
	require.NoError(t, f.SetCellValue(sheet, "C2", "Nachname"))
	require.NoError(t, f.SetCellValue(sheet, "A3", "10"))
	require.NoError(t, f.SetCellValue(sheet, "B3", "Klaus"))
	require.NoError(t, f.SetCellValue(sheet, "C3", "Bauer"))
	require.NoError(t, f.SetCellValue(sheet, "A5", "11"))
	require.NoError(t, f.SetCellValue(sheet, "C5", "Lang"))

	_, err := f.NewSheet("Spenden")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Spenden", "A1", "Nachname"))
	require.NoError(t, f.SetCellValue("Spenden", "A2", "Other"))

	path := filepath.Join(t.TempDir(), "in.xlsx")
	require.NoError(t, f.SaveAs(path))

	rows, err := (&XLSX{Path: path, Columns: testColumns}).Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, model.Row{Line: 3, ID: "10", FirstName: "Klaus", LastName: "Bauer"}, rows[0])
	assert.Equal(t, 5, rows[1].Line)
	assert.Equal(t, "Lang", rows[1].LastName)

	rows, err = (&XLSX{Path: path, Sheet: "Spenden", Columns: testColumns}).Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Other", rows[0].LastName)

	_, err = (&XLSX{Path: path, Sheet: "Fehlt", Columns: testColumns}).Rows(context.Background())
	assert.Error(t, err)
}
