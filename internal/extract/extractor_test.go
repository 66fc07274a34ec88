package extract

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExtractBytes_plain(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("Hello world\nLine 2"), ".txt")
	require.NoError(t, err)
	assert.Equal(t, "Hello world\nLine 2", got)
}

func TestExtractBytes_plainInvalidUTF8(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("hello\x80world"), ".md")
	require.NoError(t, err)
	assert.Equal(t, "hello\uFFFDworld", got)
}

func TestExtractBytes_normalizesLineEndings(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("one\r\n\r\ntwo\rthree"), ".txt")
	require.NoError(t, err)
	assert.Equal(t, "one\n\ntwo\nthree", got)
}

func TestExtractBytes_unknownExtension(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("raw content"), ".xyz")
	require.NoError(t, err)
	assert.Equal(t, "raw content", got)
}

func TestExtractBytes_excel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Bracket"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "10%"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", "0 - 11,600"))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	got, err := NewExtractor().ExtractBytes(buf.Bytes(), ".xlsx")
	require.NoError(t, err)
	assert.Equal(t, "Sheet1\nBracket\n10%\t0 - 11,600", got)
}

func TestExtractBytes_excelSheetsAndBlankRows(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Income"))
	require.NoError(t, f.SetCellValue("Sheet1", "A3", "Wages"))
	require.NoError(t, f.SetCellValue("Sheet1", "B3", 5000))
	_, err := f.NewSheet("Empty")
	require.NoError(t, err)
	_, err = f.NewSheet("Deductions")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Deductions", "A1", "Standard"))
	var buf bytes.Buffer
	_, err = f.WriteTo(&buf)
	require.NoError(t, err)

	got, err := NewExtractor().ExtractBytes(buf.Bytes(), ".xlsx")
	require.NoError(t, err)
	assert.Equal(t, "Sheet1\nIncome\nWages\t5000\n\nDeductions\nStandard", got)
}

func TestExtractBytes_pdfNotAPDF(t *testing.T) {
	_, err := NewExtractor().ExtractBytes([]byte("plain text pretending"), ".pdf")
	assert.Error(t, err)
}

func TestExtract_plainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.txt")
	require.NoError(t, os.WriteFile(path, []byte("File content"), 0600))

	got, err := NewExtractor().Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "File content", got)
}

func TestExtract_nonexistent(t *testing.T) {
	_, err := NewExtractor().Extract("/nonexistent/path/file.txt")
	assert.Error(t, err)
}
