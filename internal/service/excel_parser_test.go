package service

import (
	"bytes"
	"testing"

	"fluxodocs/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildXLSX(t *testing.T, sheet string, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestParseWorkbook_XLSX(t *testing.T) {
	data := buildXLSX(t, "Contratos", [][]interface{}{
		{"Cliente", "Projeto", "Valor", "Data"},
		{"João Silva", "Casa da Praia", "R$ 185.000,00", "15/09/2024"},
	})

	wb, err := ParseWorkbook(data, "contratos.xlsx", models.FileKindSpreadsheet)
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)
	assert.Equal(t, "Contratos", wb.Sheets[0].Name)
	require.Len(t, wb.Sheets[0].Rows, 2)
	assert.Equal(t, "João Silva", wb.Sheets[0].Rows[1][0])
}

func TestParseWorkbook_CSVSemicolon(t *testing.T) {
	data := []byte("cliente;valor;data\nJoão Silva;R$ 1.234,56;15/09/2024\n")

	wb, err := ParseWorkbook(data, "lancamentos.csv", models.FileKindCSV)
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)
	assert.Equal(t, "lancamentos", wb.Sheets[0].Name)
	require.Len(t, wb.Sheets[0].Rows, 2)
	assert.Equal(t, []string{"cliente", "valor", "data"}, wb.Sheets[0].Rows[0])
	assert.Equal(t, "R$ 1.234,56", wb.Sheets[0].Rows[1][1])
}

func TestParseWorkbook_CSVComma(t *testing.T) {
	data := []byte("client,amount\nAcme,1234.56\n")

	wb, err := ParseWorkbook(data, "data.csv", models.FileKindCSV)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "1234.56"}, wb.Sheets[0].Rows[1])
}

func TestParseWorkbook_Empty(t *testing.T) {
	_, err := ParseWorkbook(nil, "vazio.csv", models.FileKindCSV)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestParseWorkbook_CorruptSpreadsheet(t *testing.T) {
	_, err := ParseWorkbook([]byte("PK\x03\x04 not a real zip"), "quebrado.xlsx", models.FileKindSpreadsheet)
	assert.Error(t, err)
}

func TestParseWorkbook_NonTabularKind(t *testing.T) {
	_, err := ParseWorkbook([]byte("%PDF-1.4"), "doc.pdf", models.FileKindPDF)
	assert.Error(t, err)
}
