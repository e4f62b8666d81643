package service

import (
	"testing"

	"fluxodocs/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestDetectFileKind_MagicBytes(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		file string
		want models.FileKind
	}{
		{"xlsx zip container", []byte("PK\x03\x04rest"), "planilha.xlsx", models.FileKindSpreadsheet},
		{"legacy xls ole2", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0x00}, "contratos.xls", models.FileKindSpreadsheet},
		{"pdf", []byte("%PDF-1.7"), "proposta.pdf", models.FileKindPDF},
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A}, "recibo.png", models.FileKindImage},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "nota.jpg", models.FileKindImage},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectFileKind(tc.data, tc.file))
		})
	}
}

func TestDetectFileKind_MagicBytesWinOverExtension(t *testing.T) {
	// A PDF renamed to .csv must still go through the vision path.
	assert.Equal(t, models.FileKindPDF, DetectFileKind([]byte("%PDF-1.4"), "dados.csv"))
}

func TestDetectFileKind_ExtensionFallback(t *testing.T) {
	plain := []byte("cliente;valor\nJoão;100")
	assert.Equal(t, models.FileKindCSV, DetectFileKind(plain, "lancamentos.CSV"))
	assert.Equal(t, models.FileKindSpreadsheet, DetectFileKind(plain, "planilha.xlsx"))
	assert.Equal(t, models.FileKindUnsupported, DetectFileKind(plain, "notas.txt"))
	assert.Equal(t, models.FileKindUnsupported, DetectFileKind(nil, "semextensao"))
}
