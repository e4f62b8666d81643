package service

import (
	"bytes"
	"path/filepath"
	"strings"

	"fluxodocs/internal/models"
)

// Magic prefixes for the container formats we accept. xlsx is a zip archive,
// legacy xls is an OLE2 compound file.
var (
	magicZip  = []byte("PK\x03\x04")
	magicOLE2 = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	magicPDF  = []byte("%PDF")
	magicPNG  = []byte{0x89, 0x50, 0x4E, 0x47}
	magicJPEG = []byte{0xFF, 0xD8, 0xFF}
)

// DetectFileKind classifies raw bytes plus a filename into a handled kind.
// Magic bytes win; the extension is only a fallback for formats without a
// signature (CSV). It never fails: anything unrecognized is unsupported and
// the orchestrator rejects it before any other stage runs.
func DetectFileKind(data []byte, fileName string) models.FileKind {
	switch {
	case bytes.HasPrefix(data, magicZip), bytes.HasPrefix(data, magicOLE2):
		return models.FileKindSpreadsheet
	case bytes.HasPrefix(data, magicPDF):
		return models.FileKindPDF
	case bytes.HasPrefix(data, magicPNG), bytes.HasPrefix(data, magicJPEG):
		return models.FileKindImage
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xls":
		return models.FileKindSpreadsheet
	case ".csv":
		return models.FileKindCSV
	case ".pdf":
		return models.FileKindPDF
	case ".jpg", ".jpeg", ".png":
		return models.FileKindImage
	}

	return models.FileKindUnsupported
}
