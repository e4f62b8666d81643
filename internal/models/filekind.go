package models

type FileKind string

const (
	FileKindSpreadsheet FileKind = "spreadsheet"
	FileKindCSV         FileKind = "csv"
	FileKindPDF         FileKind = "pdf"
	FileKindImage       FileKind = "image"
	FileKindUnsupported FileKind = "unsupported"
)

// IsTabular reports whether the kind goes through the parse/segment/classify path.
func (k FileKind) IsTabular() bool {
	return k == FileKindSpreadsheet || k == FileKindCSV
}

// IsVisual reports whether the kind goes through the vision extraction path.
func (k FileKind) IsVisual() bool {
	return k == FileKindPDF || k == FileKindImage
}

type EntityKind string

const (
	EntityKindContract   EntityKind = "contract"
	EntityKindReceivable EntityKind = "receivable"
	EntityKindExpense    EntityKind = "expense"
)
