package models

// TableClassification maps one segmented table to an entity kind plus a
// field-name -> column-index mapping. It is produced by the AI service and
// treated as advisory: the transformer re-validates every required field
// before accepting a row. A table holding a mix of kinds yields one
// classification per kind.
type TableClassification struct {
	Kind EntityKind
	// Columns maps canonical field names (clientName, projectName, totalValue,
	// signedDate, amount, expectedDate, dueDate, description, vendor, category)
	// to zero-based column indices within the table.
	Columns map[string]int
}
