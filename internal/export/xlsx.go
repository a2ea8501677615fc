package export

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"docintake/internal/domain"
)

const (
	fieldsSheet   = "Fields"
	documentSheet = "Document"
)

// XLSX renders doc as a workbook with a Fields sheet (one row per field)
// and a Document sheet holding the document metadata.
func XLSX(doc *domain.DocumentWithFields) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", fieldsSheet); err != nil {
		return nil, fmt.Errorf("xlsx rename sheet: %w", err)
	}
	for i, h := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(fieldsSheet, cell, h)
	}
	for r := range doc.Fields {
		for c, v := range fieldToRow(doc, &doc.Fields[r]) {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if c == 4 {
				_ = f.SetCellValue(fieldsSheet, cell, doc.Fields[r].Confidence)
				continue
			}
			_ = f.SetCellValue(fieldsSheet, cell, v)
		}
	}
	_ = f.SetColWidth(fieldsSheet, "A", "B", 20)
	_ = f.SetColWidth(fieldsSheet, "C", "C", 22)
	_ = f.SetColWidth(fieldsSheet, "D", "D", 40)
	_ = f.SetColWidth(fieldsSheet, "E", "G", 12)
	_ = f.SetColWidth(fieldsSheet, "H", "H", 40)
	_ = f.SetColWidth(fieldsSheet, "I", "I", 22)

	if _, err := f.NewSheet(documentSheet); err != nil {
		return nil, fmt.Errorf("xlsx new sheet: %w", err)
	}
	meta := [][2]string{
		{"ID", doc.ID.String()},
		{"Title", doc.Title},
		{"Media", string(doc.MediaKind)},
		{"Document Type", string(doc.DocumentType)},
		{"Confidence", formatConfidence(doc.ClassificationConfidence)},
		{"Status", string(doc.Status)},
		{"Pages", strconv.Itoa(doc.PageCount)},
		{"Fields", strconv.Itoa(len(doc.Fields))},
		{"Created At", formatTime(doc.CreatedAt)},
	}
	if doc.ProcessedAt != nil {
		meta = append(meta, [2]string{"Processed At", formatTime(*doc.ProcessedAt)})
	}
	for i, kv := range meta {
		_ = f.SetCellValue(documentSheet, "A"+strconv.Itoa(i+1), kv[0])
		_ = f.SetCellValue(documentSheet, "B"+strconv.Itoa(i+1), kv[1])
	}
	_ = f.SetColWidth(documentSheet, "A", "A", 16)
	_ = f.SetColWidth(documentSheet, "B", "B", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
