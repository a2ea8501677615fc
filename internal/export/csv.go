// Package export renders a document's fields as CSV or XLSX.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"docintake/internal/domain"
)

// BOM is the UTF-8 byte order mark Excel needs to detect the encoding.
var BOM = []byte{0xEF, 0xBB, 0xBF}

var columns = []string{
	"Document",
	"Document Type",
	"Key",
	"Value",
	"Confidence",
	"Source",
	"Modified",
	"Original Value",
	"Updated At",
}

// Writer writes field rows as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteDocument writes one row per field of doc.
func (w *Writer) WriteDocument(doc *domain.DocumentWithFields) error {
	for i := range doc.Fields {
		if err := w.csv.Write(fieldToRow(doc, &doc.Fields[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// WriteCSV writes the BOM, the header and every field of doc to out.
func WriteCSV(out io.Writer, doc *domain.DocumentWithFields) error {
	if _, err := out.Write(BOM); err != nil {
		return err
	}
	w := NewWriter(out)
	if err := w.WriteHeader(); err != nil {
		return err
	}
	if err := w.WriteDocument(doc); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func fieldToRow(doc *domain.DocumentWithFields, f *domain.Field) []string {
	return []string{
		doc.Title,
		string(doc.DocumentType),
		f.Key,
		f.Value,
		formatConfidence(f.Confidence),
		string(f.Source),
		formatBool(f.IsModified),
		f.OriginalValue,
		formatTime(f.UpdatedAt),
	}
}

func formatConfidence(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatBool(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
