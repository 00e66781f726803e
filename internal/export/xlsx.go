// Package export renders answer documents as XLSX workbooks.
package export

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"docquery/internal/domain"
)

const (
	answersSheet   = "Answers"
	shipmentsSheet = "Shipments"
)

// AnswersXLSX writes doc to a workbook and returns its bytes. The Answers
// sheet holds one field per row, in question order first and then any other
// keys sorted. When the document carries shipments they get their own sheet.
func AnswersXLSX(doc domain.AnswerDocument, questions []domain.Question) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), answersSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	writeRow(f, answersSheet, 1, "Field", "Value")
	row := 2
	for _, key := range orderedKeys(doc, questions) {
		if key == domain.FieldShipments {
			continue
		}
		writeRow(f, answersSheet, row, key, cellValue(doc[key]))
		row++
	}
	_ = f.SetColWidth(answersSheet, "A", "A", 32)
	_ = f.SetColWidth(answersSheet, "B", "B", 60)

	if shipments := doc.Shipments(); len(shipments) > 0 {
		if _, err := f.NewSheet(shipmentsSheet); err != nil {
			return nil, fmt.Errorf("create sheet: %w", err)
		}
		header := make([]any, len(domain.ShipmentFields))
		for i, field := range domain.ShipmentFields {
			header[i] = field
		}
		writeRow(f, shipmentsSheet, 1, header...)
		for i, shipment := range shipments {
			values := make([]any, len(domain.ShipmentFields))
			for j, field := range domain.ShipmentFields {
				values[j] = cellValue(shipment[field])
			}
			writeRow(f, shipmentsSheet, i+2, values...)
		}
		_ = f.SetColWidth(shipmentsSheet, "A", "E", 22)
	}

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func orderedKeys(doc domain.AnswerDocument, questions []domain.Question) []string {
	seen := make(map[string]bool, len(doc))
	keys := make([]string, 0, len(doc))
	for _, q := range questions {
		if _, ok := doc[q.FieldName]; ok && !seen[q.FieldName] {
			seen[q.FieldName] = true
			keys = append(keys, q.FieldName)
		}
	}
	var rest []string
	for k := range doc {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// cellValue flattens an answer value into something a cell can hold.
// Nested values are written as compact JSON.
func cellValue(v any) any {
	switch val := v.(type) {
	case nil:
		return ""
	case string, bool:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename replaces characters other than letters, digits, hyphen
// and underscore with underscores and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "document"
	}
	return s
}

// BuildFilename returns {sanitized_name}_{YYYY-MM-DD}.xlsx for use in
// Content-Disposition.
func BuildFilename(uploadName string) string {
	base := strings.TrimSuffix(uploadName, ".pdf")
	base = strings.TrimSuffix(base, ".PDF")
	return fmt.Sprintf("%s_%s.xlsx", SanitizeFilename(base), time.Now().Format("2006-01-02"))
}
