package service

import (
	"fmt"
	"strings"
	"time"

	"docquery/internal/domain"
)

// BackfillMissing sets every requested field that is absent, blank or a
// literal "null" string to nil so callers always see the key.
func BackfillMissing(doc domain.AnswerDocument, questions []domain.Question) {
	for _, q := range questions {
		v, ok := doc[q.FieldName]
		if !ok || isBlank(v) {
			doc[q.FieldName] = nil
		}
	}
}

func isBlank(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "null")
}

// NormalizeDates rewrites the known date fields as YYYY-MM-DD. Values that
// do not parse are left unchanged.
func NormalizeDates(doc domain.AnswerDocument) {
	for _, field := range domain.CertificateDateFields {
		normalizeDateField(doc, field)
	}
	for _, shipment := range doc.Shipments() {
		normalizeDateField(shipment, domain.FieldShipmentDate)
	}
}

func normalizeDateField(m map[string]any, field string) {
	s, ok := m[field].(string)
	if !ok || s == "" {
		return
	}
	if t, err := parseDate(s); err == nil {
		m[field] = t.Format("2006-01-02")
	}
}

// parseDate tries common date formats. Day-first layouts win over
// month-first ones for ambiguous input.
func parseDate(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02",
		"02-01-2006",
		"02/01/2006",
		"02.01.2006",
		"01-02-2006",
		"01/02/2006",
		"2006/01/02",
		"02 Jan 2006",
		"2 Jan 2006",
		"02 January 2006",
		"2 January 2006",
		"Jan 02, 2006",
		"Jan 2, 2006",
		"January 02, 2006",
		"January 2, 2006",
		"02-01-2006 15:04:05",
		"2006-01-02T15:04:05Z07:00",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, strings.TrimSpace(s)); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date: %s", s)
}
