package domain

// Question is a caller-supplied query. FieldName is the key the answer must
// appear under in the returned AnswerDocument.
type Question struct {
	FieldName string `json:"field_name"`
	Question  string `json:"question"`
}

// ExtractionResult is the output of a single OCR pass over a document.
type ExtractionResult struct {
	Text       string          `json:"text"`
	Confidence float64         `json:"confidence"`
	Pages      int             `json:"pages"`
	Scale      ConfidenceScale `json:"scale"`
}

// IsEmpty reports whether no text was recognized.
func (r *ExtractionResult) IsEmpty() bool {
	return r == nil || r.Text == ""
}

// EmptyExtraction returns a result carrying no text and zero confidence.
func EmptyExtraction(scale ConfidenceScale) *ExtractionResult {
	return &ExtractionResult{Scale: scale}
}

// AnswerDocument is the structured answer set returned by the model.
type AnswerDocument map[string]any

// Keys of the fixed certificate schema used by the reference prompts.
const (
	FieldCertificateName          = "CertificateName"
	FieldCertificateType          = "CertificateType"
	FieldCertificateAuditor       = "CertificateAuditor"
	FieldCertificateIssueDate     = "CertificateIssueDate"
	FieldCertificateValidityStart = "CertificateValidityStartDate"
	FieldCertificateValidityEnd   = "CertificateValidityEndDate"
	FieldShipments                = "shipments"

	FieldShipmentNo          = "ShipmentNo"
	FieldShipmentDate        = "ShipmentDate"
	FieldGrossShippingWeight = "GrossShippingWeight"
	FieldInvoiceReferences   = "InvoiceReferences"
	FieldShipmentDocNo       = "ShipmentDocNo"

	// ConfidenceKey is the response key the OCR confidence is merged under.
	// It is reserved and cannot be used as a question field_name.
	ConfidenceKey = "confidence"
)

// CertificateFields lists the scalar certificate keys in prompt order.
var CertificateFields = []string{
	FieldCertificateName,
	FieldCertificateType,
	FieldCertificateAuditor,
	FieldCertificateIssueDate,
	FieldCertificateValidityStart,
	FieldCertificateValidityEnd,
}

// CertificateDateFields are the top-level keys holding dates.
var CertificateDateFields = []string{
	FieldCertificateIssueDate,
	FieldCertificateValidityStart,
	FieldCertificateValidityEnd,
}

// ShipmentFields lists the per-shipment keys in prompt order.
var ShipmentFields = []string{
	FieldShipmentNo,
	FieldShipmentDate,
	FieldGrossShippingWeight,
	FieldInvoiceReferences,
	FieldShipmentDocNo,
}

// Shipments returns the shipment records of the document, skipping entries
// that are not objects.
func (d AnswerDocument) Shipments() []map[string]any {
	raw, ok := d[FieldShipments].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if rec, ok := item.(map[string]any); ok {
			out = append(out, rec)
		}
	}
	return out
}
