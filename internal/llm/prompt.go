package llm

import (
	"fmt"
	"strings"

	"docquery/internal/domain"
)

// SystemInstruction is sent to every provider as the system prompt.
const SystemInstruction = "You are given the extracted text from a document. " +
	"Please answer the following questions based on the provided text."

const answerRules = `Use the format below to answer:
- Respond with JSON only.
- All dates must be in the format YYYY-MM-DD.
- If any information is missing or unavailable, use null.
- Answer with only words, not full sentences.`

// BuildPrompt assembles the prompt for a question set. Questions keep their
// order.
func BuildPrompt(text string, questions []domain.Question, prefill string) Prompt {
	return Prompt{
		System:        SystemInstruction,
		DocumentText:  text,
		QuestionBlock: FormatQuestions(questions),
		Schema:        SchemaExample(questions),
		Prefill:       prefill,
	}
}

// FormatQuestions renders questions as `"field_name": "question"` pairs
// joined by ", ".
func FormatQuestions(questions []domain.Question) string {
	pairs := make([]string, 0, len(questions))
	for _, q := range questions {
		pairs = append(pairs, fmt.Sprintf("%q: %q", q.FieldName, q.Question))
	}
	return strings.Join(pairs, ", ")
}

// SchemaExample returns the JSON skeleton shown to the model: the
// certificate fields, the shipment list and any requested field that is not
// already part of it.
func SchemaExample(questions []domain.Question) string {
	var b strings.Builder
	b.WriteString("{\n")
	known := make(map[string]bool)
	for _, f := range domain.CertificateFields {
		known[f] = true
		fmt.Fprintf(&b, "  %q: %s,\n", f, placeholder(f))
	}
	for _, q := range questions {
		if known[q.FieldName] || q.FieldName == domain.FieldShipments {
			continue
		}
		known[q.FieldName] = true
		fmt.Fprintf(&b, "  %q: \"string\",\n", q.FieldName)
	}

	shipment := make([]string, 0, len(domain.ShipmentFields))
	for _, f := range domain.ShipmentFields {
		shipment = append(shipment, fmt.Sprintf("%q: %s", f, placeholder(f)))
	}
	fmt.Fprintf(&b, "  %q: [{%s}]\n}", domain.FieldShipments, strings.Join(shipment, ", "))
	return b.String()
}

func placeholder(field string) string {
	if strings.HasSuffix(field, "Date") {
		return `"YYYY-MM-DD"`
	}
	return `"string"`
}

// UserMessage renders the user turn shared by chat-style providers.
func (p Prompt) UserMessage() string {
	var b strings.Builder
	b.WriteString("The document may contain details such as:\n")
	b.WriteString("- Certificate details (name, type, auditor, issue date, validity dates)\n")
	b.WriteString("- Shipments (shipment number, date, gross shipping weight, invoice references, etc.)\n\n")
	b.WriteString(answerRules)
	b.WriteString("\n\nExtracted text:\n")
	b.WriteString(p.DocumentText)
	b.WriteString("\n\nNow, answer the following questions:\n{\n")
	b.WriteString(p.QuestionBlock)
	b.WriteString("\n}\n")
	if p.Schema != "" {
		b.WriteString("\nProvide the answer in JSON structure like in this example:\n")
		b.WriteString(p.Schema)
		b.WriteString("\n")
	}
	return b.String()
}
