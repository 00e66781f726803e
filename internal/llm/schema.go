package llm

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"docquery/internal/domain"
)

// answerSchemaJSON describes the structural floor every answer must meet.
// Requested fields are free-form; the certificate fields are strings and the
// shipment list holds objects.
const answerSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "CertificateName": {"type": ["string", "null"]},
    "CertificateType": {"type": ["string", "null"]},
    "CertificateAuditor": {"type": ["string", "null"]},
    "CertificateIssueDate": {"type": ["string", "null"]},
    "CertificateValidityStartDate": {"type": ["string", "null"]},
    "CertificateValidityEndDate": {"type": ["string", "null"]},
    "shipments": {
      "type": ["array", "null"],
      "items": {"type": "object"}
    }
  }
}`

// AnswerSchema is the compiled answer schema.
var AnswerSchema = mustCompile("answer.json", answerSchemaJSON)

func mustCompile(name, src string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(src)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	return compiler.MustCompile(name)
}

// ValidateAnswer checks a decoded value against AnswerSchema and returns it
// as an AnswerDocument.
func ValidateAnswer(v any) (domain.AnswerDocument, error) {
	if err := AnswerSchema.Validate(v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON object, got %T", ErrSchemaMismatch, v)
	}
	return domain.AnswerDocument(obj), nil
}
