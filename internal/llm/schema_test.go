package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docquery/internal/llm"
)

func TestValidateAnswer(t *testing.T) {
	valid := []any{
		map[string]any{},
		map[string]any{"name": "Acme", "count": float64(2)},
		map[string]any{"CertificateName": nil, "shipments": nil},
		map[string]any{"shipments": []any{map[string]any{"ShipmentNo": "S-1"}}},
	}
	for _, v := range valid {
		doc, err := llm.ValidateAnswer(v)
		require.NoError(t, err, "%v", v)
		assert.Equal(t, len(v.(map[string]any)), len(doc))
	}

	invalid := []any{
		[]any{map[string]any{"name": "Acme"}},
		"Acme",
		float64(42),
		nil,
		map[string]any{"shipments": "none"},
		map[string]any{"shipments": []any{"S-1"}},
		map[string]any{"CertificateName": []any{"a"}},
	}
	for _, v := range invalid {
		_, err := llm.ValidateAnswer(v)
		assert.ErrorIs(t, err, llm.ErrSchemaMismatch, "%v", v)
	}
}
