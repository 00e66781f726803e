package claude_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docquery/internal/config"
	"docquery/internal/domain"
	"docquery/internal/llm"
	"docquery/internal/llm/claude"
	"docquery/mocks"
)

const sonnet = "anthropic.claude-3-sonnet-20240229-v1:0"

func samplePrompt(prefill string) llm.Prompt {
	return llm.BuildPrompt("Certificate No. 42 issued by Control Union",
		[]domain.Question{{FieldName: "CertificateAuditor", Question: "Who is the auditor?"}}, prefill)
}

func TestProvider_Complete_RequestAndResponse(t *testing.T) {
	invoker := new(mocks.MockModelInvoker)
	invoker.On("Invoke", mock.Anything, sonnet, mock.MatchedBy(func(body []byte) bool {
		var req map[string]interface{}
		if err := json.Unmarshal(body, &req); err != nil {
			return false
		}
		msgs := req["messages"].([]interface{})
		user := msgs[0].(map[string]interface{})
		return req["anthropic_version"] == "bedrock-2023-05-31" &&
			req["max_tokens"] == float64(8000) &&
			req["system"] == llm.SystemInstruction &&
			len(msgs) == 1 &&
			user["role"] == "user"
	})).Return([]byte(`{
		"content":[{"type":"text","text":"{\"CertificateAuditor\":\"Control Union\"}"}],
		"stop_reason":"end_turn",
		"usage":{"input_tokens":120,"output_tokens":15}
	}`), nil)

	p := claude.New(&config.LLMProviderConfig{}, invoker)
	c, err := p.Complete(context.Background(), samplePrompt(""))

	require.NoError(t, err)
	assert.Equal(t, `{"CertificateAuditor":"Control Union"}`, c.Text)
	require.NotNil(t, c.Usage)
	assert.Equal(t, 120, c.Usage.InputTokens)
	assert.Equal(t, 15, c.Usage.OutputTokens)
	assert.False(t, c.Usage.Estimated)
	assert.Equal(t, "claude", p.Name())
}

func TestProvider_Complete_PrefillIsPrepended(t *testing.T) {
	invoker := new(mocks.MockModelInvoker)
	var sent map[string]interface{}
	invoker.On("Invoke", mock.Anything, "custom-model", mock.Anything).Run(func(args mock.Arguments) {
		_ = json.Unmarshal(args.Get(2).([]byte), &sent)
	}).Return([]byte(`{"content":[{"type":"text","text":"\"CertificateAuditor\": \"Control Union\"}"}]}`), nil)

	p := claude.New(&config.LLMProviderConfig{Model: "custom-model", MaxTokens: 1024}, invoker)
	c, err := p.Complete(context.Background(), samplePrompt("{\n  "))

	require.NoError(t, err)
	assert.Equal(t, `{"CertificateAuditor": "Control Union"}`, c.Text)
	assert.Nil(t, c.Usage)

	msgs := sent["messages"].([]interface{})
	require.Len(t, msgs, 2)
	assistant := msgs[1].(map[string]interface{})
	assert.Equal(t, "assistant", assistant["role"])
	assert.Equal(t, "{", assistant["content"])
	assert.Equal(t, float64(1024), sent["max_tokens"])
}

func TestProvider_Complete_EmptyContent(t *testing.T) {
	invoker := new(mocks.MockModelInvoker)
	invoker.On("Invoke", mock.Anything, sonnet, mock.Anything).Return([]byte(`{"content":[]}`), nil)

	_, err := claude.New(&config.LLMProviderConfig{}, invoker).Complete(context.Background(), samplePrompt(""))

	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestProvider_Complete_InvokerError(t *testing.T) {
	invoker := new(mocks.MockModelInvoker)
	invoker.On("Invoke", mock.Anything, sonnet, mock.Anything).Return(nil, errors.New("access denied"))

	_, err := claude.New(&config.LLMProviderConfig{}, invoker).Complete(context.Background(), samplePrompt(""))

	assert.EqualError(t, err, "access denied")
}

func TestFactory_RequiresBedrock(t *testing.T) {
	_, err := llm.NewProvider(&config.LLMProviderConfig{Provider: "claude"}, llm.Dependencies{})
	assert.Error(t, err)

	p, err := llm.NewProvider(&config.LLMProviderConfig{Provider: "claude"}, llm.Dependencies{Bedrock: new(mocks.MockModelInvoker)})
	require.NoError(t, err)
	assert.Equal(t, "claude", p.Name())
}
