package llm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docquery/internal/domain"
	"docquery/internal/llm"
	"docquery/mocks"
)

var nameQuestion = []domain.Question{{FieldName: "name", Question: "What is the name?"}}

// recordingSleep counts sleeps without waiting.
type recordingSleep struct {
	delays []time.Duration
}

func (r *recordingSleep) sleep(_ context.Context, d time.Duration) {
	r.delays = append(r.delays, d)
}

func newTestEngine(p llm.Provider, maxRetries int, s *recordingSleep) *llm.Engine {
	return llm.NewEngine(p, llm.RetryPolicy{
		MaxRetries: maxRetries,
		Delay:      2 * time.Second,
		Sleep:      s.sleep,
	}, llm.CostRates{Per1KInput: 0.003, Per1KOutput: 0.015})
}

func TestEngine_Query_SucceedsFirstTry(t *testing.T) {
	p := new(mocks.MockLLMProvider)
	p.On("Name").Return("claude")
	p.On("Complete", mock.Anything, mock.Anything).Return(&llm.Completion{
		Text:  `{"name":"Acme"}`,
		Usage: &llm.Usage{InputTokens: 100, OutputTokens: 10},
	}, nil).Once()

	s := &recordingSleep{}
	doc, err := newTestEngine(p, 3, s).Query(context.Background(), "Sample text", nameQuestion, "")

	require.NoError(t, err)
	assert.Equal(t, domain.AnswerDocument{"name": "Acme"}, doc)
	p.AssertNumberOfCalls(t, "Complete", 1)
	assert.Empty(t, s.delays)
}

func TestEngine_Query_EscapedContentSucceedsFirstTry(t *testing.T) {
	p := new(mocks.MockLLMProvider)
	p.On("Name").Return("claude")
	p.On("Complete", mock.Anything, mock.Anything).Return(&llm.Completion{
		Text: `{"CertificateName":"The \"Organic\" Cert","path":"C:\\docs"}`,
	}, nil)

	s := &recordingSleep{}
	doc, err := newTestEngine(p, 3, s).Query(context.Background(), "Sample text", nameQuestion, "")

	require.NoError(t, err)
	assert.Equal(t, `The "Organic" Cert`, doc["CertificateName"])
	assert.Equal(t, `C:\docs`, doc["path"])
	p.AssertNumberOfCalls(t, "Complete", 1)
	assert.Empty(t, s.delays)
}

func TestEngine_Query_KFailuresThenSuccess(t *testing.T) {
	for k := 0; k < 4; k++ {
		p := new(mocks.MockLLMProvider)
		p.On("Name").Return("mistral")
		for i := 0; i < k; i++ {
			if i%2 == 0 {
				p.On("Complete", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset")).Once()
			} else {
				p.On("Complete", mock.Anything, mock.Anything).Return(&llm.Completion{Text: `{"name": `}, nil).Once()
			}
		}
		p.On("Complete", mock.Anything, mock.Anything).Return(&llm.Completion{Text: "```json\n{\"name\":\"Acme\",}\n```"}, nil).Once()

		s := &recordingSleep{}
		doc, err := newTestEngine(p, 5, s).Query(context.Background(), "Sample text", nameQuestion, "")

		require.NoError(t, err, "k=%d", k)
		assert.Equal(t, "Acme", doc["name"])
		p.AssertNumberOfCalls(t, "Complete", k+1)
		assert.Len(t, s.delays, k)
	}
}

func TestEngine_Query_AlwaysMalformed(t *testing.T) {
	p := new(mocks.MockLLMProvider)
	p.On("Name").Return("claude")
	p.On("Complete", mock.Anything, mock.Anything).Return(&llm.Completion{Text: `"I could not find the answer"`}, nil)

	s := &recordingSleep{}
	doc, err := newTestEngine(p, 3, s).Query(context.Background(), "Sample text", nameQuestion, "")

	assert.Nil(t, doc)
	assert.ErrorIs(t, err, llm.ErrMaxRetries)
	assert.ErrorIs(t, err, llm.ErrSchemaMismatch)
	p.AssertNumberOfCalls(t, "Complete", 3)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, s.delays)
}

func TestEngine_Query_AlwaysUnparseable(t *testing.T) {
	p := new(mocks.MockLLMProvider)
	p.On("Name").Return("claude")
	p.On("Complete", mock.Anything, mock.Anything).Return(&llm.Completion{Text: `{"name": "Acme"`}, nil)

	doc, err := newTestEngine(p, 4, &recordingSleep{}).Query(context.Background(), "Sample text", nameQuestion, "")

	assert.Nil(t, doc)
	assert.ErrorIs(t, err, llm.ErrMaxRetries)
	assert.ErrorIs(t, err, llm.ErrMalformedOutput)
	p.AssertNumberOfCalls(t, "Complete", 4)
}

func TestEngine_Query_ArrayIsNotAnAnswer(t *testing.T) {
	p := new(mocks.MockLLMProvider)
	p.On("Name").Return("openai")
	p.On("Complete", mock.Anything, mock.Anything).Return(&llm.Completion{Text: `[{"name":"Acme"}]`}, nil).Once()
	p.On("Complete", mock.Anything, mock.Anything).Return(&llm.Completion{Text: `{"name":"Acme"}`}, nil).Once()

	doc, err := newTestEngine(p, 3, &recordingSleep{}).Query(context.Background(), "Sample text", nameQuestion, "")

	require.NoError(t, err)
	assert.Equal(t, "Acme", doc["name"])
	p.AssertNumberOfCalls(t, "Complete", 2)
}

func TestEngine_Query_KeepsRateLimitCause(t *testing.T) {
	p := new(mocks.MockLLMProvider)
	p.On("Name").Return("openai")
	p.On("Complete", mock.Anything, mock.Anything).Return(nil, llm.NewRateLimitError("openai", errors.New("429"), 10*time.Second))

	_, err := newTestEngine(p, 2, &recordingSleep{}).Query(context.Background(), "Sample text", nameQuestion, "")

	var rlErr *llm.RateLimitError
	assert.True(t, errors.As(err, &rlErr))
	assert.ErrorIs(t, err, llm.ErrMaxRetries)
}

func TestEngine_Query_PromptCarriesQuestionsAndPrefill(t *testing.T) {
	p := new(mocks.MockLLMProvider)
	p.On("Name").Return("claude")
	p.On("Complete", mock.Anything, mock.MatchedBy(func(pr llm.Prompt) bool {
		return pr.DocumentText == "Sample text" &&
			pr.QuestionBlock == `"name": "What is the name?"` &&
			pr.Prefill == "{" &&
			pr.System == llm.SystemInstruction
	})).Return(&llm.Completion{Text: `{"name":"Acme"}`}, nil)

	_, err := newTestEngine(p, 1, &recordingSleep{}).Query(context.Background(), "Sample text", nameQuestion, "{")

	require.NoError(t, err)
	p.AssertExpectations(t)
}

func TestEngine_Query_DoesNotBackfill(t *testing.T) {
	p := new(mocks.MockLLMProvider)
	p.On("Name").Return("claude")
	p.On("Complete", mock.Anything, mock.Anything).Return(&llm.Completion{Text: `{"other":"x"}`}, nil)

	doc, err := newTestEngine(p, 1, &recordingSleep{}).Query(context.Background(), "Sample text", nameQuestion, "")

	require.NoError(t, err)
	_, present := doc["name"]
	assert.False(t, present)
}

func TestEngine_DefaultRetries(t *testing.T) {
	p := new(mocks.MockLLMProvider)
	p.On("Name").Return("claude")
	p.On("Complete", mock.Anything, mock.Anything).Return(nil, errors.New("down"))

	e := llm.NewEngine(p, llm.RetryPolicy{Sleep: func(context.Context, time.Duration) {}}, llm.CostRates{})
	_, err := e.Query(context.Background(), "text", nameQuestion, "")

	assert.Error(t, err)
	p.AssertNumberOfCalls(t, "Complete", 3)
	assert.Equal(t, "claude", e.Name())
}

type closingProvider struct {
	*mocks.MockLLMProvider
	closed bool
}

func (c *closingProvider) Close() error {
	c.closed = true
	return nil
}

func TestEngine_Close(t *testing.T) {
	p := &closingProvider{MockLLMProvider: new(mocks.MockLLMProvider)}
	require.NoError(t, newTestEngine(p, 3, &recordingSleep{}).Close())
	assert.True(t, p.closed)

	assert.NoError(t, newTestEngine(new(mocks.MockLLMProvider), 3, &recordingSleep{}).Close())
}
