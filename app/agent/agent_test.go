package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidrag/types"
)

type fakeChat struct {
	content string
	err     error
	lastReq openai.ChatCompletionRequest
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.content}},
		},
	}, nil
}

func newTestAgent(cli ChatCompleter) *Agent {
	return NewWithClient(cli, "test-model", 5*time.Second)
}

func TestGenerateAnswerPassesThroughModelOutput(t *testing.T) {
	chat := &fakeChat{content: "  Cats sleep sixteen hours a day.  "}
	a := newTestAgent(chat)

	answer, err := a.GenerateAnswer(context.Background(), "Cats sleep sixteen hours a day.", "How much do cats sleep?")
	require.NoError(t, err)
	assert.Equal(t, "Cats sleep sixteen hours a day.", answer)

	require.Len(t, chat.lastReq.Messages, 2)
	assert.Contains(t, chat.lastReq.Messages[0].Content, "Answer ONLY from the provided transcript context")
	assert.Contains(t, chat.lastReq.Messages[0].Content, "say you don't know")
	assert.Contains(t, chat.lastReq.Messages[1].Content, "Cats sleep sixteen hours a day.")
	assert.Contains(t, chat.lastReq.Messages[1].Content, "Question: How much do cats sleep?")
	assert.Equal(t, "test-model", chat.lastReq.Model)
	assert.InDelta(t, answerTemperature, chat.lastReq.Temperature, 1e-6)
}

func TestGenerateAnswerEmptyContext(t *testing.T) {
	chat := &fakeChat{content: "I don't know."}
	a := newTestAgent(chat)

	_, err := a.GenerateAnswer(context.Background(), "", "What color is the sky?")
	require.NoError(t, err)
	assert.Contains(t, chat.lastReq.Messages[1].Content, "empty")
}

func TestGenerateAnswerFailure(t *testing.T) {
	a := newTestAgent(&fakeChat{err: errors.New("upstream timeout")})

	_, err := a.GenerateAnswer(context.Background(), "some context", "a question")
	assert.ErrorIs(t, err, types.ErrGenerationFailed)
}

func TestReformulateFallsBackOnError(t *testing.T) {
	a := newTestAgent(&fakeChat{err: errors.New("model unavailable")})

	queries := a.Reformulate(context.Background(), "How much do cats sleep?")
	assert.Equal(t, []string{"How much do cats sleep?"}, queries)
}

func TestReformulateKeepsOriginalFirst(t *testing.T) {
	chat := &fakeChat{content: "How long do cats rest?\n\nCat sleeping duration\nFeline sleep habits\nExtra one past the cap"}
	a := newTestAgent(chat)

	queries := a.Reformulate(context.Background(), "How much do cats sleep?")
	require.Len(t, queries, reformulateCount+1)
	assert.Equal(t, "How much do cats sleep?", queries[0])
	assert.Equal(t, "How long do cats rest?", queries[1])

	assert.Contains(t, chat.lastReq.Messages[0].Content, "How much do cats sleep?")
}

func TestReformulateDropsDuplicates(t *testing.T) {
	chat := &fakeChat{content: "How much do cats sleep?\nhow much do cats sleep?"}
	a := newTestAgent(chat)

	queries := a.Reformulate(context.Background(), "How much do cats sleep?")
	assert.Equal(t, []string{"How much do cats sleep?"}, queries)
}
