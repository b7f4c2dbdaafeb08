package agent

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"
	openai "github.com/sashabaranov/go-openai"

	"vidrag/config"
	"vidrag/types"
)

// ChatCompleter is the slice of the OpenAI client the agent needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

const systemPrompt = `You are a helpful assistant.
Answer ONLY from the provided transcript context.
If the context is insufficient, just say you don't know.`

const answerTemperature = 0.2

// Agent talks to the generative model: it reformulates questions for
// retrieval and produces the final grounded answer.
type Agent struct {
	cli     ChatCompleter
	model   string
	timeout time.Duration
}

func New(cfg config.Config) *Agent {
	clientConfig := openai.DefaultConfig(cfg.GenerationAPIKey)
	if cfg.GenerationURL != "" {
		clientConfig.BaseURL = cfg.GenerationURL
	}
	return &Agent{
		cli:     openai.NewClientWithConfig(clientConfig),
		model:   cfg.GenerationModel,
		timeout: cfg.ModelTimeout,
	}
}

// NewWithClient wires a custom chat client, used by tests.
func NewWithClient(cli ChatCompleter, model string, timeout time.Duration) *Agent {
	return &Agent{cli: cli, model: model, timeout: timeout}
}

// GenerateAnswer builds the grounded prompt and returns the model output
// verbatim. Model failures come back as ErrGenerationFailed.
func (a *Agent) GenerateAnswer(ctx context.Context, contextStr, question string) (string, error) {
	start := time.Now()
	defer func() {
		log.Printf("[AGENT] LLM answer took %v", time.Since(start))
	}()

	if contextStr == "" {
		contextStr = "empty"
	}

	prompt := fmt.Sprintf("%s\nQuestion: %s", contextStr, question)

	if count, err := countTokens(systemPrompt + prompt); err == nil {
		log.Printf("[AGENT] prompt size in tokens: %d", count)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.cli.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: answerTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: model returned no choices", types.ErrGenerationFailed)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func countTokens(data string) (int, error) {
	enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(data, nil, nil)), nil
}
