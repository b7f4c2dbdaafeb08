package agent

import (
	"context"
	"fmt"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const reformulateCount = 3

const reformulatePrompt = `Generate %d alternative phrasings of the user question below for searching a video transcript.
Vary the wording and keywords but keep the same intent.
Output one phrasing per line, without numbering or commentary.

Question: %s`

// Reformulate expands one question into several related queries to widen
// retrieval recall. The original question always comes first. When the
// model call fails the original question alone is returned, never an error;
// retrieval must not die because reformulation did.
func (a *Agent) Reformulate(ctx context.Context, question string) []string {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.cli.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(reformulatePrompt, reformulateCount, question)},
		},
		Temperature: answerTemperature,
	})
	if err != nil {
		log.Printf("[REFORMULATE] LLM call failed, falling back to original question: %v", err)
		return []string{question}
	}
	if len(resp.Choices) == 0 {
		return []string{question}
	}

	queries := []string{question}
	seen := map[string]struct{}{strings.ToLower(question): {}}
	for _, line := range strings.Split(resp.Choices[0].Message.Content, "\n") {
		q := strings.TrimSpace(line)
		if q == "" {
			continue
		}
		if _, ok := seen[strings.ToLower(q)]; ok {
			continue
		}
		seen[strings.ToLower(q)] = struct{}{}
		queries = append(queries, q)
		if len(queries) == reformulateCount+1 {
			break
		}
	}

	log.Printf("[REFORMULATE] %d queries for retrieval", len(queries))
	return queries
}
