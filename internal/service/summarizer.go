package service

import (
	"context"
	"encoding/json"
	"log"

	"aihouse/internal/model"
)

// ResultSummarizer turns query result rows into a natural language answer.
type ResultSummarizer struct {
	client AIClient
}

func NewResultSummarizer(client AIClient) *ResultSummarizer {
	return &ResultSummarizer{client: client}
}

// Summarize answers the user's original question over the result rows.
// An empty result set gets a fixed advisory message without touching the
// model; a failed summarization falls back to a count-based message.
func (s *ResultSummarizer) Summarize(ctx context.Context, rows []model.QueryResultRow, originalQuery string) string {
	if len(rows) == 0 {
		return noResultsMessage
	}

	if s.client == nil || !s.client.IsEnabled() {
		return summaryFailedMessage(len(rows), nil)
	}

	rowsJSON, err := json.Marshal(rows)
	if err != nil {
		log.Printf("result serialization for summary failed: %v", err)
		return summaryFailedMessage(len(rows), err)
	}

	answer, err := s.client.ChatCompletion(ctx, ChatCompletionRequest{
		Messages: []ChatMessage{
			{Role: "user", Content: summaryPrompt(originalQuery, string(rowsJSON))},
		},
		Temperature: 0.7,
		MaxTokens:   2000,
	})
	if err != nil {
		log.Printf("result summarization failed: %v", err)
		return summaryFailedMessage(len(rows), err)
	}
	return answer
}
