package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode"

	"aihouse/internal/model"
	"aihouse/internal/utils"
)

// ErrGenerationFailed covers every SQL generation failure: model errors,
// malformed output, and rejected statements. Callers get no partial result.
var ErrGenerationFailed = errors.New("query generation failed")

// SQLGenerator turns confirmed query parameters into a parameterized
// SELECT statement via the model. Output that is not a single valid
// SELECT is rejected outright, with no repair attempt.
type SQLGenerator struct {
	client AIClient
}

func NewSQLGenerator(client AIClient) *SQLGenerator {
	return &SQLGenerator{client: client}
}

// Generate produces a SELECT over the properties table from the given
// parameters. Fails with ErrGenerationFailed when the model is unavailable,
// returns malformed output, or emits anything other than a SELECT.
func (g *SQLGenerator) Generate(ctx context.Context, params model.QueryParams) (*model.GeneratedQuery, error) {
	if g.client == nil || !g.client.IsEnabled() {
		return nil, ErrGenerationFailed
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	content, err := g.client.ChatCompletion(ctx, ChatCompletionRequest{
		Messages: []ChatMessage{
			{Role: "user", Content: sqlGenerationPrompt(string(paramsJSON))},
		},
		Temperature: 0.1,
		MaxTokens:   1000,
	})
	if err != nil {
		log.Printf("SQL generation model call failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	raw, ok := utils.ExtractFencedJSON(content)
	if !ok {
		raw = strings.TrimSpace(content)
	}

	var query model.GeneratedQuery
	if err := json.Unmarshal([]byte(raw), &query); err != nil {
		log.Printf("SQL generation output not parseable: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if !isSelectStatement(query.SQL) {
		log.Printf("SQL generation rejected non-SELECT statement: %q", query.SQL)
		return nil, fmt.Errorf("%w: statement is not a SELECT", ErrGenerationFailed)
	}

	if query.Params == nil {
		query.Params = map[string]any{}
	}
	return &query, nil
}

// isSelectStatement checks that the first token of the statement is SELECT.
func isSelectStatement(sql string) bool {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return false
	}
	end := strings.IndexFunc(trimmed, unicode.IsSpace)
	if end == -1 {
		end = len(trimmed)
	}
	return strings.EqualFold(trimmed[:end], "SELECT")
}
