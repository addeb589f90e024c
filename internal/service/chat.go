package service

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"aihouse/internal/model"
	"aihouse/internal/utils"
)

// affirmativeKeywords confirm a pending query intent. Matching is by
// substring, so "好的，开始吧" confirms.
var affirmativeKeywords = []string{
	"确认", "开始", "是的", "好的", "查询", "搜索", "查找",
	"yes", "ok", "confirm", "start", "search", "find",
}

// intentGenerator and friends are the orchestrator's view of the query
// pipeline, kept small so tests can swap in fakes.
type intentGenerator interface {
	Generate(ctx context.Context, params model.QueryParams) (*model.GeneratedQuery, error)
}

type intentExecutor interface {
	Execute(ctx context.Context, query *model.GeneratedQuery) ([]model.QueryResultRow, error)
}

type intentSummarizer interface {
	Summarize(ctx context.Context, rows []model.QueryResultRow, originalQuery string) string
}

// ChatOrchestrator drives the conversation flow: plain chat turns, intent
// detection with confirmation, and confirmed query execution. It holds no
// per-conversation state; the pending intent travels with the caller.
type ChatOrchestrator struct {
	client     AIClient
	generator  intentGenerator
	executor   intentExecutor
	summarizer intentSummarizer
}

func NewChatOrchestrator(client AIClient, generator *SQLGenerator, executor *QueryExecutor, summarizer *ResultSummarizer) *ChatOrchestrator {
	return &ChatOrchestrator{
		client:     client,
		generator:  generator,
		executor:   executor,
		summarizer: summarizer,
	}
}

// IsAffirmative reports whether the message confirms a pending intent.
func IsAffirmative(message string) bool {
	lowered := strings.ToLower(message)
	for _, kw := range affirmativeKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// HandleTurn processes one chat turn. With a pending intent and an
// affirmative message it executes the query; with a pending intent and a
// non-affirmative message the pending intent is dropped and the turn is
// treated as a fresh message.
func (o *ChatOrchestrator) HandleTurn(ctx context.Context, turn *model.ChatTurn) (*model.ChatReply, error) {
	if turn.PendingIntent != nil && IsAffirmative(turn.Message) {
		execution := o.ExecuteConfirmedQuery(ctx, turn.PendingIntent, turn.OriginalQuery)
		return &model.ChatReply{
			Reply:          execution.Answer,
			QueryExecution: execution,
		}, nil
	}

	reply, intent, err := o.detectIntent(ctx, turn.Message, turn.ConversationHistory)
	if err != nil {
		return nil, err
	}
	return &model.ChatReply{Reply: reply, PendingIntent: intent}, nil
}

// HandleImageTurn runs one image+question turn on the vision model. Image
// answers go through the same intent extraction as text answers.
func (o *ChatOrchestrator) HandleImageTurn(ctx context.Context, question, imageDataURL string) (*model.ChatReply, error) {
	content, err := o.client.AnalyzeImage(ctx, imageAnalysisPrompt, question, imageDataURL)
	if err != nil {
		return nil, err
	}
	reply, intent := extractIntent(content)
	return &model.ChatReply{Reply: reply, PendingIntent: intent}, nil
}

// detectIntent runs a buffered chat completion and extracts any query
// intent block the model appended.
func (o *ChatOrchestrator) detectIntent(ctx context.Context, message string, history []model.ChatMessage) (string, *model.QueryIntent, error) {
	content, err := o.client.ChatCompletion(ctx, buildChatRequest(message, history, false))
	if err != nil {
		return "", nil, err
	}
	reply, intent := extractIntent(content)
	return reply, intent, nil
}

// extractIntent looks for a fenced intent block in the model output. When
// one is found the block is stripped from the reply and the confirmation
// message is appended; otherwise the content passes through unchanged.
func extractIntent(content string) (string, *model.QueryIntent) {
	var intent model.QueryIntent
	if !utils.ExtractTaggedJSON(content, "intent_type", model.IntentTypes, &intent) {
		return content, nil
	}

	reply := strings.TrimSpace(utils.StripFencedBlock(content))
	confirmation := intent.ConfirmationMessage
	if confirmation == "" {
		confirmation = "请确认是否开始查询？"
		intent.ConfirmationMessage = confirmation
	}
	if reply == "" {
		reply = confirmation
	} else {
		reply = reply + "\n\n" + confirmation
	}
	return reply, &intent
}

// ExecuteConfirmedQuery runs the full pipeline for a confirmed intent.
// Generation failure surfaces as a failed execution with an explanatory
// answer; execution failure is logged and presented as an empty result.
func (o *ChatOrchestrator) ExecuteConfirmedQuery(ctx context.Context, intent *model.QueryIntent, originalQuery string) *model.QueryExecution {
	if originalQuery == "" {
		originalQuery = intent.ConfirmationMessage
	}

	query, err := o.generator.Generate(ctx, intent.QueryParams)
	if err != nil {
		paramsJSON, _ := json.Marshal(intent.QueryParams)
		return &model.QueryExecution{
			Success: false,
			Results: []model.QueryResultRow{},
			Answer:  generationFailedMessage(string(paramsJSON)),
		}
	}

	rows, err := o.executor.Execute(ctx, query)
	if err != nil {
		log.Printf("confirmed query execution failed: %v", err)
		rows = []model.QueryResultRow{}
	}
	if rows == nil {
		rows = []model.QueryResultRow{}
	}

	return &model.QueryExecution{
		Success:    true,
		FoundCount: len(rows),
		Results:    rows,
		Answer:     o.summarizer.Summarize(ctx, rows, originalQuery),
	}
}

// StreamEvent is one server-sent event emitted during a streaming turn.
type StreamEvent struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// StreamEmitter receives events during a streaming turn.
type StreamEmitter func(event StreamEvent) error

// HandleTurnStream is the streaming variant of HandleTurn. Thinking deltas
// are forwarded as they arrive; answer content is buffered until the stream
// completes so intent extraction sees the full response, then emitted as a
// single reply or intent event.
func (o *ChatOrchestrator) HandleTurnStream(ctx context.Context, turn *model.ChatTurn, emit StreamEmitter) error {
	if turn.PendingIntent != nil && IsAffirmative(turn.Message) {
		return o.ExecuteConfirmedQueryStream(ctx, turn.PendingIntent, turn.OriginalQuery, emit)
	}

	var content strings.Builder
	err := o.client.ChatCompletionStream(ctx, buildChatRequest(turn.Message, turn.ConversationHistory, true), func(chunk *StreamChunk) error {
		if chunk.ThinkingContent != "" {
			if err := emit(StreamEvent{Type: "thinking", Content: chunk.ThinkingContent}); err != nil {
				return err
			}
		}
		if chunk.Content != "" {
			content.WriteString(chunk.Content)
		}
		return nil
	})
	if err != nil {
		return err
	}

	reply, intent := extractIntent(content.String())
	if intent != nil {
		return emit(StreamEvent{Type: "intent", Content: reply, Data: intent})
	}
	return emit(StreamEvent{Type: "reply", Content: reply})
}

// ExecuteConfirmedQueryStream runs the query pipeline, emitting one stage
// event per step so the caller can show progress. Failure semantics match
// ExecuteConfirmedQuery.
func (o *ChatOrchestrator) ExecuteConfirmedQueryStream(ctx context.Context, intent *model.QueryIntent, originalQuery string, emit StreamEmitter) error {
	if originalQuery == "" {
		originalQuery = intent.ConfirmationMessage
	}

	if err := emit(StreamEvent{Type: "stage", Content: "正在生成查询..."}); err != nil {
		return err
	}
	query, err := o.generator.Generate(ctx, intent.QueryParams)
	if err != nil {
		paramsJSON, _ := json.Marshal(intent.QueryParams)
		execution := &model.QueryExecution{
			Success: false,
			Results: []model.QueryResultRow{},
			Answer:  generationFailedMessage(string(paramsJSON)),
		}
		return emit(StreamEvent{Type: "execution", Content: execution.Answer, Data: execution})
	}

	if err := emit(StreamEvent{Type: "stage", Content: "正在执行查询..."}); err != nil {
		return err
	}
	rows, err := o.executor.Execute(ctx, query)
	if err != nil {
		log.Printf("confirmed query execution failed: %v", err)
		rows = nil
	}
	if rows == nil {
		rows = []model.QueryResultRow{}
	}

	if err := emit(StreamEvent{Type: "stage", Content: "正在总结结果..."}); err != nil {
		return err
	}
	execution := &model.QueryExecution{
		Success:    true,
		FoundCount: len(rows),
		Results:    rows,
		Answer:     o.summarizer.Summarize(ctx, rows, originalQuery),
	}
	return emit(StreamEvent{Type: "execution", Content: execution.Answer, Data: execution})
}

func buildChatRequest(message string, history []model.ChatMessage, stream bool) ChatCompletionRequest {
	messages := make([]ChatMessage, 0, len(history)+2)
	messages = append(messages, ChatMessage{Role: "system", Content: chatSystemPrompt})
	for _, m := range history {
		messages = append(messages, ChatMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, ChatMessage{Role: "user", Content: message})
	return ChatCompletionRequest{Messages: messages, Stream: stream}
}
