package service

import (
	"context"
	"testing"

	"aihouse/internal/model"
)

func TestSummarizeEmptyResultsSkipsModel(t *testing.T) {
	client := &fakeAIClient{responses: []string{"不应被调用"}}
	s := NewResultSummarizer(client)

	got := s.Summarize(context.Background(), nil, "帮我找房")

	if got != noResultsMessage {
		t.Errorf("Summarize() = %q, want the fixed no-results advisory", got)
	}
	if client.calls != 0 {
		t.Errorf("model calls = %d, want 0", client.calls)
	}
}

func TestSummarizeReturnsModelAnswer(t *testing.T) {
	client := &fakeAIClient{responses: []string{"为您找到2套金华园的房源，月租金都在3500以内。"}}
	s := NewResultSummarizer(client)

	rows := []model.QueryResultRow{
		{"id": int64(1), "price": 3000.0},
		{"id": int64(2), "price": 3400.0},
	}
	got := s.Summarize(context.Background(), rows, "金华园3500以内的租房")

	if got != "为您找到2套金华园的房源，月租金都在3500以内。" {
		t.Errorf("Summarize() = %q, want model answer", got)
	}
	if client.calls != 1 {
		t.Errorf("model calls = %d, want 1", client.calls)
	}
}

func TestSummarizeModelFailureStillAnswers(t *testing.T) {
	client := &fakeAIClient{err: errModelDown}
	s := NewResultSummarizer(client)

	rows := []model.QueryResultRow{{"id": int64(1)}}
	got := s.Summarize(context.Background(), rows, "帮我找房")

	if got == "" {
		t.Fatal("Summarize() returned empty answer on model failure")
	}
	if got == noResultsMessage {
		t.Error("Summarize() returned the no-results message for a non-empty result set")
	}
}
