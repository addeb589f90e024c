package service

import (
	"context"
	"errors"
)

// fakeAIClient is a scripted AIClient for tests. Responses are consumed in
// order; the last one repeats once the script runs out.
type fakeAIClient struct {
	responses []string
	err       error
	disabled  bool
	calls     int
}

func (f *fakeAIClient) next() string {
	if len(f.responses) == 0 {
		return ""
	}
	idx := f.calls - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx]
}

func (f *fakeAIClient) ChatCompletion(ctx context.Context, req ChatCompletionRequest) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.next(), nil
}

func (f *fakeAIClient) ChatCompletionStream(ctx context.Context, req ChatCompletionRequest, callback StreamCallback) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if err := callback(&StreamChunk{Content: f.next()}); err != nil {
		return err
	}
	return callback(&StreamChunk{Done: true})
}

func (f *fakeAIClient) AnalyzeImage(ctx context.Context, systemPrompt, question, imageDataURL string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.next(), nil
}

func (f *fakeAIClient) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func (f *fakeAIClient) IsEnabled() bool {
	return !f.disabled
}

var errModelDown = errors.New("model unavailable")
