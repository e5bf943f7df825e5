package rag_test

import (
	"context"
	"iter"
	"strings"
	"sync/atomic"

	"github.com/akolanti/alexandria/internal/rag/llm"
)

var vocabulary = []string{"photosynthesis", "gravity", "mitochondria"}

// MockEmbedder counts keyword hits so related texts land close together.
type MockEmbedder struct {
	Calls            atomic.Int32
	OnBatchEmbedding func(ctx context.Context, texts []string) ([][]float32, error)
}

func (m *MockEmbedder) Dimension() int { return len(vocabulary) + 1 }

func (m *MockEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	v, err := m.BatchEmbedding(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func (m *MockEmbedder) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	m.Calls.Add(1)
	if m.OnBatchEmbedding != nil {
		return m.OnBatchEmbedding(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = keywordVector(t)
	}
	return out, nil
}

func keywordVector(text string) []float32 {
	lower := strings.ToLower(text)
	v := make([]float32, len(vocabulary)+1)
	for i, w := range vocabulary {
		v[i] = float32(strings.Count(lower, w))
	}
	v[len(vocabulary)] = 0.1
	return v
}

// MockLLM implements llm.Provider
type MockLLM struct {
	OnStream func(ctx context.Context, p llm.Prompt, yield func(string, error) bool)
	Prompts  []llm.Prompt
}

func (m *MockLLM) Stream(ctx context.Context, p llm.Prompt) iter.Seq2[string, error] {
	m.Prompts = append(m.Prompts, p)
	return func(yield func(string, error) bool) {
		if m.OnStream == nil {
			yield("ok", nil)
			return
		}
		m.OnStream(ctx, p, yield)
	}
}
