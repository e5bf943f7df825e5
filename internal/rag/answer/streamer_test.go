package answer

import (
	"context"
	"errors"
	"iter"
	"testing"
	"time"

	"github.com/akolanti/alexandria/internal/domain/docModel"
	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/akolanti/alexandria/internal/rag/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockLLM implements llm.Provider
type MockLLM struct {
	OnStream func(ctx context.Context, p llm.Prompt, yield func(string, error) bool)
	pulled   int
	prompt   llm.Prompt
}

func (m *MockLLM) Stream(ctx context.Context, p llm.Prompt) iter.Seq2[string, error] {
	m.prompt = p
	return func(yield func(string, error) bool) {
		counting := func(s string, err error) bool {
			m.pulled++
			return yield(s, err)
		}
		m.OnStream(ctx, p, counting)
	}
}

func tokens(frags ...string) func(context.Context, llm.Prompt, func(string, error) bool) {
	return func(_ context.Context, _ llm.Prompt, yield func(string, error) bool) {
		for _, f := range frags {
			if !yield(f, nil) {
				return
			}
		}
	}
}

type recorder struct {
	events []docModel.AnswerEvent
	// failAfter makes emit fail once this many events were delivered, 0 disables it
	failAfter int
}

func (r *recorder) emit(e docModel.AnswerEvent) error {
	if r.failAfter > 0 && len(r.events) >= r.failAfter {
		return errors.New("client disconnected")
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []docModel.EventType {
	out := make([]docModel.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func terminalCount(events []docModel.AnswerEvent) int {
	n := 0
	for _, e := range events {
		if e.Terminal() {
			n++
		}
	}
	return n
}

func TestRun_HappyPath(t *testing.T) {
	m := &MockLLM{OnStream: tokens("Photo", "synthesis", ".")}
	rec := &recorder{}

	state, err := NewStreamer(m, time.Second).Run(context.Background(),
		Input{Context: "ctx text", System: "sys", Question: "What is it?"}, rec.emit)

	require.NoError(t, err)
	assert.Equal(t, Done, state)
	assert.Equal(t, []docModel.EventType{
		docModel.EventContext, docModel.EventToken, docModel.EventToken, docModel.EventToken, docModel.EventDone,
	}, rec.types())
	assert.Equal(t, "ctx text", rec.events[0].Content)
	assert.Equal(t, "synthesis", rec.events[2].Content)
	assert.Equal(t, "sys", m.prompt.System)
	assert.Equal(t, "Context: ctx text\n\nQuestion: What is it?", m.prompt.User)
}

func TestRun_ContextEventEvenWhenEmpty(t *testing.T) {
	rec := &recorder{}
	state, err := NewStreamer(&MockLLM{OnStream: tokens()}, time.Second).Run(context.Background(), Input{Question: "q"}, rec.emit)

	require.NoError(t, err)
	assert.Equal(t, Done, state)
	assert.Equal(t, []docModel.EventType{docModel.EventContext, docModel.EventDone}, rec.types())
	assert.Empty(t, rec.events[0].Content)
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name      string
		stream    func(context.Context, llm.Prompt, func(string, error) bool)
		wantKind  ragError.Kind
		wantTypes []docModel.EventType
	}{
		{
			name: "fails before any token",
			stream: func(_ context.Context, _ llm.Prompt, yield func(string, error) bool) {
				yield("", ragError.New(ragError.RateLimited, "llm", "quota"))
			},
			wantKind:  ragError.RateLimited,
			wantTypes: []docModel.EventType{docModel.EventContext, docModel.EventError},
		},
		{
			name: "fails mid stream",
			stream: func(_ context.Context, _ llm.Prompt, yield func(string, error) bool) {
				if !yield("partial", nil) {
					return
				}
				yield("", errors.New("malformed chunk"))
			},
			wantKind:  ragError.StreamFailure,
			wantTypes: []docModel.EventType{docModel.EventContext, docModel.EventToken, docModel.EventError},
		},
		{
			name: "completion timeout",
			stream: func(ctx context.Context, _ llm.Prompt, yield func(string, error) bool) {
				<-ctx.Done()
				yield("", ctx.Err())
			},
			wantKind:  ragError.TransientFailure,
			wantTypes: []docModel.EventType{docModel.EventContext, docModel.EventError},
		},
		{
			name: "provider ends quietly on timeout",
			stream: func(ctx context.Context, _ llm.Prompt, _ func(string, error) bool) {
				<-ctx.Done()
			},
			wantKind:  ragError.TransientFailure,
			wantTypes: []docModel.EventType{docModel.EventContext, docModel.EventError},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			state, err := NewStreamer(&MockLLM{OnStream: tt.stream}, 20*time.Millisecond).
				Run(context.Background(), Input{Question: "q"}, rec.emit)

			assert.Equal(t, Failed, state)
			assert.Equal(t, tt.wantKind, ragError.KindOf(err))
			assert.Equal(t, tt.wantTypes, rec.types())
			assert.Equal(t, 1, terminalCount(rec.events))
			assert.NotEmpty(t, rec.events[len(rec.events)-1].Content)
		})
	}
}

func TestRun_CallerDisconnectStopsPulling(t *testing.T) {
	m := &MockLLM{OnStream: tokens("a", "b", "c", "d", "e")}
	rec := &recorder{failAfter: 2} // context + one token

	state, err := NewStreamer(m, time.Second).Run(context.Background(), Input{Question: "q"}, rec.emit)

	require.Error(t, err)
	assert.Equal(t, Streaming, state)
	assert.Equal(t, 2, m.pulled)
	assert.Equal(t, 0, terminalCount(rec.events))
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := &MockLLM{OnStream: func(ctx context.Context, _ llm.Prompt, yield func(string, error) bool) {
		if !yield("first", nil) {
			return
		}
		cancel()
		<-ctx.Done()
		yield("", ctx.Err())
	}}
	rec := &recorder{}

	_, err := NewStreamer(m, time.Second).Run(ctx, Input{Question: "q"}, rec.emit)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, terminalCount(rec.events))
}

func TestRun_ContextEmitFails(t *testing.T) {
	m := &MockLLM{OnStream: tokens("never")}
	failing := func(docModel.AnswerEvent) error { return errors.New("gone") }

	state, err := NewStreamer(m, time.Second).Run(context.Background(), Input{}, failing)
	require.Error(t, err)
	assert.Equal(t, Init, state)
	assert.Equal(t, 0, m.pulled)
}
