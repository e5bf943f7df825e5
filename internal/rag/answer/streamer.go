package answer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/alexandria/internal/domain/docModel"
	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/akolanti/alexandria/internal/metrics"
	"github.com/akolanti/alexandria/internal/rag/llm"
	"github.com/akolanti/alexandria/pkg/logger_i"
)

type State string

const (
	Init        State = "INIT"
	ContextSent State = "CONTEXT_SENT"
	Streaming   State = "STREAMING"
	Done        State = "DONE"
	Failed      State = "FAILED"
)

// Emitter delivers one event to the caller. A non-nil error means the caller is gone.
type Emitter func(docModel.AnswerEvent) error

type Input struct {
	// Context is the assembled context, sent to the caller before anything else.
	Context  string
	System   string
	Question string
}

type Streamer struct {
	provider llm.Provider
	timeout  time.Duration
}

func NewStreamer(p llm.Provider, completionTimeout time.Duration) *Streamer {
	return &Streamer{provider: p, timeout: completionTimeout}
}

// UserTurn is the prompt text holding context and question.
func UserTurn(contextText, question string) string {
	return fmt.Sprintf("Context: %s\n\nQuestion: %s", contextText, question)
}

// Run drives one answer: a context event, token events in arrival order, then done or a single error.
// It returns the state it stopped in. When the caller goes away it stops pulling tokens and emits nothing more.
func (s *Streamer) Run(ctx context.Context, in Input, emit Emitter) (State, error) {
	log := logger_i.FromContext(ctx, "answer_streamer")
	state := Init

	if err := emit(docModel.AnswerEvent{Type: docModel.EventContext, Content: in.Context}); err != nil {
		metrics.CountAnswerStream("cancelled")
		return state, err
	}
	state = ContextSent

	streamCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	defer metrics.MeasureDependency(metrics.DepLLMStream)()

	tokens := 0
	for fragment, err := range s.provider.Stream(streamCtx, llm.Prompt{System: in.System, User: UserTurn(in.Context, in.Question)}) {
		if err != nil {
			if ctx.Err() != nil {
				log.Debug("caller left during generation", "tokens", tokens)
				metrics.CountAnswerStream("cancelled")
				return state, ctx.Err()
			}
			return s.fail(streamCtx, state, err, emit, log)
		}
		state = Streaming
		tokens++
		if err := emit(docModel.AnswerEvent{Type: docModel.EventToken, Content: fragment}); err != nil {
			log.Debug("caller left during generation", "tokens", tokens)
			metrics.CountAnswerStream("cancelled")
			return state, err
		}
		if ctx.Err() != nil {
			metrics.CountAnswerStream("cancelled")
			return state, ctx.Err()
		}
	}

	if ctx.Err() != nil {
		metrics.CountAnswerStream("cancelled")
		return state, ctx.Err()
	}
	// some providers end the sequence quietly on timeout
	if errors.Is(streamCtx.Err(), context.DeadlineExceeded) {
		return s.fail(streamCtx, state, streamCtx.Err(), emit, log)
	}

	if err := emit(docModel.AnswerEvent{Type: docModel.EventDone}); err != nil {
		return state, err
	}
	metrics.CountAnswerStream("done")
	log.Debug("answer complete", "tokens", tokens)
	return Done, nil
}

func (s *Streamer) fail(streamCtx context.Context, from State, err error, emit Emitter, log *logger_i.Logger) (State, error) {
	if errors.Is(streamCtx.Err(), context.DeadlineExceeded) {
		err = ragError.Reclassify(ragError.TransientFailure, "answer.Run", fmt.Errorf("completion timed out after %s: %w", s.timeout, err))
	} else if ragError.KindOf(err) == ragError.PermanentFailure {
		err = ragError.Reclassify(ragError.StreamFailure, "answer.Run", err)
	}
	log.Error("answer stream failed", "from", from, "kind", ragError.KindOf(err), "error", err)
	metrics.CountAnswerStream("error")

	// best effort, the stream ends either way
	_ = emit(docModel.AnswerEvent{Type: docModel.EventError, Content: FailureMessage(err)})
	return Failed, err
}

// FailureMessage is the caller facing text for a failed answer.
func FailureMessage(err error) string {
	switch ragError.KindOf(err) {
	case ragError.RateLimited:
		return "The language model is rate limited. Please try again shortly."
	case ragError.TransientFailure:
		return "The answer took too long or the language model was unavailable. Please try again."
	case ragError.InvalidConfiguration:
		return "The language model is not configured correctly."
	default:
		return "The answer could not be generated."
	}
}
