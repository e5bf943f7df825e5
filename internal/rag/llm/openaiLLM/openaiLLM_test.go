package openaiLLM

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/akolanti/alexandria/internal/rag/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseChunk(content string) string {
	return fmt.Sprintf(`data: {"id":"c1","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"content":%q},"finish_reason":null}]}`+"\n\n", content)
}

func TestStream_ForwardsFragmentsInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, frag := range []string{"Photo", "synthesis", " uses light."} {
			_, _ = w.Write([]byte(sseChunk(frag)))
		}
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	c := newClient("gpt-4o-mini", "k", srv.URL+"/", srv.Client())

	var got []string
	for frag, err := range c.Stream(context.Background(), llm.Prompt{System: "s", User: "u"}) {
		require.NoError(t, err)
		got = append(got, frag)
	}
	assert.Equal(t, []string{"Photo", "synthesis", " uses light."}, got)
}

func TestStream_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	c := newClient("gpt-4o-mini", "k", srv.URL+"/", srv.Client())

	var errs []error
	for frag, err := range c.Stream(context.Background(), llm.Prompt{System: "s", User: "u"}) {
		assert.Empty(t, frag)
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.True(t, ragError.Is(errs[0], ragError.RateLimited))
}

func TestStream_StopsWhenConsumerBreaks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(strings.Repeat(sseChunk("x"), 5)))
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	c := newClient("gpt-4o-mini", "k", srv.URL+"/", srv.Client())

	count := 0
	for range c.Stream(context.Background(), llm.Prompt{}) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}
