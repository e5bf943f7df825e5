package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akolanti/alexandria/internal/config"
	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/akolanti/alexandria/internal/session"
	"github.com/akolanti/alexandria/pkg/logger_i"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

type MockIdentifier struct {
	OnIdentify func(ctx context.Context, token string) (string, error)
}

func (m *MockIdentifier) Identify(ctx context.Context, token string) (string, error) {
	return m.OnIdentify(ctx, token)
}

func withLimiter(t *testing.T, l *IPRateLimiter) {
	prev := limiterInstance
	limiterInstance = l
	t.Cleanup(func() { limiterInstance = prev })
}

func withIdentifier(t *testing.T, id session.Identifier) {
	prev := identifier
	identifier = id
	t.Cleanup(func() { identifier = prev })
}

func cookieAuth() *MockIdentifier {
	return &MockIdentifier{OnIdentify: func(_ context.Context, token string) (string, error) {
		switch token {
		case "good":
			return "alice@example.com", nil
		case "down":
			return "", ragError.New(ragError.TransientFailure, "session", "unreachable")
		default:
			return "", ragError.New(ragError.Unauthorized, "session", "invalid")
		}
	}}
}

func TestWrap_Authentication(t *testing.T) {
	withLimiter(t, NewIPRateLimiter(rate.Inf, 1))
	withIdentifier(t, cookieAuth())

	tests := []struct {
		name       string
		cookie     string
		wantStatus int
		wantCalled bool
	}{
		{name: "valid session", cookie: "good", wantStatus: http.StatusOK, wantCalled: true},
		{name: "no cookie", cookie: "", wantStatus: http.StatusUnauthorized},
		{name: "expired session", cookie: "stale", wantStatus: http.StatusUnauthorized},
		{name: "session service down", cookie: "down", wantStatus: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			var gotEmail, gotTrace string
			h := Wrap(func(w http.ResponseWriter, r *http.Request) {
				called = true
				gotEmail = session.Email(r.Context())
				gotTrace = logger_i.TraceID(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/status/1", nil)
			req.Header.Set("X-Trace-Id", "trace-1")
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: config.SessionCookieName, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			h(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalled, called)
			assert.Equal(t, "trace-1", rec.Header().Get("X-Trace-Id"))
			if tt.wantCalled {
				assert.Equal(t, "alice@example.com", gotEmail)
				assert.Equal(t, "trace-1", gotTrace)
			}
		})
	}
}

func TestWrap_GeneratesTraceId(t *testing.T) {
	withLimiter(t, NewIPRateLimiter(rate.Inf, 1))
	withIdentifier(t, cookieAuth())

	var gotTrace string
	h := Wrap(func(w http.ResponseWriter, r *http.Request) { gotTrace = logger_i.TraceID(r.Context()) })
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: config.SessionCookieName, Value: "good"})
	rec := httptest.NewRecorder()
	h(rec, req)

	assert.NotEmpty(t, gotTrace)
	assert.Equal(t, gotTrace, rec.Header().Get("X-Trace-Id"))
}

func TestWrap_RateLimit(t *testing.T) {
	withLimiter(t, NewIPRateLimiter(rate.Every(1<<62), 2))
	withIdentifier(t, cookieAuth())
	h := Wrap(func(w http.ResponseWriter, r *http.Request) {})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		req.AddCookie(&http.Cookie{Name: config.SessionCookieName, Value: "good"})
		rec := httptest.NewRecorder()
		h(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// other clients keep their own budget
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	req.AddCookie(&http.Cookie{Name: config.SessionCookieName, Value: "good"})
	rec := httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIPRateLimiter_EvictsIdleVisitors(t *testing.T) {
	clock := time.Unix(0, 0)
	l := NewIPRateLimiter(rate.Limit(1), 1)
	l.maxIPs = 2
	l.idleTTL = time.Minute
	l.now = func() time.Time { return clock }

	first := l.GetLimiter("10.0.0.1")
	l.GetLimiter("10.0.0.2")
	clock = clock.Add(2 * time.Minute)
	l.GetLimiter("10.0.0.2")

	l.GetLimiter("10.0.0.3")

	assert.Len(t, l.ips, 2)
	assert.NotContains(t, l.ips, "10.0.0.1")
	assert.NotSame(t, first, l.GetLimiter("10.0.0.1"))
}
