package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/akolanti/alexandria/internal/config"
	"github.com/akolanti/alexandria/internal/customHttpClient"
	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/akolanti/alexandria/internal/metrics"
	"github.com/akolanti/alexandria/pkg/logger_i"
)

// Identifier resolves a session token to the caller's email.
type Identifier interface {
	Identify(ctx context.Context, token string) (string, error)
}

type Client struct {
	baseURL     string
	httpClient  *http.Client
	bypassEmail string
	logger      *logger_i.Logger
}

type userInfo struct {
	Email string `json:"email"`
}

func NewClient(baseURL, bypassEmail string) *Client {
	return newClient(baseURL, bypassEmail, customHttpClient.GetClient(config.SessionLookupTimeout))
}

func newClient(baseURL, bypassEmail string, httpClient *http.Client) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  httpClient,
		bypassEmail: bypassEmail,
		logger:      logger_i.NewLogger("SessionClient"),
	}
	if bypassEmail != "" {
		c.logger.Warn("session lookups are bypassed", "identity", bypassEmail)
	}
	return c
}

// Identify forwards token as the session cookie and returns the email the session service reports.
func (c *Client) Identify(ctx context.Context, token string) (string, error) {
	if c.bypassEmail != "" {
		return c.bypassEmail, nil
	}
	if token == "" {
		return "", ragError.New(ragError.Unauthorized, "session.Identify", "missing session")
	}
	log := logger_i.FromContext(ctx, "SessionClient")

	ctx, cancel := context.WithTimeout(ctx, config.SessionLookupTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+config.SessionInfoPath, nil)
	if err != nil {
		return "", ragError.Wrap(ragError.InvalidConfiguration, "session.Identify", err)
	}
	req.AddCookie(&http.Cookie{Name: config.SessionCookieName, Value: token})
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.CaptureExecutionMetrics(metrics.DepSession, time.Since(start))
	if err != nil {
		log.Error("session service unreachable", "error", err)
		return "", ragError.Wrap(ragError.TransientFailure, "session.Identify", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		if resp.StatusCode >= 500 {
			return "", ragError.Wrap(ragError.TransientFailure, "session.Identify", fmt.Errorf("session service returned %d", resp.StatusCode))
		}
		return "", ragError.New(ragError.Unauthorized, "session.Identify", "invalid or expired session")
	}

	var info userInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&info); err != nil {
		log.Warn("unreadable session response", "error", err)
		return "", ragError.New(ragError.Unauthorized, "session.Identify", "invalid or expired session")
	}
	if strings.TrimSpace(info.Email) == "" {
		return "", ragError.New(ragError.Unauthorized, "session.Identify", "invalid or expired session")
	}
	return info.Email, nil
}

type emailKey struct{}

// WithEmail stores the authenticated caller on ctx.
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, emailKey{}, email)
}

// Email returns the caller stored by WithEmail, or "".
func Email(ctx context.Context) string {
	email, _ := ctx.Value(emailKey{}).(string)
	return email
}
