package customHttpClient

import (
	"net/http"
	"time"

	"github.com/akolanti/alexandria/internal/config"
)

// one pooled transport for every outbound http dependency
var customTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// GetClient returns a client on the shared transport. timeout 0 leaves requests unbounded,
// which streaming callers need since they bound the call with a context instead.
func GetClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: customTransport,
		Timeout:   timeout,
	}
}
