package authsdk

import (
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the bridge's OAuth and health surface. It is
// used by MCP hosts that want to script registration and by the e2e suite.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new bridge client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// noRedirect returns a copy of the HTTP client that surfaces 3xx responses
// instead of following them.
func (c *SDKClient) noRedirect() *http.Client {
	return &http.Client{
		Timeout:   c.HTTPClient.Timeout,
		Transport: c.HTTPClient.Transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
