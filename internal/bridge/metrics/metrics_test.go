package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	t.Parallel()

	r := New(func() int { return 3 })

	r.UpstreamRefresh(nil)
	r.UpstreamRefresh(errors.New("boom"))
	r.UpstreamRefresh(nil)
	require.Equal(t, 2.0, testutil.ToFloat64(r.upstreamRefreshes.WithLabelValues("success")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.upstreamRefreshes.WithLabelValues("failure")))

	r.UpstreamCall(http.MethodGet, 200, 10*time.Millisecond)
	r.UpstreamCall(http.MethodGet, 404, 10*time.Millisecond)
	r.UpstreamCall(http.MethodGet, 0, time.Second)
	require.Equal(t, 1.0, testutil.ToFloat64(r.upstreamCalls.WithLabelValues("GET", "2xx")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.upstreamCalls.WithLabelValues("GET", "4xx")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.upstreamCalls.WithLabelValues("GET", "error")))

	r.ToolCall("ghl_get_contact", false)
	r.ToolCall("ghl_get_contact", true)
	require.Equal(t, 1.0, testutil.ToFloat64(r.toolCalls.WithLabelValues("ghl_get_contact", "error")))

	r.TokenIssued()
	require.Equal(t, 1.0, testutil.ToFloat64(r.tokensIssued))
}

func TestHandler(t *testing.T) {
	t.Parallel()

	r := New(func() int { return 7 })
	r.TokenIssued()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "ghl_mcp_active_sessions 7")
	require.Contains(t, string(body), "ghl_mcp_oauth_tokens_issued_total 1")
}
