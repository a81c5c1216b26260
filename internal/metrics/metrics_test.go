package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(AssetUploads.WithLabelValues("post", "ok"))
	AssetUploads.WithLabelValues("post", "ok").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(AssetUploads.WithLabelValues("post", "ok")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	MessagesSent.Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), "messages_sent_total")
}
