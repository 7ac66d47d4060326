package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveHTTP(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("/api/v1/me", "GET", "200"))
	ObserveHTTP("/api/v1/me", "GET", 200, 5*time.Millisecond)
	after := testutil.ToFloat64(httpRequests.WithLabelValues("/api/v1/me", "GET", "200"))
	assert.Equal(t, before+1, after)
}

func TestObserveHTTP_UnmatchedRoute(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("unmatched", "GET", "404"))
	ObserveHTTP("", "GET", 404, time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("unmatched", "GET", "404")))
}

func TestObserveAuthz(t *testing.T) {
	before := testutil.ToFloat64(authzDecisions.WithLabelValues("enforce", "denied"))
	ObserveAuthz("enforce", false, time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(authzDecisions.WithLabelValues("enforce", "denied")))
}
