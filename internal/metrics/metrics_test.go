package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(Requests.WithLabelValues("/api/test", "ok"))
	Requests.WithLabelValues("/api/test", "ok").Inc()
	if got := testutil.ToFloat64(Requests.WithLabelValues("/api/test", "ok")); got != before+1 {
		t.Errorf("Requests = %v, want %v", got, before+1)
	}

	before = testutil.ToFloat64(ShareTokens.WithLabelValues("decode", "malformed"))
	ShareTokens.WithLabelValues("decode", "malformed").Inc()
	if got := testutil.ToFloat64(ShareTokens.WithLabelValues("decode", "malformed")); got != before+1 {
		t.Errorf("ShareTokens = %v, want %v", got, before+1)
	}
}
