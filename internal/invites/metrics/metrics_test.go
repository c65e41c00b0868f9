package metrics_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/muster/internal/invites/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

var _ metrics.Recorder = (*metrics.Collector)(nil)
var _ metrics.Recorder = metrics.Noop{}

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	c.RecordValidation("found")
	c.RecordValidation("found")
	c.RecordValidation("not_found")
	c.RecordAcceptance("accepted", 20*time.Millisecond)
	c.RecordGrant(3)
	c.RecordProvisioning("already_registered")
	c.RecordSweep(4, nil)
	c.RecordSweep(0, errors.New("db down"))

	count, err := testutil.GatherAndCount(reg, "muster_validations_total")
	require.NoError(t, err)
	require.Equal(t, 2, count, "one series per outcome")

	require.NoError(t, testutil.GatherAndCompare(reg, stringsReader(`
# HELP muster_entitlements_granted_total Entitlement rows written or reactivated.
# TYPE muster_entitlements_granted_total counter
muster_entitlements_granted_total 3
# HELP muster_invitations_expired_total Invitations moved to expired by the sweeper.
# TYPE muster_invitations_expired_total counter
muster_invitations_expired_total 4
# HELP muster_sweep_failures_total Sweeps that failed.
# TYPE muster_sweep_failures_total counter
muster_sweep_failures_total 1
`), "muster_entitlements_granted_total", "muster_invitations_expired_total", "muster_sweep_failures_total"))
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)
	c.RecordAcceptance("deferred", time.Millisecond)

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `muster_acceptances_total{result="deferred"} 1`)
}

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}
