package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStepDuration("before", "favicons", 150*time.Millisecond)
	pr.IncStepResult("before", "favicons", ResultSuccess)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncBuildOutcome(BuildOutcomeSuccess)
	pr.AddPlaceholders("tk", 3, 1)
	pr.SetCollectionSize("blog", 12)
	pr.SetPagesWritten(40)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 7)

	body := scrape(t, reg)
	assert.Contains(t, body, `sitebuilder_placeholders_total{prefix="tk",result="resolved"} 3`)
	assert.Contains(t, body, `sitebuilder_placeholders_total{prefix="tk",result="missing"} 1`)
	assert.Contains(t, body, `sitebuilder_collection_items{collection="blog"} 12`)
	assert.Contains(t, body, `sitebuilder_pages_written 40`)
}

func scrape(t *testing.T, reg *prom.Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestPrometheusRecorder_NilReceiver(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.ObserveBuildDuration(time.Second)
		pr.IncBuildOutcome(BuildOutcomeFailed)
		pr.AddPlaceholders("st", 1, 1)
	})
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncBuildOutcome(BuildOutcomeFailed)

	assert.True(t, strings.Contains(scrape(t, reg), `sitebuilder_build_outcomes_total{outcome="failed"} 1`))
}
