package site

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
)

func TestReport_DeriveOutcome(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		warnings []error
		want     Outcome
		label    metrics.BuildOutcomeLabel
	}{
		{name: "success", want: OutcomeSuccess, label: metrics.BuildOutcomeSuccess},
		{name: "warning", warnings: []error{BrokenLink{Source: "a.md", Target: "/x/"}}, want: OutcomeWarning, label: metrics.BuildOutcomeSuccess},
		{name: "failed", err: stderrors.New("boom"), want: OutcomeFailed, label: metrics.BuildOutcomeFailed},
		{name: "canceled", err: context.Canceled, want: OutcomeCanceled, label: metrics.BuildOutcomeCanceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newReport("b", TriggerCLI, "dist", fixedNow)
			r.Warnings = tt.warnings
			r.finish(fixedNow.Add(time.Second), tt.err)
			assert.Equal(t, tt.want, r.Outcome)
			assert.Equal(t, tt.label, r.metricsOutcome())
			assert.Equal(t, time.Second, r.Duration())
		})
	}
}

func TestReport_SummaryAndConversions(t *testing.T) {
	r := newReport("b1", TriggerSchedule, "dist", fixedNow)
	r.Pages = 3
	r.Passthrough = 2
	r.Collections["blog"] = 3
	r.StepDurations["before/favicons"] = 1500 * time.Millisecond
	r.addWarning(BrokenLink{Source: "src/a.md", Target: "/gone/"})
	r.finish(fixedNow.Add(2*time.Second), nil)

	assert.Equal(t, "pages=3 passthrough=2 collections=1 broken_links=0 duration=2s errors=0 warnings=1 outcome=warning", r.Summary())

	data := r.EventData()
	assert.Equal(t, "warning", data.Outcome)
	assert.Equal(t, int64(1500), data.StepDurations["before/favicons"])
	assert.Equal(t, []string{"broken link in src/a.md: /gone/"}, data.Warnings)

	msg := r.Message()
	assert.Equal(t, "b1", msg.BuildID)
	assert.Equal(t, TriggerSchedule, msg.Trigger)
	assert.Equal(t, int64(2000), msg.DurationMS)
}

func TestReport_Persist(t *testing.T) {
	root := filepath.Join(t.TempDir(), "reports")
	r := newReport("b2", TriggerCLI, "dist", fixedNow)
	r.StageDurations[StageRender] = 250 * time.Millisecond
	r.finish(fixedNow.Add(time.Second), stderrors.New("layout not found"))
	r.FailedStage = StageRender

	require.NoError(t, r.Persist(root))

	raw, err := os.ReadFile(filepath.Join(root, "build-report.json"))
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "failed", got["outcome"])
	assert.Equal(t, "render", got["failed_stage"])
	assert.Equal(t, []any{"layout not found"}, got["errors"])

	txt, err := os.ReadFile(filepath.Join(root, "build-report.txt"))
	require.NoError(t, err)
	assert.Equal(t, r.Summary()+"\n", string(txt))
}
