package site

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"

	"git.home.luguber.info/inful/sitebuilder/internal/eventstore"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/notify"
)

// Outcome is the final state of a build.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Stage names used in StageDurations and as the failed stage of non-hook errors.
const (
	StageBeforeHooks = "before_hooks"
	StageLoad        = "load"
	StageCollections = "collections"
	StageRender      = "render"
	StagePassthrough = "passthrough"
	StageLinks       = "links"
	StageAfterHooks  = "after_hooks"
)

// Report captures what a build did.
type Report struct {
	BuildID string
	Trigger string
	Start   time.Time
	End     time.Time
	Outcome Outcome

	OutputDir   string
	Pages       int
	Passthrough int
	// Collections maps collection names to their sizes.
	Collections map[string]int
	// Placeholders counts substitutions by "<prefix>.resolved" and "<prefix>.missing".
	Placeholders map[string]int
	BrokenLinks  int

	StageDurations map[string]time.Duration
	// StepDurations is keyed by "<phase>/<step>".
	StepDurations map[string]time.Duration
	// FailedStage names where a failed build stopped: a stage name or "<phase>/<step>".
	FailedStage string

	Errors   []error
	Warnings []error
}

func newReport(buildID, trigger, outputDir string, start time.Time) *Report {
	return &Report{
		BuildID:        buildID,
		Trigger:        trigger,
		Start:          start,
		OutputDir:      outputDir,
		Collections:    make(map[string]int),
		Placeholders:   make(map[string]int),
		StageDurations: make(map[string]time.Duration),
		StepDurations:  make(map[string]time.Duration),
	}
}

// Duration is the wall time of the build.
func (r *Report) Duration() time.Duration { return r.End.Sub(r.Start) }

func (r *Report) addWarning(err error) { r.Warnings = append(r.Warnings, err) }

func (r *Report) finish(end time.Time, err error) {
	r.End = end
	if err != nil {
		r.Errors = append(r.Errors, err)
	}
	r.deriveOutcome()
}

func (r *Report) deriveOutcome() {
	switch {
	case len(r.Errors) > 0:
		r.Outcome = OutcomeFailed
		for _, e := range r.Errors {
			if stderrors.Is(e, context.Canceled) || stderrors.Is(e, context.DeadlineExceeded) {
				r.Outcome = OutcomeCanceled
				break
			}
		}
	case len(r.Warnings) > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("pages=%d passthrough=%d collections=%d broken_links=%d duration=%s errors=%d warnings=%d outcome=%s",
		r.Pages, r.Passthrough, len(r.Collections), r.BrokenLinks,
		r.Duration().Truncate(time.Millisecond), len(r.Errors), len(r.Warnings), r.Outcome)
}

// metricsOutcome folds warnings into success for the outcome counter.
func (r *Report) metricsOutcome() metrics.BuildOutcomeLabel {
	switch r.Outcome {
	case OutcomeFailed:
		return metrics.BuildOutcomeFailed
	case OutcomeCanceled:
		return metrics.BuildOutcomeCanceled
	default:
		return metrics.BuildOutcomeSuccess
	}
}

// EventData converts the report to its history event payload.
func (r *Report) EventData() eventstore.BuildReportData {
	steps := make(map[string]int64, len(r.StepDurations))
	for k, d := range r.StepDurations {
		steps[k] = d.Milliseconds()
	}
	return eventstore.BuildReportData{
		Outcome:       string(r.Outcome),
		Summary:       r.Summary(),
		Pages:         r.Pages,
		Passthrough:   r.Passthrough,
		Collections:   r.Collections,
		Placeholders:  r.Placeholders,
		BrokenLinks:   r.BrokenLinks,
		StepDurations: steps,
		Errors:        errorStrings(r.Errors),
		Warnings:      errorStrings(r.Warnings),
	}
}

// Message converts the report to a build notification.
func (r *Report) Message() notify.BuildMessage {
	return notify.BuildMessage{
		BuildID:     r.BuildID,
		Trigger:     r.Trigger,
		Outcome:     string(r.Outcome),
		Summary:     r.Summary(),
		OutputDir:   r.OutputDir,
		Pages:       r.Pages,
		Passthrough: r.Passthrough,
		Collections: r.Collections,
		DurationMS:  r.Duration().Milliseconds(),
		Errors:      errorStrings(r.Errors),
		Timestamp:   r.End,
	}
}

type serializableReport struct {
	BuildID          string           `json:"build_id"`
	Trigger          string           `json:"trigger,omitempty"`
	Start            time.Time        `json:"start"`
	End              time.Time        `json:"end"`
	Outcome          Outcome          `json:"outcome"`
	OutputDir        string           `json:"output_dir"`
	Pages            int              `json:"pages"`
	Passthrough      int              `json:"passthrough"`
	Collections      map[string]int   `json:"collections"`
	Placeholders     map[string]int   `json:"placeholders"`
	BrokenLinks      int              `json:"broken_links"`
	StageDurationsMS map[string]int64 `json:"stage_durations_ms"`
	StepDurationsMS  map[string]int64 `json:"step_durations_ms"`
	FailedStage      string           `json:"failed_stage,omitempty"`
	Errors           []string         `json:"errors,omitempty"`
	Warnings         []string         `json:"warnings,omitempty"`
}

func (r *Report) serializable() serializableReport {
	stages := make(map[string]int64, len(r.StageDurations))
	for k, d := range r.StageDurations {
		stages[k] = d.Milliseconds()
	}
	return serializableReport{
		BuildID:          r.BuildID,
		Trigger:          r.Trigger,
		Start:            r.Start,
		End:              r.End,
		Outcome:          r.Outcome,
		OutputDir:        r.OutputDir,
		Pages:            r.Pages,
		Passthrough:      r.Passthrough,
		Collections:      r.Collections,
		Placeholders:     r.Placeholders,
		BrokenLinks:      r.BrokenLinks,
		StageDurationsMS: stages,
		StepDurationsMS:  r.EventData().StepDurations,
		FailedStage:      r.FailedStage,
		Errors:           errorStrings(r.Errors),
		Warnings:         errorStrings(r.Warnings),
	}
}

// Persist writes build-report.json and build-report.txt into root, each atomically.
// Errors are for the caller to log; they do not change the outcome.
func (r *Report) Persist(root string) error {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return fmt.Errorf("ensure root for report: %w", err)
	}
	jb, err := json.MarshalIndent(r.serializable(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	if err := atomic.WriteFile(filepath.Join(root, "build-report.json"), bytes.NewReader(jb)); err != nil {
		return fmt.Errorf("write report json: %w", err)
	}
	if err := atomic.WriteFile(filepath.Join(root, "build-report.txt"), bytes.NewReader([]byte(r.Summary()+"\n"))); err != nil {
		return fmt.Errorf("write report summary: %w", err)
	}
	return nil
}

func errorStrings(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}
