package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// Event type names as stored in the event_type column.
const (
	TypeBuildStarted         = "BuildStarted"
	TypeHookCompleted        = "HookCompleted"
	TypeSiteGenerated        = "SiteGenerated"
	TypeBuildCompleted       = "BuildCompleted"
	TypeBuildFailed          = "BuildFailed"
	TypeBuildReportGenerated = "BuildReportGenerated"
)

func newRecord(buildID, eventType string, payload any) (Record, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Record{}, errors.StoreError("failed to marshal "+eventType+" payload").
			WithCause(err).
			WithContext("build_id", buildID).
			Build()
	}
	return Record{Build: buildID, Kind: eventType, At: time.Now(), Body: data}, nil
}

// BuildStarted is emitted when a build begins.
type BuildStarted struct {
	Record
	// Trigger says what started the build: "cli", "watch", "schedule".
	Trigger string `json:"trigger"`
}

// NewBuildStarted creates a BuildStarted event.
func NewBuildStarted(buildID, trigger string) (*BuildStarted, error) {
	base, err := newRecord(buildID, TypeBuildStarted, map[string]any{"trigger": trigger})
	if err != nil {
		return nil, err
	}
	return &BuildStarted{Record: base, Trigger: trigger}, nil
}

// HookCompleted is emitted after each lifecycle hook step, successful or not.
type HookCompleted struct {
	Record
	Phase    string        `json:"phase"`
	Step     string        `json:"step"`
	Duration time.Duration `json:"duration_ms"`
	Error    string        `json:"error,omitempty"`
}

// NewHookCompleted creates a HookCompleted event. errMsg is empty on success.
func NewHookCompleted(buildID, phase, step string, duration time.Duration, errMsg string) (*HookCompleted, error) {
	base, err := newRecord(buildID, TypeHookCompleted, map[string]any{
		"phase":       phase,
		"step":        step,
		"duration_ms": duration.Milliseconds(),
		"error":       errMsg,
	})
	if err != nil {
		return nil, err
	}
	return &HookCompleted{Record: base, Phase: phase, Step: step, Duration: duration, Error: errMsg}, nil
}

// SiteGenerated is emitted when pages and passthrough files have been written.
type SiteGenerated struct {
	Record
	OutputPath  string        `json:"output_path"`
	Pages       int           `json:"pages"`
	Passthrough int           `json:"passthrough"`
	Duration    time.Duration `json:"duration_ms"`
}

// NewSiteGenerated creates a SiteGenerated event.
func NewSiteGenerated(buildID, outputPath string, pages, passthrough int, duration time.Duration) (*SiteGenerated, error) {
	base, err := newRecord(buildID, TypeSiteGenerated, map[string]any{
		"output_path": outputPath,
		"pages":       pages,
		"passthrough": passthrough,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		return nil, err
	}
	return &SiteGenerated{Record: base, OutputPath: outputPath, Pages: pages, Passthrough: passthrough, Duration: duration}, nil
}

// BuildCompleted is emitted when a build completes successfully.
type BuildCompleted struct {
	Record
	Status    string            `json:"status"`
	Duration  time.Duration     `json:"duration_ms"`
	Artifacts map[string]string `json:"artifacts"`
}

// NewBuildCompleted creates a BuildCompleted event.
func NewBuildCompleted(buildID, status string, duration time.Duration, artifacts map[string]string) (*BuildCompleted, error) {
	base, err := newRecord(buildID, TypeBuildCompleted, map[string]any{
		"status":      status,
		"duration_ms": duration.Milliseconds(),
		"artifacts":   artifacts,
	})
	if err != nil {
		return nil, err
	}
	return &BuildCompleted{Record: base, Status: status, Duration: duration, Artifacts: artifacts}, nil
}

// BuildFailed is emitted when a build fails. Stage names the step that failed, for
// hook failures the hook name prefixed with its phase.
type BuildFailed struct {
	Record
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// NewBuildFailed creates a BuildFailed event.
func NewBuildFailed(buildID, stage, errorMsg string) (*BuildFailed, error) {
	base, err := newRecord(buildID, TypeBuildFailed, map[string]any{
		"stage": stage,
		"error": errorMsg,
	})
	if err != nil {
		return nil, err
	}
	return &BuildFailed{Record: base, Stage: stage, Error: errorMsg}, nil
}

// BuildReportData contains the key metrics from a build report.
type BuildReportData struct {
	Outcome       string           `json:"outcome"`
	Summary       string           `json:"summary"`
	Pages         int              `json:"pages"`
	Passthrough   int              `json:"passthrough"`
	Collections   map[string]int   `json:"collections,omitempty"`
	Placeholders  map[string]int   `json:"placeholders,omitempty"` // "tk.resolved", "st.missing", ...
	BrokenLinks   int              `json:"broken_links"`
	StepDurations map[string]int64 `json:"step_durations_ms"`      // "before/favicons" -> milliseconds
	Errors        []string         `json:"errors,omitempty"`
	Warnings      []string         `json:"warnings,omitempty"`
}

// BuildReportGenerated is emitted when a build report is finalized.
type BuildReportGenerated struct {
	Record
	Report BuildReportData `json:"report"`
}

// NewBuildReportGenerated creates a BuildReportGenerated event.
func NewBuildReportGenerated(buildID string, report BuildReportData) (*BuildReportGenerated, error) {
	base, err := newRecord(buildID, TypeBuildReportGenerated, report)
	if err != nil {
		return nil, err
	}
	return &BuildReportGenerated{Record: base, Report: report}, nil
}
