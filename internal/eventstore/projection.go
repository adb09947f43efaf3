package eventstore

import (
	"context"
	"sort"
	"sync"
	"time"
)

const (
	buildStatusRunning   = "running"
	buildStatusCompleted = "completed"
	buildStatusFailed    = "failed"
)

// BuildSummary is a read model summarizing a completed or in-progress build.
type BuildSummary struct {
	BuildID      string            `json:"build_id"`
	Trigger      string            `json:"trigger,omitempty"`
	Status       string            `json:"status"` // "running", "success", "failed", ...
	StartedAt    time.Time         `json:"started_at"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
	Duration     time.Duration     `json:"duration,omitempty"`
	HookCount    int               `json:"hook_count"`
	PageCount    int               `json:"page_count"`
	ErrorStage   string            `json:"error_stage,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Artifacts    map[string]string `json:"artifacts,omitempty"`
	// ReportData contains detailed build report metrics (populated from BuildReportGenerated event)
	ReportData *BuildReportData `json:"report_data,omitempty"`
}

// BuildHistoryProjection maintains an in-memory view of build history,
// reconstructed from events stored in the event store.
type BuildHistoryProjection struct {
	mu       sync.RWMutex
	store    Store
	builds   map[string]*BuildSummary // buildID -> summary
	history  []*BuildSummary          // ordered by start time, newest first
	maxSize  int
	lastSync time.Time
}

// NewBuildHistoryProjection creates a new projection backed by the given store.
func NewBuildHistoryProjection(store Store, maxHistorySize int) *BuildHistoryProjection {
	if maxHistorySize <= 0 {
		maxHistorySize = 100
	}
	return &BuildHistoryProjection{
		store:   store,
		builds:  make(map[string]*BuildSummary),
		history: make([]*BuildSummary, 0, maxHistorySize),
		maxSize: maxHistorySize,
	}
}

// Rebuild reconstructs the projection from all events in the store.
// This is typically called at startup.
func (p *BuildHistoryProjection) Rebuild(ctx context.Context) error {
	// Get all events from the beginning of time
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Reset state
	p.builds = make(map[string]*BuildSummary)
	p.history = make([]*BuildSummary, 0, p.maxSize)

	// Apply each event
	for _, event := range events {
		p.applyEventLocked(event)
	}

	// Sort history by start time (newest first)
	p.sortHistoryLocked()

	// Trim to max size
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}

	// Prevent unbounded growth: keep only bounded history + any running builds.
	p.pruneBuildsLocked()

	p.lastSync = time.Now()
	return nil
}

// Apply processes a single event and updates the projection.
// This is used for real-time updates when events are emitted.
func (p *BuildHistoryProjection) Apply(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyEventLocked(event)
}

// applyEventLocked applies an event; the caller holds the write lock.
func (p *BuildHistoryProjection) applyEventLocked(event Event) {
	buildID := event.BuildID()
	if buildID == "" || buildID == "unknown" {
		return
	}

	summary, exists := p.builds[buildID]
	if !exists {
		summary = &BuildSummary{
			BuildID:   buildID,
			Status:    buildStatusRunning,
			StartedAt: event.Timestamp(),
		}
		p.builds[buildID] = summary
	}

	switch event.Type() {
	case TypeBuildStarted:
		summary.StartedAt = event.Timestamp()
		summary.Status = buildStatusRunning
		var payload struct {
			Trigger string `json:"trigger"`
		}
		if decode(event, &payload) {
			summary.Trigger = payload.Trigger
		}

	case TypeHookCompleted:
		summary.HookCount++

	case TypeSiteGenerated:
		var payload struct {
			Pages int `json:"pages"`
		}
		if decode(event, &payload) {
			summary.PageCount = payload.Pages
		}

	case TypeBuildCompleted:
		now := event.Timestamp()
		summary.CompletedAt = &now
		summary.Duration = now.Sub(summary.StartedAt)
		summary.Status = buildStatusCompleted
		var payload struct {
			Status    string            `json:"status"`
			Artifacts map[string]string `json:"artifacts"`
		}
		if decode(event, &payload) {
			if payload.Status != "" {
				summary.Status = payload.Status
			}
			summary.Artifacts = payload.Artifacts
		}
		p.addToHistoryLocked(summary)

	case TypeBuildFailed:
		now := event.Timestamp()
		summary.CompletedAt = &now
		summary.Duration = now.Sub(summary.StartedAt)
		summary.Status = buildStatusFailed
		var payload struct {
			Stage string `json:"stage"`
			Error string `json:"error"`
		}
		if decode(event, &payload) {
			summary.ErrorStage = payload.Stage
			summary.ErrorMessage = payload.Error
		}
		p.addToHistoryLocked(summary)

	case TypeBuildReportGenerated:
		var report BuildReportData
		if decode(event, &report) {
			summary.ReportData = &report
		}
	}
}

// addToHistoryLocked adds a completed build to history if not already present.
func (p *BuildHistoryProjection) addToHistoryLocked(summary *BuildSummary) {
	// Check if already in history
	for _, h := range p.history {
		if h.BuildID == summary.BuildID {
			return
		}
	}

	// Add to history
	p.history = append([]*BuildSummary{summary}, p.history...)

	// Trim to max size
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}

	// Prevent unbounded growth: keep only bounded history + any running builds.
	p.pruneBuildsLocked()
}

// pruneBuildsLocked removes completed builds not present in the bounded history.
// It keeps any builds that are still marked as running.
// Caller must hold p.mu (write lock).
func (p *BuildHistoryProjection) pruneBuildsLocked() {
	keep := make(map[string]struct{}, len(p.history))
	for _, h := range p.history {
		if h != nil {
			keep[h.BuildID] = struct{}{}
		}
	}

	for id, summary := range p.builds {
		if summary != nil && summary.Status == buildStatusRunning {
			continue
		}
		if _, ok := keep[id]; !ok {
			delete(p.builds, id)
		}
	}
}

// sortHistoryLocked sorts history by start time, newest first.
func (p *BuildHistoryProjection) sortHistoryLocked() {
	sort.SliceStable(p.history, func(i, j int) bool {
		return p.history[i].StartedAt.After(p.history[j].StartedAt)
	})
}

// GetHistory returns the build history, newest first.
func (p *BuildHistoryProjection) GetHistory() []*BuildSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]*BuildSummary, len(p.history))
	copy(result, p.history)
	return result
}

// GetBuild returns the summary for a specific build.
func (p *BuildHistoryProjection) GetBuild(buildID string) (*BuildSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	summary, exists := p.builds[buildID]
	if !exists {
		return nil, false
	}

	// Return a copy
	cp := *summary
	return &cp, true
}

// GetActiveBuild returns a currently running build if any.
func (p *BuildHistoryProjection) GetActiveBuild() *BuildSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, summary := range p.builds {
		if summary.Status == buildStatusRunning {
			cp := *summary
			return &cp
		}
	}
	return nil
}

// GetLastCompletedBuild returns the most recently completed build (success or failure).
func (p *BuildHistoryProjection) GetLastCompletedBuild() *BuildSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.history) == 0 {
		return nil
	}

	// History is sorted newest first
	cp := *p.history[0]
	return &cp
}

// LastSyncTime returns when the projection was last synchronized.
func (p *BuildHistoryProjection) LastSyncTime() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSync
}
