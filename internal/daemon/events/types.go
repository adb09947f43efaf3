package events

import "time"

// Source says what asked for a rebuild.
type Source string

const (
	SourceWatch    Source = "watch"
	SourceSchedule Source = "schedule"
)

// BuildRequested asks for a rebuild soon. Bursts are coalesced by the debouncer.
type BuildRequested struct {
	Source Source
	// Path is the changed file for watch requests.
	Path string
	// Immediate skips the quiet window unless a build is running.
	Immediate bool
	At        time.Time
}

// Cause says why the debouncer released a build.
type Cause string

const (
	CauseImmediate    Cause = "immediate"
	CauseQuiet        Cause = "quiet"
	CauseMaxDelay     Cause = "max_delay"
	CauseAfterRunning Cause = "after_running"
)

// BuildNow is emitted by the debouncer once the coalesced requests should build.
type BuildNow struct {
	// Trigger is SourceWatch when any file changed and SourceSchedule otherwise.
	Trigger Source
	// Paths holds the changed files, sorted and without duplicates.
	Paths    []string
	Requests int
	Cause    Cause
	First    time.Time
	Last     time.Time
}
