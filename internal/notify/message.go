package notify

import "time"

// BuildMessage is the JSON document published after every build.
type BuildMessage struct {
	BuildID     string         `json:"build_id"`
	Trigger     string         `json:"trigger,omitempty"`
	Outcome     string         `json:"outcome"`
	Summary     string         `json:"summary"`
	OutputDir   string         `json:"output_dir"`
	Pages       int            `json:"pages"`
	Passthrough int            `json:"passthrough"`
	Collections map[string]int `json:"collections,omitempty"`
	DurationMS  int64          `json:"duration_ms"`
	Errors      []string       `json:"errors,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}
