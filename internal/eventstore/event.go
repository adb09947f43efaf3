package eventstore

import (
	"encoding/json"
	"time"
)

// Event is one entry of a build's history.
type Event interface {
	BuildID() string
	Type() string
	Timestamp() time.Time
	// Payload is the JSON encoded event body.
	Payload() []byte
}

// Record is the stored form of an event. Seq orders events across builds and is
// zero until the event has been appended.
type Record struct {
	Seq   int64
	Build string
	Kind  string
	At    time.Time
	Body  []byte
}

func (r *Record) BuildID() string      { return r.Build }
func (r *Record) Type() string         { return r.Kind }
func (r *Record) Timestamp() time.Time { return r.At }
func (r *Record) Payload() []byte      { return r.Body }

// decode unmarshals the payload of e into v and reports whether it succeeded.
func decode(e Event, v any) bool {
	return json.Unmarshal(e.Payload(), v) == nil
}
