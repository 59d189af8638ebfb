package vision

import (
	"strings"
	"time"
)

// Observation is one detection of one entity in one frame.
// Area and Center are derived from Box at construction.
type Observation struct {
	Seq        uint64    `json:"seq"`
	Timestamp  time.Time `json:"timestamp"`
	Box        Box       `json:"box"`
	Area       float64   `json:"area"`
	Center     Point     `json:"center"`
	Class      string    `json:"class"`
	Confidence float64   `json:"confidence"`

	// TrackID is the detector's identity hint; nil when none was supplied.
	TrackID *int `json:"track_id,omitempty"`
}

// NewObservation builds an observation and fills the derived fields.
func NewObservation(seq uint64, ts time.Time, box Box, class string, confidence float64, trackID *int) Observation {
	return Observation{
		Seq:        seq,
		Timestamp:  ts,
		Box:        box,
		Area:       box.Area(),
		Center:     box.Center(),
		Class:      strings.ToLower(strings.TrimSpace(class)),
		Confidence: confidence,
		TrackID:    trackID,
	}
}

// WithTrackID returns a copy of o carrying the given identity hint.
func (o Observation) WithTrackID(id int) Observation {
	o.TrackID = &id
	return o
}

// HasTrackID reports whether the detector supplied an identity.
func (o Observation) HasTrackID() bool {
	return o.TrackID != nil
}
