package detection

import (
	"sort"
	"sync"

	"github.com/teslashibe/go-narrator/pkg/vision"
)

// AssociatorConfig tunes frame-to-frame matching.
type AssociatorConfig struct {
	MinIoU float64 // minimum overlap to continue a track
	MaxAge uint64  // frames a track survives without a match
}

// DefaultAssociatorConfig works for 30 fps walking-speed scenes.
func DefaultAssociatorConfig() AssociatorConfig {
	return AssociatorConfig{MinIoU: 0.3, MaxAge: 15}
}

// Associator gives observations stable track IDs by greedily matching each
// frame's boxes to the previous frame's tracks of the same class, highest
// IoU first. Observations that already carry a track ID are left alone.
type Associator struct {
	config AssociatorConfig

	mu     sync.Mutex
	tracks map[int]*track
	nextID int
}

type track struct {
	class    string
	box      vision.Box
	lastSeen uint64
}

// NewAssociator creates an associator.
func NewAssociator(config AssociatorConfig) *Associator {
	if config.MinIoU <= 0 {
		config.MinIoU = DefaultAssociatorConfig().MinIoU
	}
	if config.MaxAge == 0 {
		config.MaxAge = DefaultAssociatorConfig().MaxAge
	}
	return &Associator{config: config, tracks: make(map[int]*track), nextID: 1}
}

type candidate struct {
	obs, track int
	iou        float64
}

// Assign returns observations with TrackID filled in, in input order.
func (a *Associator) Assign(seq uint64, observations []vision.Observation) []vision.Observation {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]vision.Observation, len(observations))
	copy(out, observations)

	var cands []candidate
	for i, obs := range out {
		if obs.HasTrackID() {
			continue
		}
		for id, tr := range a.tracks {
			if tr.class != obs.Class {
				continue
			}
			if iou := tr.box.IoU(obs.Box); iou >= a.config.MinIoU {
				cands = append(cands, candidate{obs: i, track: id, iou: iou})
			}
		}
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].iou != cands[j].iou {
			return cands[i].iou > cands[j].iou
		}
		return cands[i].track < cands[j].track
	})

	usedObs := make(map[int]bool)
	usedTrack := make(map[int]bool)
	for _, c := range cands {
		if usedObs[c.obs] || usedTrack[c.track] {
			continue
		}
		usedObs[c.obs], usedTrack[c.track] = true, true
		out[c.obs] = out[c.obs].WithTrackID(c.track)
	}

	for i, obs := range out {
		if obs.HasTrackID() {
			id := *obs.TrackID
			a.tracks[id] = &track{class: obs.Class, box: obs.Box, lastSeen: seq}
			if id >= a.nextID {
				a.nextID = id + 1
			}
			continue
		}
		id := a.nextID
		a.nextID++
		out[i] = obs.WithTrackID(id)
		a.tracks[id] = &track{class: obs.Class, box: obs.Box, lastSeen: seq}
	}

	for id, tr := range a.tracks {
		if seq > tr.lastSeen && seq-tr.lastSeen > a.config.MaxAge {
			delete(a.tracks, id)
		}
	}
	return out
}

// Len returns the number of live tracks.
func (a *Associator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.tracks)
}

// Reset forgets every track.
func (a *Associator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tracks = make(map[int]*track)
	a.nextID = 1
}
