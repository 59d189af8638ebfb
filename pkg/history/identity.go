package history

import (
	"fmt"
	"hash/fnv"
	"math"

	"github.com/teslashibe/go-narrator/pkg/vision"
)

// Identity is the stable key of a tracked entity.
type Identity string

// fallbackGrid quantizes boxes before hashing so sub-pixel jitter between
// frames does not mint a new synthetic identity every tick.
const fallbackGrid = 16.0

// ResolveIdentity returns the detector-supplied identity when present and
// otherwise a synthetic one hashed from class and quantized box. Synthetic
// identities are only stable while the box barely moves; callers treat
// them as a degraded capability rather than an error.
func ResolveIdentity(obs vision.Observation) Identity {
	if obs.TrackID != nil {
		return Identity(fmt.Sprintf("t%d", *obs.TrackID))
	}

	q := func(v float64) int64 { return int64(math.Floor(v / fallbackGrid)) }

	h := fnv.New32a()
	fmt.Fprintf(h, "%s|%d|%d|%d|%d", obs.Class, q(obs.Box.X1), q(obs.Box.Y1), q(obs.Box.X2), q(obs.Box.Y2))
	return Identity(fmt.Sprintf("h%08x", h.Sum32()))
}

// Synthetic reports whether id was produced by the hash fallback.
func (id Identity) Synthetic() bool {
	return len(id) > 0 && id[0] == 'h'
}
