package requests

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// IDGenerator mints request ids of the form REQ-<unix millis>-<sequence>-<random>.
// The sequence keeps ids unique inside one process when two submissions land
// in the same millisecond; the random part separates instances sharing a store.
type IDGenerator struct {
	seq atomic.Uint64
}

// NewIDGenerator creates a generator whose sequence starts at 1
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// Next returns a fresh id stamped with now
func (g *IDGenerator) Next(now time.Time) string {
	n := g.seq.Add(1)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("REQ-%d-%d-%s", now.UnixMilli(), n, suffix)
}

// idOrder extracts the millis and sequence parts of an id. ok is false for
// ids not minted by IDGenerator.
func idOrder(id string) (millis, seq uint64, ok bool) {
	parts := strings.SplitN(id, "-", 4)
	if len(parts) < 3 || parts[0] != "REQ" {
		return 0, 0, false
	}
	millis, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	seq, err = strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return millis, seq, true
}

// mintedBefore reports whether id a was minted before id b. Ids from
// IDGenerator compare numerically by millis then sequence; anything else
// falls back to string order and sorts after minted ids.
func mintedBefore(a, b string) bool {
	am, as, aok := idOrder(a)
	bm, bs, bok := idOrder(b)
	switch {
	case aok && bok:
		if am != bm {
			return am < bm
		}
		if as != bs {
			return as < bs
		}
		return a < b
	case aok != bok:
		return aok
	default:
		return a < b
	}
}
