// Package ident generates entity identifiers. A cryptographically random
// UUID is the primary strategy; when the entropy source is unusable, a
// base36 timestamp plus random suffix is used instead. Fallback IDs are
// only probabilistically unique, which is acceptable here: identifiers are
// not security tokens and a collision is operationally harmless.
package ident

import (
	"crypto/rand"
	mrand "math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Generator produces unique string IDs.
type Generator interface {
	NewID() string
}

// New probes the entropy source once and returns the strongest available
// strategy.
func New() Generator {
	var probe [8]byte
	if _, err := rand.Read(probe[:]); err != nil {
		return &TimeRandGenerator{rng: mrand.New(mrand.NewSource(time.Now().UnixNano()))}
	}
	return UUIDGenerator{}
}

// UUIDGenerator issues random (v4) UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// TimeRandGenerator issues base36 timestamp + random suffix IDs.
type TimeRandGenerator struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

const (
	suffixLen = 9
	suffixMax = int64(101559956668416) // 36^9
)

func (g *TimeRandGenerator) NewID() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	var n int64
	if g.rng != nil {
		g.mu.Lock()
		n = g.rng.Int63n(suffixMax)
		g.mu.Unlock()
	} else {
		n = mrand.Int63n(suffixMax)
	}
	suffix := strconv.FormatInt(n, 36)
	for len(suffix) < suffixLen {
		suffix = "0" + suffix
	}
	return ts + "-" + suffix
}
