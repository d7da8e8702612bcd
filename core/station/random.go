package station

import (
	"math/rand"
	"time"
)

// RandomSource yields uniform samples in [0,1). *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

// NewRandom returns a seeded source. A zero seed draws one from the clock.
func NewRandom(seed int64) RandomSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// pickFault flips the coin deciding which fault a contested swap reports.
func pickFault(r RandomSource) FaultKind {
	if r.Float64() < 0.5 {
		return FaultAlignment
	}
	return FaultCharging
}
