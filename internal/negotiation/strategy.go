package negotiation

import (
	"math"
	"math/rand"
	"sync"
)

// Strategy computes the agent's offer for one round. Implementations must be
// side-effect free with respect to negotiation state; the service owns all
// bookkeeping.
type Strategy interface {
	// Decide returns the agent's offer for this round and whether the
	// carrier's offer clears it. lastAgentOffer is nil on the first round.
	Decide(originalPrice, carrierOffer float64, attemptIndex int, lastAgentOffer *float64) (agentOffer float64, accepted bool)
}

// MidpointStrategy is the deterministic default. The first round concedes 3%
// off the asking price; every later round offers the midpoint between the
// asking price and the agent's own previous offer, so the sequence of agent
// offers trends toward the carrier and never moves away.
type MidpointStrategy struct{}

func (MidpointStrategy) Decide(originalPrice, carrierOffer float64, attemptIndex int, lastAgentOffer *float64) (float64, bool) {
	var offer float64
	if attemptIndex == 0 {
		offer = math.Round(originalPrice * 0.97)
	} else {
		baseline := originalPrice
		if lastAgentOffer != nil {
			baseline = *lastAgentOffer
		}
		offer = math.Round((originalPrice + baseline) / 2)
	}
	return offer, carrierOffer >= offer
}

var _ Strategy = MidpointStrategy{}

// JitterStrategy perturbs rounds after the first with a random amount bounded
// by 2% of the asking price, making the agent's counters harder to predict.
// The first round matches MidpointStrategy exactly.
type JitterStrategy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewJitterStrategy seeds the randomized strategy. A fixed seed makes the
// sequence reproducible in tests.
func NewJitterStrategy(seed int64) *JitterStrategy {
	return &JitterStrategy{rng: rand.New(rand.NewSource(seed))}
}

func (s *JitterStrategy) Decide(originalPrice, carrierOffer float64, attemptIndex int, lastAgentOffer *float64) (float64, bool) {
	var offer float64
	if attemptIndex == 0 {
		offer = math.Round(originalPrice * 0.97)
	} else {
		baseline := originalPrice
		if lastAgentOffer != nil {
			baseline = *lastAgentOffer
		}
		offer = math.Round((originalPrice + baseline + s.jitter(originalPrice)) / 2)
	}
	return offer, carrierOffer >= offer
}

func (s *JitterStrategy) jitter(originalPrice float64) float64 {
	lo, hi := 1.0, originalPrice*0.02
	if hi < lo {
		lo, hi = hi, lo
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + s.rng.Float64()*(hi-lo)
}

var _ Strategy = (*JitterStrategy)(nil)
