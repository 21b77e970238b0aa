package server

import (
	"sync"
	"time"
)

/*
ShotBudget is a token bucket over sampled shots. Every measurement takes as
many tokens as it has trials; tokens flow back at a fixed rate up to the
bucket size, so short bursts of large measurements are allowed while the
sustained sampling rate stays bounded.
*/
type ShotBudget struct {
	tokens     int
	maxTokens  int
	refillRate time.Duration // time per returned shot
	lastRefill time.Time
	mu         sync.Mutex
	metrics    *Metrics
}

/*
NewShotBudget returns a full bucket of maxTokens shots that refills at
perSecond shots per second.
*/
func NewShotBudget(maxTokens int, perSecond float64) *ShotBudget {
	refillRate := time.Second
	if perSecond > 0 {
		refillRate = max(time.Duration(float64(time.Second)/perSecond), time.Nanosecond)
	}

	return &ShotBudget{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Observe attaches the metrics that record refused measurements.
func (sb *ShotBudget) Observe(metrics *Metrics) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.metrics = metrics
}

/*
Limit takes n shots from the bucket. It reports true, taking nothing, when
fewer than n shots are available.
*/
func (sb *ShotBudget) Limit(n int) bool {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.refill()
	if n <= sb.tokens {
		sb.tokens -= n
		return false
	}

	if sb.metrics != nil {
		sb.metrics.recordBudgetHit()
	}
	return true
}

// Available returns the shots that can be taken right now.
func (sb *ShotBudget) Available() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.refill()
	return sb.tokens
}

// refill must be called with sb.mu held.
func (sb *ShotBudget) refill() {
	elapsed := time.Since(sb.lastRefill)
	tokensToAdd := int64(elapsed / sb.refillRate)

	if tokensToAdd <= 0 {
		return
	}
	if tokensToAdd >= int64(sb.maxTokens-sb.tokens) {
		sb.tokens = sb.maxTokens
		sb.lastRefill = time.Now()
		return
	}

	sb.tokens += int(tokensToAdd)
	sb.lastRefill = sb.lastRefill.Add(time.Duration(tokensToAdd) * sb.refillRate)
}
