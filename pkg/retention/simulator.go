package retention

import (
	"math/rand"
	"sort"
	"time"
)

// Simulator replays a policy over simulated days. Each simulated day creates
// artifacts at random times on that day, applies the policy, then advances
// the clock, the way a daily backup job would.
//
// The random source is seeded explicitly, so runs are reproducible.
type Simulator struct {
	policy    *Policy
	now       time.Time
	rng       *rand.Rand
	artifacts []time.Time
	evicted   int
}

// NewSimulator creates a simulator starting at start.
func NewSimulator(policy *Policy, start time.Time, seed int64) *Simulator {
	return &Simulator{
		policy: policy,
		now:    start,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Now returns the simulated current time.
func (s *Simulator) Now() time.Time {
	return s.now
}

// Generate returns a random instant on the current simulated day.
func (s *Simulator) Generate() time.Time {
	y, m, d := s.now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, s.now.Location())
	return midnight.Add(time.Duration(s.rng.Int63n(int64(Day))) / time.Second * time.Second)
}

// Add records an artifact at the given time.
func (s *Simulator) Add(at time.Time) {
	s.artifacts = append(s.artifacts, at)
}

// Step simulates one day: perDay artifacts are created, the policy is
// applied, and the clock moves forward by one day.
func (s *Simulator) Step(perDay int) {
	for i := 0; i < perDay; i++ {
		s.Add(s.Generate())
	}
	s.Apply()
	s.now = s.now.Add(Day)
}

// Run simulates the given number of days.
func (s *Simulator) Run(days, perDay int) {
	for i := 0; i < days; i++ {
		s.Step(perDay)
	}
}

// Apply evicts every artifact the policy rejects at the current time and
// returns how many were evicted.
func (s *Simulator) Apply() int {
	kept := s.artifacts[:0]
	removed := 0
	for _, at := range s.artifacts {
		if s.policy.ShouldKeep(at, s.now) {
			kept = append(kept, at)
			continue
		}
		removed++
	}
	s.artifacts = kept
	s.evicted += removed
	return removed
}

// Evicted returns the total number of artifacts evicted so far.
func (s *Simulator) Evicted() int {
	return s.evicted
}

// CountBetween returns the number of surviving artifacts in [start, end].
func (s *Simulator) CountBetween(start, end time.Time) int {
	count := 0
	for _, at := range s.artifacts {
		if !at.Before(start) && !at.After(end) {
			count++
		}
	}
	return count
}

// Survivors returns the surviving artifact times in ascending order.
func (s *Simulator) Survivors() []time.Time {
	out := make([]time.Time, len(s.artifacts))
	copy(out, s.artifacts)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
