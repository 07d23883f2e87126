package probe

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Algorithm selects how the next TTL is chosen
type Algorithm uint8

const (
	Sequential Algorithm = iota
	ReverseSequential
	Random
	BinarySearch
)

var algorithmNames = map[Algorithm]string{
	Sequential:        "sequential",
	ReverseSequential: "reversesequential",
	Random:            "random",
	BinarySearch:      "binarysearch",
}

func (a Algorithm) String() string {
	if name, ok := algorithmNames[a]; ok {
		return name
	}
	return "unknown"
}

// ParseAlgorithm accepts the algorithm names case-insensitively, ignoring
// dashes and underscores
func ParseAlgorithm(s string) (Algorithm, error) {
	name := strings.NewReplacer("-", "", "_", "").Replace(strings.ToLower(s))
	for a, n := range algorithmNames {
		if n == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
}

type selector struct {
	algorithm Algorithm
	startTTL  int
	maxTTL    int
	current   int
	started   bool
	rng       *rand.Rand
}

func newSelector(a Algorithm, startTTL, maxTTL uint8, rng *rand.Rand) (*selector, error) {
	switch a {
	case Sequential, ReverseSequential, Random:
	case BinarySearch:
		return nil, fmt.Errorf("%v algorithm: %w", a, ErrNotImplemented)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, a)
	}

	s := &selector{
		algorithm: a,
		startTTL:  max(1, min(int(startTTL), int(maxTTL))),
		maxTTL:    max(1, int(maxTTL)),
		rng:       rng,
	}
	return s, nil
}

// next picks the TTL for the probe about to be sent
func (s *selector) next(st *State) uint8 {
	lo, hi := st.Bound.Candidates()

	switch s.algorithm {
	case Random:
		if lo > hi {
			return uint8(max(1, min(hi, s.maxTTL)))
		}
		return uint8(lo + s.rng.IntN(hi-lo+1))
	case ReverseSequential:
		if !s.started {
			s.current = s.maxTTL
		} else {
			s.current--
		}
	default:
		if !s.started {
			s.current = s.startTTL
		} else {
			s.current++
		}
	}
	s.started = true

	if s.current < 1 || s.current > s.maxTTL {
		s.current = s.untried(st, lo, hi)
	}
	return uint8(s.current)
}

// untried finds the nearest never-probed TTL inside the bound, scanning in
// the direction the algorithm walks
func (s *selector) untried(st *State, lo, hi int) int {
	lo, hi = max(lo, 1), min(hi, s.maxTTL)
	if s.algorithm == ReverseSequential {
		for ttl := hi; ttl >= lo; ttl-- {
			if !st.Table.Tried(uint8(ttl)) {
				return ttl
			}
		}
		return max(1, hi)
	}
	for ttl := lo; ttl <= hi; ttl++ {
		if !st.Table.Tried(uint8(ttl)) {
			return ttl
		}
	}
	return max(1, min(lo, s.maxTTL))
}
