package population

import (
	"container/heap"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/XiaoConstantine/funsearch-go/pkg/errors"
)

// member tags a candidate with its insertion sequence so that equal-fitness
// members order deterministically (older first).
type member struct {
	cand *Candidate
	seq  uint64
}

// memberHeap is a min-heap on fitness; the root is the eviction victim.
type memberHeap []member

func (h memberHeap) Len() int { return len(h) }

func (h memberHeap) Less(i, j int) bool {
	if h[i].cand.Fitness != h[j].cand.Fitness {
		return h[i].cand.Fitness < h[j].cand.Fitness
	}
	return h[i].seq < h[j].seq
}

func (h memberHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *memberHeap) Push(x interface{}) {
	*h = append(*h, x.(member))
}

func (h *memberHeap) Pop() interface{} {
	old := *h
	n := len(old)
	m := old[n-1]
	*h = old[:n-1]
	return m
}

// Store is a bounded, fitness-ranked population of candidates. All methods
// are safe for concurrent use; Add in particular is serialized so that the
// eviction decision never races with another insertion.
type Store struct {
	mu         sync.Mutex
	capacity   int
	members    memberHeap
	bestEver   *Candidate
	generation int
	seq        uint64
	rng        *rand.Rand
}

// Option configures a Store.
type Option func(*Store)

// WithRand injects the random source used for parent sampling. Tests use
// this for determinism.
func WithRand(rng *rand.Rand) Option {
	return func(s *Store) {
		s.rng = rng
	}
}

// DefaultCapacity is the default maximum number of retained candidates.
const DefaultCapacity = 100

// NewStore creates a store holding at most capacity candidates.
func NewStore(capacity int, opts ...Option) (*Store, error) {
	if capacity <= 0 {
		return nil, errors.WithFields(
			errors.New(errors.ValidationFailed, "store capacity must be positive"),
			errors.Fields{"capacity": capacity})
	}

	s := &Store{
		capacity: capacity,
		members:  make(memberHeap, 0, capacity),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Add offers a candidate to the store and reports whether it was accepted as
// a member. The best-ever snapshot is updated even when the candidate is
// rejected, so bestEver may reference a candidate absent from the visible
// population.
func (s *Store) Add(c *Candidate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bestEver == nil || c.Fitness > s.bestEver.Fitness {
		s.bestEver = c
	}

	if len(s.members) < s.capacity {
		s.seq++
		heap.Push(&s.members, member{cand: c, seq: s.seq})
		return true
	}

	if c.Fitness > s.members[0].cand.Fitness {
		s.seq++
		s.members[0] = member{cand: c, seq: s.seq}
		heap.Fix(&s.members, 0)
		return true
	}

	return false
}

// ranked returns the members sorted by descending fitness, ties in insertion
// order. Callers must hold s.mu.
func (s *Store) ranked() []member {
	out := make([]member, len(s.members))
	copy(out, s.members)
	sort.Slice(out, func(i, j int) bool {
		if out[i].cand.Fitness != out[j].cand.Fitness {
			return out[i].cand.Fitness > out[j].cand.Fitness
		}
		return out[i].seq < out[j].seq
	})
	return out
}

// Best returns up to n candidates in descending fitness order.
func (s *Store) Best(n int) []*Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()

	ranked := s.ranked()
	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]*Candidate, n)
	for i := 0; i < n; i++ {
		out[i] = ranked[i].cand
	}
	return out
}

// BestEver returns the highest-fitness candidate ever offered to the store,
// or nil if nothing has been added yet. The snapshot survives eviction.
func (s *Store) BestEver() *Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bestEver
}

// SampleParent picks a candidate uniformly at random from the elite slice:
// the top ceil(size/5) members by fitness, never fewer than one. Returns nil
// when the store is empty.
func (s *Store) SampleParent() *Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.members) == 0 {
		return nil
	}

	pool := (len(s.members) + 4) / 5
	if pool < 1 {
		pool = 1
	}
	ranked := s.ranked()
	return ranked[s.rng.Intn(pool)].cand
}

// Size returns the current member count.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.members)
}

// IncrementGeneration advances the generation counter. The orchestrator
// calls this once per round regardless of acceptance.
func (s *Store) IncrementGeneration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
}

// Generation returns the current generation counter.
func (s *Store) Generation() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Statistics summarizes the store. The fitness fields are nil when the store
// has no members.
type Statistics struct {
	Size         int      `json:"size"`
	Generation   int      `json:"generation"`
	BestFitness  *float64 `json:"best_fitness"`
	AvgFitness   *float64 `json:"avg_fitness"`
	WorstFitness *float64 `json:"worst_fitness"`
}

// Statistics returns a snapshot of the store's fitness distribution.
func (s *Store) Statistics() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Statistics{
		Size:       len(s.members),
		Generation: s.generation,
	}
	if len(s.members) == 0 {
		return stats
	}

	best := s.members[0].cand.Fitness
	worst := s.members[0].cand.Fitness
	sum := 0.0
	for _, m := range s.members {
		f := m.cand.Fitness
		if f > best {
			best = f
		}
		if f < worst {
			worst = f
		}
		sum += f
	}
	avg := sum / float64(len(s.members))

	stats.BestFitness = &best
	stats.AvgFitness = &avg
	stats.WorstFitness = &worst
	return stats
}
