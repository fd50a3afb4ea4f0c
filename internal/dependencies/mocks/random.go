package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/bingopot/internal/dependencies/random"
	"github.com/mcoot/bingopot/internal/model"
)

// MockRandom is a mock implementation of Random for testing
type MockRandom struct {
	mu sync.Mutex

	// Seeds is a queue of results to return from NextSeed
	Seeds     []model.Seed
	seedIndex int

	tokenCount int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// NextSeed returns the next queued seed, or the zero seed if none remaining
func (r *MockRandom) NextSeed() model.Seed {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seedIndex >= len(r.Seeds) {
		return model.Seed{}
	}
	s := r.Seeds[r.seedIndex]
	r.seedIndex++
	return s
}

// Token returns a predictable, unique token
func (r *MockRandom) Token(n int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokenCount++
	return fmt.Sprintf("tok%d", r.tokenCount)
}

// QueueSeeds adds seeds to the NextSeed queue
func (r *MockRandom) QueueSeeds(seeds ...model.Seed) {
	r.mu.Lock()
	r.Seeds = append(r.Seeds, seeds...)
	r.mu.Unlock()
}

// QueueDraws queues seeds whose first byte is each given number, so each draw yields it
func (r *MockRandom) QueueDraws(numbers ...uint8) {
	for _, n := range numbers {
		var s model.Seed
		s[0] = n
		r.QueueSeeds(s)
	}
}

// QueueBoard queues a seed that generates exactly the given board.
// The free cell value is ignored.
func (r *MockRandom) QueueBoard(b model.Board) {
	var s model.Seed
	copy(s[:], b[:])
	r.QueueSeeds(s)
}

// Reset clears all queued results
func (r *MockRandom) Reset() {
	r.mu.Lock()
	r.Seeds = nil
	r.seedIndex = 0
	r.mu.Unlock()
}
