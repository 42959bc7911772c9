// Package sampler draws a uniform random subset of catalog records.
package sampler

import (
	"math/rand/v2"
	"time"

	errs "pfpharvest/pkg/errors"
	"pfpharvest/pkg/models"
)

// NewRand returns a random source for Sample. A zero seed seeds from the clock.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// Sample picks n distinct records uniformly at random without replacement.
// The input slice is not modified. It fails with an InsufficientDataError
// when records holds fewer than n entries.
func Sample(records []models.CollectionRecord, n int, rng *rand.Rand) ([]models.CollectionRecord, error) {
	if n < 0 || len(records) < n {
		return nil, &errs.InsufficientDataError{Have: len(records), Want: n}
	}
	if rng == nil {
		rng = NewRand(0)
	}

	// partial Fisher-Yates over an index permutation
	idx := make([]int, len(records))
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
	}

	out := make([]models.CollectionRecord, n)
	for i := 0; i < n; i++ {
		out[i] = records[idx[i]]
	}
	return out, nil
}
