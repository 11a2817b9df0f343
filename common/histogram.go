package common

import (
	"math"

	"github.com/xor-shift/xsrng/util/rng"
)

// Histogram counts draws over [Min, Max), one bucket per value.
type Histogram struct {
	Min    int   `json:"min"`
	Max    int   `json:"max"`
	Counts []int `json:"counts"`
	Total  int   `json:"total"`

	// values outside [Min, Max)
	Outliers int `json:"outliers"`
}

func NewHistogram(min, max int) (*Histogram, error) {
	if err := rng.CheckRange(min, max); err != nil {
		return nil, err
	}

	return &Histogram{
		Min:    min,
		Max:    max,
		Counts: make([]int, max-min),
	}, nil
}

func (h *Histogram) Add(values ...int) {
	for _, v := range values {
		if v < h.Min || v >= h.Max {
			h.Outliers++
			continue
		}

		h.Counts[v-h.Min]++
		h.Total++
	}
}

// MaxDeviation is the largest relative distance of a bucket from the uniform
// expectation, 0 for an empty histogram.
func (h *Histogram) MaxDeviation() float64 {
	if h.Total == 0 || len(h.Counts) == 0 {
		return 0
	}

	expected := float64(h.Total) / float64(len(h.Counts))

	worst := 0.
	for _, c := range h.Counts {
		worst = math.Max(worst, math.Abs(float64(c)-expected)/expected)
	}

	return worst
}
