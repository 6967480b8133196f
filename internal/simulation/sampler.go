package simulation

import (
	"math"
	"math/rand/v2"

	"github.com/yourusername/paddock/internal/models"
)

// sampler draws Plackett-Luce finish orders for one race. It owns preallocated
// scratch buffers and is reused across trials by a single worker; it is not safe
// for concurrent use.
type sampler struct {
	mu        []float64
	sd        []float64
	theta     []float64
	weights   []float64
	remaining []int
	order     []int

	degenerate int64
}

func newSampler(race *models.RaceParameter) *sampler {
	n := len(race.Runners)
	s := &sampler{
		mu:        make([]float64, n),
		sd:        make([]float64, n),
		theta:     make([]float64, n),
		weights:   make([]float64, n),
		remaining: make([]int, n),
		order:     make([]int, n),
	}
	nu2 := race.Nu * race.Nu
	for i, runner := range race.Runners {
		s.mu[i] = runner.Mu
		s.sd[i] = math.Sqrt(runner.Sigma*runner.Sigma + nu2)
	}
	return s
}

// draw runs one trial and returns the finish order as indices into the race's
// runner slice. The returned slice is overwritten by the next call.
func (s *sampler) draw(rng *rand.Rand) []int {
	for i := range s.theta {
		s.theta[i] = s.mu[i] + rng.NormFloat64()*s.sd[i]
	}
	return s.rank(rng)
}

// rank builds a finish order from the current latent scores by repeated softmax
// selection without replacement.
func (s *sampler) rank(rng *rand.Rand) []int {
	n := len(s.theta)
	remaining := s.remaining[:n]
	for i := range remaining {
		remaining[i] = i
	}

	for pos := 0; pos < n; pos++ {
		m := len(remaining)
		if m == 1 {
			s.order[pos] = remaining[0]
			break
		}

		hi, lo := math.Inf(-1), math.Inf(1)
		for _, idx := range remaining {
			t := s.theta[idx]
			if t > hi {
				hi = t
			}
			if t < lo {
				lo = t
			}
		}

		sum := 0.0
		for j, idx := range remaining {
			w := math.Exp(s.theta[idx] - hi)
			s.weights[j] = w
			sum += w
		}

		u := rng.Float64()
		var pick int
		if hi == lo || !(sum > 0) || math.IsInf(sum, 0) {
			pick = int(u * float64(m))
			if pick >= m {
				pick = m - 1
			}
			s.degenerate++
		} else {
			target := u * sum
			acc := 0.0
			pick = m - 1
			for j := 0; j < m; j++ {
				acc += s.weights[j]
				if target < acc {
					pick = j
					break
				}
			}
		}

		s.order[pos] = remaining[pick]
		remaining[pick] = remaining[m-1]
		remaining = remaining[:m-1]
	}
	return s.order
}
