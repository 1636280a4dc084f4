package crf

import "math"

// Decoder runs inference over one model. The transition matrix is
// precomputed at construction; a Decoder is immutable and safe for
// concurrent use.
type Decoder struct {
	model *Model
	trans [][]float64
}

func NewDecoder(m *Model) *Decoder {
	return &Decoder{model: m, trans: m.TransScores()}
}

// Viterbi returns the highest-scoring label ID sequence for a sequence of
// attribute maps. Ties resolve to the lowest label ID, keeping decoding
// deterministic.
func (d *Decoder) Viterbi(features []map[string]float64) []int {
	T := len(features)
	if T == 0 {
		return nil
	}
	L := d.model.NumLabels
	state := d.model.StateScores(features)

	delta := make([][]float64, T)
	back := make([][]int, T)
	delta[0] = state[0]
	for t := 1; t < T; t++ {
		delta[t] = make([]float64, L)
		back[t] = make([]int, L)
		for y := 0; y < L; y++ {
			best := math.Inf(-1)
			bestPrev := 0
			for p := 0; p < L; p++ {
				if s := delta[t-1][p] + d.trans[p][y]; s > best {
					best = s
					bestPrev = p
				}
			}
			delta[t][y] = best + state[t][y]
			back[t][y] = bestPrev
		}
	}

	last := 0
	best := math.Inf(-1)
	for y := 0; y < L; y++ {
		if delta[T-1][y] > best {
			best = delta[T-1][y]
			last = y
		}
	}

	path := make([]int, T)
	path[T-1] = last
	for t := T - 1; t > 0; t-- {
		path[t-1] = back[t][path[t]]
	}
	return path
}

// Lattice holds the forward-backward quantities for one sequence, from
// which marginals and assignment probabilities are read off.
type Lattice struct {
	state [][]float64
	trans [][]float64
	alpha [][]float64
	beta  [][]float64
	logZ  float64
}

// Lattice runs the forward and backward passes in log space.
func (d *Decoder) Lattice(features []map[string]float64) *Lattice {
	T := len(features)
	L := d.model.NumLabels
	l := &Lattice{
		state: d.model.StateScores(features),
		trans: d.trans,
	}
	if T == 0 {
		return l
	}

	l.alpha = make([][]float64, T)
	l.alpha[0] = l.state[0]
	work := make([]float64, L)
	for t := 1; t < T; t++ {
		l.alpha[t] = make([]float64, L)
		for y := 0; y < L; y++ {
			for p := 0; p < L; p++ {
				work[p] = l.alpha[t-1][p] + l.trans[p][y]
			}
			l.alpha[t][y] = l.state[t][y] + logSumExp(work)
		}
	}

	l.beta = make([][]float64, T)
	l.beta[T-1] = make([]float64, L)
	for t := T - 2; t >= 0; t-- {
		l.beta[t] = make([]float64, L)
		for y := 0; y < L; y++ {
			for nx := 0; nx < L; nx++ {
				work[nx] = l.trans[y][nx] + l.state[t+1][nx] + l.beta[t+1][nx]
			}
			l.beta[t][y] = logSumExp(work)
		}
	}

	l.logZ = logSumExp(l.alpha[T-1])
	return l
}

// Marginal returns the probability that labelID applies at position pos,
// summed over all assignments of the other positions.
func (l *Lattice) Marginal(labelID, pos int) float64 {
	return math.Exp(l.alpha[pos][labelID] + l.beta[pos][labelID] - l.logZ)
}

// Score returns the unnormalized log score of a full label assignment.
func (l *Lattice) Score(labels []int) float64 {
	s := l.state[0][labels[0]]
	for t := 1; t < len(l.state); t++ {
		s += l.trans[labels[t-1]][labels[t]] + l.state[t][labels[t]]
	}
	return s
}

// Probability returns the normalized probability of a full assignment.
func (l *Lattice) Probability(labels []int) float64 {
	return math.Exp(l.Score(labels) - l.logZ)
}

// LogZ returns the log partition value of the sequence.
func (l *Lattice) LogZ() float64 {
	return l.logZ
}

func logSumExp(xs []float64) float64 {
	max := math.Inf(-1)
	for _, x := range xs {
		if x > max {
			max = x
		}
	}
	if math.IsInf(max, -1) {
		return max
	}
	var sum float64
	for _, x := range xs {
		sum += math.Exp(x - max)
	}
	return max + math.Log(sum)
}
