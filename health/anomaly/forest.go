package anomaly

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const eulerGamma = 0.5772156649015329

// Forest is an isolation forest over one-dimensional values. Points that
// are isolated by few random splits score close to 1.
type Forest struct {
	trees      []*node
	sampleSize int
}

type node struct {
	split       float64
	left, right *node

	// size is set on external nodes only.
	size     int
	external bool
}

// FitForest builds an isolation forest. The same values and seed always
// produce the same forest.
func FitForest(values []float64, trees, sampleSize int, seed int64) *Forest {
	rng := rand.New(rand.NewSource(seed))

	psi := sampleSize
	if psi > len(values) {
		psi = len(values)
	}
	heightLimit := int(math.Ceil(math.Log2(float64(max(psi, 2)))))

	f := &Forest{trees: make([]*node, 0, trees), sampleSize: psi}
	for t := 0; t < trees; t++ {
		perm := rng.Perm(len(values))
		sample := make([]float64, psi)
		for i := 0; i < psi; i++ {
			sample[i] = values[perm[i]]
		}
		f.trees = append(f.trees, grow(sample, 0, heightLimit, rng))
	}
	return f
}

func grow(values []float64, depth, limit int, rng *rand.Rand) *node {
	if depth >= limit || len(values) <= 1 {
		return &node{external: true, size: len(values)}
	}
	lo, hi := floats.Min(values), floats.Max(values)
	if lo == hi {
		return &node{external: true, size: len(values)}
	}

	split := lo + rng.Float64()*(hi-lo)
	var left, right []float64
	for _, v := range values {
		if v < split {
			left = append(left, v)
		} else {
			right = append(right, v)
		}
	}
	return &node{
		split: split,
		left:  grow(left, depth+1, limit, rng),
		right: grow(right, depth+1, limit, rng),
	}
}

// Score returns the anomaly score of v in (0, 1].
func (f *Forest) Score(v float64) float64 {
	if len(f.trees) == 0 {
		return 0
	}
	lengths := make([]float64, len(f.trees))
	for i, t := range f.trees {
		lengths[i] = pathLength(t, v, 0)
	}
	norm := averagePathLength(f.sampleSize)
	if norm == 0 {
		return 1
	}
	return math.Pow(2, -stat.Mean(lengths, nil)/norm)
}

func pathLength(n *node, v float64, depth int) float64 {
	for !n.external {
		if v < n.split {
			n = n.left
		} else {
			n = n.right
		}
		depth++
	}
	return float64(depth) + averagePathLength(n.size)
}

// averagePathLength is the expected path length of an unsuccessful search
// in a binary search tree of n points.
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	default:
		fn := float64(n)
		return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
	}
}
