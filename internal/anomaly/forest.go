package anomaly

import (
	"math"
	"math/rand/v2"
)

// forest is an isolation forest: an ensemble of randomized binary trees
// where short average path lengths mark easily isolated, anomalous points.
type forest struct {
	trees      []*treeNode
	sampleSize int
}

type treeNode struct {
	// Internal nodes split on feature < split.
	feature int
	split   float64
	left    *treeNode
	right   *treeNode

	// External nodes record the size of the unresolved partition.
	size int
}

func newForest(data [][]float64, cfg Config) *forest {
	sample := min(cfg.SampleSize, len(data))
	maxDepth := int(math.Ceil(math.Log2(float64(sample))))
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))

	f := &forest{
		trees:      make([]*treeNode, cfg.Estimators),
		sampleSize: sample,
	}

	for t := range f.trees {
		idx := rng.Perm(len(data))[:sample]
		subset := make([][]float64, sample)
		for i, j := range idx {
			subset[i] = data[j]
		}
		f.trees[t] = buildTree(subset, 0, maxDepth, rng)
	}
	return f
}

func buildTree(data [][]float64, depth, maxDepth int, rng *rand.Rand) *treeNode {
	if len(data) <= 1 || depth >= maxDepth {
		return &treeNode{feature: -1, size: len(data)}
	}

	feature := rng.IntN(len(data[0]))
	lo, hi := data[0][feature], data[0][feature]
	for _, v := range data[1:] {
		lo = min(lo, v[feature])
		hi = max(hi, v[feature])
	}
	if lo == hi {
		// Constant feature in this partition: the points are not
		// separable on it, stop here.
		return &treeNode{feature: -1, size: len(data)}
	}

	split := lo + rng.Float64()*(hi-lo)

	var left, right [][]float64
	for _, v := range data {
		if v[feature] < split {
			left = append(left, v)
		} else {
			right = append(right, v)
		}
	}

	return &treeNode{
		feature: feature,
		split:   split,
		left:    buildTree(left, depth+1, maxDepth, rng),
		right:   buildTree(right, depth+1, maxDepth, rng),
	}
}

// score computes the isolation-forest anomaly score
// s(x) = 2^(-E[h(x)] / c(sampleSize)); higher means more anomalous.
func (f *forest) score(v []float64) float64 {
	total := 0.0
	for _, t := range f.trees {
		total += pathLength(t, v, 0)
	}
	avg := total / float64(len(f.trees))
	return math.Pow(2, -avg/avgPathLength(f.sampleSize))
}

func pathLength(n *treeNode, v []float64, depth float64) float64 {
	if n.feature < 0 {
		return depth + avgPathLength(n.size)
	}
	if v[n.feature] < n.split {
		return pathLength(n.left, v, depth+1)
	}
	return pathLength(n.right, v, depth+1)
}

const eulerGamma = 0.5772156649015329

// avgPathLength is c(n), the expected path length of an unsuccessful BST
// search over n points, used to normalize depths at external nodes.
func avgPathLength(n int) float64 {
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
