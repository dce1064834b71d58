package forest

import (
	"math"
	"sort"
)

// leaf marks a node without a split
const leaf = -1

// Node is one entry of a flattened regression tree
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
}

// Tree is a CART regression tree stored as a flat node slice; node 0 is the root
type Tree struct {
	Nodes []Node
}

// Predict walks the tree for one feature vector
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature == leaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Depth returns the length of the longest root-to-leaf path
func (t *Tree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.Feature == leaf {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

// treeBuilder grows one tree over a fixed design matrix
type treeBuilder struct {
	x              [][]float64
	y              []float64
	numFeatures    int
	maxDepth       int
	minSamplesLeaf int
	nodes          []Node
}

// split is a candidate partition of a node
type split struct {
	feature   int
	threshold float64
	gain      float64
	sorted    []int
	at        int
}

func (b *treeBuilder) build(idx []int) Tree {
	b.nodes = b.nodes[:0]
	b.grow(idx, 0)
	return Tree{Nodes: append([]Node(nil), b.nodes...)}
}

// grow appends the subtree for idx and returns its node position
func (b *treeBuilder) grow(idx []int, depth int) int {
	pos := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: leaf, Value: b.mean(idx)})

	if len(idx) < 2*b.minSamplesLeaf {
		return pos
	}
	if b.maxDepth > 0 && depth >= b.maxDepth {
		return pos
	}
	if b.pure(idx) {
		return pos
	}

	best, ok := b.bestSplit(idx)
	if !ok {
		return pos
	}

	left := append([]int(nil), best.sorted[:best.at]...)
	right := append([]int(nil), best.sorted[best.at:]...)

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)

	b.nodes[pos] = Node{
		Feature:   best.feature,
		Threshold: best.threshold,
		Left:      l,
		Right:     r,
	}
	return pos
}

// bestSplit maximizes the variance reduction over every feature. Features are
// scanned in schema order and ties keep the earlier feature.
func (b *treeBuilder) bestSplit(idx []int) (split, bool) {
	n := len(idx)
	var total float64
	for _, i := range idx {
		total += b.y[i]
	}
	parent := total * total / float64(n)

	best := split{gain: 0}
	found := false
	sorted := make([]int, n)

	for f := 0; f < b.numFeatures; f++ {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, c int) bool {
			return b.x[sorted[a]][f] < b.x[sorted[c]][f]
		})

		var leftSum float64
		for k := 1; k < n; k++ {
			leftSum += b.y[sorted[k-1]]
			if k < b.minSamplesLeaf || n-k < b.minSamplesLeaf {
				continue
			}
			lo := b.x[sorted[k-1]][f]
			hi := b.x[sorted[k]][f]
			if lo >= hi {
				continue
			}
			rightSum := total - leftSum
			score := leftSum*leftSum/float64(k) + rightSum*rightSum/float64(n-k)
			gain := score - parent
			if gain > best.gain+1e-12 {
				threshold := lo + (hi-lo)/2
				// midpoint can round up to hi for adjacent floats
				if threshold >= hi {
					threshold = lo
				}
				best = split{
					feature:   f,
					threshold: threshold,
					gain:      gain,
					at:        k,
				}
				found = true
			}
		}
		if found && best.feature == f {
			best.sorted = append(best.sorted[:0], sorted...)
		}
	}

	return best, found
}

func (b *treeBuilder) mean(idx []int) float64 {
	if len(idx) == 0 {
		return math.NaN()
	}
	var s float64
	for _, i := range idx {
		s += b.y[i]
	}
	return s / float64(len(idx))
}

func (b *treeBuilder) pure(idx []int) bool {
	first := b.y[idx[0]]
	for _, i := range idx[1:] {
		if b.y[i] != first {
			return false
		}
	}
	return true
}
