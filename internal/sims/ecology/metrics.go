package ecology

import "dyngrid/pkg/engine"

// Metrics summarizes one ecology frame.
type Metrics struct {
	Dirt, Grass, Shrub, Tree, Rock, Burning int

	// TotalVegetated counts grass, shrub and tree cells.
	TotalVegetated int

	// ClusterHistogram[n] is the number of orthogonally connected vegetated
	// clusters of size n. The last bucket collects every larger cluster.
	ClusterHistogram []int
}

// maxClusterBucket bounds the histogram length.
const maxClusterBucket = 64

// Census counts cell states and vegetated clusters in a rank-2 frame.
func Census(frame *engine.Array[float64]) Metrics {
	var m Metrics
	m.ClusterHistogram = make([]int, maxClusterBucket+1)
	cells := frame.Cells()
	for _, v := range cells {
		switch {
		case v == Dirt:
			m.Dirt++
		case v == Grass:
			m.Grass++
		case v == Shrub:
			m.Shrub++
		case v == Tree:
			m.Tree++
		case v == Rock:
			m.Rock++
		case Burning(v):
			m.Burning++
		}
	}
	m.TotalVegetated = m.Grass + m.Shrub + m.Tree

	shape := frame.Shape()
	if len(shape) != 2 {
		return m
	}
	h, w := shape[0], shape[1]
	seen := make([]bool, len(cells))
	var stack []int
	for start, v := range cells {
		if seen[start] || !Vegetated(v) {
			continue
		}
		size := 0
		seen[start] = true
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			size++
			y, x := i/w, i%w
			for _, n := range [4][2]int{{y - 1, x}, {y + 1, x}, {y, x - 1}, {y, x + 1}} {
				if n[0] < 0 || n[0] >= h || n[1] < 0 || n[1] >= w {
					continue
				}
				j := n[0]*w + n[1]
				if !seen[j] && Vegetated(cells[j]) {
					seen[j] = true
					stack = append(stack, j)
				}
			}
		}
		m.ClusterHistogram[min(size, maxClusterBucket)]++
	}
	return m
}
