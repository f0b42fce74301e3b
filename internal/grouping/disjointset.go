package grouping

// DisjointSet is a union-find forest over indices 0..n-1.
type DisjointSet struct {
	parent []int
	rank   []uint8
}

// NewDisjointSet returns n singleton sets.
func NewDisjointSet(n int) *DisjointSet {
	d := &DisjointSet{parent: make([]int, n), rank: make([]uint8, n)}
	for i := range d.parent {
		d.parent[i] = i
	}
	return d
}

// Len returns the number of elements.
func (d *DisjointSet) Len() int {
	return len(d.parent)
}

// Find returns the representative of i, halving the path as it walks.
func (d *DisjointSet) Find(i int) int {
	for d.parent[i] != i {
		d.parent[i] = d.parent[d.parent[i]]
		i = d.parent[i]
	}
	return i
}

// Union merges the sets holding a and b. It returns the new root and whether
// the sets were distinct.
func (d *DisjointSet) Union(a, b int) (int, bool) {
	ra, rb := d.Find(a), d.Find(b)
	if ra == rb {
		return ra, false
	}
	switch {
	case d.rank[ra] < d.rank[rb]:
		ra, rb = rb, ra
	case d.rank[ra] == d.rank[rb]:
		d.rank[ra]++
	}
	d.parent[rb] = ra
	return ra, true
}

// Connected reports whether a and b share a set.
func (d *DisjointSet) Connected(a, b int) bool {
	return d.Find(a) == d.Find(b)
}
