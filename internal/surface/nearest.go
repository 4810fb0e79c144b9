package surface

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// site is a sample location carrying the reconstructed value.
type site struct {
	X, Y, V float64
}

// Compare implements the kdtree.Comparable interface
func (p site) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(site)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	default:
		panic("illegal dimension")
	}
}

func (p site) Dims() int { return 2 }

// Distance returns the squared Euclidean distance.
func (p site) Distance(c kdtree.Comparable) float64 {
	q := c.(site)
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

// sites satisfies kdtree.Interface.
type sites []site

func (p sites) Index(i int) kdtree.Comparable         { return p[i] }
func (p sites) Len() int                              { return len(p) }
func (p sites) Slice(start, end int) kdtree.Interface { return p[start:end] }

func (p sites) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(sitePlane{sites: p, Dim: d}, kdtree.MedianOfRandoms(sitePlane{sites: p, Dim: d}, 100))
}

// sitePlane implements sort.Interface and kdtree.SortSlicer along one axis.
type sitePlane struct {
	sites
	kdtree.Dim
}

func (p sitePlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.sites[i].X < p.sites[j].X
	case 1:
		return p.sites[i].Y < p.sites[j].Y
	default:
		panic("illegal dimension")
	}
}

func (p sitePlane) Slice(start, end int) kdtree.SortSlicer {
	return sitePlane{sites: p.sites[start:end], Dim: p.Dim}
}

func (p sitePlane) Swap(i, j int) {
	p.sites[i], p.sites[j] = p.sites[j], p.sites[i]
}

// Nearest answers "value of the closest sample" queries.
type Nearest struct {
	tree *kdtree.Tree
	n    int
}

func newNearest(s sites) *Nearest {
	// kdtree.New reorders its input.
	own := make(sites, len(s))
	copy(own, s)
	return &Nearest{tree: kdtree.New(own, false), n: len(own)}
}

// Len is the number of sites.
func (n *Nearest) Len() int { return n.n }

// At returns the value of the site closest to (x, y), or NaN when there are
// no sites.
func (n *Nearest) At(x, y float64) float64 {
	got, _ := n.tree.Nearest(site{X: x, Y: y})
	if got == nil {
		return math.NaN()
	}
	return got.(site).V
}
