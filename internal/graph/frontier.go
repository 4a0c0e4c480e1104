package graph

import (
	"container/heap"
	"sort"

	"github.com/sells-group/munigraph-cli/internal/model"
)

// candidate is a scored neighbor under consideration.
type candidate struct {
	muni     *model.Municipality
	distance float64
}

// frontier keeps the k closest candidates seen so far. It is a max-heap on
// distance so the farthest retained candidate sits at the root and is the
// one evicted when a closer candidate arrives.
type frontier struct {
	k     int
	items []candidate
}

func newFrontier(k int) *frontier {
	return &frontier{k: k, items: make([]candidate, 0, k)}
}

func (f *frontier) Len() int { return len(f.items) }

func (f *frontier) Less(i, j int) bool {
	if f.items[i].distance != f.items[j].distance {
		return f.items[i].distance > f.items[j].distance
	}
	// Ties evict the lexically larger code so results stay deterministic.
	return f.items[i].muni.Code > f.items[j].muni.Code
}

func (f *frontier) Swap(i, j int) { f.items[i], f.items[j] = f.items[j], f.items[i] }

func (f *frontier) Push(x any) { f.items = append(f.items, x.(candidate)) }

func (f *frontier) Pop() any {
	old := f.items
	n := len(old)
	c := old[n-1]
	f.items = old[:n-1]
	return c
}

// Consider offers a candidate. Below capacity it is always retained;
// at capacity it replaces the current farthest only if strictly closer.
func (f *frontier) Consider(c candidate) {
	if len(f.items) < f.k {
		heap.Push(f, c)
		return
	}
	if c.distance >= f.items[0].distance {
		return
	}
	f.items[0] = c
	heap.Fix(f, 0)
}

// Ascending returns the retained candidates ordered by increasing distance,
// code-tiebroken. The frontier is left empty.
func (f *frontier) Ascending() []candidate {
	out := f.items
	f.items = nil
	sort.Slice(out, func(i, j int) bool {
		if out[i].distance != out[j].distance {
			return out[i].distance < out[j].distance
		}
		return out[i].muni.Code < out[j].muni.Code
	})
	return out
}
