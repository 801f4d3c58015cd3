// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package forest

import (
	"github.com/awslabs/ar-go-forester/internal/graphutil"
	"github.com/yourbasic/graph"
	"golang.org/x/tools/container/intsets"
	"gonum.org/v1/gonum/graph/topo"
)

// ConnectionGraph returns the graph with an edge from root i to root j when root i references root j. Freed roots
// have no edges.
func (f *FAE) ConnectionGraph() *graphutil.Digraph {
	g := graphutil.NewDigraph(len(f.Roots))
	for i := range f.Roots {
		for _, j := range f.References(i) {
			if j < len(f.Roots) {
				g.AddEdge(i, j)
			}
		}
	}
	return g
}

// varRoots returns the roots referenced by the variables
func (f *FAE) varRoots() []int {
	var res []int
	for _, d := range f.Vars {
		if d.IsRef() && f.ValidRoot(d.Root) {
			res = append(res, d.Root)
		}
	}
	return res
}

// Reachable returns the roots reachable from the roots in from
func (f *FAE) Reachable(from []int) *intsets.Sparse {
	g := f.ConnectionGraph()
	reached := &intsets.Sparse{}
	for _, r := range from {
		if reached.Has(r) {
			continue
		}
		reached.Insert(r)
		graph.BFS(g, r, func(_, w int, _ int64) {
			reached.Insert(w)
		})
	}
	return reached
}

// GarbageRoots returns the roots that are not freed and not reachable from the variables. The references in extra,
// typically registers, also keep their roots alive.
func (f *FAE) GarbageRoots(extra ...Data) []int {
	from := f.varRoots()
	for _, d := range extra {
		if d.IsRef() && f.ValidRoot(d.Root) {
			from = append(from, d.Root)
		}
	}
	reached := f.Reachable(from)
	var res []int
	for i, ta := range f.Roots {
		if ta != nil && !reached.Has(i) {
			res = append(res, i)
		}
	}
	return res
}

// CyclicRoots returns the set of roots lying on a cycle of the connection graph. Only those roots may be folded
// into a box.
func (f *FAE) CyclicRoots() map[int]bool {
	g := f.ConnectionGraph()
	res := map[int]bool{}
	for _, scc := range topo.TarjanSCC(g) {
		if len(scc) > 1 {
			for _, n := range scc {
				res[int(n.ID())] = true
			}
			continue
		}
		id := scc[0].ID()
		if g.HasEdgeFromTo(id, id) {
			res[int(id)] = true
		}
	}
	return res
}

// Signatures returns, for every non-data state of root, the set of roots referenced in the subtrees below the
// state. States with different signatures describe different connections and are never merged by abstraction.
func (f *FAE) Signatures(root int) map[int]*intsets.Sparse {
	ta := f.Roots[root]
	sig := map[int]*intsets.Sparse{}
	get := func(s int) *intsets.Sparse {
		x, ok := sig[s]
		if !ok {
			x = &intsets.Sparse{}
			sig[s] = x
		}
		return x
	}
	for changed := true; changed; {
		changed = false
		for _, t := range ta.Transitions() {
			if IsData(t.Rhs()) {
				continue
			}
			x := get(t.Rhs())
			before := x.Len()
			for _, s := range t.Lhs() {
				if IsData(s) {
					if d := f.boxes.DataOf(s); d.IsRef() {
						x.Insert(d.Root)
					}
					continue
				}
				if s != t.Rhs() {
					x.UnionWith(get(s))
				}
			}
			if x.Len() != before {
				changed = true
			}
		}
	}
	return sig
}
