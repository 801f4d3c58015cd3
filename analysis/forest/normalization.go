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
	"fmt"

	"github.com/awslabs/ar-go-forester/analysis/treeaut"
	"golang.org/x/exp/slices"
)

// Scan traverses the roots depth-first from the variables and returns the traversal order and the roots that must
// stay cutpoints. A root is marked when it is referenced by a variable, reached twice, referenced more than once or
// with a displacement, forbidden, or when it is root 0. Roots unreachable from the variables are garbage: they are
// appended to the order and marked.
func (f *FAE) Scan(forbidden map[int]bool) (marked []bool, order []int) {
	n := len(f.Roots)
	marked = make([]bool, n)
	visited := make([]bool, n)
	var visit func(r int)
	visit = func(r int) {
		if visited[r] {
			marked[r] = true
			return
		}
		visited[r] = true
		order = append(order, r)
		for _, s := range f.References(r) {
			if f.ValidRoot(s) {
				visit(s)
			}
		}
	}
	for _, d := range f.Vars {
		if d.IsRef() && f.ValidRoot(d.Root) {
			marked[d.Root] = true
			visit(d.Root)
		}
	}
	occurrences, displaced := f.refStats()
	for r := 0; r < n; r++ {
		if !f.ValidRoot(r) {
			continue
		}
		if !visited[r] {
			visited[r] = true
			order = append(order, r)
			marked[r] = true
		}
		if r == 0 || forbidden[r] || displaced[r] || occurrences[r] > 1 {
			marked[r] = true
		}
	}
	return marked, order
}

// Normalize merges every unmarked root into the root referencing it, then renumbers the remaining roots in the
// traversal order. It returns the relocation: the new index of every old root, or -1 if it was merged or freed.
func (f *FAE) Normalize(marked []bool, order []int) []int {
	for i := len(order) - 1; i >= 0; i-- {
		r := order[i]
		if !marked[r] && f.Roots[r] != nil {
			f.mergeIntoReferrer(r)
		}
	}
	index := make([]int, len(f.Roots))
	for i := range index {
		index[i] = -1
	}
	var roots []*TA
	for _, r := range order {
		if f.Roots[r] != nil && index[r] < 0 {
			index[r] = len(roots)
			roots = append(roots, f.Roots[r])
		}
	}
	f.Roots = roots
	f.Relocate(index)
	return index
}

// mergeIntoReferrer replaces the single reference to r by the automaton of r
func (f *FAE) mergeIntoReferrer(r int) {
	ref := f.boxes.DataState(Ref(r, 0))
	finals := f.Roots[r].FinalStates()
	for p, ta := range f.Roots {
		if ta == nil || p == r {
			continue
		}
		found := false
		for _, t := range ta.Transitions() {
			if slices.Contains(t.Lhs(), ref) {
				found = true
				break
			}
		}
		if !found {
			continue
		}
		res := treeaut.New(f.backend)
		for _, t := range ta.Transitions() {
			if t.Rhs() == ref {
				continue
			}
			pos := slices.Index(t.Lhs(), ref)
			if pos < 0 {
				res.AddTransitionHandle(t)
				continue
			}
			for _, q := range finals {
				lhs := slices.Clone(t.Lhs())
				lhs[pos] = q
				res.AddTransition(lhs, t.Label(), t.Rhs())
			}
		}
		treeaut.DisjointUnion(res, f.Roots[r], false)
		res.AddFinalStates(ta.FinalStates()...)
		f.replaceRoot(p, res)
		f.replaceRoot(r, nil)
		return
	}
	panic(fmt.Sprintf("forest: root %d has no referrer", r))
}

// NearbyReferences returns the roots referenced directly by the accepting transitions of root
func (f *FAE) NearbyReferences(root int) map[int]bool {
	res := map[int]bool{}
	if !f.ValidRoot(root) {
		return res
	}
	for _, t := range f.Roots[root].AcceptingTransitions() {
		for _, s := range t.Lhs() {
			if !IsData(s) {
				continue
			}
			if d := f.boxes.DataOf(s); d.IsRef() {
				res[d.Root] = true
			}
		}
	}
	return res
}
