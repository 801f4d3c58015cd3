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

package treeaut

import "golang.org/x/exp/slices"

// Intersection adds to dst the product of a and b and returns the map from pairs of states to product states.
// Product states are numbered from offset in order of discovery.
//
// The product is built bottom-up: pairs of leaf transitions with the same label give the first product states, then
// the construction is closed upward. Only labels that occur in both automata are ever combined, so the construction
// terminates whatever the alphabet is.
func Intersection[L comparable](dst, a, b *TA[L], offset int) map[[2]int]int {
	product := map[[2]int]int{}
	bLabels := b.LabelCache()

	pairState := func(p [2]int) (int, bool) {
		if s, ok := product[p]; ok {
			return s, false
		}
		s := offset + len(product)
		product[p] = s
		return s, true
	}

	var worklist [][2]int
	for _, ta := range a.LeafTransitions() {
		for _, tb := range bLabels[ta.label] {
			if len(tb.lhs) != 0 {
				continue
			}
			p := [2]int{ta.rhs, tb.rhs}
			s, fresh := pairState(p)
			dst.AddTransition(nil, ta.label, s)
			if fresh {
				worklist = append(worklist, p)
			}
		}
	}

	aBU := a.BUCache()
	for len(worklist) > 0 {
		p := worklist[0]
		worklist = worklist[1:]
		for _, ta := range aBU[p[0]] {
			for _, tb := range bLabels[ta.label] {
				if len(tb.lhs) != len(ta.lhs) {
					continue
				}
				lhs := make([]int, len(ta.lhs))
				complete := true
				usesP := false
				for i := range ta.lhs {
					q := [2]int{ta.lhs[i], tb.lhs[i]}
					s, ok := product[q]
					if !ok {
						complete = false
						break
					}
					if q == p {
						usesP = true
					}
					lhs[i] = s
				}
				if !complete || !usesP {
					continue
				}
				r := [2]int{ta.rhs, tb.rhs}
				s, fresh := pairState(r)
				dst.AddTransition(lhs, ta.label, s)
				if fresh {
					worklist = append(worklist, r)
				}
			}
		}
	}

	for p, s := range product {
		if a.IsFinalState(p[0]) && b.IsFinalState(p[1]) {
			dst.AddFinalState(s)
		}
	}
	return product
}

// IntersectingStates returns the states of ta whose language intersects the language of some final state of
// predicate, in increasing order
func (ta *TA[L]) IntersectingStates(predicate *TA[L]) []int {
	tmp := New(NewBackend[L]())
	product := Intersection(tmp, ta, predicate, 0)
	var res []int
	seen := map[int]bool{}
	for p := range product {
		if predicate.IsFinalState(p[1]) && !seen[p[0]] {
			seen[p[0]] = true
			res = append(res, p[0])
		}
	}
	slices.Sort(res)
	return res
}

// PredicateAbstraction removes from rel every pair involving a state whose language does not intersect predicate
func (ta *TA[L]) PredicateAbstraction(rel *Relation, predicate *TA[L], index *Index) {
	keep := map[int]bool{}
	for _, s := range ta.IntersectingStates(predicate) {
		if i, ok := index.Lookup(s); ok {
			keep[i] = true
		}
	}
	for i := 0; i < rel.Size(); i++ {
		if keep[i] {
			continue
		}
		for j := 0; j < rel.Size(); j++ {
			if j != i {
				rel.Set(i, j, false)
				rel.Set(j, i, false)
			}
		}
	}
}
