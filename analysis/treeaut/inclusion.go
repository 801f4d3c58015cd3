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

import (
	"golang.org/x/tools/container/intsets"
)

// Subseteq returns true if the language of a is included in the language of b.
//
// The check runs the bottom-up determinization of b alongside a: it computes pairs (p, S) where p is a state of a
// and S is the set of states of b reached by some tree that reaches p. Only the pairs with a minimal S are kept
// (an antichain). The language of a is not included as soon as a final state of a is paired with a set containing no
// final state of b.
func Subseteq[L comparable](a, b *TA[L]) bool {
	bLabels := b.LabelCache()
	var bFinals intsets.Sparse
	for _, f := range b.FinalStates() {
		bFinals.Insert(f)
	}

	// antichain of macro-states of b, per state of a
	chain := map[int][]*intsets.Sparse{}

	// add inserts (p, s) unless a subset of s is already paired with p. It returns whether s was inserted.
	add := func(p int, s *intsets.Sparse) bool {
		kept := chain[p][:0]
		for _, o := range chain[p] {
			if o.SubsetOf(s) {
				return false
			}
		}
		for _, o := range chain[p] {
			if !s.SubsetOf(o) {
				kept = append(kept, o)
			}
		}
		chain[p] = append(kept, s)
		return true
	}

	post := func(t *Transition[L], choice []*intsets.Sparse) *intsets.Sparse {
		res := &intsets.Sparse{}
		for _, tb := range bLabels[t.label] {
			if len(tb.lhs) != len(choice) {
				continue
			}
			ok := true
			for k, s := range tb.lhs {
				if !choice[k].Has(s) {
					ok = false
					break
				}
			}
			if ok {
				res.Insert(tb.rhs)
			}
		}
		return res
	}

	rejects := func(p int, s *intsets.Sparse) bool {
		return a.IsFinalState(p) && !s.Intersects(&bFinals)
	}

	for _, t := range a.LeafTransitions() {
		s := post(t, nil)
		if rejects(t.rhs, s) {
			return false
		}
		add(t.rhs, s)
	}

	inner := make([]*Transition[L], 0, a.Len())
	for _, t := range a.trans {
		if len(t.lhs) > 0 {
			inner = append(inner, t)
		}
	}

	for changed := true; changed; {
		changed = false
		for _, t := range inner {
			// snapshot the antichains of the children: the enumeration below may extend them
			options := make([][]*intsets.Sparse, len(t.lhs))
			empty := false
			for k, p := range t.lhs {
				options[k] = append([]*intsets.Sparse(nil), chain[p]...)
				if len(options[k]) == 0 {
					empty = true
					break
				}
			}
			if empty {
				continue
			}
			choice := make([]*intsets.Sparse, len(t.lhs))
			var enumerate func(k int) bool
			enumerate = func(k int) bool {
				if k == len(t.lhs) {
					s := post(t, choice)
					if rejects(t.rhs, s) {
						return false
					}
					if add(t.rhs, s) {
						changed = true
					}
					return true
				}
				for _, o := range options[k] {
					choice[k] = o
					if !enumerate(k + 1) {
						return false
					}
				}
				return true
			}
			if !enumerate(0) {
				return false
			}
		}
	}
	return true
}
