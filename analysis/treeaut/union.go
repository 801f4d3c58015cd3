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

// Rename adds to dst the transitions of src with every state s replaced by f(s). Final states are carried over when
// addFinals is set.
func Rename[L comparable](dst, src *TA[L], f func(int) int, addFinals bool) *TA[L] {
	for _, t := range src.trans {
		lhs := make([]int, len(t.lhs))
		for k, s := range t.lhs {
			lhs[k] = f(s)
		}
		dst.AddTransition(lhs, t.label, f(t.rhs))
	}
	if addFinals {
		for _, s := range src.FinalStates() {
			dst.AddFinalState(f(s))
		}
	}
	return dst
}

// Reduce adds to dst the transitions of src with states renumbered contiguously from offset, in order of first
// occurrence. The numbering is recorded in index, which may already contain states.
func Reduce[L comparable](dst, src *TA[L], index *Index, offset int, addFinals bool) *TA[L] {
	return Rename(dst, src, func(s int) int { return index.Add(s) + offset }, addFinals)
}

// DisjointUnion adds the transitions of src to dst, and its final states when addFinals is set. The states of both
// automata are not renamed: they should be disjoint, except for states meant to be shared.
func DisjointUnion[L comparable](dst, src *TA[L], addFinals bool) *TA[L] {
	for _, t := range src.trans {
		dst.AddTransitionHandle(t)
	}
	if addFinals {
		dst.AddFinalStates(src.FinalStates()...)
	}
	return dst
}

// UnfoldAtRoot adds to dst the transitions of ta and a copy of every accepting transition leading to newState, which
// becomes final when registerFinal is set. newState has no other occurrence in dst, so it can be modified without
// affecting the inner occurrences of the old final states.
func (ta *TA[L]) UnfoldAtRoot(dst *TA[L], newState int, registerFinal bool) *TA[L] {
	for _, t := range ta.trans {
		dst.AddTransitionHandle(t)
		if ta.IsFinalState(t.rhs) {
			dst.AddTransition(t.lhs, t.label, newState)
		}
	}
	if registerFinal {
		dst.AddFinalState(newState)
	}
	return dst
}
