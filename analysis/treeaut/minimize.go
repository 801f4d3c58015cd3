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

// Collapsed adds to dst the quotient of ta by the classes of the symmetric relation rel. Every state is replaced by
// the head of its class, which is the smallest state of the class in index order.
func (ta *TA[L]) Collapsed(dst *TA[L], rel *Relation, index *Index) *TA[L] {
	head := make([]int, index.Len())
	for i := range head {
		head[i] = i
		for j := 0; j < i; j++ {
			if rel.Get(i, j) && rel.Get(j, i) {
				head[i] = head[j]
				break
			}
		}
	}
	rename := func(s int) int {
		return index.State(head[index.Of(s)])
	}
	for _, t := range ta.trans {
		lhs := make([]int, len(t.lhs))
		for k, s := range t.lhs {
			lhs[k] = rename(s)
		}
		dst.AddTransition(lhs, t.label, rename(t.rhs))
	}
	for _, s := range ta.FinalStates() {
		dst.AddFinalState(rename(s))
	}
	return dst
}

// UselessFree adds to dst the transitions of ta whose states all derive some tree, and the final states that do.
func (ta *TA[L]) UselessFree(dst *TA[L]) *TA[L] {
	productive := map[int]bool{}
	pending := ta.trans
	for changed := true; changed; {
		changed = false
		var rest []*Transition[L]
		for _, t := range pending {
			ok := true
			for _, s := range t.lhs {
				if !productive[s] {
					ok = false
					break
				}
			}
			if !ok {
				rest = append(rest, t)
				continue
			}
			if !productive[t.rhs] {
				productive[t.rhs] = true
				changed = true
			}
		}
		pending = rest
	}
	for _, t := range ta.trans {
		ok := productive[t.rhs]
		for _, s := range t.lhs {
			ok = ok && productive[s]
		}
		if ok {
			dst.AddTransitionHandle(t)
		}
	}
	for _, s := range ta.FinalStates() {
		if productive[s] {
			dst.AddFinalState(s)
		}
	}
	return dst
}

// UnreachableFree adds to dst the transitions of ta reachable top-down from a final state, and the final states.
func (ta *TA[L]) UnreachableFree(dst *TA[L]) *TA[L] {
	reachable := map[int]bool{}
	for _, s := range ta.FinalStates() {
		reachable[s] = true
	}
	pending := ta.trans
	for changed := true; changed; {
		changed = false
		var rest []*Transition[L]
		for _, t := range pending {
			if !reachable[t.rhs] {
				rest = append(rest, t)
				continue
			}
			for _, s := range t.lhs {
				if !reachable[s] {
					reachable[s] = true
					changed = true
				}
			}
		}
		pending = rest
	}
	for _, t := range ta.trans {
		if reachable[t.rhs] {
			dst.AddTransitionHandle(t)
		}
	}
	dst.AddFinalStates(ta.FinalStates()...)
	return dst
}

// Minimized adds to dst the minimization of ta: states equivalent under downward simulation are merged, then useless
// and unreachable states are removed. The language is preserved.
func (ta *TA[L]) Minimized(dst *TA[L]) *TA[L] {
	index := ta.BuildStateIndex()
	rel := ta.DownwardSimulation(index)
	rel.Symmetric()
	tmp1 := ta.Collapsed(New(ta.backend), rel, index)
	tmp2 := tmp1.UselessFree(New(ta.backend))
	tmp1.Clear()
	tmp2.UnreachableFree(dst)
	tmp2.Clear()
	return dst
}
