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

// MatchFunc decides whether two transitions may be considered alike when merging their parent states
type MatchFunc[L comparable] func(t1, t2 *Transition[L]) bool

// ExactMatch matches transitions with the same label
func ExactMatch[L comparable](t1, t2 *Transition[L]) bool {
	return t1.label == t2.label
}

// HeightAbstraction refines rel, a relation of merge candidates over the states of index, for height rounds. In each
// round, a pair (i, j) is kept only if some transition into i and some transition into j match and have pairwise
// related children in the relation of the previous round. The result is made symmetric.
func (ta *TA[L]) HeightAbstraction(rel *Relation, height int, match MatchFunc[L], index *Index) {
	td := ta.TDCache()
	for ; height > 0; height-- {
		prev := rel.Clone()
		for i := 0; i < index.Len(); i++ {
			ti := td[index.State(i)]
			for j := 0; j < index.Len(); j++ {
				if i == j || !prev.Get(i, j) {
					continue
				}
				if !anyMatch(ti, td[index.State(j)], match, prev, index) {
					rel.Set(i, j, false)
				}
			}
		}
	}
	rel.Symmetric()
}

func anyMatch[L comparable](ts1, ts2 []*Transition[L], match MatchFunc[L], rel *Relation, index *Index) bool {
	for _, t1 := range ts1 {
		for _, t2 := range ts2 {
			if transMatch(t1, t2, match, rel, index) {
				return true
			}
		}
	}
	return false
}

func transMatch[L comparable](t1, t2 *Transition[L], match MatchFunc[L], rel *Relation, index *Index) bool {
	if len(t1.lhs) != len(t2.lhs) || !match(t1, t2) {
		return false
	}
	for k := range t1.lhs {
		if !rel.Get(index.Of(t1.lhs[k]), index.Of(t2.lhs[k])) {
			return false
		}
	}
	return true
}
