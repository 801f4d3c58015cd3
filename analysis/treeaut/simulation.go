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

// DownwardSimulation computes the largest downward simulation over the states of index: (i, j) is in the result when
// every transition into state i is matched by a transition into state j with the same label whose children simulate
// the children of the first transition position-wise.
func (ta *TA[L]) DownwardSimulation(index *Index) *Relation {
	n := index.Len()
	rel := FullRelation(n)
	td := ta.TDCache()

	matched := func(t1 *Transition[L], candidates []*Transition[L]) bool {
		for _, t2 := range candidates {
			if t1.label != t2.label || len(t1.lhs) != len(t2.lhs) {
				continue
			}
			ok := true
			for k := range t1.lhs {
				if !rel.Get(index.Of(t1.lhs[k]), index.Of(t2.lhs[k])) {
					ok = false
					break
				}
			}
			if ok {
				return true
			}
		}
		return false
	}

	for changed := true; changed; {
		changed = false
		for i := 0; i < n; i++ {
			ti := td[index.State(i)]
			for j := 0; j < n; j++ {
				if i == j || !rel.Get(i, j) {
					continue
				}
				tj := td[index.State(j)]
				for _, t1 := range ti {
					if !matched(t1, tj) {
						rel.Set(i, j, false)
						changed = true
						break
					}
				}
			}
		}
	}
	return rel
}
