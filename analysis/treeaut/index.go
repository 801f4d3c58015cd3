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

// Index numbers a set of states contiguously from 0
type Index struct {
	pos    map[int]int
	states []int
}

// NewIndex returns an empty index
func NewIndex() *Index {
	return &Index{pos: map[int]int{}}
}

// BuildStateIndex returns the index of the states of ta, numbered in increasing order of state
func (ta *TA[L]) BuildStateIndex() *Index {
	idx := NewIndex()
	for _, s := range ta.States() {
		idx.Add(s)
	}
	return idx
}

// Add numbers s if it is not yet indexed and returns its number
func (idx *Index) Add(s int) int {
	if i, ok := idx.pos[s]; ok {
		return i
	}
	i := len(idx.states)
	idx.pos[s] = i
	idx.states = append(idx.states, s)
	return i
}

// Of returns the number of s. It panics if s is not indexed.
func (idx *Index) Of(s int) int {
	i, ok := idx.pos[s]
	if !ok {
		panic("treeaut: state is not in the index")
	}
	return i
}

// Lookup returns the number of s and whether it is indexed
func (idx *Index) Lookup(s int) (int, bool) {
	i, ok := idx.pos[s]
	return i, ok
}

// State returns the state numbered i
func (idx *Index) State(i int) int {
	return idx.states[i]
}

// Len returns the number of indexed states
func (idx *Index) Len() int {
	return len(idx.states)
}

// States returns the indexed states, by increasing number
func (idx *Index) States() []int {
	res := make([]int, len(idx.states))
	copy(res, idx.states)
	return res
}
