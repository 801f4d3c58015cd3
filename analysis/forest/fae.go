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
	"strings"

	"github.com/awslabs/ar-go-forester/analysis/treeaut"
	"github.com/awslabs/ar-go-forester/internal/formatutil"
	"golang.org/x/exp/slices"
)

// TA is the tree automaton type of the forest automata
type TA = treeaut.TA[*Label]

// Transition is the transition type of the forest automata
type Transition = treeaut.Transition[*Label]

// FAE is a forest automaton: an ordered tuple of root automata and a table of global variables. A heap is in the
// language of the FAE when it can be split at its cutpoints into trees accepted by the roots, where a reference to a
// cutpoint is the data value Ref(i, 0) of root i.
//
// Non-data states are never shared between two roots of the same FAE. Data states are shared by all automata of the
// BoxManager.
type FAE struct {
	boxes   *BoxManager
	backend *treeaut.Backend[*Label]

	// Roots are the root automata; a nil root is a freed node that normalization removes
	Roots []*TA

	// Vars are the global variables
	Vars []Data

	next int
}

// NewFAE returns an empty forest automaton
func NewFAE(backend *treeaut.Backend[*Label], boxes *BoxManager) *FAE {
	return &FAE{boxes: boxes, backend: backend}
}

// Boxes returns the manager of the FAE
func (f *FAE) Boxes() *BoxManager {
	return f.boxes
}

// Backend returns the transition backend of the roots
func (f *FAE) Backend() *treeaut.Backend[*Label] {
	return f.backend
}

// Clone returns a copy of the FAE sharing its transitions
func (f *FAE) Clone() *FAE {
	c := &FAE{boxes: f.boxes, backend: f.backend, next: f.next}
	c.Roots = make([]*TA, len(f.Roots))
	for i, r := range f.Roots {
		if r != nil {
			c.Roots[i] = r.Clone()
		}
	}
	c.Vars = slices.Clone(f.Vars)
	return c
}

// Release releases the transitions of every root
func (f *FAE) Release() {
	for _, r := range f.Roots {
		if r != nil {
			r.Clear()
		}
	}
	f.Roots = nil
}

// FreshState returns a state not used by any root
func (f *FAE) FreshState() int {
	s := f.next
	f.next++
	if IsData(s) {
		panic("forest: state counter overflow")
	}
	return s
}

// RootCount returns the number of roots, including freed ones
func (f *FAE) RootCount() int {
	return len(f.Roots)
}

// AppendRoot adds ta as a new root and returns its index
func (f *FAE) AppendRoot(ta *TA) int {
	f.Roots = append(f.Roots, ta)
	return len(f.Roots) - 1
}

// ValidRoot returns true if root is the index of a root that has not been freed
func (f *FAE) ValidRoot(root int) bool {
	return root >= 0 && root < len(f.Roots) && f.Roots[root] != nil
}

func (f *FAE) dataLeaf(ta *TA, d Data) int {
	s := f.boxes.DataState(d)
	ta.AddTransition(nil, f.boxes.DataLabel(d), s)
	return s
}

// NodeCreate adds a root accepting one node of type t whose selectors are all undefined, and returns its index
func (f *FAE) NodeCreate(t *TypeInfo) int {
	ta := treeaut.New(f.backend)
	items := make([]Item, len(t.Offsets))
	lhs := make([]int, len(t.Offsets))
	for i, off := range t.Offsets {
		items[i] = Sel(off)
		lhs[i] = f.dataLeaf(ta, Undef())
	}
	q := f.FreshState()
	ta.AddTransition(lhs, f.boxes.NodeLabel(t, items), q)
	ta.AddFinalState(q)
	return f.AppendRoot(ta)
}

// AcceptingTransition returns the only accepting transition of root. It panics if the root is not isolated.
func (f *FAE) AcceptingTransition(root int) *Transition {
	return f.Roots[root].AcceptingTransition()
}

// replaceRoot swaps the automaton of root and releases the old one
func (f *FAE) replaceRoot(root int, ta *TA) {
	old := f.Roots[root]
	f.Roots[root] = ta
	if old != nil && old != ta {
		old.Clear()
	}
}

// pruneRoot removes the transitions of root that are not reachable from its final state
func (f *FAE) pruneRoot(root int) {
	f.replaceRoot(root, f.Roots[root].UnreachableFree(treeaut.New(f.backend)))
}

// UnreachableFree prunes every root
func (f *FAE) UnreachableFree() {
	for i, r := range f.Roots {
		if r != nil {
			f.pruneRoot(i)
		}
	}
}

// References returns the roots referenced by root, in order of a top-down traversal from its final states that
// visits children from left to right.
func (f *FAE) References(root int) []int {
	ta := f.Roots[root]
	if ta == nil {
		return nil
	}
	td := ta.TDCache()
	visited := map[int]bool{}
	seen := map[int]bool{}
	var refs []int
	var visit func(s int)
	visit = func(s int) {
		if visited[s] {
			return
		}
		visited[s] = true
		if IsData(s) {
			if d := f.boxes.DataOf(s); d.IsRef() && !seen[d.Root] {
				seen[d.Root] = true
				refs = append(refs, d.Root)
			}
			return
		}
		for _, t := range td[s] {
			for _, c := range t.Lhs() {
				visit(c)
			}
		}
	}
	for _, s := range ta.FinalStates() {
		visit(s)
	}
	return refs
}

// refStats counts the syntactic occurrences of references to every root in the transitions of all roots, and
// records the roots referenced with a non-zero displacement.
func (f *FAE) refStats() (occurrences []int, displaced []bool) {
	occurrences = make([]int, len(f.Roots))
	displaced = make([]bool, len(f.Roots))
	for _, ta := range f.Roots {
		if ta == nil {
			continue
		}
		for _, t := range ta.Transitions() {
			for _, s := range t.Lhs() {
				if !IsData(s) {
					continue
				}
				d := f.boxes.DataOf(s)
				if !d.IsRef() || d.Root >= len(f.Roots) {
					continue
				}
				occurrences[d.Root]++
				if d.Displ != 0 {
					displaced[d.Root] = true
				}
			}
		}
	}
	for _, d := range f.Vars {
		if d.IsRef() && d.Displ != 0 && d.Root < len(f.Roots) {
			displaced[d.Root] = true
		}
	}
	return occurrences, displaced
}

// relabelData returns a copy of ta where every data value d is replaced by g(d), and whether anything changed
func (f *FAE) relabelData(ta *TA, g func(Data) Data) (*TA, bool) {
	res := treeaut.New(f.backend)
	changed := false
	state := func(s int) int {
		if !IsData(s) {
			return s
		}
		d := f.boxes.DataOf(s)
		nd := g(d)
		if nd != d {
			changed = true
		}
		return f.boxes.DataState(nd)
	}
	for _, t := range ta.Transitions() {
		if t.Label().IsData() {
			f.dataLeaf(res, g(t.Label().Data))
			continue
		}
		lhs := make([]int, t.Arity())
		for k, s := range t.Lhs() {
			lhs[k] = state(s)
		}
		res.AddTransition(lhs, t.Label(), t.Rhs())
	}
	res.AddFinalStates(ta.FinalStates()...)
	return res, changed
}

// MapData replaces every data value d in the roots and the variables by g(d)
func (f *FAE) MapData(g func(Data) Data) {
	for i, ta := range f.Roots {
		if ta == nil {
			continue
		}
		res, changed := f.relabelData(ta, g)
		if changed {
			f.replaceRoot(i, res)
			f.pruneRoot(i)
		} else {
			res.Clear()
		}
	}
	for i, d := range f.Vars {
		f.Vars[i] = g(d)
	}
}

// InvalidateReferences replaces every reference to root by the undefined value
func (f *FAE) InvalidateReferences(root int) {
	f.MapData(func(d Data) Data {
		if d.IsRef() && d.Root == root {
			return Undef()
		}
		return d
	})
}

// RelocateData maps a reference through index, the relocation returned by Normalize. References to removed roots
// become undefined.
func RelocateData(d Data, index []int) Data {
	if !d.IsRef() {
		return d
	}
	if d.Root >= len(index) || index[d.Root] < 0 {
		return Undef()
	}
	return Ref(index[d.Root], d.Displ)
}

// Relocate renumbers the references of the roots and the variables with index
func (f *FAE) Relocate(index []int) {
	f.MapData(func(d Data) Data { return RelocateData(d, index) })
}

// FreeRoot removes root and invalidates the references to it
func (f *FAE) FreeRoot(root int) {
	f.replaceRoot(root, nil)
	f.InvalidateReferences(root)
}

// SetVar sets the variable i, growing the table when i is the next index
func (f *FAE) SetVar(i int, d Data) {
	if i == len(f.Vars) {
		f.Vars = append(f.Vars, d)
		return
	}
	f.Vars[i] = d
}

// StateName prints a state of a root
func (f *FAE) StateName(s int) string {
	return f.boxes.StateName(s)
}

func (f *FAE) String() string {
	var b strings.Builder
	b.WriteString("vars: ")
	b.WriteString(varsKey(f.Vars))
	b.WriteString("\n")
	for i, ta := range f.Roots {
		if ta == nil {
			fmt.Fprintf(&b, "root %d: freed\n", i)
			continue
		}
		fmt.Fprintf(&b, "%s\n", formatutil.Bold(fmt.Sprintf("root %d:", i)))
		b.WriteString(formatutil.Listing("  ", ta.Format(f.StateName)))
	}
	return b.String()
}
