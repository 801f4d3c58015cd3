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

// UnsupportedError reports an operation that the forest automaton cannot perform on its current shape, such as
// accessing a selector folded inside a box from its back side.
type UnsupportedError struct {
	Msg string
}

func (e *UnsupportedError) Error() string {
	return e.Msg
}

func unsupported(format string, args ...any) error {
	return &UnsupportedError{Msg: fmt.Sprintf(format, args...)}
}

// setTop makes the node label(lhs) the only accepting transition of root, under a fresh final state. Inner
// occurrences of the old final states keep their transitions.
func (f *FAE) setTop(root int, lhs []int, label *Label) {
	ta := f.Roots[root]
	res := treeaut.DisjointUnion(treeaut.New(f.backend), ta, false)
	for _, s := range lhs {
		if IsData(s) {
			f.dataLeaf(res, f.boxes.DataOf(s))
		}
	}
	q := f.FreshState()
	res.AddTransition(lhs, label, q)
	res.AddFinalState(q)
	f.replaceRoot(root, res)
	f.pruneRoot(root)
}

// subAutomaton returns a copy of the part of ta below state s, with s as final state and fresh names for every
// non-data state.
func (f *FAE) subAutomaton(ta *TA, s int) *TA {
	tmp := treeaut.DisjointUnion(treeaut.New(f.backend), ta, false)
	tmp.AddFinalState(s)
	pruned := tmp.UnreachableFree(treeaut.New(f.backend))
	tmp.Clear()
	res := f.renamed(pruned)
	pruned.Clear()
	return res
}

// renamed returns a copy of ta where every non-data state has a fresh name, allocated in order of occurrence
func (f *FAE) renamed(ta *TA) *TA {
	names := map[int]int{}
	return treeaut.Rename(treeaut.New(f.backend), ta, func(s int) int {
		if IsData(s) {
			return s
		}
		if r, ok := names[s]; ok {
			return r
		}
		r := f.FreshState()
		names[s] = r
		return r
	}, true)
}

// splitChild moves the subtree at position pos of the accepting transition of root into a new root, and returns
// the new root.
func (f *FAE) splitChild(root int, pos int) int {
	t := f.AcceptingTransition(root)
	c := t.Lhs()[pos]
	if IsData(c) {
		panic("forest: splitting a data child")
	}
	k := f.AppendRoot(f.subAutomaton(f.Roots[root], c))
	lhs := slices.Clone(t.Lhs())
	lhs[pos] = f.boxes.DataState(Ref(k, 0))
	f.setTop(root, lhs, t.Label())
	return k
}

// branchAt makes t the only accepting transition of root
func (f *FAE) branchAt(root int, t *Transition) {
	ta := f.Roots[root]
	res := treeaut.DisjointUnion(treeaut.New(f.backend), ta, false)
	q := f.FreshState()
	res.AddTransition(t.Lhs(), t.Label(), q)
	res.AddFinalState(q)
	f.replaceRoot(root, res)
	f.pruneRoot(root)
}

// Isolate returns one forest automaton per accepting transition of root. In each of them, root has a single
// accepting transition whose children at offsets are data values: boxes covering the offsets are unfolded and the
// subtrees below them become new roots. The receiver is left unchanged.
func (f *FAE) Isolate(root int, offsets []int) ([]*FAE, error) {
	if !f.ValidRoot(root) {
		panic(fmt.Sprintf("forest: isolating invalid root %d", root))
	}
	var res []*FAE
	for _, t := range f.Roots[root].AcceptingTransitions() {
		g := f.Clone()
		g.branchAt(root, t)
		for _, off := range offsets {
			if err := g.isolateOffset(root, off); err != nil {
				g.Release()
				for _, h := range res {
					h.Release()
				}
				return nil, err
			}
		}
		res = append(res, g)
	}
	return res, nil
}

func (f *FAE) isolateOffset(root int, off int) error {
	t := f.AcceptingTransition(root)
	lbl := t.Label()
	if !lbl.IsNode() {
		return unsupported("root %d is not a node", root)
	}
	pos, ok := lbl.ItemAt(off)
	if !ok {
		if lbl.Type.HasOffset(off) {
			return unsupported("selector %d of %s at root %d is hidden inside a box", off, lbl.Type, root)
		}
		return unsupported("type %s has no selector at offset %d", lbl.Type, off)
	}
	if lbl.Items[pos].IsBox() {
		if err := f.Unfold(root, pos); err != nil {
			return err
		}
		t = f.AcceptingTransition(root)
	}
	if !IsData(t.Lhs()[pos]) {
		f.splitChild(root, pos)
	}
	return nil
}

// Unfold instantiates the template of the box at position pos of the accepting transition of root: the box is
// replaced by the selectors of the input node of the template, and the nodes it references get back the items the
// box hides, bound to root.
func (f *FAE) Unfold(root int, pos int) error {
	t := f.AcceptingTransition(root)
	lbl := t.Label()
	box := lbl.Items[pos].Box
	if box == nil {
		panic("forest: unfolding a selector")
	}
	if !IsData(t.Lhs()[pos]) {
		f.splitChild(root, pos)
		t = f.AcceptingTransition(root)
	}
	child := f.boxes.DataOf(t.Lhs()[pos])
	if !child.IsRef() || child.Displ != 0 || !f.ValidRoot(child.Root) {
		return unsupported("%s at root %d does not reference a node", box, root)
	}
	if child.Root == root {
		return unsupported("%s at root %d references its own node", box, root)
	}
	if err := f.restoreHidden(child.Root, box, root); err != nil {
		return err
	}
	in := box.input()
	k, _ := in.Label().ItemAt(box.Forward)
	items := slices.Clone(lbl.Items)
	items[pos] = in.Label().Items[k]
	f.setTop(root, t.Lhs(), f.boxes.NodeLabel(lbl.Type, items))
	return nil
}

// restoreHidden inserts the items hidden by box, with their data bound to root u, in every accepting transition of
// root v
func (f *FAE) restoreHidden(v int, box *Box, u int) error {
	items, data := box.hidden(f.boxes, u)
	ta := f.Roots[v]
	res := treeaut.DisjointUnion(treeaut.New(f.backend), ta, false)
	states := make([]int, len(data))
	for k, d := range data {
		states[k] = f.dataLeaf(res, d)
	}
	q := f.FreshState()
	for _, t := range ta.AcceptingTransitions() {
		lbl := t.Label()
		if !lbl.IsNode() || lbl.Type != box.Type {
			res.Clear()
			return unsupported("%s references root %d of another type", box, v)
		}
		for _, it := range items {
			if _, ok := lbl.ItemAt(it.Offset); ok {
				res.Clear()
				return unsupported("%s references root %d which already has selector %d", box, v, it.Offset)
			}
		}
		nl, lhs := f.withItems(t, items, states)
		res.AddTransition(lhs, nl, q)
	}
	res.AddFinalState(q)
	f.replaceRoot(v, res)
	f.pruneRoot(v)
	return nil
}

// withItems returns the label and children of t with the items added, holding states
func (f *FAE) withItems(t *Transition, items []Item, states []int) (*Label, []int) {
	type child struct {
		it Item
		s  int
	}
	var cs []child
	for k, it := range t.Label().Items {
		cs = append(cs, child{it, t.Lhs()[k]})
	}
	for k, it := range items {
		cs = append(cs, child{it, states[k]})
	}
	slices.SortFunc(cs, func(a, b child) bool { return a.it.Offset < b.it.Offset })
	res := make([]Item, len(cs))
	lhs := make([]int, len(cs))
	for k, c := range cs {
		res[k], lhs[k] = c.it, c.s
	}
	return f.boxes.NodeLabel(t.Label().Type, res), lhs
}

// IsIsolated returns true if root has a single accepting transition, labelled by a node showing all the selectors
// of its type, whose children are all data values
func (f *FAE) IsIsolated(root int) bool {
	acc := f.Roots[root].AcceptingTransitions()
	if len(acc) != 1 || !acc[0].Label().IsNode() {
		return false
	}
	if lbl := acc[0].Label(); len(lbl.Items) != len(lbl.Type.Offsets) {
		return false
	}
	for i, s := range acc[0].Lhs() {
		if !IsData(s) || acc[0].Label().Items[i].IsBox() {
			return false
		}
	}
	return true
}

// selector returns the isolated accepting transition of root and the position of its selector at off
func (f *FAE) selector(root int, off int) (*Transition, int, error) {
	acc := f.Roots[root].AcceptingTransitions()
	if len(acc) != 1 {
		return nil, 0, unsupported("root %d is not isolated", root)
	}
	t := acc[0]
	if !t.Label().IsNode() {
		return nil, 0, unsupported("root %d is not a node", root)
	}
	pos, ok := t.Label().ItemAt(off)
	if !ok || t.Label().Items[pos].IsBox() || !IsData(t.Lhs()[pos]) {
		return nil, 0, unsupported("selector %d of root %d is not isolated", off, root)
	}
	return t, pos, nil
}

// ReadField returns the value of the selector at off of an isolated root
func (f *FAE) ReadField(root int, off int) (Data, error) {
	t, pos, err := f.selector(root, off)
	if err != nil {
		return Data{}, err
	}
	return f.boxes.DataOf(t.Lhs()[pos]), nil
}

// WriteField sets the selector at off of an isolated root to d
func (f *FAE) WriteField(root int, off int, d Data) error {
	t, pos, err := f.selector(root, off)
	if err != nil {
		return err
	}
	lhs := slices.Clone(t.Lhs())
	lhs[pos] = f.boxes.DataState(d)
	f.setTop(root, lhs, t.Label())
	return nil
}
