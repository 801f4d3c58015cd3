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
	"github.com/awslabs/ar-go-forester/analysis/treeaut"
	"github.com/awslabs/ar-go-forester/internal/funcutil"
	"golang.org/x/exp/slices"
)

// Discover looks for a box starting at root u: a selector f of u leading to a node of the same type whose selector
// b references u back. The partner node is either a separate root, whose accepting transitions must all show the
// back selector, or embedded in the automaton of u. When the box is registered, the partner is matched against its
// template and folded, and Discover returns true. Otherwise the box is appended to candidates, when candidates is
// not nil. Forbidden roots are never folded.
func (f *FAE) Discover(u int, forbidden map[int]bool, candidates *[]Box) bool {
	if !f.ValidRoot(u) || forbidden[u] {
		return false
	}
	acc := f.Roots[u].AcceptingTransitions()
	if len(acc) != 1 || !acc[0].Label().IsNode() {
		return false
	}
	t := acc[0]
	lbl := t.Label()
	for pos, it := range lbl.Items {
		if it.IsBox() {
			continue
		}
		c := t.Lhs()[pos]
		partner := -1
		var backs []int
		if IsData(c) {
			d := f.boxes.DataOf(c)
			if !d.IsRef() || d.Displ != 0 || d.Root == u || !f.ValidRoot(d.Root) || forbidden[d.Root] {
				continue
			}
			partner = d.Root
			backs = f.backOffsets(f.Roots[partner].AcceptingTransitions(), lbl.Type, u)
		} else if f.occursOnce(f.Roots[u], c) {
			backs = f.backOffsets(f.Roots[u].TDCache()[c], lbl.Type, u)
		}
		for _, b := range backs {
			if b == it.Offset {
				continue
			}
			box := Box{Type: lbl.Type, Forward: it.Offset, Back: b}
			if reg, ok := f.boxes.LookupBox(box); ok {
				if partner >= 0 && f.foldSeparate(u, pos, reg, partner) {
					return true
				}
				if partner < 0 && f.foldEmbedded(u, pos, reg) {
					return true
				}
				continue
			}
			if candidates != nil {
				*candidates = append(*candidates, box)
			}
		}
	}
	return false
}

// backOffsets returns the offsets b such that every transition of ts is a node of type typ whose selector b
// references u
func (f *FAE) backOffsets(ts []*Transition, typ *TypeInfo, u int) []int {
	if len(ts) == 0 {
		return nil
	}
	ref := f.boxes.DataState(Ref(u, 0))
	var res []int
	for i, t := range ts {
		if !t.Label().IsNode() || t.Label().Type != typ {
			return nil
		}
		var offs []int
		for k, it := range t.Label().Items {
			if !it.IsBox() && t.Lhs()[k] == ref {
				offs = append(offs, it.Offset)
			}
		}
		if i == 0 {
			res = offs
		} else {
			res = funcutil.Filter(res, func(o int) bool { return slices.Contains(offs, o) })
		}
	}
	return res
}

// occursOnce returns true if the non-final state c is the child of exactly one transition of ta
func (f *FAE) occursOnce(ta *TA, c int) bool {
	if ta.IsFinalState(c) {
		return false
	}
	count := 0
	for _, t := range ta.Transitions() {
		for _, s := range t.Lhs() {
			if s == c {
				count++
			}
		}
	}
	return count == 1
}

// showsHidden returns true if t is a node of the type of box showing the items hidden by box, with the data they
// hold in its template once the input port is bound to u
func (f *FAE) showsHidden(t *Transition, box *Box, u int) bool {
	lbl := t.Label()
	if !lbl.IsNode() || lbl.Type != box.Type {
		return false
	}
	items, data := box.hidden(f.boxes, u)
	for k, it := range items {
		pos, ok := lbl.ItemAt(it.Offset)
		if !ok || lbl.Items[pos].IsBox() != it.IsBox() || t.Lhs()[pos] != f.boxes.DataState(data[k]) {
			return false
		}
	}
	return true
}

// stripHidden returns a copy of ta where the copies of the transitions ts lose the items hidden by box and lead to a
// fresh state q. ok is false, and nothing is built, if some transition of ts does not match the template.
func (f *FAE) stripHidden(ta *TA, ts []*Transition, box *Box, u int) (res *TA, q int, ok bool) {
	if len(ts) == 0 {
		return nil, 0, false
	}
	for _, t := range ts {
		if !f.showsHidden(t, box, u) {
			return nil, 0, false
		}
	}
	items, _ := box.hidden(f.boxes, u)
	res = treeaut.DisjointUnion(treeaut.New(f.backend), ta, false)
	q = f.FreshState()
	for _, t := range ts {
		lbl, lhs := f.withoutItems(t, items)
		res.AddTransition(lhs, lbl, q)
	}
	return res, q, true
}

// withoutItems returns the label and children of t without the items at the offsets of items
func (f *FAE) withoutItems(t *Transition, items []Item) (*Label, []int) {
	lbl := t.Label()
	var kept []Item
	var lhs []int
	for k, it := range lbl.Items {
		if slices.IndexFunc(items, func(h Item) bool { return h.Offset == it.Offset }) >= 0 {
			continue
		}
		kept = append(kept, it)
		lhs = append(lhs, t.Lhs()[k])
	}
	return f.boxes.NodeLabel(lbl.Type, kept), lhs
}

// withBox returns the label of t where the selector at position pos is replaced by box
func (f *FAE) withBox(t *Transition, pos int, box *Box) *Label {
	items := slices.Clone(t.Label().Items)
	items[pos] = BoxItem(box)
	return f.boxes.NodeLabel(t.Label().Type, items)
}

func (f *FAE) foldSeparate(u int, pos int, box *Box, v int) bool {
	ta := f.Roots[v]
	res, q, ok := f.stripHidden(ta, ta.AcceptingTransitions(), box, u)
	if !ok {
		return false
	}
	res.AddFinalState(q)
	f.replaceRoot(v, res)
	f.pruneRoot(v)
	t := f.AcceptingTransition(u)
	f.setTop(u, t.Lhs(), f.withBox(t, pos, box))
	return true
}

func (f *FAE) foldEmbedded(u int, pos int, box *Box) bool {
	ta := f.Roots[u]
	t := ta.AcceptingTransition()
	c := t.Lhs()[pos]
	res, c2, ok := f.stripHidden(ta, ta.TDCache()[c], box, u)
	if !ok {
		return false
	}
	lhs := slices.Clone(t.Lhs())
	lhs[pos] = c2
	q := f.FreshState()
	res.AddTransition(lhs, f.withBox(t, pos, box), q)
	res.AddFinalState(q)
	f.replaceRoot(u, res)
	f.pruneRoot(u)
	return true
}

// NormalizeAndFold folds the registered boxes, learns new boxes from repeated link patterns between consecutive
// roots, and normalizes the result. onLearn is called with every newly learned box. It returns whether some box was
// folded, and the relocation of the roots.
func (f *FAE) NormalizeAndFold(fold bool, onLearn func(*Box)) (matched bool, index []int) {
	forbidden := map[int]bool{}
	if f.ValidRoot(0) {
		forbidden[0] = true
	}
	if fold {
		_, order := f.Scan(forbidden)
		cyclic := f.CyclicRoots()
		learning := map[Box]map[int]bool{}
		for i := 1; i < len(order); i++ {
			u := order[i]
			if !cyclic[u] {
				continue
			}
			var candidates []Box
			if f.Discover(u, forbidden, &candidates) {
				matched = true
				continue
			}
			for _, b := range candidates {
				set, ok := learning[b]
				if !ok {
					set = map[int]bool{}
					learning[b] = set
				}
				set[u] = true
				if !set[order[i-1]] {
					continue
				}
				_, known := f.boxes.LookupBox(b)
				reg := f.boxes.GetBox(b)
				if !known && onLearn != nil {
					onLearn(reg)
				}
				for _, j := range funcutil.SetToOrderedSlice(set) {
					if f.Discover(j, forbidden, nil) {
						matched = true
					}
				}
				delete(learning, b)
			}
		}
	}
	for r := range f.NearbyReferences(0) {
		forbidden[r] = true
	}
	marked, order := f.Scan(forbidden)
	return matched, f.Normalize(marked, order)
}
