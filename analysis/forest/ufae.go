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
)

// UFAE encodes sets of forest automata into a single tree automaton. A forest automaton becomes the automaton of
// its roots, with non-data states renumbered above an offset, plus a top transition labelled by the variables whose
// children are the root states. State 0 is the only final state.
type UFAE struct {
	boxes       *BoxManager
	stateOffset int
}

// NewUFAE returns an encoder whose first renumbered state is 1
func NewUFAE(boxes *BoxManager) *UFAE {
	return &UFAE{boxes: boxes, stateOffset: 1}
}

// FAE2TA adds the encoding of f to dst and returns the numbering of the states of f. Every root of f must have a
// single final state.
func (u *UFAE) FAE2TA(dst *TA, f *FAE) *treeaut.Index {
	index := treeaut.NewIndex()
	rename := func(s int) int {
		if IsData(s) {
			return s
		}
		return index.Add(s) + u.stateOffset
	}
	lhs := make([]int, 0, len(f.Roots))
	for i, ta := range f.Roots {
		if ta == nil {
			panic("forest: encoding a freed root")
		}
		if len(ta.FinalStates()) != 1 {
			panic("forest: encoding a root with several final states")
		}
		lhs = append(lhs, rename(ta.FinalState()))
		treeaut.Rename(dst, f.Roots[i], rename, false)
	}
	dst.AddTransition(lhs, u.boxes.VarsLabel(f.Vars), 0)
	dst.AddFinalState(0)
	return index
}

// Join adds src, the encoding numbered by index, to dst and moves the offset past its states
func (u *UFAE) Join(dst, src *TA, index *treeaut.Index) {
	treeaut.DisjointUnion(dst, src, true)
	u.stateOffset += index.Len()
}

// TA2FAE decodes every configuration of src. The states of the decoded automata are allocated by f, and are fresh in
// f; the decoded automata allocate their next states after them.
func (u *UFAE) TA2FAE(src *TA, f *FAE) []*FAE {
	var res []*FAE
	for _, t := range src.AcceptingTransitions() {
		lbl := t.Label()
		if lbl.Kind != LabelVars {
			panic("forest: accepting transition of an encoding is not a variable table")
		}
		g := NewFAE(f.backend, u.boxes)
		g.Vars = append(g.Vars, lbl.Vars...)
		for _, s := range t.Lhs() {
			g.AppendRoot(f.subAutomaton(src, s))
		}
		g.next = f.next
		res = append(res, g)
	}
	return res
}

// TestInclusion returns true if f is included in fwdConf. Otherwise f is added to fwdConf, which is minimized.
func (u *UFAE) TestInclusion(f *FAE, fwdConf *TA) bool {
	ta := treeaut.New(fwdConf.Backend())
	index := u.FAE2TA(ta, f)
	defer ta.Clear()
	if treeaut.Subseteq(ta, fwdConf) {
		return true
	}
	u.Join(fwdConf, ta, index)
	fwdConf.Set(fwdConf.Minimized(treeaut.New(fwdConf.Backend())))
	return false
}

// Format prints an encoding with data states shown as values
func (u *UFAE) Format(ta *TA) string {
	return ta.Format(u.boxes.StateName)
}
