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
	"golang.org/x/tools/container/intsets"
)

// ExactMatch matches transitions with the same label
func ExactMatch(t1, t2 *Transition) bool {
	return treeaut.ExactMatch(t1, t2)
}

// SmartMatch matches node transitions of the same type, whatever their items. Other transitions match when their
// labels are equal.
func SmartMatch(t1, t2 *Transition) bool {
	l1, l2 := t1.Label(), t2.Label()
	if l1.IsNode() && l2.IsNode() {
		return l1.Type == l2.Type
	}
	return l1 == l2
}

// SmarterMatch refines SmartMatch: both node transitions must also hold the same data children in the same order,
// wherever they sit among the other children.
func SmarterMatch(t1, t2 *Transition) bool {
	l1, l2 := t1.Label(), t2.Label()
	if !l1.IsNode() || !l2.IsNode() {
		return l1 == l2
	}
	return l1.Type == l2.Type && slices.Equal(dataChildren(t1), dataChildren(t2))
}

func dataChildren(t *Transition) []int {
	var res []int
	for _, s := range t.Lhs() {
		if IsData(s) {
			res = append(res, s)
		}
	}
	return res
}

// Matcher returns the match function of a strategy name: "exact", "smart" or "smarter"
func Matcher(strategy string) (treeaut.MatchFunc[*Label], error) {
	switch strategy {
	case "exact":
		return ExactMatch, nil
	case "smart":
		return SmartMatch, nil
	case "smarter":
		return SmarterMatch, nil
	default:
		return nil, fmt.Errorf("unknown match strategy %q", strategy)
	}
}

// AbstractOptions tune Abstract
type AbstractOptions struct {
	// Height is the number of refinement rounds of the height abstraction
	Height int
	// Match compares transitions during the height abstraction
	Match treeaut.MatchFunc[*Label]
	// Fuse enables the fusion with the compatible configurations of the forward configuration
	Fuse bool
}

// HeightAbstraction merges the states of root that are alike up to height, following match. Data states are never
// merged, and two states are merged only if they reach the same cutpoints.
func (f *FAE) HeightAbstraction(root int, height int, match treeaut.MatchFunc[*Label]) {
	ta := f.Roots[root]
	index := ta.BuildStateIndex()
	sig := f.Signatures(root)
	empty := &intsets.Sparse{}
	sigOf := func(s int) *intsets.Sparse {
		if x, ok := sig[s]; ok {
			return x
		}
		return empty
	}
	rel := treeaut.NewRelation(index.Len())
	for i := 0; i < index.Len(); i++ {
		si := index.State(i)
		rel.Set(i, i, true)
		if IsData(si) {
			continue
		}
		for j := 0; j < index.Len(); j++ {
			sj := index.State(j)
			if i != j && !IsData(sj) && sigOf(si).Equals(sigOf(sj)) {
				rel.Set(i, j, true)
			}
		}
	}
	ta.HeightAbstraction(rel, height, match, index)
	f.replaceRoot(root, ta.Collapsed(treeaut.New(f.backend), rel, index))
	f.pruneRoot(root)
}

// compatible returns true if g has the same roots and variables as f, and the same top node at root 0
func (f *FAE) compatible(g *FAE) bool {
	if len(f.Roots) != len(g.Roots) || !slices.Equal(f.Vars, g.Vars) {
		return false
	}
	for i := range f.Roots {
		if (f.Roots[i] == nil) != (g.Roots[i] == nil) {
			return false
		}
	}
	if len(f.Roots) == 0 || f.Roots[0] == nil {
		return true
	}
	a1 := f.Roots[0].AcceptingTransitions()
	a2 := g.Roots[0].AcceptingTransitions()
	if len(a1) != 1 || len(a2) != 1 {
		return false
	}
	t1, t2 := a1[0], a2[0]
	if t1.Label() != t2.Label() || t1.Arity() != t2.Arity() {
		return false
	}
	for k, s := range t1.Lhs() {
		if (IsData(s) || IsData(t2.Lhs()[k])) && s != t2.Lhs()[k] {
			return false
		}
	}
	return true
}

// LoadCompatible decodes the configurations of fwdConf that are compatible with f. Their states are fresh in f.
func (f *FAE) LoadCompatible(fwdConf *TA, u *UFAE) []*FAE {
	var res []*FAE
	for _, g := range u.TA2FAE(fwdConf, f) {
		if f.compatible(g) {
			res = append(res, g)
		} else {
			g.Release()
		}
	}
	return res
}

// Fuse adds the languages of the roots of others to the roots of f, except root 0. others must be compatible
// with f and use states that are fresh in f.
func (f *FAE) Fuse(others []*FAE) {
	for _, g := range others {
		for i := 1; i < len(f.Roots); i++ {
			if f.Roots[i] == nil {
				continue
			}
			finals := f.Roots[i].FinalStates()
			res := treeaut.DisjointUnion(treeaut.New(f.backend), f.Roots[i], true)
			treeaut.DisjointUnion(res, g.Roots[i], false)
			for _, t := range g.Roots[i].AcceptingTransitions() {
				for _, q := range finals {
					res.AddTransition(t.Lhs(), t.Label(), q)
				}
			}
			f.replaceRoot(i, res)
		}
	}
}

// Abstract over-approximates f: unreachable parts are pruned, compatible configurations of fwdConf are fused into
// f when enabled, and every root except root 0 goes through the height abstraction.
func (f *FAE) Abstract(fwdConf *TA, u *UFAE, opts AbstractOptions) {
	f.UnreachableFree()
	if opts.Fuse && fwdConf != nil && u != nil {
		others := f.LoadCompatible(fwdConf, u)
		f.Fuse(others)
		for _, g := range others {
			g.Release()
		}
	}
	match := opts.Match
	if match == nil {
		match = SmartMatch
	}
	for i := 1; i < len(f.Roots); i++ {
		if f.Roots[i] != nil {
			f.HeightAbstraction(i, opts.Height, match)
		}
	}
	f.UnreachableFree()
}
