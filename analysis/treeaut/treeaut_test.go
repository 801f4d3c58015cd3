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

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// add inserts label(lhs...) -> rhs
func add(ta *TA[string], label string, rhs int, lhs ...int) {
	ta.AddTransition(lhs, label, rhs)
}

// chain returns the automaton accepting exactly f^n(a)
func chain(b *Backend[string], n int) *TA[string] {
	ta := New(b)
	add(ta, "a", 0)
	for i := 1; i <= n; i++ {
		add(ta, "f", i, i-1)
	}
	ta.AddFinalState(n)
	return ta
}

func equivalent(a, b *TA[string]) bool {
	return Subseteq(a, b) && Subseteq(b, a)
}

func TestBackendRefCount(t *testing.T) {
	b := NewBackend[string]()
	ta1 := New(b)
	ta2 := New(b)
	tr := ta1.AddTransition([]int{1, 2}, "f", 3)
	ta1.AddTransition([]int{1, 2}, "f", 3)
	if b.Size() != 1 || b.Refs(tr) != 1 {
		t.Fatalf("duplicate insertion should not take a reference: size %d refs %d", b.Size(), b.Refs(tr))
	}
	if got := ta2.AddTransitionHandle(tr); got != tr {
		t.Fatalf("handle insertion should reuse the interned transition")
	}
	if b.Refs(tr) != 2 {
		t.Fatalf("expected 2 references, got %d", b.Refs(tr))
	}
	ta1.Clear()
	if b.Size() != 1 {
		t.Fatalf("transition evicted while still referenced")
	}
	ta2.Clear()
	if b.Size() != 0 {
		t.Fatalf("transition not evicted after the last release")
	}
}

func TestHandleAcrossBackends(t *testing.T) {
	b1, b2 := NewBackend[string](), NewBackend[string]()
	ta1 := New(b1)
	tr := ta1.AddTransition(nil, "a", 0)
	ta2 := New(b2)
	tr2 := ta2.AddTransitionHandle(tr)
	if tr2 == tr || b2.Size() != 1 || b2.Refs(tr2) != 1 {
		t.Fatalf("foreign handle should be interned again in the destination backend")
	}
	if tr2.String() != tr.String() {
		t.Errorf("re-interned transition differs: %s vs %s", tr2, tr)
	}
}

func TestIntersection(t *testing.T) {
	b := NewBackend[string]()
	ta := New(b)
	add(ta, "a", 0)
	add(ta, "b", 1)
	add(ta, "f", 2, 0)
	add(ta, "f", 2, 1)
	ta.AddFinalState(2)

	tb := New(b)
	add(tb, "a", 5)
	add(tb, "c", 6)
	add(tb, "f", 7, 5)
	add(tb, "f", 7, 6)
	tb.AddFinalState(7)

	res := New(b)
	product := Intersection(res, ta, tb, 100)
	if len(product) != 2 {
		t.Fatalf("expected 2 product states, got %v", product)
	}
	expected := New(b)
	add(expected, "a", 0)
	add(expected, "f", 1, 0)
	expected.AddFinalState(1)
	if !equivalent(res, expected) {
		t.Errorf("intersection should accept exactly f(a), got\n%s", res)
	}
	if got := ta.IntersectingStates(tb); !cmp.Equal(got, []int{2}) {
		t.Errorf("unexpected intersecting states %v", got)
	}
}

func TestUselessAndUnreachableFree(t *testing.T) {
	b := NewBackend[string]()
	ta := New(b)
	add(ta, "a", 0)
	add(ta, "f", 1, 0)
	add(ta, "g", 1, 2) // q2 derives no tree
	add(ta, "h", 2, 2)
	add(ta, "k", 3, 0) // q3 is not reachable from q1
	ta.AddFinalState(1)

	pruned := ta.UselessFree(New(b)).UnreachableFree(New(b))
	if got := pruned.States(); !cmp.Equal(got, []int{0, 1}) {
		t.Errorf("expected states [0 1] after pruning, got %v", got)
	}
	if pruned.Len() != 2 {
		t.Errorf("expected 2 transitions after pruning, got\n%s", pruned)
	}
	if !equivalent(pruned, ta) {
		t.Errorf("pruning changed the language")
	}
}

func TestMinimizedPreservesLanguage(t *testing.T) {
	b := NewBackend[string]()
	ta := New(b)
	add(ta, "a", 0)
	add(ta, "a", 1)
	add(ta, "f", 2, 0)
	add(ta, "f", 3, 1)
	add(ta, "g", 4, 2, 3)
	add(ta, "g", 4, 3, 2)
	ta.AddFinalState(4)

	min := ta.Minimized(New(b))
	if n := len(min.States()); n != 3 {
		t.Errorf("expected 3 states after minimization, got %d:\n%s", n, min)
	}
	if !equivalent(min, ta) {
		t.Errorf("minimization changed the language")
	}
}

func TestSubseteq(t *testing.T) {
	b := NewBackend[string]()
	// f^n(a), n >= 0
	star := New(b)
	add(star, "a", 0)
	add(star, "f", 0, 0)
	star.AddFinalState(0)
	// f^n(a), n >= 1
	plus := New(b)
	add(plus, "a", 10)
	add(plus, "f", 11, 10)
	add(plus, "f", 11, 11)
	plus.AddFinalState(11)

	if !Subseteq(plus, star) {
		t.Errorf("f+(a) should be included in f*(a)")
	}
	if Subseteq(star, plus) {
		t.Errorf("f*(a) should not be included in f+(a)")
	}
	if !Subseteq(chain(b, 4), plus) || Subseteq(chain(b, 0), plus) {
		t.Errorf("membership of chains is wrong")
	}

	// nondeterministic right-hand side: pairs of chains with equal or unequal lengths
	nd := New(b)
	add(nd, "a", 20)
	add(nd, "a", 21)
	add(nd, "f", 20, 20)
	add(nd, "f", 21, 21)
	add(nd, "g", 22, 20, 21)
	nd.AddFinalState(22)
	pair := New(b)
	add(pair, "a", 30)
	add(pair, "f", 31, 30)
	add(pair, "g", 32, 31, 30)
	pair.AddFinalState(32)
	if !Subseteq(pair, nd) {
		t.Errorf("g(f(a), a) should be accepted by the nondeterministic automaton")
	}
	other := New(b)
	add(other, "a", 40)
	add(other, "g", 41, 40, 40)
	add(other, "h", 42, 41)
	other.AddFinalState(42)
	if Subseteq(other, nd) {
		t.Errorf("h(g(a, a)) should not be included")
	}
}

func TestHeightAbstraction(t *testing.T) {
	b := NewBackend[string]()
	ta := chain(b, 4)
	index := ta.BuildStateIndex()
	rel := FullRelation(index.Len())
	ta.HeightAbstraction(rel, 1, ExactMatch[string], index)

	if rel.Get(index.Of(0), index.Of(1)) {
		t.Errorf("the leaf state should not be merged with an inner state")
	}
	if !rel.Get(index.Of(1), index.Of(3)) || !rel.Get(index.Of(3), index.Of(1)) {
		t.Errorf("inner states of the chain should be related:\n%s", rel)
	}

	abs := ta.Collapsed(New(b), rel, index)
	if !Subseteq(ta, abs) {
		t.Errorf("abstraction lost the original tree")
	}
	if !Subseteq(chain(b, 9), abs) {
		t.Errorf("abstraction should accept longer chains:\n%s", abs)
	}
	if Subseteq(chain(b, 0), abs) {
		t.Errorf("abstraction should still reject the bare leaf")
	}
}

func TestDownwardSimulation(t *testing.T) {
	b := NewBackend[string]()
	ta := New(b)
	add(ta, "a", 0)
	add(ta, "b", 1)
	add(ta, "a", 2)
	add(ta, "b", 2)
	index := ta.BuildStateIndex()
	rel := ta.DownwardSimulation(index)
	if !rel.Get(0, 2) || !rel.Get(1, 2) {
		t.Errorf("q2 should simulate q0 and q1")
	}
	if rel.Get(2, 0) || rel.Get(0, 1) {
		t.Errorf("unexpected simulation pairs:\n%s", rel)
	}
}

func TestUnionsAndRenaming(t *testing.T) {
	b := NewBackend[string]()
	ta := chain(b, 2)
	shifted := Rename(New(b), ta, func(s int) int { return s + 10 }, true)
	if got := shifted.FinalStates(); !cmp.Equal(got, []int{12}) {
		t.Errorf("unexpected final states after renaming: %v", got)
	}
	if !equivalent(ta, shifted) {
		t.Errorf("renaming changed the language")
	}

	idx := NewIndex()
	reduced := Reduce(New(b), shifted, idx, 1, true)
	if got := reduced.States(); !cmp.Equal(got, []int{1, 2, 3}) {
		t.Errorf("reduce should number states contiguously, got %v", got)
	}

	union := DisjointUnion(ta.Clone(), chain(b, 0), true)
	if !Subseteq(chain(b, 0), union) || !Subseteq(ta, union) {
		t.Errorf("disjoint union should contain both languages")
	}

	unfolded := ta.UnfoldAtRoot(New(b), 50, true)
	unfolded.ClearFinalStates()
	unfolded.AddFinalState(50)
	if !equivalent(unfolded, ta) {
		t.Errorf("unfolding at the root changed the language:\n%s", unfolded)
	}
	if len(unfolded.AcceptingTransitions()) != 1 || unfolded.AcceptingTransition().Rhs() != 50 {
		t.Errorf("unfolded automaton should have a single accepting transition into the new state")
	}
}

func TestPredicateAbstraction(t *testing.T) {
	b := NewBackend[string]()
	ta := chain(b, 2)
	predicate := chain(b, 1)
	index := ta.BuildStateIndex()
	rel := FullRelation(index.Len())
	ta.PredicateAbstraction(rel, predicate, index)
	// only q1 recognizes f(a), so no pair of distinct states survives
	if rel.Get(0, 2) || rel.Get(1, 2) || !rel.Get(2, 2) || rel.Count() != 3 {
		t.Errorf("unexpected relation after predicate abstraction:\n%s", rel)
	}
}
