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
	"errors"
	"testing"

	"github.com/awslabs/ar-go-forester/analysis/treeaut"
	"github.com/google/go-cmp/cmp"
)

type env struct {
	boxes *BoxManager
	f     *FAE
	node  *TypeInfo
}

func newEnv() *env {
	return newEnvIn(NewBoxManager(), treeaut.NewBackend[*Label]())
}

func newEnvIn(boxes *BoxManager, backend *treeaut.Backend[*Label]) *env {
	stack := boxes.CreateTypeInfo("Stack", nil)
	node := boxes.CreateTypeInfo("DLL", []int{0, 8})
	f := NewFAE(backend, boxes)
	root := f.NodeCreate(stack)
	f.SetVar(0, Ref(root, 0))
	return &env{boxes: boxes, f: f, node: node}
}

func (e *env) write(t *testing.T, root, off int, d Data) {
	t.Helper()
	if err := e.f.WriteField(root, off, d); err != nil {
		t.Fatalf("write %d+%d: %v", root, off, err)
	}
}

// list creates n nodes linked by their selector 0 and, if doubly is set, by their selector 8, and stores the head
// in variable 1. It returns the roots of the nodes.
func (e *env) list(t *testing.T, n int, doubly bool) []int {
	roots := make([]int, n)
	for i := range roots {
		roots[i] = e.f.NodeCreate(e.node)
	}
	for i, r := range roots {
		next, prev := Null(), Null()
		if i+1 < n {
			next = Ref(roots[i+1], 0)
		}
		if i > 0 && doubly {
			prev = Ref(roots[i-1], 0)
		}
		e.write(t, r, 0, next)
		e.write(t, r, 8, prev)
	}
	e.f.SetVar(1, Ref(roots[0], 0))
	return roots
}

// encode returns the encoding of f as a tree automaton
func encode(f *FAE) *TA {
	ta := treeaut.New(f.Backend())
	NewUFAE(f.Boxes()).FAE2TA(ta, f)
	return ta
}

func TestDataEqual(t *testing.T) {
	tests := []struct {
		a, b          Data
		result, known bool
	}{
		{Null(), Int(0), true, true},
		{Int(1), Null(), false, true},
		{Ref(1, 0), Ref(1, 0), true, true},
		{Ref(1, 0), Ref(1, 8), false, true},
		{Ref(1, 0), Null(), false, true},
		{Unknown(), Null(), false, false},
		{Undef(), Undef(), false, false},
	}
	for _, test := range tests {
		result, known := Equal(test.a, test.b)
		if result != test.result || known != test.known {
			t.Errorf("Equal(%s, %s) = %v, %v; expected %v, %v", test.a, test.b, result, known,
				test.result, test.known)
		}
	}
}

func TestBoxManagerInterning(t *testing.T) {
	boxes := NewBoxManager()
	typ := boxes.CreateTypeInfo("T", []int{8, 0})
	if diff := cmp.Diff([]int{0, 8}, typ.Offsets); diff != "" {
		t.Errorf("offsets not sorted: %s", diff)
	}
	if boxes.CreateTypeInfo("T", []int{0, 8}) != typ {
		t.Errorf("type registered twice")
	}
	l1 := boxes.NodeLabel(typ, []Item{Sel(8), Sel(0)})
	l2 := boxes.NodeLabel(typ, []Item{Sel(0), Sel(8)})
	if l1 != l2 {
		t.Errorf("equal node labels are not interned: %s and %s", l1, l2)
	}
	if boxes.DataState(Null()) != boxes.DataState(Int(0)) || !IsData(boxes.DataState(Null())) {
		t.Errorf("data states are not shared")
	}
	b := boxes.GetBox(Box{Type: typ, Forward: 0, Back: 8})
	if r, ok := boxes.LookupBox(Box{Type: typ, Forward: 0, Back: 8}); !ok || r != b {
		t.Errorf("box is not registered")
	}
	if len(boxes.Boxes()) != 1 {
		t.Errorf("expected one box, got %v", boxes.Boxes())
	}
	tmpl := b.Template()
	if tmpl.Len() != 3 || len(tmpl.FinalStates()) != 1 {
		t.Errorf("unexpected box template:\n%s", tmpl)
	}
	if boxes.GetBox(Box{Type: typ, Forward: 0, Back: 8}).Template() != tmpl {
		t.Errorf("registering a box twice should keep its template")
	}
	if diff := cmp.Diff([]int{0, 8}, b.Ports()); diff != "" {
		t.Errorf("ports: %s", diff)
	}
	items, data := b.hidden(boxes, 3)
	if len(items) != 1 || items[0] != Sel(8) || data[0] != Ref(3, 0) {
		t.Errorf("hidden items %v %v, want [8] bound to r3", items, data)
	}
	defer func() {
		if recover() == nil {
			t.Errorf("looking up an unknown type should panic")
		}
	}()
	boxes.TypeInfo("missing")
}

func TestFields(t *testing.T) {
	e := newEnv()
	r := e.f.NodeCreate(e.node)
	d, err := e.f.ReadField(r, 0)
	if err != nil || !d.IsUndef() {
		t.Fatalf("fresh node selector = %s, %v", d, err)
	}
	e.write(t, r, 8, Int(3))
	d, _ = e.f.ReadField(r, 8)
	if d != Int(3) {
		t.Errorf("read %s after writing int(3)", d)
	}
	if _, err := e.f.ReadField(r, 4); err == nil {
		t.Errorf("reading a missing selector should fail")
	}
}

func TestFreeInvalidatesReferences(t *testing.T) {
	e := newEnv()
	roots := e.list(t, 2, false)
	e.f.FreeRoot(roots[1])
	d, err := e.f.ReadField(roots[0], 0)
	if err != nil || !d.IsUndef() {
		t.Errorf("reference to a freed node = %s, %v", d, err)
	}
}

func TestGarbageAndCycles(t *testing.T) {
	e := newEnv()
	roots := e.list(t, 2, true)
	lost := e.f.NodeCreate(e.node)
	if diff := cmp.Diff([]int{lost}, e.f.GarbageRoots()); diff != "" {
		t.Errorf("garbage roots: %s", diff)
	}
	cyclic := e.f.CyclicRoots()
	if !cyclic[roots[0]] || !cyclic[roots[1]] || cyclic[lost] || cyclic[0] {
		t.Errorf("unexpected cyclic roots %v", cyclic)
	}
}

func TestNormalizeMergesSinglyReferencedRoots(t *testing.T) {
	e := newEnv()
	e.list(t, 3, false)
	e.f.NodeCreate(e.node) // garbage
	marked, order := e.f.Scan(nil)
	if diff := cmp.Diff([]int{0, 1, 2, 3, 4}, order); diff != "" {
		t.Errorf("scan order: %s", diff)
	}
	if diff := cmp.Diff([]bool{true, true, false, false, true}, marked); diff != "" {
		t.Errorf("marked roots: %s", diff)
	}
	index := e.f.Normalize(marked, order)
	if diff := cmp.Diff([]int{0, 1, -1, -1, 2}, index); diff != "" {
		t.Errorf("relocation: %s", diff)
	}
	if e.f.RootCount() != 3 {
		t.Fatalf("expected 3 roots, got\n%s", e.f)
	}
	if diff := cmp.Diff([]int{2}, e.f.GarbageRoots()); diff != "" {
		t.Errorf("garbage is not last: %s", diff)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	e := newEnv()
	e.list(t, 3, false)
	e.f.NormalizeAndFold(true, nil)
	before := e.f.String()
	matched, index := e.f.NormalizeAndFold(true, nil)
	if matched {
		t.Errorf("normalized forest automaton should not fold")
	}
	for i, j := range index {
		if i != j {
			t.Errorf("relocation is not the identity: %v", index)
			break
		}
	}
	if diff := cmp.Diff(before, e.f.String()); diff != "" {
		t.Errorf("normalization changed a normal forest automaton: %s", diff)
	}
}

func TestFoldDiscoveryLearnsBox(t *testing.T) {
	e := newEnv()
	e.list(t, 3, true)
	var learned []*Box
	matched, _ := e.f.NormalizeAndFold(true, func(b *Box) { learned = append(learned, b) })
	if !matched || len(learned) != 1 {
		t.Fatalf("expected one learned box, matched=%v learned=%v", matched, learned)
	}
	if b := learned[0]; b.Type != e.node || b.Forward != 0 || b.Back != 8 {
		t.Errorf("unexpected box %s", b)
	}
	if e.f.RootCount() != 2 {
		t.Errorf("expected the list to be folded into one root:\n%s", e.f)
	}
}

func TestFoldEmbeddedPartner(t *testing.T) {
	e := newEnv()
	e.list(t, 2, true)
	e.f.NormalizeAndFold(false, nil)
	if e.f.RootCount() != 2 {
		t.Fatalf("expected the second node to be embedded:\n%s", e.f)
	}
	e.boxes.GetBox(Box{Type: e.node, Forward: 0, Back: 8})
	if !e.f.Discover(1, map[int]bool{0: true}, nil) {
		t.Fatalf("embedded partner not folded:\n%s", e.f)
	}
	top := e.f.AcceptingTransition(1).Label()
	if !top.Items[0].IsBox() || len(top.Items) != 2 {
		t.Errorf("unexpected top label %s", top)
	}
}

func TestBoxRoundTrip(t *testing.T) {
	e := newEnv()
	e.list(t, 3, true)
	original := e.f.Clone()
	original.NormalizeAndFold(false, nil)
	e.f.NormalizeAndFold(true, nil)
	// unfold the two boxes of the list
	branches, err := e.f.Isolate(1, []int{0})
	if err != nil || len(branches) != 1 {
		t.Fatalf("isolate head: %v, %d branches", err, len(branches))
	}
	g := branches[0]
	second, _ := g.ReadField(1, 0)
	branches, err = g.Isolate(second.Root, []int{0})
	if err != nil || len(branches) != 1 {
		t.Fatalf("isolate second node: %v, %d branches", err, len(branches))
	}
	g = branches[0]
	g.NormalizeAndFold(false, nil)
	a, b := encode(original), encode(g)
	if !treeaut.Subseteq(a, b) || !treeaut.Subseteq(b, a) {
		t.Errorf("fold then unfold changed the heap:\n%s\n%s", original, g)
	}
}

func TestFoldPartnerWithSeveralTransitions(t *testing.T) {
	e := newEnv()
	u := e.f.NodeCreate(e.node)
	v := e.f.NodeCreate(e.node)
	e.write(t, u, 0, Ref(v, 0))
	e.write(t, u, 8, Null())
	e.write(t, v, 0, Null())
	e.write(t, v, 8, Ref(u, 0))
	e.f.SetVar(1, Ref(u, 0))
	// v is either the last node or followed by an integer
	ta := e.f.Roots[v]
	lhs := []int{e.f.dataLeaf(ta, Int(1)), e.boxes.DataState(Ref(u, 0))}
	ta.AddTransition(lhs, e.boxes.NodeLabel(e.node, []Item{Sel(0), Sel(8)}), ta.FinalState())
	if n := len(e.f.Roots[v].AcceptingTransitions()); n != 2 {
		t.Fatalf("expected 2 accepting transitions, got %d", n)
	}
	original := e.f.Clone()

	e.boxes.GetBox(Box{Type: e.node, Forward: 0, Back: 8})
	if !e.f.Discover(u, map[int]bool{0: true}, nil) {
		t.Fatalf("partner with several accepting transitions not folded:\n%s", e.f)
	}
	if top := e.f.AcceptingTransition(u).Label(); !top.Items[0].IsBox() {
		t.Errorf("expected a box at the forward selector, got %s", top)
	}
	for _, tr := range e.f.Roots[v].AcceptingTransitions() {
		if _, ok := tr.Label().ItemAt(8); ok {
			t.Errorf("back selector left in the partner: %s", tr.Label())
		}
	}

	branches, err := e.f.Isolate(u, []int{0})
	if err != nil || len(branches) != 1 {
		t.Fatalf("unfold: %v, %d branches", err, len(branches))
	}
	g := branches[0]
	if n := len(g.Roots[v].AcceptingTransitions()); n != 2 {
		t.Errorf("unfolding should restore both shapes of the partner, got %d", n)
	}
	a, b := encode(original), encode(g)
	if !treeaut.Subseteq(a, b) || !treeaut.Subseteq(b, a) {
		t.Errorf("fold then unfold changed the heap:\n%s\n%s", original, g)
	}
}

func TestFoldRejectsPartialPartner(t *testing.T) {
	e := newEnv()
	u := e.f.NodeCreate(e.node)
	v := e.f.NodeCreate(e.node)
	e.write(t, u, 0, Ref(v, 0))
	e.write(t, u, 8, Null())
	e.write(t, v, 0, Null())
	e.write(t, v, 8, Ref(u, 0))
	e.f.SetVar(1, Ref(u, 0))
	// the second shape of v does not point back to u
	ta := e.f.Roots[v]
	lhs := []int{e.f.dataLeaf(ta, Null()), e.f.dataLeaf(ta, Null())}
	ta.AddTransition(lhs, e.boxes.NodeLabel(e.node, []Item{Sel(0), Sel(8)}), ta.FinalState())
	e.boxes.GetBox(Box{Type: e.node, Forward: 0, Back: 8})
	if e.f.Discover(u, map[int]bool{0: true}, nil) {
		t.Errorf("folded a partner that does not always point back:\n%s", e.f)
	}
}

func TestSmarterMatchComparesDataInOrder(t *testing.T) {
	e := newEnv()
	null, one := e.boxes.DataState(Null()), e.boxes.DataState(Int(1))
	b := e.boxes.GetBox(Box{Type: e.node, Forward: 0, Back: 8})
	ta := treeaut.New(e.f.Backend())
	sels := e.boxes.NodeLabel(e.node, []Item{Sel(0), Sel(8)})
	boxed := e.boxes.NodeLabel(e.node, []Item{BoxItem(b), Sel(8)})
	t1 := ta.AddTransition([]int{1, null}, sels, 2)
	t2 := ta.AddTransition([]int{null, 1}, sels, 3)
	t3 := ta.AddTransition([]int{1, one}, boxed, 4)
	t4 := ta.AddTransition([]int{1, null}, boxed, 5)
	if !SmarterMatch(t1, t2) {
		t.Errorf("the same data children at other positions should match")
	}
	if SmarterMatch(t1, t3) {
		t.Errorf("different data children should not match")
	}
	if !SmarterMatch(t1, t4) || !SmartMatch(t1, t3) {
		t.Errorf("node labels of the same type should match whatever their items")
	}
	if ExactMatch(t1, t4) {
		t.Errorf("exact match should compare labels")
	}
}

func TestHiddenSelector(t *testing.T) {
	e := newEnv()
	roots := e.list(t, 2, true)
	e.boxes.GetBox(Box{Type: e.node, Forward: 0, Back: 8})
	if !e.f.Discover(roots[0], map[int]bool{0: true}, nil) {
		t.Fatalf("box not folded:\n%s", e.f)
	}
	_, err := e.f.Isolate(roots[1], []int{8})
	var unsupported *UnsupportedError
	if !errors.As(err, &unsupported) {
		t.Errorf("expected an unsupported access, got %v", err)
	}
}

func TestIsolateBranches(t *testing.T) {
	e := newEnv()
	e.list(t, 3, false)
	e.f.NormalizeAndFold(false, nil)
	e.f.HeightAbstraction(1, 1, SmartMatch)
	branches, err := e.f.Isolate(1, []int{0})
	if err != nil {
		t.Fatal(err)
	}
	if len(branches) != 2 {
		t.Fatalf("expected a branch per accepting transition, got %d:\n%s", len(branches), e.f)
	}
	for _, g := range branches {
		d, err := g.ReadField(1, 0)
		if err != nil || !d.IsRef() || !g.ValidRoot(d.Root) {
			t.Errorf("selector not isolated: %s, %v\n%s", d, err, g)
		}
	}
}

func TestAbstractionIsSafe(t *testing.T) {
	for _, match := range []string{"exact", "smart", "smarter"} {
		e := newEnv()
		e.list(t, 4, false)
		e.f.NormalizeAndFold(false, nil)
		before := e.f.Roots[1].Clone()
		m, err := Matcher(match)
		if err != nil {
			t.Fatal(err)
		}
		e.f.Abstract(nil, nil, AbstractOptions{Height: 1, Match: m})
		if !treeaut.Subseteq(before, e.f.Roots[1]) {
			t.Errorf("%s: abstraction lost heaps:\n%s", match, e.f)
		}
		if len(e.f.Roots[1].States()) >= len(before.States()) {
			t.Errorf("%s: abstraction did not merge states:\n%s", match, e.f)
		}
	}
	if _, err := Matcher("fuzzy"); err == nil {
		t.Errorf("unknown strategy accepted")
	}
}

func TestForwardConfiguration(t *testing.T) {
	e := newEnv()
	e.list(t, 1, false)
	e.f.NormalizeAndFold(true, nil)
	long := newEnvIn(e.boxes, e.f.Backend())
	long.list(t, 2, false)
	long.f.NormalizeAndFold(true, nil)

	u := NewUFAE(e.boxes)
	fwd := treeaut.New(treeaut.NewBackend[*Label]())
	if u.TestInclusion(e.f, fwd) {
		t.Fatalf("empty forward configuration includes a heap")
	}
	if !u.TestInclusion(e.f.Clone(), fwd) {
		t.Errorf("forward configuration does not include its own heap")
	}
	if u.TestInclusion(long.f, fwd) {
		t.Errorf("longer list included")
	}
	for i := 0; i < 2; i++ {
		if !u.TestInclusion(e.f, fwd) || !u.TestInclusion(long.f, fwd) {
			t.Errorf("forward configuration is not monotone:\n%s", u.Format(fwd))
		}
	}
	decoded := u.TA2FAE(fwd, e.f)
	if len(decoded) != 2 {
		t.Fatalf("expected two configurations, got %d:\n%s", len(decoded), u.Format(fwd))
	}
	for _, g := range decoded {
		used := map[int]bool{}
		for _, root := range g.Roots {
			if root == nil {
				continue
			}
			for _, s := range root.States() {
				used[s] = true
			}
		}
		if s := g.FreshState(); used[s] {
			t.Errorf("fresh state %d of a decoded configuration is already used:\n%s", s, g)
		}
	}
	compatible := e.f.LoadCompatible(fwd, u)
	if len(compatible) != 2 {
		t.Errorf("expected both configurations to be compatible, got %d", len(compatible))
	}
	e.f.Fuse(compatible)
	if !treeaut.Subseteq(encode(long.f), encode(e.f)) {
		t.Errorf("fusion lost the longer list:\n%s", e.f)
	}
}
