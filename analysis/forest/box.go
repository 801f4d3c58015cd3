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
)

// TypeInfo is the flattened layout of a record type: the offsets of its pointer selectors, in increasing order
type TypeInfo struct {
	Name    string
	Offsets []int
}

func (t *TypeInfo) String() string {
	return t.Name
}

// HasOffset returns true if the type has a selector at offset
func (t *TypeInfo) HasOffset(offset int) bool {
	for _, o := range t.Offsets {
		if o == offset {
			return true
		}
	}
	return false
}

// Box is the pattern of one link of a doubly linked structure: a node u of type Type whose selector Forward
// references a node v of the same type, whose selector Back references u. Folding replaces the Forward selector of u
// by the box and removes the Back selector of v. A box is identified by its type and offsets; the box registered in
// the BoxManager also carries the template that folding and unfolding instantiate.
type Box struct {
	Type    *TypeInfo
	Forward int
	Back    int

	template *treeaut.TA[*Label]
}

func (b Box) key() Box {
	b.template = nil
	return b
}

func (b Box) String() string {
	return fmt.Sprintf("box(%s:%d/%d)", b.Type.Name, b.Forward, b.Back)
}

// Template returns the automaton defining a registered box. Its accepting transition is the input node, covering
// the forward selector; the child of the forward selector is the output node, covering the selectors that the box
// hides in the node it reaches. Ref(0, 0) in the output node stands for the input node.
func (b *Box) Template() *treeaut.TA[*Label] {
	return b.template
}

// input returns the transition of the input node of the template
func (b *Box) input() *Transition {
	return b.template.AcceptingTransition()
}

// output returns the transition of the output node of the template
func (b *Box) output() *Transition {
	in := b.input()
	pos, ok := in.Label().ItemAt(b.Forward)
	if !ok {
		panic(fmt.Sprintf("forest: template of %s has no forward selector", b))
	}
	return b.template.TDCache()[in.Lhs()[pos]][0]
}

// Ports returns the selector offsets the box connects: the offsets covered in the input node, then the offsets
// covered in the output node
func (b *Box) Ports() []int {
	return append(b.input().Label().Offsets(), b.output().Label().Offsets()...)
}

// hidden returns the items the box removes from the node it reaches, and the data they hold once the input port
// is bound to root u
func (b *Box) hidden(m *BoxManager, u int) ([]Item, []Data) {
	out := b.output()
	data := make([]Data, out.Arity())
	for k, s := range out.Lhs() {
		d := m.DataOf(s)
		if d.IsRef() && d.Root == 0 {
			d = Ref(u, d.Displ)
		}
		data[k] = d
	}
	return out.Label().Items, data
}

// newTemplate builds the template of b in backend
func (m *BoxManager) newTemplate(b *Box, backend *treeaut.Backend[*Label]) *treeaut.TA[*Label] {
	ta := treeaut.New(backend)
	in := Ref(0, 0)
	inState := m.DataState(in)
	ta.AddTransition(nil, m.DataLabel(in), inState)
	v := 1
	ta.AddTransition([]int{inState}, m.NodeLabel(b.Type, []Item{Sel(b.Back)}), v)
	u := 2
	ta.AddTransition([]int{v}, m.NodeLabel(b.Type, []Item{Sel(b.Forward)}), u)
	ta.AddFinalState(u)
	return ta
}
