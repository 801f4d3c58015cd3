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
	"golang.org/x/exp/slices"
)

// LabelKind distinguishes the three shapes of labels
type LabelKind int

const (
	// LabelData labels the leaf transition of a data state
	LabelData LabelKind = iota
	// LabelNode labels a heap node: a type and its ordered items
	LabelNode
	// LabelVars labels the top transition of an encoded forest: the variable table
	LabelVars
)

// Item is one child of a node label: a selector at Offset, or a box whose forward port is at Offset
type Item struct {
	Offset int
	Box    *Box
}

// Sel returns the selector item at offset
func Sel(offset int) Item { return Item{Offset: offset} }

// BoxItem returns the item of box b
func BoxItem(b *Box) Item { return Item{Offset: b.Forward, Box: b} }

// IsBox returns true if the item is a box
func (it Item) IsBox() bool { return it.Box != nil }

func (it Item) String() string {
	if it.Box != nil {
		return it.Box.String()
	}
	return fmt.Sprintf("[%d]", it.Offset)
}

// Label is an interned transition label. Labels are compared by pointer: the BoxManager returns the same pointer for
// equal contents.
type Label struct {
	Kind  LabelKind
	Data  Data
	Type  *TypeInfo
	Items []Item
	Vars  []Data
	key   string
}

// IsData returns true for data labels
func (l *Label) IsData() bool { return l.Kind == LabelData }

// IsNode returns true for node labels
func (l *Label) IsNode() bool { return l.Kind == LabelNode }

// ItemAt returns the position of the item at offset
func (l *Label) ItemAt(offset int) (int, bool) {
	for i, it := range l.Items {
		if it.Offset == offset {
			return i, true
		}
	}
	return -1, false
}

// Offsets returns the offsets of the items
func (l *Label) Offsets() []int {
	res := make([]int, len(l.Items))
	for i, it := range l.Items {
		res[i] = it.Offset
	}
	return res
}

func (l *Label) String() string {
	return l.key
}

func nodeKey(t *TypeInfo, items []Item) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.String()
	}
	return t.Name + "{" + strings.Join(parts, ",") + "}"
}

func varsKey(vars []Data) string {
	parts := make([]string, len(vars))
	for i, d := range vars {
		parts[i] = d.String()
	}
	return "<" + strings.Join(parts, " ") + ">"
}

// dataFlag marks data states. Data states are shared by all the automata of a BoxManager; other states are
// allocated below the flag.
const dataFlag = 1 << 30

// IsData returns true if s is a data state
func IsData(s int) bool {
	return s&dataFlag != 0
}

// BoxManager owns the interned types, labels, data states and boxes of an analysis. It is append-only and is shared
// by every forest automaton of the analysis.
type BoxManager struct {
	types     map[string]*TypeInfo
	typeOrder []*TypeInfo
	boxes     map[Box]*Box
	boxOrder  []*Box
	labels    map[string]*Label
	dataIndex map[Data]int
	data      []Data

	// templates holds the transitions of the box templates
	templates *treeaut.Backend[*Label]
}

// NewBoxManager returns an empty manager
func NewBoxManager() *BoxManager {
	return &BoxManager{
		types:     map[string]*TypeInfo{},
		boxes:     map[Box]*Box{},
		labels:    map[string]*Label{},
		dataIndex: map[Data]int{},
		templates: treeaut.NewBackend[*Label](),
	}
}

// CreateTypeInfo registers the type name with the selector offsets. Registering the same type twice returns the first
// registration; registering a different layout under the same name panics.
func (m *BoxManager) CreateTypeInfo(name string, offsets []int) *TypeInfo {
	sorted := slices.Clone(offsets)
	slices.Sort(sorted)
	if t, ok := m.types[name]; ok {
		if !slices.Equal(t.Offsets, sorted) {
			panic(fmt.Sprintf("forest: type %s registered with offsets %v and %v", name, t.Offsets, sorted))
		}
		return t
	}
	t := &TypeInfo{Name: name, Offsets: sorted}
	m.types[name] = t
	m.typeOrder = append(m.typeOrder, t)
	return t
}

// TypeInfo returns the type registered under name. It panics if there is none.
func (m *BoxManager) TypeInfo(name string) *TypeInfo {
	t, ok := m.types[name]
	if !ok {
		panic(fmt.Sprintf("forest: unknown type %s", name))
	}
	return t
}

// LookupType returns the type registered under name, if any
func (m *BoxManager) LookupType(name string) (*TypeInfo, bool) {
	t, ok := m.types[name]
	return t, ok
}

// Types returns the registered types in registration order
func (m *BoxManager) Types() []*TypeInfo {
	return slices.Clone(m.typeOrder)
}

// LookupBox returns the registered box with the type and offsets of b
func (m *BoxManager) LookupBox(b Box) (*Box, bool) {
	r, ok := m.boxes[b.key()]
	return r, ok
}

// GetBox registers b with its template if needed and returns the registered box
func (m *BoxManager) GetBox(b Box) *Box {
	k := b.key()
	if r, ok := m.boxes[k]; ok {
		return r
	}
	r := &Box{Type: k.Type, Forward: k.Forward, Back: k.Back}
	r.template = m.newTemplate(r, m.templates)
	m.boxes[k] = r
	m.boxOrder = append(m.boxOrder, r)
	return r
}

// Boxes returns the learned boxes in learning order
func (m *BoxManager) Boxes() []*Box {
	return slices.Clone(m.boxOrder)
}

func (m *BoxManager) intern(l *Label) *Label {
	if r, ok := m.labels[l.key]; ok {
		return r
	}
	m.labels[l.key] = l
	return l
}

// DataLabel returns the label of the leaf transition of d
func (m *BoxManager) DataLabel(d Data) *Label {
	return m.intern(&Label{Kind: LabelData, Data: d, key: d.String()})
}

// NodeLabel returns the node label of type t with items. Items are sorted by offset; two items at the same offset
// panic.
func (m *BoxManager) NodeLabel(t *TypeInfo, items []Item) *Label {
	sorted := slices.Clone(items)
	slices.SortFunc(sorted, func(a, b Item) bool { return a.Offset < b.Offset })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Offset == sorted[i-1].Offset {
			panic(fmt.Sprintf("forest: two items at offset %d in %s", sorted[i].Offset, t.Name))
		}
	}
	return m.intern(&Label{Kind: LabelNode, Type: t, Items: sorted, key: nodeKey(t, sorted)})
}

// VarsLabel returns the label holding the variable table vars
func (m *BoxManager) VarsLabel(vars []Data) *Label {
	return m.intern(&Label{Kind: LabelVars, Vars: slices.Clone(vars), key: varsKey(vars)})
}

// DataState returns the state of the data value d
func (m *BoxManager) DataState(d Data) int {
	if i, ok := m.dataIndex[d]; ok {
		return i | dataFlag
	}
	i := len(m.data)
	m.dataIndex[d] = i
	m.data = append(m.data, d)
	return i | dataFlag
}

// DataOf returns the value of the data state s. It panics if s is not a data state.
func (m *BoxManager) DataOf(s int) Data {
	if !IsData(s) {
		panic(fmt.Sprintf("forest: q%d is not a data state", s))
	}
	return m.data[s&^dataFlag]
}

// StateName prints data states as their value and other states as q<n>
func (m *BoxManager) StateName(s int) string {
	if IsData(s) {
		return "<" + m.DataOf(s).String() + ">"
	}
	return treeaut.DefaultStateName(s)
}
