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
	"encoding/binary"
	"fmt"
	"strings"
)

// Transition is an interned hyperedge lhs -label-> rhs. Transitions are owned by a Backend and shared between all the
// automata of that backend; they must not be modified.
type Transition[L comparable] struct {
	lhs   []int
	label L
	rhs   int
	key   transitionKey[L]
	refs  int
	owner *Backend[L]
}

// Lhs returns the children states of the transition. The returned slice must not be modified.
func (t *Transition[L]) Lhs() []int { return t.lhs }

// Label returns the label of the transition
func (t *Transition[L]) Label() L { return t.label }

// Rhs returns the parent state of the transition
func (t *Transition[L]) Rhs() int { return t.rhs }

// Arity returns the number of children of the transition
func (t *Transition[L]) Arity() int { return len(t.lhs) }

func (t *Transition[L]) String() string {
	return t.Format(DefaultStateName)
}

// Format prints the transition using name to print states
func (t *Transition[L]) Format(name func(int) string) string {
	parts := make([]string, len(t.lhs))
	for i, s := range t.lhs {
		parts[i] = name(s)
	}
	return fmt.Sprintf("%v(%s) -> %s", t.label, strings.Join(parts, ","), name(t.rhs))
}

// DefaultStateName prints state s as qs
func DefaultStateName(s int) string { return fmt.Sprintf("q%d", s) }

type transitionKey[L comparable] struct {
	lhs   string
	label L
	rhs   int
}

func makeKey[L comparable](lhs []int, label L, rhs int) transitionKey[L] {
	buf := make([]byte, 0, len(lhs)*2)
	for _, s := range lhs {
		buf = binary.AppendUvarint(buf, uint64(s))
	}
	return transitionKey[L]{lhs: string(buf), label: label, rhs: rhs}
}

// Backend is the arena owning the transitions of a family of automata. Transitions are content-addressed and
// reference counted: an automaton holding a transition holds one reference, and a transition is evicted when its last
// reference is released.
type Backend[L comparable] struct {
	cache map[transitionKey[L]]*Transition[L]
}

// NewBackend returns an empty backend
func NewBackend[L comparable]() *Backend[L] {
	return &Backend[L]{cache: map[transitionKey[L]]*Transition[L]{}}
}

// Size returns the number of live transitions in the backend
func (b *Backend[L]) Size() int {
	return len(b.cache)
}

// lookup returns the interned transition with that content and acquires a reference on it
func (b *Backend[L]) lookup(lhs []int, label L, rhs int) *Transition[L] {
	key := makeKey(lhs, label, rhs)
	if t, ok := b.cache[key]; ok {
		t.refs++
		return t
	}
	l := make([]int, len(lhs))
	copy(l, lhs)
	t := &Transition[L]{lhs: l, label: label, rhs: rhs, key: key, refs: 1, owner: b}
	b.cache[key] = t
	return t
}

func (b *Backend[L]) acquire(t *Transition[L]) {
	if t.owner != b || t.refs <= 0 {
		panic("treeaut: acquiring a transition that is not live in this backend")
	}
	t.refs++
}

func (b *Backend[L]) release(t *Transition[L]) {
	if t.owner != b || t.refs <= 0 {
		panic("treeaut: releasing a transition that is not live in this backend")
	}
	t.refs--
	if t.refs == 0 {
		delete(b.cache, t.key)
	}
}

// Refs returns the number of references held on the transition
func (b *Backend[L]) Refs(t *Transition[L]) int {
	if t.owner != b {
		return 0
	}
	return t.refs
}
