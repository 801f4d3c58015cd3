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
	"fmt"
	"strings"

	"golang.org/x/tools/container/intsets"
)

// TA is a bottom-up tree automaton over labels L. Its transitions live in a Backend shared with other automata.
// Transitions are kept in insertion order, which makes every algorithm of this package deterministic.
type TA[L comparable] struct {
	backend *Backend[L]
	trans   []*Transition[L]
	present map[*Transition[L]]bool
	finals  intsets.Sparse
	maxRank int
	next    int
}

// New returns an empty automaton whose transitions are stored in backend
func New[L comparable](backend *Backend[L]) *TA[L] {
	return &TA[L]{
		backend: backend,
		present: map[*Transition[L]]bool{},
	}
}

// Backend returns the backend of the automaton
func (ta *TA[L]) Backend() *Backend[L] {
	return ta.backend
}

// Clone returns a copy of ta sharing its transitions
func (ta *TA[L]) Clone() *TA[L] {
	c := New(ta.backend)
	for _, t := range ta.trans {
		c.AddTransitionHandle(t)
	}
	c.finals.Copy(&ta.finals)
	c.next = ta.next
	return c
}

// Clear releases all the transitions of the automaton and removes its final states
func (ta *TA[L]) Clear() {
	for _, t := range ta.trans {
		ta.backend.release(t)
	}
	ta.trans = nil
	ta.present = map[*Transition[L]]bool{}
	ta.finals.Clear()
	ta.maxRank = 0
}

// Set replaces the content of ta by the content of other and clears other. Both must share the same backend.
func (ta *TA[L]) Set(other *TA[L]) {
	if ta == other {
		return
	}
	if ta.backend != other.backend {
		panic("treeaut: Set between automata of different backends")
	}
	ta.Clear()
	ta.trans, other.trans = other.trans, nil
	ta.present, other.present = other.present, map[*Transition[L]]bool{}
	ta.finals.Copy(&other.finals)
	other.finals.Clear()
	ta.maxRank, other.maxRank = other.maxRank, 0
	if other.next > ta.next {
		ta.next = other.next
	}
}

// AddTransition interns the transition lhs -label-> rhs and inserts it in the automaton. It returns a handle that can
// be inserted in other automata with AddTransitionHandle.
func (ta *TA[L]) AddTransition(lhs []int, label L, rhs int) *Transition[L] {
	t := ta.backend.lookup(lhs, label, rhs)
	if ta.present[t] {
		ta.backend.release(t)
		return t
	}
	ta.insert(t)
	return t
}

// AddTransitionHandle inserts a transition obtained from another automaton. When the handle belongs to another
// backend, its content is interned again in the backend of ta.
func (ta *TA[L]) AddTransitionHandle(t *Transition[L]) *Transition[L] {
	if t.owner != ta.backend {
		return ta.AddTransition(t.lhs, t.label, t.rhs)
	}
	if ta.present[t] {
		return t
	}
	ta.backend.acquire(t)
	ta.insert(t)
	return t
}

func (ta *TA[L]) insert(t *Transition[L]) {
	ta.present[t] = true
	ta.trans = append(ta.trans, t)
	if len(t.lhs) > ta.maxRank {
		ta.maxRank = len(t.lhs)
	}
}

// RemoveTransitions removes every transition t such that drop(t) and releases them
func (ta *TA[L]) RemoveTransitions(drop func(t *Transition[L]) bool) int {
	kept := ta.trans[:0]
	removed := 0
	for _, t := range ta.trans {
		if drop(t) {
			delete(ta.present, t)
			ta.backend.release(t)
			removed++
		} else {
			kept = append(kept, t)
		}
	}
	for i := len(kept); i < len(ta.trans); i++ {
		ta.trans[i] = nil
	}
	ta.trans = kept
	return removed
}

// HasTransition returns true if t is a transition of ta
func (ta *TA[L]) HasTransition(t *Transition[L]) bool {
	return ta.present[t]
}

// AddFinalState marks s as accepting
func (ta *TA[L]) AddFinalState(s int) {
	ta.finals.Insert(s)
}

// AddFinalStates marks all the states as accepting
func (ta *TA[L]) AddFinalStates(states ...int) {
	for _, s := range states {
		ta.finals.Insert(s)
	}
}

// ClearFinalStates makes every state non-accepting
func (ta *TA[L]) ClearFinalStates() {
	ta.finals.Clear()
}

// IsFinalState returns true if s is accepting
func (ta *TA[L]) IsFinalState(s int) bool {
	return ta.finals.Has(s)
}

// FinalStates returns the accepting states in increasing order
func (ta *TA[L]) FinalStates() []int {
	return ta.finals.AppendTo(nil)
}

// FinalState returns the unique accepting state. It panics if there is not exactly one.
func (ta *TA[L]) FinalState() int {
	if ta.finals.Len() != 1 {
		panic(fmt.Sprintf("treeaut: expected a single final state, found %d", ta.finals.Len()))
	}
	return ta.finals.Min()
}

// Transitions returns the transitions of the automaton in insertion order
func (ta *TA[L]) Transitions() []*Transition[L] {
	res := make([]*Transition[L], len(ta.trans))
	copy(res, ta.trans)
	return res
}

// Len returns the number of transitions
func (ta *TA[L]) Len() int {
	return len(ta.trans)
}

// AcceptingTransitions returns the transitions whose rhs is a final state
func (ta *TA[L]) AcceptingTransitions() []*Transition[L] {
	var res []*Transition[L]
	for _, t := range ta.trans {
		if ta.finals.Has(t.rhs) {
			res = append(res, t)
		}
	}
	return res
}

// AcceptingTransition returns the unique accepting transition. It panics if there is not exactly one.
func (ta *TA[L]) AcceptingTransition() *Transition[L] {
	acc := ta.AcceptingTransitions()
	if len(acc) != 1 {
		panic(fmt.Sprintf("treeaut: expected a single accepting transition, found %d", len(acc)))
	}
	return acc[0]
}

// MaxRank returns the largest arity of the transitions inserted so far
func (ta *TA[L]) MaxRank() int {
	return ta.maxRank
}

// NewState returns a state that is not used by the automaton, provided UpdateStateCounter has been called after the
// last insertion of foreign states.
func (ta *TA[L]) NewState() int {
	s := ta.next
	ta.next++
	return s
}

// UpdateStateCounter sets the fresh state counter above every state of the automaton, ignoring the states for which
// ignore returns true.
func (ta *TA[L]) UpdateStateCounter(ignore func(int) bool) {
	for _, s := range ta.States() {
		if (ignore == nil || !ignore(s)) && s >= ta.next {
			ta.next = s + 1
		}
	}
}

// States returns all the states occurring in a transition or as final state, in increasing order
func (ta *TA[L]) States() []int {
	var set intsets.Sparse
	set.Copy(&ta.finals)
	for _, t := range ta.trans {
		set.Insert(t.rhs)
		for _, s := range t.lhs {
			set.Insert(s)
		}
	}
	return set.AppendTo(nil)
}

// TDCache indexes the transitions by their rhs
func (ta *TA[L]) TDCache() map[int][]*Transition[L] {
	cache := map[int][]*Transition[L]{}
	for _, t := range ta.trans {
		cache[t.rhs] = append(cache[t.rhs], t)
	}
	return cache
}

// BUCache indexes the transitions by the states of their lhs; a transition appears once per distinct child state
func (ta *TA[L]) BUCache() map[int][]*Transition[L] {
	cache := map[int][]*Transition[L]{}
	for _, t := range ta.trans {
		for i, s := range t.lhs {
			dup := false
			for _, p := range t.lhs[:i] {
				if p == s {
					dup = true
					break
				}
			}
			if !dup {
				cache[s] = append(cache[s], t)
			}
		}
	}
	return cache
}

// LabelCache indexes the transitions by label
func (ta *TA[L]) LabelCache() map[L][]*Transition[L] {
	cache := map[L][]*Transition[L]{}
	for _, t := range ta.trans {
		cache[t.label] = append(cache[t.label], t)
	}
	return cache
}

// LeafTransitions returns the transitions of arity 0
func (ta *TA[L]) LeafTransitions() []*Transition[L] {
	var res []*Transition[L]
	for _, t := range ta.trans {
		if len(t.lhs) == 0 {
			res = append(res, t)
		}
	}
	return res
}

func (ta *TA[L]) String() string {
	return ta.Format(DefaultStateName)
}

// Format prints the automaton using name to print states
func (ta *TA[L]) Format(name func(int) string) string {
	var b strings.Builder
	b.WriteString("final:")
	for _, s := range ta.FinalStates() {
		b.WriteString(" ")
		b.WriteString(name(s))
	}
	b.WriteString("\n")
	for _, t := range ta.trans {
		b.WriteString("  ")
		b.WriteString(t.Format(name))
		b.WriteString("\n")
	}
	return b.String()
}
