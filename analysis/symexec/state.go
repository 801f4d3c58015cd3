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

package symexec

import (
	"github.com/awslabs/ar-go-forester/analysis/forest"
	"github.com/awslabs/ar-go-forester/internal/graphutil"
)

// SymState is a node of the tree of symbolic states explored by the analysis: the instruction to execute, the
// heap, the registers and the return addresses. Executing the instruction consumes the heap and registers; a state
// that has been executed only keeps its instruction, for traces.
type SymState struct {
	Parent *SymState
	Instr  *Instr
	FAE    *forest.FAE
	Regs   []forest.Data
	Calls  []*Instr

	children int
	depth    int
	free     bool
}

// Depth returns the number of ancestors of the state
func (s *SymState) Depth() int {
	return s.depth
}

// ExecutionManager owns the symbolic states. Pending states are explored depth-first; a state is recycled once all
// the traces going through it are finished.
type ExecutionManager struct {
	queue []*SymState
	pool  []*SymState

	statesEvaluated int
	tracesEvaluated int
}

// NewExecutionManager returns an empty manager
func NewExecutionManager() *ExecutionManager {
	return &ExecutionManager{}
}

func (m *ExecutionManager) alloc() *SymState {
	if n := len(m.pool); n > 0 {
		s := m.pool[n-1]
		m.pool = m.pool[:n-1]
		*s = SymState{}
		return s
	}
	return &SymState{}
}

// Init clears the manager and enqueues the initial state
func (m *ExecutionManager) Init(entry *Instr, fae *forest.FAE, regs []forest.Data) *SymState {
	for _, s := range m.queue {
		m.release(s)
	}
	m.queue = nil
	m.statesEvaluated = 0
	m.tracesEvaluated = 0
	return m.Enqueue(nil, entry, fae, regs, nil)
}

// Enqueue adds a pending state executing in, child of parent
func (m *ExecutionManager) Enqueue(parent *SymState, in *Instr, fae *forest.FAE, regs []forest.Data,
	calls []*Instr) *SymState {
	s := m.alloc()
	s.Parent = parent
	s.Instr = in
	s.FAE = fae
	s.Regs = regs
	s.Calls = calls
	if parent != nil {
		parent.children++
		s.depth = parent.depth + 1
	}
	m.queue = append(m.queue, s)
	return s
}

// DequeueDFS returns the most recently enqueued state, or nil when none is pending
func (m *ExecutionManager) DequeueDFS() *SymState {
	n := len(m.queue)
	if n == 0 {
		return nil
	}
	s := m.queue[n-1]
	m.queue = m.queue[:n-1]
	m.statesEvaluated++
	return s
}

// Pending returns the number of states waiting to be executed
func (m *ExecutionManager) Pending() int {
	return len(m.queue)
}

// TraceFinished retires s, which has no successor, and every ancestor whose traces are all finished
func (m *ExecutionManager) TraceFinished(s *SymState) {
	m.tracesEvaluated++
	for s != nil && !s.free && s.children == 0 {
		parent := s.Parent
		m.release(s)
		if parent != nil {
			parent.children--
		}
		s = parent
	}
}

func (m *ExecutionManager) release(s *SymState) {
	if s.free {
		panic("symexec: state released twice")
	}
	if s.FAE != nil {
		s.FAE.Release()
	}
	s.FAE = nil
	s.Regs = nil
	s.Calls = nil
	s.Parent = nil
	s.free = true
	m.pool = append(m.pool, s)
}

// Trace returns the states from the initial state to s
func (m *ExecutionManager) Trace(s *SymState) []*SymState {
	return graphutil.Ancestors(s, func(x *SymState) *SymState { return x.Parent }, -1)
}

// StatesEvaluated returns the number of states dequeued since Init
func (m *ExecutionManager) StatesEvaluated() int {
	return m.statesEvaluated
}

// TracesEvaluated returns the number of finished traces since Init
func (m *ExecutionManager) TracesEvaluated() int {
	return m.tracesEvaluated
}
