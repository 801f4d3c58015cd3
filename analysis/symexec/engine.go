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
	"fmt"
	"strings"

	"github.com/awslabs/ar-go-forester/analysis/config"
	"github.com/awslabs/ar-go-forester/analysis/forest"
	"github.com/awslabs/ar-go-forester/analysis/treeaut"
	"github.com/awslabs/ar-go-forester/internal/funcutil"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// Engine runs the symbolic execution of a compiled program
type Engine struct {
	cfg    *config.Config
	logger *config.LogGroup
	boxes  *forest.BoxManager
	match  treeaut.MatchFunc[*forest.Label]

	// taBackend holds the transitions of the heaps of the states
	taBackend *treeaut.Backend[*forest.Label]
	// fixBackend holds the transitions of the forward configurations
	fixBackend *treeaut.Backend[*forest.Label]

	manager *ExecutionManager
	asm     *Assembly
}

// Result summarizes a run
type Result struct {
	Program         string
	StatesEvaluated int
	TracesEvaluated int

	// Boxes are all the boxes known after the run
	Boxes []*forest.Box

	// Sites are the fixpoint sites of the program with their forward configurations
	Sites []*FixpointSite

	// Trace is the path to the instruction that raised an error, empty if the run succeeded
	Trace []*Instr
}

// NewEngine returns an engine using the analysis options of cfg. Types and boxes are registered in boxes, which may
// be shared between runs.
func NewEngine(cfg *config.Config, logger *config.LogGroup, boxes *forest.BoxManager) (*Engine, error) {
	match, err := forest.Matcher(cfg.MatchStrategy)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:        cfg,
		logger:     logger,
		boxes:      boxes,
		match:      match,
		taBackend:  treeaut.NewBackend[*forest.Label](),
		fixBackend: treeaut.NewBackend[*forest.Label](),
		manager:    NewExecutionManager(),
	}, nil
}

// Compile compiles p; the next Run executes it
func (e *Engine) Compile(p *Program) error {
	asm, err := Compile(p, e.boxes, e.fixBackend)
	if err != nil {
		return err
	}
	e.asm = asm
	e.logger.Debugf("assembly of %s:\n%s", asm.Name, asm)
	return nil
}

// Assembly returns the compiled program
func (e *Engine) Assembly() *Assembly {
	return e.asm
}

// Run explores every trace of the compiled program. It returns an error wrapping a *ProgramError when a trace is
// erroneous, and wrapping a *NotImplementedError when the analysis cannot proceed. The result is returned in both
// cases.
func (e *Engine) Run() (*Result, error) {
	if e.asm == nil {
		return nil, fmt.Errorf("no program to run")
	}
	for _, site := range e.asm.Sites {
		site.Reset()
	}
	regs := make([]forest.Data, e.asm.Registers)
	for i := range regs {
		regs[i] = forest.Undef()
	}
	e.manager.Init(e.asm.Entry, forest.NewFAE(e.taBackend, e.boxes), regs)
	for st := e.manager.DequeueDFS(); st != nil; st = e.manager.DequeueDFS() {
		if e.cfg.ExceedsMaxStates(e.manager.StatesEvaluated()) {
			return e.result(nil), errors.Errorf("%s: exceeded the maximum of %d states", e.asm.Name, e.cfg.MaxStates)
		}
		if e.logger.Level() >= config.TraceLevel {
			e.logger.Tracef("%s\nregs: %v\n%s", st.Instr, st.Regs, st.FAE)
		}
		if err := e.execute(st); err != nil {
			res := e.result(st)
			return res, errors.Wrapf(err, "%s: error after %d states", e.asm.Name, res.StatesEvaluated)
		}
	}
	res := e.result(nil)
	e.logger.Infof("%s: %d states, %d traces evaluated", e.asm.Name, res.StatesEvaluated, res.TracesEvaluated)
	return res, nil
}

func (e *Engine) result(failed *SymState) *Result {
	res := &Result{
		Program:         e.asm.Name,
		StatesEvaluated: e.manager.StatesEvaluated(),
		TracesEvaluated: e.manager.TracesEvaluated(),
		Boxes:           e.boxes.Boxes(),
		Sites:           e.asm.Sites,
	}
	if failed != nil {
		res.Trace = funcutil.Map(e.manager.Trace(failed), func(s *SymState) *Instr { return s.Instr })
	}
	return res
}

// FormatTrace prints the instructions of the error trace
func (r *Result) FormatTrace() string {
	var b strings.Builder
	for _, in := range r.Trace {
		fmt.Fprintf(&b, "%-40s %s\n", in, in.Loc)
	}
	return b.String()
}

// next enqueues the successor of st executing in, or finishes the trace at the end of the code
func (e *Engine) next(st *SymState, in *Instr, f *forest.FAE, regs []forest.Data) {
	e.nextWithCalls(st, in, f, regs, st.Calls)
}

func (e *Engine) nextWithCalls(st *SymState, in *Instr, f *forest.FAE, regs []forest.Data, calls []*Instr) {
	if in == nil {
		f.Release()
		e.manager.TraceFinished(st)
		return
	}
	e.manager.Enqueue(st, in, f, regs, calls)
}

// execute runs the instruction of st and enqueues its successors
func (e *Engine) execute(st *SymState) error {
	in := st.Instr
	switch in.Op {
	case OpAbs, OpFix:
		return e.fixpoint(st)
	case OpAccSel, OpAccAll, OpCond:
		return e.branch(st)
	}
	f, regs := st.FAE, st.Regs
	st.FAE, st.Regs = nil, nil
	succ, err := e.step(in, f, regs)
	if err != nil {
		f.Release()
		return err
	}
	switch in.Op {
	case OpAbort:
		f.Release()
		e.manager.TraceFinished(st)
	case OpCall:
		calls := append(slices.Clone(st.Calls), in.Next)
		e.nextWithCalls(st, in.Target, f, regs, calls)
	case OpRet:
		n := len(st.Calls)
		if n == 0 {
			f.Release()
			e.manager.TraceFinished(st)
			return nil
		}
		e.nextWithCalls(st, st.Calls[n-1], f, regs, st.Calls[:n-1])
	default:
		e.next(st, succ, f, regs)
	}
	return nil
}

// step executes an instruction with a single successor on f and regs, in place, and returns the successor
func (e *Engine) step(in *Instr, f *forest.FAE, regs []forest.Data) (*Instr, error) {
	switch in.Op {
	case OpLoadCst:
		regs[in.Dst] = in.Value
	case OpMove:
		regs[in.Dst] = regs[in.Src]
	case OpNondet:
		regs[in.Dst] = forest.Unknown()
	case OpGetGreg:
		if in.Greg >= len(f.Vars) {
			return nil, programError(in.Loc, "global register gr%d is not defined", in.Greg)
		}
		regs[in.Dst] = f.Vars[in.Greg]
	case OpSetGreg:
		if in.Greg >= len(f.Vars) {
			return nil, programError(in.Loc, "global register gr%d is not defined", in.Greg)
		}
		f.SetVar(in.Greg, regs[in.Src])
	case OpPushGreg:
		f.SetVar(len(f.Vars), regs[in.Src])
	case OpAlloc:
		size := regs[in.Src]
		if !size.IsInt() || size.Int < 0 {
			return nil, programError(in.Loc, "allocation of an invalid size %s", size)
		}
		regs[in.Dst] = forest.VoidPtr(size.Int)
	case OpNodeCreate:
		if regs[in.Src].Kind != forest.KindVoidPtr {
			return nil, programError(in.Loc, "creating a node from %s which is not an allocated block", regs[in.Src])
		}
		regs[in.Dst] = forest.Ref(f.NodeCreate(in.Type), 0)
	case OpNodeFree:
		if err := e.free(in, f, regs); err != nil {
			return nil, err
		}
	case OpLoad:
		root, displ, err := deref(in, f, regs[in.Src])
		if err != nil {
			return nil, err
		}
		v, err := f.ReadField(root, displ+in.Offset)
		if err != nil {
			return nil, wrapForest(in, err)
		}
		regs[in.Dst] = v
	case OpStore:
		root, displ, err := deref(in, f, regs[in.Dst])
		if err != nil {
			return nil, err
		}
		if err := f.WriteField(root, displ+in.Offset, regs[in.Src]); err != nil {
			return nil, wrapForest(in, err)
		}
	case OpEq, OpNeq:
		res, known := forest.Equal(regs[in.Src], regs[in.Src2])
		switch {
		case !known:
			regs[in.Dst] = forest.Unknown()
		case in.Op == OpEq:
			regs[in.Dst] = forest.Bool(res)
		default:
			regs[in.Dst] = forest.Bool(!res)
		}
	case OpLt:
		a, b := regs[in.Src], regs[in.Src2]
		if a.IsInt() && b.IsInt() {
			regs[in.Dst] = forest.Bool(a.Int < b.Int)
		} else {
			regs[in.Dst] = forest.Unknown()
		}
	case OpAdd:
		regs[in.Dst] = add(regs[in.Src], regs[in.Src2])
	case OpCheck:
		live := funcutil.Map(in.live, func(r int) forest.Data { return regs[r] })
		if garbage := f.GarbageRoots(live...); len(garbage) > 0 {
			return nil, programError(in.Loc, "garbage detected: roots %v are unreachable", garbage)
		}
	case OpJmp:
		return in.Target, nil
	case OpCall, OpRet, OpAbort:
	default:
		panic(fmt.Sprintf("symexec: unexpected %s in step", in.Op))
	}
	return in.Next, nil
}

func add(a, b forest.Data) forest.Data {
	switch {
	case a.IsInt() && b.IsInt():
		return forest.Int(a.Int + b.Int)
	case a.IsRef() && b.IsInt():
		return forest.Ref(a.Root, a.Displ+b.Int)
	case a.IsInt() && b.IsRef():
		return forest.Ref(b.Root, b.Displ+a.Int)
	default:
		return forest.Unknown()
	}
}

// deref checks that d is a valid pointer and returns its root and displacement
func deref(in *Instr, f *forest.FAE, d forest.Data) (root int, displ int, err error) {
	switch {
	case d.IsNull():
		return 0, 0, programError(in.Loc, "dereferencing null")
	case d.IsUndef():
		return 0, 0, programError(in.Loc, "dereferencing an undefined value")
	case !d.IsRef():
		return 0, 0, programError(in.Loc, "dereferencing %s which is not a pointer", d)
	case !f.ValidRoot(d.Root):
		return 0, 0, programError(in.Loc, "dereferencing a dangling pointer %s", d)
	}
	return d.Root, d.Displ, nil
}

// wrapForest turns the shapes the forest package does not handle into NotImplementedError
func wrapForest(in *Instr, err error) error {
	var unsupported *forest.UnsupportedError
	if errors.As(err, &unsupported) {
		return notImplemented(in.Loc, "%s", unsupported.Msg)
	}
	return err
}

func (e *Engine) free(in *Instr, f *forest.FAE, regs []forest.Data) error {
	d := regs[in.Dst]
	root, displ, err := deref(in, f, d)
	if err != nil {
		return err
	}
	if displ != 0 {
		return programError(in.Loc, "freeing %s which points inside a node", d)
	}
	if !f.IsIsolated(root) {
		return notImplemented(in.Loc, "freeing root %d which is not isolated", root)
	}
	f.FreeRoot(root)
	for i, r := range regs {
		if r.IsRef() && r.Root == root {
			regs[i] = forest.Undef()
		}
	}
	return nil
}

// successor is a pending child of a state
type successor struct {
	in   *Instr
	fae  *forest.FAE
	regs []forest.Data
}

// fork enqueues the successors of st. Successors past the end of the code finish their trace once the others are
// enqueued, so that st is retired only when it has no pending child.
func (e *Engine) fork(st *SymState, succs []successor) {
	finished := 0
	for _, s := range succs {
		if s.in == nil {
			s.fae.Release()
			finished++
			continue
		}
		e.manager.Enqueue(st, s.in, s.fae, s.regs, st.Calls)
	}
	for i := 0; i < finished; i++ {
		e.manager.TraceFinished(st)
	}
	if len(succs) == 0 {
		e.manager.TraceFinished(st)
	}
}

// branch executes the instructions that may split the state
func (e *Engine) branch(st *SymState) error {
	in := st.Instr
	f, regs := st.FAE, st.Regs
	st.FAE, st.Regs = nil, nil
	if in.Op == OpCond {
		v := regs[in.Src]
		switch {
		case v.IsUndef():
			f.Release()
			return programError(in.Loc, "branching on an undefined value")
		case v.IsUnknown():
			e.fork(st, []successor{{in.Else, f.Clone(), slices.Clone(regs)}, {in.Target, f, regs}})
		case v.IsInt() && v.Int == 0:
			e.fork(st, []successor{{in.Else, f, regs}})
		default:
			e.fork(st, []successor{{in.Target, f, regs}})
		}
		return nil
	}
	defer f.Release()
	root, displ, err := deref(in, f, regs[in.Dst])
	if err != nil {
		return err
	}
	var offsets []int
	if in.Op == OpAccSel {
		offsets = []int{displ + in.Offset}
	} else {
		set := map[int]bool{}
		for _, t := range f.Roots[root].AcceptingTransitions() {
			if !t.Label().IsNode() {
				return notImplemented(in.Loc, "accessing root %d which is not a node", root)
			}
			for _, off := range t.Label().Type.Offsets {
				set[off] = true
			}
		}
		offsets = funcutil.SetToOrderedSlice(set)
	}
	branches, err := f.Isolate(root, offsets)
	if err != nil {
		return wrapForest(in, err)
	}
	succs := make([]successor, len(branches))
	for i, g := range branches {
		succs[i] = successor{in.Next, g, slices.Clone(regs)}
	}
	e.fork(st, succs)
	return nil
}
