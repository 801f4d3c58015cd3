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

	"github.com/awslabs/ar-go-forester/analysis/forest"
	"github.com/awslabs/ar-go-forester/analysis/treeaut"
	"github.com/awslabs/ar-go-forester/internal/funcutil"
	"github.com/awslabs/ar-go-forester/internal/graphutil"
	"github.com/bits-and-blooms/bitset"
	"golang.org/x/exp/slices"
)

// Assembly is a compiled program
type Assembly struct {
	Name string

	// Code is the listing; Code[0] is not necessarily the entry point when it is a jump
	Code []*Instr

	// Entry is the first instruction executed
	Entry *Instr

	// Registers is the size of the register file of every state
	Registers int

	// Sites are the fixpoint sites of the abs and fix instructions, in listing order
	Sites []*FixpointSite
}

// Compile registers the types of p in boxes, resolves labels and links the instructions. Every abs and fix
// instruction gets a fixpoint site whose forward configuration lives in backend. It returns an error if the program
// is malformed, or if some loop of its control flow graph has no abs or fix instruction.
func Compile(p *Program, boxes *forest.BoxManager, backend *treeaut.Backend[*forest.Label]) (*Assembly, error) {
	if p.Registers <= 0 {
		return nil, fmt.Errorf("program %s: the register file must not be empty", p.Name)
	}
	if len(p.Code) == 0 {
		return nil, fmt.Errorf("program %s: no code", p.Name)
	}
	if err := loadTypes(p, boxes); err != nil {
		return nil, err
	}
	asm := &Assembly{Name: p.Name, Registers: p.Registers}
	labels := map[string]*Instr{}
	for i, st := range p.Code {
		loc := Location{File: p.file, Line: st.Line}
		op, ok := ParseOpcode(st.Op)
		if !ok {
			return nil, fmt.Errorf("%s: unknown opcode %q", loc, st.Op)
		}
		in := &Instr{Op: op, Index: i, Loc: loc}
		if st.Label != "" {
			if prev, dup := labels[st.Label]; dup {
				return nil, fmt.Errorf("%s: label %q already defined at %s", loc, st.Label, prev.Loc)
			}
			labels[st.Label] = in
		}
		asm.Code = append(asm.Code, in)
	}
	for i, st := range p.Code {
		if err := asm.fill(asm.Code[i], st, labels, boxes); err != nil {
			return nil, err
		}
		if i+1 < len(asm.Code) {
			asm.Code[i].Next = asm.Code[i+1]
		}
	}
	if err := asm.link(); err != nil {
		return nil, err
	}
	asm.liveness()
	for _, in := range asm.Code {
		if in.Op.IsFixpoint() {
			in.site = newFixpointSite(in, backend, boxes)
			asm.Sites = append(asm.Sites, in.site)
		}
	}
	if err := asm.checkLoops(); err != nil {
		return nil, err
	}
	return asm, nil
}

func loadTypes(p *Program, boxes *forest.BoxManager) error {
	for _, td := range p.Types {
		if td.Name == "" {
			return fmt.Errorf("program %s: type without a name", p.Name)
		}
		if t, ok := boxes.LookupType(td.Name); ok {
			if !sameOffsets(t.Offsets, td.Selectors) {
				return fmt.Errorf("program %s: type %s redefined with selectors %v (was %v)",
					p.Name, td.Name, td.Selectors, t.Offsets)
			}
			continue
		}
		seen := map[int]bool{}
		for _, off := range td.Selectors {
			if off < 0 || seen[off] {
				return fmt.Errorf("program %s: type %s has an invalid selector %d", p.Name, td.Name, off)
			}
			seen[off] = true
		}
		boxes.CreateTypeInfo(td.Name, td.Selectors)
	}
	return nil
}

func sameOffsets(sorted []int, offsets []int) bool {
	other := slices.Clone(offsets)
	slices.Sort(other)
	return slices.Equal(sorted, other)
}

// fill sets the operands of in from the statement st
func (asm *Assembly) fill(in *Instr, st Statement, labels map[string]*Instr, boxes *forest.BoxManager) error {
	ops := in.Op.operands()
	for _, r := range []struct {
		used bool
		name string
		reg  int
	}{{ops.dst, "dst", st.Dst}, {ops.src, "src", st.Src}, {ops.src2, "src2", st.Src2}} {
		if r.used && (r.reg < 0 || r.reg >= asm.Registers) {
			return fmt.Errorf("%s: %s register r%d out of range [0, %d)", in.Loc, r.name, r.reg, asm.Registers)
		}
	}
	in.Dst, in.Src, in.Src2 = st.Dst, st.Src, st.Src2
	in.Offset = st.Offset
	in.Greg = st.Greg
	if in.Greg < 0 {
		return fmt.Errorf("%s: negative global register", in.Loc)
	}
	resolve := func(name, what string) (*Instr, error) {
		if name == "" {
			return nil, fmt.Errorf("%s: %s without %s label", in.Loc, in.Op, what)
		}
		t, ok := labels[name]
		if !ok {
			return nil, fmt.Errorf("%s: unknown label %q", in.Loc, name)
		}
		return t, nil
	}
	var err error
	switch in.Op {
	case OpLoadCst:
		if in.Value, err = ParseData(st.Value); err != nil {
			return fmt.Errorf("%s: %w", in.Loc, err)
		}
	case OpNodeCreate:
		t, ok := boxes.LookupType(st.Type)
		if !ok {
			return fmt.Errorf("%s: unknown type %q", in.Loc, st.Type)
		}
		in.Type = t
	case OpCond:
		if in.Target, err = resolve(st.Then, "then"); err != nil {
			return err
		}
		if in.Else, err = resolve(st.Else, "else"); err != nil {
			return err
		}
	case OpJmp, OpCall:
		if in.Target, err = resolve(st.Target, "target"); err != nil {
			return err
		}
	}
	return nil
}

// link replaces every edge to a jump by an edge to the end of its jump chain
func (asm *Assembly) link() error {
	follow := func(in *Instr) (*Instr, error) {
		seen := map[*Instr]bool{}
		for in != nil && in.Op == OpJmp {
			if seen[in] {
				return nil, fmt.Errorf("%s: jump loop without instructions", in.Loc)
			}
			seen[in] = true
			in = in.Target
		}
		return in, nil
	}
	var err error
	if asm.Entry, err = follow(asm.Code[0]); err != nil {
		return err
	}
	if asm.Entry == nil {
		return fmt.Errorf("program %s: no code", asm.Name)
	}
	for _, in := range asm.Code {
		if in.Op == OpJmp {
			continue
		}
		if in.Next, err = follow(in.Next); err != nil {
			return err
		}
		if in.Target, err = follow(in.Target); err != nil {
			return err
		}
		if in.Else, err = follow(in.Else); err != nil {
			return err
		}
	}
	return nil
}

// Successors returns the instructions that may be executed after in
func (asm *Assembly) Successors(in *Instr) []*Instr {
	var succ []*Instr
	add := func(s *Instr) {
		if s != nil {
			succ = append(succ, s)
		}
	}
	switch in.Op {
	case OpJmp, OpCall:
		add(in.Target)
	case OpCond:
		add(in.Target)
		add(in.Else)
	case OpRet:
		for _, c := range asm.Code {
			if c.Op == OpCall {
				add(c.Next)
			}
		}
	case OpAbort:
	default:
		add(in.Next)
	}
	return succ
}

// liveness computes the live registers of every instruction with a backward fixpoint over the control flow graph
func (asm *Assembly) liveness() {
	n := uint(asm.Registers)
	live := make([]*bitset.BitSet, len(asm.Code))
	for i := range live {
		live[i] = bitset.New(n)
	}
	for changed := true; changed; {
		changed = false
		for i := len(asm.Code) - 1; i >= 0; i-- {
			in := asm.Code[i]
			res := bitset.New(n)
			for _, s := range asm.Successors(in) {
				res.InPlaceUnion(live[s.Index])
			}
			reads, writes := in.access()
			for _, r := range writes {
				res.Clear(uint(r))
			}
			for _, r := range reads {
				res.Set(uint(r))
			}
			if !res.Equal(live[i]) {
				live[i] = res
				changed = true
			}
		}
	}
	for i, in := range asm.Code {
		in.live = nil
		for r, ok := live[i].NextSet(0); ok; r, ok = live[i].NextSet(r + 1) {
			in.live = append(in.live, int(r))
		}
	}
}

// checkLoops returns an error if the control flow graph has a loop without abs or fix instruction
func (asm *Assembly) checkLoops() error {
	g := graphutil.NewDigraph(len(asm.Code))
	var keep []int64
	for _, in := range asm.Code {
		for _, s := range asm.Successors(in) {
			g.AddEdge(in.Index, s.Index)
		}
		if !in.Op.IsFixpoint() {
			keep = append(keep, int64(in.Index))
		}
	}
	sub := graphutil.Subgraph(g, keep)
	cyclic := graphutil.CyclicComponents(keep, sub.Successors)
	if len(cyclic) == 0 {
		return nil
	}
	cycles := graphutil.FindAllElementaryCycles(graphutil.Subgraph(sub, cyclic[0]))
	var path []string
	if len(cycles) > 0 {
		path = funcutil.Map(cycles[0], func(i int64) string { return fmt.Sprintf("@%d", i) })
	}
	return fmt.Errorf("program %s: loop without abs or fix instruction through %s",
		asm.Name, strings.Join(path, " -> "))
}

func (asm *Assembly) String() string {
	var b strings.Builder
	for _, in := range asm.Code {
		b.WriteString(in.String())
		b.WriteString("\n")
	}
	return b.String()
}
