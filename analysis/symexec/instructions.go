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
)

// Opcode identifies the operation of an instruction
type Opcode int

const (
	OpLoadCst Opcode = iota
	OpMove
	OpGetGreg
	OpSetGreg
	OpPushGreg
	OpAlloc
	OpNodeCreate
	OpNodeFree
	OpAccSel
	OpAccAll
	OpLoad
	OpStore
	OpEq
	OpNeq
	OpLt
	OpAdd
	OpCond
	OpJmp
	OpCall
	OpRet
	OpAbs
	OpFix
	OpCheck
	OpAbort
	OpNondet
	opCount
)

var opNames = [opCount]string{
	OpLoadCst:    "load-cst",
	OpMove:       "move",
	OpGetGreg:    "get-greg",
	OpSetGreg:    "set-greg",
	OpPushGreg:   "push-greg",
	OpAlloc:      "alloc",
	OpNodeCreate: "node-create",
	OpNodeFree:   "node-free",
	OpAccSel:     "acc-sel",
	OpAccAll:     "acc-all",
	OpLoad:       "load",
	OpStore:      "store",
	OpEq:         "eq",
	OpNeq:        "neq",
	OpLt:         "lt",
	OpAdd:        "add",
	OpCond:       "cond",
	OpJmp:        "jmp",
	OpCall:       "call",
	OpRet:        "ret",
	OpAbs:        "abs",
	OpFix:        "fix",
	OpCheck:      "check",
	OpAbort:      "abort",
	OpNondet:     "nondet",
}

func (op Opcode) String() string {
	if op < 0 || op >= opCount {
		return fmt.Sprintf("op(%d)", int(op))
	}
	return opNames[op]
}

// ParseOpcode returns the opcode named s
func ParseOpcode(s string) (Opcode, bool) {
	for op, name := range opNames {
		if name == s {
			return Opcode(op), true
		}
	}
	return 0, false
}

// IsFixpoint returns true for the instructions that own a forward configuration
func (op Opcode) IsFixpoint() bool {
	return op == OpAbs || op == OpFix
}

// operands lists which register operands an opcode reads or writes
type operands struct {
	dst, src, src2 bool
}

func (op Opcode) operands() operands {
	switch op {
	case OpLoadCst, OpGetGreg, OpAccSel, OpAccAll, OpNodeFree, OpNondet:
		return operands{dst: true}
	case OpMove, OpAlloc, OpNodeCreate, OpLoad, OpStore:
		return operands{dst: true, src: true}
	case OpSetGreg, OpPushGreg, OpCond:
		return operands{src: true}
	case OpEq, OpNeq, OpLt, OpAdd:
		return operands{dst: true, src: true, src2: true}
	default:
		return operands{}
	}
}

// access returns the registers read and written by in. node-free may also reset registers referencing the freed
// node; those writes are not certain and are not reported.
func (in *Instr) access() (reads, writes []int) {
	switch in.Op {
	case OpLoadCst, OpGetGreg, OpNondet:
		return nil, []int{in.Dst}
	case OpMove, OpAlloc, OpNodeCreate, OpLoad:
		return []int{in.Src}, []int{in.Dst}
	case OpNodeFree, OpAccSel, OpAccAll:
		return []int{in.Dst}, nil
	case OpStore:
		return []int{in.Dst, in.Src}, nil
	case OpSetGreg, OpPushGreg, OpCond:
		return []int{in.Src}, nil
	case OpEq, OpNeq, OpLt, OpAdd:
		return []int{in.Src, in.Src2}, []int{in.Dst}
	}
	return nil, nil
}

// Instr is a compiled instruction. Successors are linked directly: jumps are resolved at compile time, so Next,
// Target and Else never point to a jmp instruction unless it closes a loop of jumps.
type Instr struct {
	Op     Opcode
	Dst    int
	Src    int
	Src2   int
	Greg   int
	Offset int
	Value  forest.Data
	Type   *forest.TypeInfo

	// Target is the destination of jmp and call, and the branch taken by cond on a true value
	Target *Instr
	// Else is the branch taken by cond on a false value
	Else *Instr
	// Next is the fall-through successor, nil at the end of the code
	Next *Instr

	Loc Location

	// Index is the position of the instruction in the listing
	Index int

	site *FixpointSite
	live []int
}

// Site returns the fixpoint site of an abs or fix instruction
func (in *Instr) Site() *FixpointSite {
	return in.site
}

// Live returns the registers that some execution from in reads before writing them
func (in *Instr) Live() []int {
	return in.live
}

func target(in *Instr) string {
	if in == nil {
		return "end"
	}
	return fmt.Sprintf("@%d", in.Index)
}

func (in *Instr) String() string {
	var args string
	switch in.Op {
	case OpLoadCst:
		args = fmt.Sprintf("r%d, %s", in.Dst, in.Value)
	case OpMove:
		args = fmt.Sprintf("r%d, r%d", in.Dst, in.Src)
	case OpGetGreg:
		args = fmt.Sprintf("r%d, gr%d", in.Dst, in.Greg)
	case OpSetGreg:
		args = fmt.Sprintf("gr%d, r%d", in.Greg, in.Src)
	case OpPushGreg:
		args = fmt.Sprintf("r%d", in.Src)
	case OpAlloc:
		args = fmt.Sprintf("r%d, r%d", in.Dst, in.Src)
	case OpNodeCreate:
		args = fmt.Sprintf("r%d, r%d, %s", in.Dst, in.Src, in.Type)
	case OpNodeFree, OpAccAll, OpNondet:
		args = fmt.Sprintf("r%d", in.Dst)
	case OpAccSel:
		args = fmt.Sprintf("[r%d %+d]", in.Dst, in.Offset)
	case OpLoad:
		args = fmt.Sprintf("r%d, [r%d %+d]", in.Dst, in.Src, in.Offset)
	case OpStore:
		args = fmt.Sprintf("[r%d %+d], r%d", in.Dst, in.Offset, in.Src)
	case OpEq, OpNeq, OpLt, OpAdd:
		args = fmt.Sprintf("r%d, r%d, r%d", in.Dst, in.Src, in.Src2)
	case OpCond:
		args = fmt.Sprintf("r%d, %s, %s", in.Src, target(in.Target), target(in.Else))
	case OpJmp, OpCall:
		args = target(in.Target)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%04d: %-12s", in.Index, in.Op)
	b.WriteString(args)
	return strings.TrimRight(b.String(), " ")
}
