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
	"strings"
	"testing"

	"github.com/awslabs/ar-go-forester/analysis/forest"
	"github.com/awslabs/ar-go-forester/analysis/treeaut"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func compile(t *testing.T, src string) (*Assembly, error) {
	t.Helper()
	p, err := ParseProgram("test.yaml", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return Compile(p, forest.NewBoxManager(), treeaut.NewBackend[*forest.Label]())
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"no registers", "code:\n  - {op: abort}\n", "register file"},
		{"no code", "registers: 1\n", "no code"},
		{"unknown opcode", "registers: 1\ncode:\n  - {op: hop}\n", `unknown opcode "hop"`},
		{"unknown label", "registers: 1\ncode:\n  - {op: jmp, target: nowhere}\n", `unknown label "nowhere"`},
		{"duplicate label",
			"registers: 1\ncode:\n  - {label: a, op: abort}\n  - {label: a, op: abort}\n", "already defined"},
		{"register range", "registers: 2\ncode:\n  - {op: move, dst: 2, src: 0}\n", "out of range"},
		{"unknown type", "registers: 1\ncode:\n  - {op: node-create, dst: 0, src: 0, type: T}\n", "unknown type"},
		{"bad constant", "registers: 1\ncode:\n  - {op: load-cst, dst: 0, value: \"int:x\"}\n", "invalid constant"},
		{"cond without else",
			"registers: 1\ncode:\n  - {label: a, op: cond, src: 0, then: a}\n", "else label"},
		{"jump loop", "registers: 1\ncode:\n  - {label: a, op: jmp, target: b}\n  - {label: b, op: jmp, target: a}\n",
			"jump loop"},
		{"loop without abs",
			"registers: 1\ncode:\n  - {label: top, op: nondet, dst: 0}\n" +
				"  - {op: cond, src: 0, then: top, else: end}\n  - {label: end, op: abort}\n",
			"loop without abs or fix"},
		{"duplicate selector",
			"registers: 1\ntypes:\n  - {name: T, selectors: [0, 0]}\ncode:\n  - {op: abort}\n", "invalid selector"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := compile(t, test.src)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if !strings.Contains(err.Error(), test.msg) {
				t.Errorf("error %q should contain %q", err, test.msg)
			}
		})
	}
}

func TestUnknownKeyRejected(t *testing.T) {
	if _, err := ParseProgram("test.yaml", []byte("registers: 1\nregister: 2\n")); err == nil {
		t.Errorf("expected an error on an unknown key")
	}
}

func TestTypeRedefinition(t *testing.T) {
	boxes := forest.NewBoxManager()
	boxes.CreateTypeInfo("T", []int{0})
	backend := treeaut.NewBackend[*forest.Label]()
	same, _ := ParseProgram("a.yaml", []byte("registers: 1\ntypes:\n  - {name: T, selectors: [0]}\ncode:\n  - {op: abort}\n"))
	if _, err := Compile(same, boxes, backend); err != nil {
		t.Errorf("redefining a type with the same layout: %v", err)
	}
	other, _ := ParseProgram("b.yaml", []byte("registers: 1\ntypes:\n  - {name: T, selectors: [8]}\ncode:\n  - {op: abort}\n"))
	if _, err := Compile(other, boxes, backend); err == nil {
		t.Errorf("expected an error when redefining a type with another layout")
	}
}

func TestJumpChains(t *testing.T) {
	asm, err := compile(t, `
registers: 1
code:
  - {op: jmp, target: one}
  - {label: two, op: jmp, target: end}
  - {label: one, op: jmp, target: two}
  - {label: end, op: nondet, dst: 0}
  - {op: cond, src: 0, then: back, else: out}
  - {label: back, op: jmp, target: out}
  - {label: out, op: abort}
`)
	if err != nil {
		t.Fatal(err)
	}
	if asm.Entry != asm.Code[3] {
		t.Errorf("entry should skip the jump chain, got %s", asm.Entry)
	}
	cond := asm.Code[4]
	if cond.Target != asm.Code[6] || cond.Else != asm.Code[6] {
		t.Errorf("cond branches should skip jumps: %s", cond)
	}
}

func TestFixpointSites(t *testing.T) {
	asm, err := compile(t, `
registers: 1
code:
  - {label: top, op: abs}
  - {op: nondet, dst: 0}
  - {op: cond, src: 0, then: top, else: next}
  - {label: next, op: fix}
  - {op: cond, src: 0, then: next, else: end}
  - {label: end, op: abort}
`)
	if err != nil {
		t.Fatal(err)
	}
	if len(asm.Sites) != 2 || asm.Sites[0].Instr() != asm.Code[0] || asm.Sites[1].Instr() != asm.Code[3] {
		t.Fatalf("unexpected sites %v", asm.Sites)
	}
	if asm.Code[3].Site() != asm.Sites[1] {
		t.Errorf("fix instruction not linked to its site")
	}
}

func TestLiveness(t *testing.T) {
	calls, err := LoadProgram("testdata/calls.yaml")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		program *Program
		live    [][]int
	}{
		// the loop bound is read by eq in both loops of sll
		{builtin(t, "sll"), [][]int{{3}, {3}}},
		{builtin(t, "dll"), [][]int{nil, {3}}},
		// the fix site of push overwrites every register it reads
		{calls, [][]int{nil, {3}}},
	}
	for _, test := range tests {
		t.Run(test.program.Name, func(t *testing.T) {
			asm, err := Compile(test.program, forest.NewBoxManager(), treeaut.NewBackend[*forest.Label]())
			if err != nil {
				t.Fatal(err)
			}
			var got [][]int
			for _, site := range asm.Sites {
				got = append(got, site.Instr().Live())
			}
			if diff := cmp.Diff(test.live, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("live registers mismatch (-want +got):\n%s", diff)
			}
		})
	}
	leak, err := Compile(builtin(t, "sll-leak"), forest.NewBoxManager(), treeaut.NewBackend[*forest.Label]())
	if err != nil {
		t.Fatal(err)
	}
	for _, in := range leak.Code {
		if in.Op == OpCheck && len(in.Live()) != 0 {
			t.Errorf("no register is read after the check, got %v", in.Live())
		}
	}
}

func TestReturnEdges(t *testing.T) {
	// the procedure returns to the instruction following each call, which closes a loop through both calls
	_, err := compile(t, `
registers: 1
code:
  - {op: call, target: proc}
  - {op: call, target: proc}
  - {op: abort}
  - {label: proc, op: nondet, dst: 0}
  - {op: ret}
`)
	if err == nil || !strings.Contains(err.Error(), "loop without abs or fix") {
		t.Errorf("expected a loop through the return edges, got %v", err)
	}
}

func TestListing(t *testing.T) {
	p, err := Builtin("null-deref")
	if err != nil {
		t.Fatal(err)
	}
	asm, err := Compile(p, forest.NewBoxManager(), treeaut.NewBackend[*forest.Label]())
	if err != nil {
		t.Fatal(err)
	}
	want := "0000: load-cst    r0, null\n" +
		"0001: load        r1, [r0 +0]\n" +
		"0002: abort\n"
	if diff := cmp.Diff(want, asm.String()); diff != "" {
		t.Errorf("listing mismatch (-want +got):\n%s", diff)
	}
}

func TestParseData(t *testing.T) {
	tests := []struct {
		src  string
		want forest.Data
	}{
		{"undef", forest.Undef()},
		{"unknown", forest.Unknown()},
		{"null", forest.Null()},
		{"true", forest.Bool(true)},
		{"int:-3", forest.Int(-3)},
		{"void:16", forest.VoidPtr(16)},
	}
	for _, test := range tests {
		got, err := ParseData(test.src)
		if err != nil {
			t.Errorf("ParseData(%q): %v", test.src, err)
			continue
		}
		if got != test.want {
			t.Errorf("ParseData(%q) = %s, want %s", test.src, got, test.want)
		}
	}
	for _, bad := range []string{"", "int", "void:-1", "ptr:3"} {
		if _, err := ParseData(bad); err == nil {
			t.Errorf("ParseData(%q) should fail", bad)
		}
	}
}

func TestOpcodeNames(t *testing.T) {
	for op := Opcode(0); op < opCount; op++ {
		parsed, ok := ParseOpcode(op.String())
		if !ok || parsed != op {
			t.Errorf("opcode %d does not round trip through %q", op, op.String())
		}
	}
}
