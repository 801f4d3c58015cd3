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

// Package timbuk reads and writes tree automata in the Timbuk text format:
//
//	Ops a:0 f:1
//
//	Automaton A
//	States q0 q1
//	Final States q1
//	Transitions
//	a -> q0
//	f(q0) -> q1
//
// A stream may contain several automata. The Ops section is optional; when present, the arity of every transition is
// checked against it.
package timbuk

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/awslabs/ar-go-forester/analysis/treeaut"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Named is an automaton read from a stream, with its name and the names of its states
type Named struct {
	Name string
	TA   *treeaut.TA[string]

	// States maps the states of TA to their names in the stream
	States map[int]string
}

// StateName returns the name of state s as read from the stream
func (n Named) StateName(s int) string {
	if name, ok := n.States[s]; ok {
		return name
	}
	return treeaut.DefaultStateName(s)
}

type section int

const (
	inHeader section = iota
	inTransitions
)

type reader struct {
	backend *treeaut.Backend[string]
	ops     map[string]int
	result  []Named
	cur     *Named
	index   map[string]int
	where   section
	line    int
}

// Read parses all the automata of r. Their transitions are stored in backend.
func Read(r io.Reader, backend *treeaut.Backend[string]) ([]Named, error) {
	rd := &reader{backend: backend, ops: map[string]int{}}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		rd.line++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := rd.parseLine(line); err != nil {
			return nil, fmt.Errorf("timbuk: line %d: %w", rd.line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("timbuk: %w", err)
	}
	rd.flush()
	return rd.result, nil
}

func (rd *reader) flush() {
	if rd.cur != nil {
		rd.result = append(rd.result, *rd.cur)
		rd.cur = nil
	}
}

func (rd *reader) state(name string) int {
	if s, ok := rd.index[name]; ok {
		return s
	}
	s := len(rd.index)
	rd.index[name] = s
	rd.cur.States[s] = name
	return s
}

func (rd *reader) parseLine(line string) error {
	fields := strings.Fields(line)
	switch {
	case fields[0] == "Ops":
		return rd.parseOps(fields[1:])
	case fields[0] == "Automaton":
		rd.flush()
		name := ""
		if len(fields) > 1 {
			name = fields[1]
		}
		rd.cur = &Named{Name: name, TA: treeaut.New(rd.backend), States: map[int]string{}}
		rd.index = map[string]int{}
		rd.where = inHeader
		return nil
	}
	if rd.cur == nil {
		return fmt.Errorf("%q outside of an automaton", line)
	}
	switch {
	case fields[0] == "States":
		for _, f := range fields[1:] {
			rd.state(stripArity(f))
		}
	case fields[0] == "Final" && len(fields) > 1 && fields[1] == "States":
		for _, f := range fields[2:] {
			rd.cur.TA.AddFinalState(rd.state(stripArity(f)))
		}
	case fields[0] == "Transitions":
		rd.where = inTransitions
	case rd.where == inTransitions:
		return rd.parseTransition(line)
	default:
		return fmt.Errorf("unexpected %q", line)
	}
	return nil
}

func (rd *reader) parseOps(ops []string) error {
	for _, op := range ops {
		name, arity, found := strings.Cut(op, ":")
		if !found {
			return fmt.Errorf("operator %q has no arity", op)
		}
		n, err := strconv.Atoi(arity)
		if err != nil || n < 0 {
			return fmt.Errorf("operator %q has an invalid arity", op)
		}
		rd.ops[name] = n
	}
	return nil
}

func (rd *reader) parseTransition(line string) error {
	left, right, found := strings.Cut(line, "->")
	if !found {
		return fmt.Errorf("transition %q has no \"->\"", line)
	}
	rhs := strings.TrimSpace(right)
	if rhs == "" {
		return fmt.Errorf("transition %q has no target state", line)
	}
	left = strings.TrimSpace(left)
	label := left
	var lhs []int
	if open := strings.IndexByte(left, '('); open >= 0 {
		if !strings.HasSuffix(left, ")") {
			return fmt.Errorf("unbalanced parenthesis in %q", line)
		}
		label = strings.TrimSpace(left[:open])
		args := strings.TrimSpace(left[open+1 : len(left)-1])
		if args != "" {
			for _, a := range strings.Split(args, ",") {
				lhs = append(lhs, rd.state(strings.TrimSpace(a)))
			}
		}
	}
	if label == "" {
		return fmt.Errorf("transition %q has no label", line)
	}
	if arity, ok := rd.ops[label]; ok && arity != len(lhs) {
		return fmt.Errorf("label %s has arity %d, used with %d children", label, arity, len(lhs))
	}
	rd.cur.TA.AddTransition(lhs, label, rd.state(rhs))
	return nil
}

// stripArity removes the ":0" suffix that some tools add to state declarations
func stripArity(s string) string {
	name, _, _ := strings.Cut(s, ":")
	return name
}

// Write prints ta in the Timbuk format. Labels are printed with labelName and states with stateName.
func Write[L comparable](w io.Writer, ta *treeaut.TA[L], name string, labelName func(L) string,
	stateName func(int) string) error {
	ops := map[string]int{}
	for _, t := range ta.Transitions() {
		ops[labelName(t.Label())] = t.Arity()
	}
	opNames := maps.Keys(ops)
	slices.Sort(opNames)

	var b strings.Builder
	b.WriteString("Ops")
	for _, op := range opNames {
		fmt.Fprintf(&b, " %s:%d", op, ops[op])
	}
	fmt.Fprintf(&b, "\n\nAutomaton %s\nStates", name)
	for _, s := range ta.States() {
		b.WriteString(" " + stateName(s))
	}
	b.WriteString("\nFinal States")
	for _, s := range ta.FinalStates() {
		b.WriteString(" " + stateName(s))
	}
	b.WriteString("\nTransitions\n")
	for _, t := range ta.Transitions() {
		b.WriteString(labelName(t.Label()))
		if t.Arity() > 0 {
			b.WriteString("(")
			for i, s := range t.Lhs() {
				if i > 0 {
					b.WriteString(",")
				}
				b.WriteString(stateName(s))
			}
			b.WriteString(")")
		}
		fmt.Fprintf(&b, " -> %s\n", stateName(t.Rhs()))
	}
	_, err := io.WriteString(w, b.String())
	return err
}
