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
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/awslabs/ar-go-forester/analysis/forest"
	"gopkg.in/yaml.v3"
)

// Program is the source form of a program, as read from a YAML file:
//
//	name: sll
//	registers: 4
//	types:
//	  - name: T
//	    selectors: [0]
//	code:
//	  - {op: load-cst, dst: 0, value: "void:0"}
//	  - {label: loop, op: abs}
//	  - {op: cond, src: 3, then: done, else: body}
type Program struct {
	Name      string      `yaml:"name"`
	Registers int         `yaml:"registers"`
	Types     []TypeDecl  `yaml:"types"`
	Code      []Statement `yaml:"code"`

	file string
}

// TypeDecl declares a node type and the offsets of its selectors
type TypeDecl struct {
	Name      string `yaml:"name"`
	Selectors []int  `yaml:"selectors"`
}

// Statement is one instruction of a Program. Which fields are meaningful depends on the opcode Op.
type Statement struct {
	Label  string `yaml:"label"`
	Op     string `yaml:"op"`
	Dst    int    `yaml:"dst"`
	Src    int    `yaml:"src"`
	Src2   int    `yaml:"src2"`
	Greg   int    `yaml:"greg"`
	Offset int    `yaml:"offset"`
	Value  string `yaml:"value"`
	Type   string `yaml:"type"`
	Then   string `yaml:"then"`
	Else   string `yaml:"else"`
	Target string `yaml:"target"`

	// Line is the line of the statement in the source file
	Line int `yaml:"-"`
}

// UnmarshalYAML decodes a statement and records its line
func (s *Statement) UnmarshalYAML(node *yaml.Node) error {
	type plain Statement
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*s = Statement(p)
	s.Line = node.Line
	return nil
}

// File returns the file the program was loaded from, if any
func (p *Program) File() string {
	return p.file
}

// LoadProgram reads a program from a YAML file
func LoadProgram(filename string) (*Program, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read program: %w", err)
	}
	return ParseProgram(filename, b)
}

// ParseProgram reads a program from the contents b of the file filename. Unknown keys are rejected.
func ParseProgram(filename string, b []byte) (*Program, error) {
	p := &Program{}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil {
		return nil, fmt.Errorf("could not parse program %s: %w", filename, err)
	}
	p.file = filename
	if p.Name == "" {
		p.Name = filename
	}
	return p, nil
}

// ParseData parses a constant: undef, unknown, null, true, false, int:N or void:N
func ParseData(s string) (forest.Data, error) {
	switch s {
	case "undef":
		return forest.Undef(), nil
	case "unknown", "?":
		return forest.Unknown(), nil
	case "null":
		return forest.Null(), nil
	case "true":
		return forest.Bool(true), nil
	case "false":
		return forest.Bool(false), nil
	}
	kind, arg, ok := strings.Cut(s, ":")
	if !ok {
		return forest.Data{}, fmt.Errorf("invalid constant %q", s)
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return forest.Data{}, fmt.Errorf("invalid constant %q: %w", s, err)
	}
	switch kind {
	case "int":
		return forest.Int(n), nil
	case "void":
		if n < 0 {
			return forest.Data{}, fmt.Errorf("invalid constant %q: negative size", s)
		}
		return forest.VoidPtr(n), nil
	default:
		return forest.Data{}, fmt.Errorf("invalid constant %q", s)
	}
}
