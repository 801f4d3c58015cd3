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

package timbuk

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/awslabs/ar-go-forester/analysis/treeaut"
)

func readFile(t *testing.T, name string) []Named {
	f, err := os.Open(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to open %s: %v", name, err)
	}
	defer f.Close()
	automata, err := Read(f, treeaut.NewBackend[string]())
	if err != nil {
		t.Fatalf("failed to read %s: %v", name, err)
	}
	return automata
}

func TestReadAndInclusion(t *testing.T) {
	automata := readFile(t, "lists.timbuk")
	if len(automata) != 2 {
		t.Fatalf("expected 2 automata, got %d", len(automata))
	}
	plus, star := automata[0], automata[1]
	if plus.Name != "Plus" || star.Name != "Star" {
		t.Errorf("unexpected names %q %q", plus.Name, star.Name)
	}
	if plus.TA.Len() != 3 || star.TA.Len() != 2 {
		t.Errorf("unexpected number of transitions:\n%s\n%s", plus.TA, star.TA)
	}
	if !treeaut.Subseteq(plus.TA, star.TA) || treeaut.Subseteq(star.TA, plus.TA) {
		t.Errorf("expected Plus to be strictly included in Star")
	}
}

func TestWriteThenRead(t *testing.T) {
	plus := readFile(t, "lists.timbuk")[0]
	var buf bytes.Buffer
	if err := Write(&buf, plus.TA, plus.Name, func(l string) string { return l }, plus.StateName); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if !strings.Contains(buf.String(), "f(p1) -> p1") {
		t.Errorf("state names not preserved:\n%s", buf.String())
	}
	again, err := Read(&buf, plus.TA.Backend())
	if err != nil {
		t.Fatalf("failed to read back:\n%s\n%v", buf.String(), err)
	}
	if len(again) != 1 || !treeaut.Subseteq(again[0].TA, plus.TA) || !treeaut.Subseteq(plus.TA, again[0].TA) {
		t.Errorf("automaton changed after writing and reading it")
	}
}

func TestReadErrors(t *testing.T) {
	for _, input := range []string{
		"Ops f:1\nAutomaton A\nStates q\nTransitions\nf -> q\n",
		"Automaton A\nTransitions\nf(q -> q\n",
		"States q\n",
	} {
		if _, err := Read(strings.NewReader(input), treeaut.NewBackend[string]()); err == nil {
			t.Errorf("expected an error reading %q", input)
		}
	}
}
