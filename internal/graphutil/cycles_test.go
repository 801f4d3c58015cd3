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

package graphutil_test

import (
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/awslabs/ar-go-forester/internal/funcutil"
	"github.com/awslabs/ar-go-forester/internal/graphutil"
	"github.com/yourbasic/graph"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph/topo"
)

func mkGraph(order int, edges [][2]int) *graphutil.Digraph {
	g := graphutil.NewDigraph(order)
	for _, e := range edges {
		g.AddEdge(e[0], e[1])
	}
	return g
}

func TestFindAllElementaryCycles(t *testing.T) {
	g := mkGraph(6, [][2]int{{0, 1}, {1, 2}, {2, 0}, {2, 3}, {3, 2}, {4, 4}, {4, 5}})
	stats := graph.Check(g)
	t.Logf("Stats:\n\tsize: %d\n\tmulti: %d\n\tloops: %d\n\tisolated: %d",
		stats.Size, stats.Multi, stats.Loops, stats.Isolated)

	cycles := graphutil.FindAllElementaryCycles(g)
	expected := []string{"0120", "232", "44"}

	n := len(cycles)
	if n != len(expected) {
		t.Fatalf("Expected %d elementary cycles, found %d: %v", len(expected), n, cycles)
	}
	results := make([]string, n)
	for i, cycle := range cycles {
		results[i] = strings.Join(
			funcutil.Map(cycle, func(x int64) string { return strconv.Itoa(int(x)) }),
			"")
	}
	sort.Strings(results)
	if !slices.Equal(results, expected) {
		for i, s := range results {
			t.Logf("Cycle %d: %s", i, s)
		}
		t.Fatalf("Cycles not as expected")
	}
}

func TestDigraphWithGonum(t *testing.T) {
	g := mkGraph(5, [][2]int{{0, 1}, {1, 2}, {2, 1}, {3, 4}})
	sccs := topo.TarjanSCC(g)
	sizes := map[int]int{}
	for _, scc := range sccs {
		sizes[len(scc)]++
	}
	if sizes[2] != 1 || sizes[1] != 3 {
		t.Errorf("unexpected components %v", sccs)
	}
	if !g.HasEdgeFromTo(2, 1) || g.HasEdgeFromTo(4, 3) || !g.HasEdgeBetween(4, 3) {
		t.Errorf("edge queries are inconsistent")
	}
	if g.To(1).Len() != 2 {
		t.Errorf("expected two predecessors of 1")
	}
}

func TestDigraphReachability(t *testing.T) {
	g := mkGraph(5, [][2]int{{0, 1}, {1, 2}, {3, 4}})
	reached := map[int]bool{0: true}
	graph.BFS(g, 0, func(_, w int, _ int64) { reached[w] = true })
	if !reached[2] || reached[3] || reached[4] {
		t.Errorf("unexpected reachable set %v", reached)
	}
}
