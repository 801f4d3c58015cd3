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

package graphutil

import (
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"
)

// Digraph is a small directed graph over integer node ids that works with existing graph libraries. It implements the
// methods to satisfy graph.Iterator (yourbasic) and Gonum's graph.Directed.
type Digraph struct {
	// The order of the graph: node ids range over [0, order)
	order int

	// Keys are all the node IDs, in increasing order
	Keys []int64

	// Edges is an adjacency matrix: Edges[x][y] means there is a directed edge between x and y
	Edges map[int64]map[int64]bool
}

// NewDigraph returns a graph with nodes 0 ... order-1 and no edges.
func NewDigraph(order int) *Digraph {
	keys := make([]int64, order)
	edges := make(map[int64]map[int64]bool, order)
	for i := 0; i < order; i++ {
		keys[i] = int64(i)
		edges[int64(i)] = map[int64]bool{}
	}
	return &Digraph{
		order: order,
		Keys:  keys,
		Edges: edges,
	}
}

// AddEdge adds the edge from -> to. Both nodes must be in the graph.
func (g *Digraph) AddEdge(from, to int) {
	if from < 0 || from >= g.order || to < 0 || to >= g.order {
		panic("graphutil: edge endpoint out of range")
	}
	g.Edges[int64(from)][int64(to)] = true
}

// Successors returns the sorted successors of v.
func (g *Digraph) Successors(v int64) []int64 {
	var succ []int64
	for w := range g.Edges[v] {
		succ = append(succ, w)
	}
	slices.Sort(succ)
	return succ
}

// Subgraph returns a new graph that is the original graph with only the nodes in include. Only the edges that have
// both the origin and destination nodes in the include nodes are kept in the resulting graph.
// The subgraph's order is the same as in origin, meaning that node indices will stay consistent across subgraphs.
func Subgraph(original *Digraph, include []int64) *Digraph {
	in := make(map[int64]bool, len(include))
	for _, i := range include {
		in[i] = true
	}
	edges := make(map[int64]map[int64]bool, len(include))
	keys := make([]int64, len(include))
	copy(keys, include)

	for _, i := range include {
		edges[i] = map[int64]bool{}
		for e := range original.Edges[i] {
			if in[e] {
				edges[i][e] = true
			}
		}
	}

	return &Digraph{
		order: original.Order(),
		Edges: edges,
		Keys:  keys,
	}
}

// Order implements the order of the graph.Iterator interface for the Digraph
func (g *Digraph) Order() int {
	return g.order
}

// Visit implements the graph.Iterator interface for the Digraph
func (g *Digraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	for _, w := range g.Successors(int64(v)) {
		if do(int(w), 1) {
			return true
		}
	}
	return false
}

// *************** Graph interface implementation **********************

// Node implements the Graph interface
func (g *Digraph) Node(v int64) graph.Node {
	if _, ok := g.Edges[v]; !ok {
		return nil
	}
	return DNode{v}
}

// Nodes returns the set of nodes in the graph
func (g *Digraph) Nodes() graph.Nodes {
	keys := make([]int64, len(g.Keys))
	copy(keys, g.Keys)
	return &NodeSet{ids: keys, cur: -1}
}

// From returns the set of nodes reachable in one step from the id
func (g *Digraph) From(id int64) graph.Nodes {
	return &NodeSet{ids: g.Successors(id), cur: -1}
}

// To returns the set of nodes that reach id in one step
func (g *Digraph) To(id int64) graph.Nodes {
	var keys []int64
	for _, k := range g.Keys {
		if g.Edges[k][id] {
			keys = append(keys, k)
		}
	}
	return &NodeSet{ids: keys, cur: -1}
}

// HasEdgeBetween returns a boolean indicating whether an edge exists between the two node identifiers
func (g *Digraph) HasEdgeBetween(xid, yid int64) bool {
	return g.Edges[xid][yid] || g.Edges[yid][xid]
}

// HasEdgeFromTo returns whether the directed edge uid -> vid exists
func (g *Digraph) HasEdgeFromTo(uid, vid int64) bool {
	return g.Edges[uid][vid]
}

// Edge returns the edge between the two identifiers (nil if none exists)
func (g *Digraph) Edge(uid, vid int64) graph.Edge {
	if g.Edges[uid][vid] {
		return DEdge{from: DNode{uid}, to: DNode{vid}}
	}
	return nil
}

// *************** Nodes implementation **********************

// DNode implements the graph.Node interface
type DNode struct {
	id int64
}

// ID returns the id of the node
func (n DNode) ID() int64 {
	return n.id
}

// NodeSet implements the graph.Nodes interface, an iterator over a set of nodes
type NodeSet struct {
	// ids is the set of node ids in the iterator
	ids []int64

	// cur is the current index of the iterator. The current node is ids[cur]
	// invariant: -1 <= cur < len(ids); -1 before the first call to Next
	cur int
}

// Next moves the current node to the next, and returns true if such a node exists. Otherwise, returns false
// and the current node has not changed.
func (ns *NodeSet) Next() bool {
	if ns.cur < len(ns.ids)-1 {
		ns.cur++
		return true
	}
	return false
}

// Len returns the number of nodes left in the iterator
func (ns *NodeSet) Len() int {
	return len(ns.ids) - ns.cur - 1
}

// Reset resets the iterator to its initial position
func (ns *NodeSet) Reset() {
	ns.cur = -1
}

// Node return the current node in the set
func (ns *NodeSet) Node() graph.Node {
	if ns.cur < 0 || ns.cur >= len(ns.ids) {
		return nil
	}
	return DNode{ns.ids[ns.cur]}
}

// *************** Edge implementation **********************

// DEdge implements the graph.Edge interface
type DEdge struct {
	from DNode
	to   DNode
}

// From returns the origin of the edge
func (e DEdge) From() graph.Node {
	return e.from
}

// To returns the destination of the edge
func (e DEdge) To() graph.Node {
	return e.to
}

// ReversedEdge returns a new value representing the reversed edge
func (e DEdge) ReversedEdge() graph.Edge {
	return DEdge{from: e.to, to: e.from}
}
