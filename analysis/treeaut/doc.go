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

/*
Package treeaut implements bottom-up tree automata over an arbitrary comparable label type.

A [TA] recognizes ranked trees. A transition l(q1, ..., qn) -> q says that a tree with root label l whose subtrees are
recognized in q1, ..., qn is recognized in q. Transitions are interned in a [Backend]: identical transitions of
different automata share one reference-counted entry, which is evicted when the last automaton holding it is
cleared.

Automata are mostly built functionally: algorithms such as [TA.Minimized], [TA.UselessFree] or [TA.Collapsed] add
their result to a destination automaton given by the caller, which can share the backend of the source.

Language inclusion ([Subseteq]) uses the antichain algorithm and works on nondeterministic automata.
*/
package treeaut
