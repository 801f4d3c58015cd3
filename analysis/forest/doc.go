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

// Package forest implements forest automata over the labels of a heap analysis.
//
// A forest automaton (FAE) describes a set of heaps split at their cutpoints: every root is a tree automaton
// accepting the trees hanging below one cutpoint, and references between trees are data values Ref(i, 0). Roots
// are kept in a canonical order by normalization. Repeated doubly linked patterns are folded into boxes, learned
// on the fly and registered in a BoxManager shared by the whole analysis.
//
// The sets of forest automata reached at a program point are encoded as a single tree automaton by UFAE, which
// supports the inclusion test of the fixpoint computation.
package forest
