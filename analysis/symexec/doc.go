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

// Package symexec implements the symbolic execution of small heap-manipulating programs over forest automata.
//
// A Program is a list of instructions read from YAML. Compile links it into an Assembly whose abs and fix
// instructions own a FixpointSite. The Engine explores the states of the program depth-first with an
// ExecutionManager: each state holds a forest automaton describing the heap and a register file. At a fixpoint
// instruction, the heap is folded, normalized and, for abs, abstracted, then tested for inclusion in the forward
// configuration of the site; a covered heap finishes its trace.
//
// Errors of the analyzed program are reported as *ProgramError. Shapes the analysis cannot handle are reported as
// *NotImplementedError.
package symexec
