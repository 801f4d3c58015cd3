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

	"github.com/awslabs/ar-go-forester/analysis/forest"
	"github.com/awslabs/ar-go-forester/analysis/treeaut"
	"golang.org/x/exp/slices"
)

// FixpointSite is the forward configuration of an abs or fix instruction: the union of the states that reached it,
// encoded as one tree automaton. A state is encoded by its heap, its global variables, the registers live at the
// instruction and its return addresses.
type FixpointSite struct {
	instr      *Instr
	boxes      *forest.BoxManager
	fwdConf    *forest.TA
	ufae       *forest.UFAE
	visits     int
	extensions int
}

func newFixpointSite(in *Instr, backend *treeaut.Backend[*forest.Label], boxes *forest.BoxManager) *FixpointSite {
	return &FixpointSite{
		instr:   in,
		boxes:   boxes,
		fwdConf: treeaut.New(backend),
		ufae:    forest.NewUFAE(boxes),
	}
}

// Instr returns the instruction of the site
func (s *FixpointSite) Instr() *Instr {
	return s.instr
}

// Visits returns the number of states that reached the site
func (s *FixpointSite) Visits() int {
	return s.visits
}

// Extensions returns the number of states that were not covered by the forward configuration and extended it
func (s *FixpointSite) Extensions() int {
	return s.extensions
}

// ForwardConfiguration returns the encoding of the heaps that reached the site
func (s *FixpointSite) ForwardConfiguration() *forest.TA {
	return s.fwdConf
}

// TestInclusion returns true if f is covered by the forward configuration, and adds it to the configuration
// otherwise.
func (s *FixpointSite) TestInclusion(f *forest.FAE) bool {
	return s.ufae.TestInclusion(f, s.fwdConf)
}

// Reset empties the forward configuration
func (s *FixpointSite) Reset() {
	s.fwdConf.Clear()
	s.ufae = forest.NewUFAE(s.boxes)
	s.visits = 0
	s.extensions = 0
}

func (s *FixpointSite) String() string {
	return fmt.Sprintf("%s (%d visits, %d extensions)\n%s", s.instr, s.visits, s.extensions,
		s.ufae.Format(s.fwdConf))
}

// fixpoint executes an abs or fix instruction on the state st. Dead registers are reset, and the live registers and
// the return addresses are appended to the variables so that they take part in normalization and in the inclusion
// test. The heap is folded and normalized, then abs also abstracts it, until no box can be folded anymore. The state
// is finished if it is covered by the forward configuration; otherwise it extends the configuration and proceeds to
// the next instruction.
func (e *Engine) fixpoint(st *SymState) error {
	in := st.Instr
	site := in.site
	site.visits++
	f, regs := st.FAE, st.Regs
	st.FAE, st.Regs = nil, nil
	globals := len(f.Vars)
	for i := range regs {
		if !slices.Contains(in.live, i) {
			regs[i] = forest.Undef()
		}
	}
	for _, r := range in.live {
		f.Vars = append(f.Vars, regs[r])
	}
	for _, ret := range st.Calls {
		f.Vars = append(f.Vars, forest.Int(ret.Index))
	}
	onLearn := func(b *forest.Box) {
		e.logger.Infof("learned %s at %s", b, in.Loc)
	}
	normalize := func() bool {
		matched, _ := f.NormalizeAndFold(e.cfg.FoldEnabled, onLearn)
		return matched
	}
	normalize()
	if in.Op == OpAbs {
		opts := forest.AbstractOptions{Height: e.cfg.AbstractionHeight, Match: e.match, Fuse: e.cfg.FuseCompatible}
		for round := 0; ; round++ {
			if round >= e.cfg.MaxAbstractionRounds {
				f.Release()
				return notImplemented(in.Loc, "abstraction did not stabilize after %d rounds", round)
			}
			f.Abstract(site.fwdConf, site.ufae, opts)
			e.logger.Tracef("after abstraction at %s:\n%s", in.Loc, f)
			if !normalize() {
				break
			}
		}
	}
	f.UnreachableFree()
	if site.TestInclusion(f) {
		e.logger.Tracef("fixpoint hit at %s", in.Loc)
		f.Release()
		e.manager.TraceFinished(st)
		return nil
	}
	site.extensions++
	if e.cfg.ExceedsMaxFixpointExtensions(site.extensions) {
		f.Release()
		return notImplemented(in.Loc, "forward configuration still growing after %d extensions",
			site.extensions-1)
	}
	e.logger.Debugf("extended fixpoint at %s (%d visits)", in.Loc, site.visits)
	for k, r := range in.live {
		regs[r] = f.Vars[globals+k]
	}
	f.Vars = slices.Clone(f.Vars[:globals])
	e.next(st, in.Next, f, regs)
	return nil
}
