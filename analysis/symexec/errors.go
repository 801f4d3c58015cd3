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

import "fmt"

// Location is the position of an instruction in its program file. The zero Location is unknown.
type Location struct {
	File string
	Line int
}

// IsValid returns true if the location points to a line
func (l Location) IsValid() bool {
	return l.Line > 0
}

func (l Location) String() string {
	switch {
	case !l.IsValid():
		return "<unknown>"
	case l.File == "":
		return fmt.Sprintf("line %d", l.Line)
	default:
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	}
}

// ProgramError is raised when a trace of the analyzed program reaches an error: invalid dereference, garbage,
// undefined value used as a condition.
type ProgramError struct {
	Loc Location
	Msg string
}

func (e *ProgramError) Error() string {
	if e.Loc.IsValid() {
		return fmt.Sprintf("%s: %s", e.Loc, e.Msg)
	}
	return e.Msg
}

// NotImplementedError is raised when the analysis meets a heap shape or an operation it does not handle. The
// program is not known to be wrong.
type NotImplementedError struct {
	Loc  Location
	What string
}

func (e *NotImplementedError) Error() string {
	if e.Loc.IsValid() {
		return fmt.Sprintf("%s: not implemented: %s", e.Loc, e.What)
	}
	return "not implemented: " + e.What
}

func programError(loc Location, format string, args ...any) error {
	return &ProgramError{Loc: loc, Msg: fmt.Sprintf(format, args...)}
}

func notImplemented(loc Location, format string, args ...any) error {
	return &NotImplementedError{Loc: loc, What: fmt.Sprintf(format, args...)}
}
