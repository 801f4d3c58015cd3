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

// Package formatutil manipulates string colors and other formatting operations.
package formatutil

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

var (
	Bold   = Color("\033[1m%s\033[0m")
	Faint  = Color("\033[2m%s\033[0m")
	Red    = Color("\033[1;31m%s\033[0m")
	Green  = Color("\033[1;32m%s\033[0m")
	Yellow = Color("\033[1;33m%s\033[0m")
	Cyan   = Color("\033[1;36m%s\033[0m")
)

// Color returns a function that formats its arguments with the escape sequence colorString when the standard output
// is a terminal, and prints them plainly otherwise.
func Color(colorString string) func(...interface{}) string {
	result := func(args ...interface{}) string {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Sprintf(colorString,
				fmt.Sprint(args...))
		} else {
			return fmt.Sprint(args...)
		}
	}
	return result
}

// Listing prefixes every line of s with indent. Used to print automata below a heading.
func Listing(indent string, s string) string {
	out := make([]byte, 0, len(s)+len(indent))
	start := true
	for i := 0; i < len(s); i++ {
		if start {
			out = append(out, indent...)
			start = false
		}
		out = append(out, s[i])
		if s[i] == '\n' {
			start = true
		}
	}
	return string(out)
}
