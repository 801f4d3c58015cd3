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
	"embed"
	"fmt"
	"path"
	"strings"

	"golang.org/x/exp/slices"
)

//go:embed builtin/*.yaml
var builtins embed.FS

// BuiltinNames returns the names of the example programs shipped with the analyzer
func BuiltinNames() []string {
	entries, err := builtins.ReadDir("builtin")
	if err != nil {
		panic(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	slices.Sort(names)
	return names
}

// Builtin returns the example program called name
func Builtin(name string) (*Program, error) {
	filename := path.Join("builtin", name+".yaml")
	b, err := builtins.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("no builtin program %q, expected one of %v", name, BuiltinNames())
	}
	return ParseProgram(filename, b)
}
