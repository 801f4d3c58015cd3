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

// Package tools contains utility functions for the forester command line frontend.
package tools

import (
	"fmt"
	"regexp"

	"github.com/awslabs/ar-go-forester/analysis/config"
)

// LoadConfig loads the config file from configPath. An empty path yields the default configuration.
func LoadConfig(configPath string) (*config.Config, error) {
	config.SetGlobalConfig(configPath)
	cfg, err := config.LoadGlobal()
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %v", configPath, err)
	}
	return cfg, nil
}

// Captures errors happening before the analysis starts (program file could not be read)
var regexCouldNotParse = regexp.MustCompile("could not (parse|read) program")

// Captures the compilation error of a loop that the analysis would unroll forever
var regexLoopWithoutAbs = regexp.MustCompile("loop without abs or fix instruction")

// Captures the analysis giving up on a heap shape
var regexNotImplemented = regexp.MustCompile("not implemented: ")

// Captures the analysis stopping on the state limit
var regexMaxStates = regexp.MustCompile("exceeded the maximum of \\d+ states")

// HintForErrorMessage looks for specific error message and returns some other message that might help the user
// resolve the problem.
func HintForErrorMessage(errMsg string) string {
	switch {
	case regexCouldNotParse.MatchString(errMsg):
		return "program files are YAML documents with the keys name, registers, types and code"
	case regexLoopWithoutAbs.MatchString(errMsg):
		return "every loop of the program must go through an abs or fix instruction"
	case regexNotImplemented.MatchString(errMsg):
		return "the program may still be correct; try another match-strategy, a larger max-abstraction-rounds " +
			"or a larger max-fixpoint-extensions"
	case regexMaxStates.MatchString(errMsg):
		return "increase max-states in the config file, or set it to 0 to remove the limit"
	}
	return ""
}
