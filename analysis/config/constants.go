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

package config

const (
	// DefaultAbstractionHeight is the height used by the abstraction when none is given
	DefaultAbstractionHeight = 1
	// DefaultMaxAbstractionRounds is the number of abstract/fold rounds after which an abstraction instruction gives up
	DefaultMaxAbstractionRounds = 32
	// DefaultMaxFixpointExtensions is the number of times the forward configuration of one abs or fix instruction
	// may grow before the analysis gives up
	DefaultMaxFixpointExtensions = 64
	// MatchExact merges states only on transitions with identical labels
	MatchExact = "exact"
	// MatchSmart merges states on transitions whose node labels have the same type
	MatchSmart = "smart"
	// MatchSmarter is MatchSmart, and additionally requires data children to be the same
	MatchSmarter = "smarter"
)

// MatchStrategies lists the accepted values of the match-strategy option
var MatchStrategies = []string{MatchExact, MatchSmart, MatchSmarter}
