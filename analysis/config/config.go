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

import (
	"fmt"
	"os"
	"path"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

var (
	// The global config file
	configFile string
)

// SetGlobalConfig sets the global config filename
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig. If no file has been set, it returns the
// default configuration.
func LoadGlobal() (*Config, error) {
	if configFile == "" {
		return NewDefault(), nil
	}
	return Load(configFile)
}

// Config contains the options of the analyzer and the programs it should analyze.
// To add elements to a config file, add fields to this struct.
// If some field is not defined in the config file, it keeps its default value.
// private fields are not populated from a yaml file, but computed after initialization
type Config struct {
	Options `yaml:"options"`

	sourceFile string

	// Programs lists program files to analyze, relative to the config file
	Programs []string `yaml:"programs"`

	// Builtins lists builtin programs to analyze
	Builtins []string `yaml:"builtins"`
}

// Options holds the tuning knobs of the symbolic execution.
type Options struct {
	// MatchStrategy selects how transitions are compared when merging states during abstraction. One of "exact",
	// "smart" or "smarter". Default is "smart".
	MatchStrategy string `yaml:"match-strategy"`

	// AbstractionHeight is the number of refinement rounds of the height abstraction. Default is 1.
	AbstractionHeight int `yaml:"abstraction-height"`

	// MaxAbstractionRounds bounds the number of abstract/fold rounds done by one abstraction instruction.
	// Exceeding it stops the analysis with a not-implemented error. If <= 0, the default is used.
	MaxAbstractionRounds int `yaml:"max-abstraction-rounds"`

	// MaxFixpointExtensions bounds how many times the forward configuration of one abs or fix instruction may grow.
	// Exceeding it stops the analysis with a not-implemented error. If <= 0, it is ignored.
	MaxFixpointExtensions int `yaml:"max-fixpoint-extensions"`

	// MaxStates sets a limit on the number of symbolic states evaluated. If MaxStates <= 0, it is ignored.
	MaxStates int `yaml:"max-states"`

	// FoldEnabled turns box learning and folding on. Default is true.
	FoldEnabled bool `yaml:"fold-enabled"`

	// FuseCompatible turns the fusion of compatible configurations during abstraction on. Default is true.
	FuseCompatible bool `yaml:"fuse-compatible"`

	// ReportFixpoints prints the forward configuration of every fixpoint instruction at the end of the analysis
	ReportFixpoints bool `yaml:"report-fixpoints"`

	// ReportBoxes prints the boxes learned during the analysis
	ReportBoxes bool `yaml:"report-boxes"`

	// Loglevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// Suppress warnings
	SilenceWarn bool `yaml:"silence-warn"`
}

// NewDefault returns a default config.
func NewDefault() *Config {
	return &Config{
		sourceFile: "",
		Programs:   nil,
		Builtins:   nil,
		Options: Options{
			MatchStrategy:         MatchSmart,
			AbstractionHeight:     DefaultAbstractionHeight,
			MaxAbstractionRounds:  DefaultMaxAbstractionRounds,
			MaxFixpointExtensions: DefaultMaxFixpointExtensions,
			MaxStates:             0,
			FoldEnabled:           true,
			FuseCompatible:        true,
			ReportFixpoints:       false,
			ReportBoxes:           false,
			LogLevel:              int(InfoLevel),
			SilenceWarn:           false,
		},
	}
}

// Load reads a configuration from a file
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	return LoadFrom(filename, b)
}

// LoadFrom reads a configuration from the contents b of the file filename
func LoadFrom(filename string, b []byte) (*Config, error) {
	cfg := NewDefault()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file: %w", err)
	}

	cfg.sourceFile = filename

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}
	if cfg.MatchStrategy == "" {
		cfg.MatchStrategy = MatchSmart
	}
	if !slices.Contains(MatchStrategies, cfg.MatchStrategy) {
		return nil, fmt.Errorf("unknown match-strategy %q, expected one of %v", cfg.MatchStrategy, MatchStrategies)
	}
	if cfg.AbstractionHeight <= 0 {
		cfg.AbstractionHeight = DefaultAbstractionHeight
	}
	if cfg.MaxAbstractionRounds <= 0 {
		cfg.MaxAbstractionRounds = DefaultMaxAbstractionRounds
	}
	return cfg, nil
}

// RelPath returns filename path relative to the config source file
func (c Config) RelPath(filename string) string {
	return path.Join(path.Dir(c.sourceFile), filename)
}

// Verbose returns true is the configuration verbosity setting is larger than Info (i.e. Debug or Trace)
func (c Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}

// ExceedsMaxStates returns true if n exceeds the maximum number of states of the configuration.
// (if the configuration setting is <= 0, then this returns false)
func (c Config) ExceedsMaxStates(n int) bool {
	if c.MaxStates <= 0 {
		return false
	}
	return n > c.MaxStates
}

// ExceedsMaxFixpointExtensions returns true if n extensions of one forward configuration exceed the maximum of the
// configuration (if the configuration setting is <= 0, then this returns false)
func (c Config) ExceedsMaxFixpointExtensions(n int) bool {
	if c.MaxFixpointExtensions <= 0 {
		return false
	}
	return n > c.MaxFixpointExtensions
}
