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
	"bytes"
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

//go:embed testdata
var testfsys embed.FS

func loadFromTestDir(filename string) (string, *Config, error) {
	filename = filepath.Join("testdata", filename)
	b, err := testfsys.ReadFile(filename)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read file %v: %v", filename, err)
	}
	config, err := LoadFrom(filename, b)
	if err != nil {
		return filename, nil, fmt.Errorf("failed to load file %v: %v", filename, err)
	}
	return filename, config, err
}

func testLoadOneFile(t *testing.T, filename string, expected Config) {
	configFileName, config, err := loadFromTestDir(filename)
	if err != nil {
		t.Fatalf("Error loading %q: %v", configFileName, err)
	}
	if diff := cmp.Diff(expected, *config, cmpopts.IgnoreUnexported(Config{})); diff != "" {
		t.Errorf("Error in %q (-want +got):\n%s", filename, diff)
	}
}

func TestNewDefault(t *testing.T) {
	c := NewDefault()
	if c.MatchStrategy != MatchSmart {
		t.Errorf("Default for MatchStrategy should be %q", MatchSmart)
	}
	if c.AbstractionHeight != 1 {
		t.Errorf("Default for AbstractionHeight should be 1")
	}
	if !c.FoldEnabled || !c.FuseCompatible {
		t.Errorf("Folding and fusion should be enabled by default")
	}
	if c.ExceedsMaxStates(1 << 20) {
		t.Errorf("Default config should not limit the number of states")
	}
	if c.ExceedsMaxFixpointExtensions(DefaultMaxFixpointExtensions) ||
		!c.ExceedsMaxFixpointExtensions(DefaultMaxFixpointExtensions+1) {
		t.Errorf("Default config should allow %d extensions per fixpoint", DefaultMaxFixpointExtensions)
	}
	c.MaxFixpointExtensions = 0
	if c.ExceedsMaxFixpointExtensions(1 << 20) {
		t.Errorf("A zero limit should be ignored")
	}
}

func TestLoadFull(t *testing.T) {
	c := NewDefault()
	c.LogLevel = int(DebugLevel)
	c.MatchStrategy = MatchSmarter
	c.AbstractionHeight = 2
	c.MaxAbstractionRounds = 8
	c.MaxFixpointExtensions = 16
	c.MaxStates = 1000
	c.FoldEnabled = false
	c.ReportFixpoints = true
	c.Programs = []string{"programs/sll.yaml"}
	c.Builtins = []string{"dll"}
	testLoadOneFile(t, "full.yaml", *c)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	c := NewDefault()
	c.Builtins = []string{"sll"}
	testLoadOneFile(t, "partial.yaml", *c)
	_, loaded, _ := loadFromTestDir("partial.yaml")
	if loaded.RelPath("programs/a.yaml") != filepath.Join("testdata", "programs", "a.yaml") {
		t.Errorf("RelPath should be relative to the config file, got %q", loaded.RelPath("programs/a.yaml"))
	}
}

func TestLoadNonExistentFileReturnsError(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "does_not_exist.yaml"))
	if c != nil || err == nil {
		t.Errorf("Expected error and nil value when trying to load non existent file.")
	}
}

func TestLoadBadFormatFileReturnsError(t *testing.T) {
	_, config, err := loadFromTestDir("bad_format.yaml")
	if config != nil || err == nil {
		t.Errorf("Expected error and nil value when trying to load a badly formatted file.")
	}
}

func TestLoadUnknownStrategyReturnsError(t *testing.T) {
	_, config, err := loadFromTestDir("bad_strategy.yaml")
	if config != nil || err == nil {
		t.Fatalf("Expected error and nil value when loading an unknown match strategy.")
	}
	if !strings.Contains(err.Error(), "clever") {
		t.Errorf("Error should name the bad strategy, got %v", err)
	}
}

func TestLogGroupLevels(t *testing.T) {
	c := NewDefault()
	c.LogLevel = int(WarnLevel)
	logger := NewLogGroup(c)
	var buf bytes.Buffer
	logger.SetAllOutput(&buf)
	logger.Infof("hidden %d", 1)
	logger.Warnf("shown %d", 2)
	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("info message printed at warning level: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "shown 2") {
		t.Errorf("warning message missing: %q", buf.String())
	}
	buf.Reset()
	logger.SetLevel(TraceLevel)
	logger.Tracef("deep")
	if !strings.Contains(buf.String(), "deep") {
		t.Errorf("trace message missing after SetLevel: %q", buf.String())
	}
}
