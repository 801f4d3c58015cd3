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

// Forester is a shape analyzer for heap-manipulating programs based on forest automata.
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/awslabs/ar-go-forester/cmd/forester/tools"
	"github.com/spf13/cobra"
)

// Version is set at link time by release builds
var Version string

var rootCmd = &cobra.Command{
	Use:   "forester",
	Short: "A shape analyzer based on forest automata.",
	Long: `Forester runs the symbolic execution of heap-manipulating programs over forest automata, and reports
memory errors: invalid dereferences and garbage.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the version of forester",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "forester %s\n", version())
	},
}

func version() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.Main.Version
	}
	return "(unknown version)"
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path for the analysis")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		errExit(err)
	}
}

func errExit(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	hint := tools.HintForErrorMessage(err.Error())
	if hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	}
	os.Exit(1)
}
