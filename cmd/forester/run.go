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

package main

import (
	"fmt"
	"io"

	"github.com/awslabs/ar-go-forester/analysis/config"
	"github.com/awslabs/ar-go-forester/analysis/forest"
	"github.com/awslabs/ar-go-forester/analysis/symexec"
	"github.com/awslabs/ar-go-forester/cmd/forester/tools"
	"github.com/awslabs/ar-go-forester/internal/formatutil"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] [program.yaml...]",
	Short: "analyze programs",
	Long: `Run the shape analysis on the given program files, on the builtin programs selected with --builtin, and
on the programs and builtins listed in the config file.`,
	Example: `  forester run --builtin sll
  forester run --config config.yaml list.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := tools.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			cfg.LogLevel = int(config.DebugLevel)
		}
		builtins, _ := cmd.Flags().GetStringSlice("builtin")
		programs, err := collectPrograms(cfg, args, builtins)
		if err != nil {
			return err
		}
		if len(programs) == 0 {
			return fmt.Errorf("no program to analyze, expected files or one of --builtin %v", symexec.BuiltinNames())
		}
		failed := 0
		for _, p := range programs {
			if !analyze(cmd.OutOrStdout(), cfg, p) {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d programs failed", failed, len(programs))
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringSlice("builtin", nil, "builtin program to analyze (repeatable)")
	rootCmd.AddCommand(runCmd)
}

func collectPrograms(cfg *config.Config, files []string, builtins []string) ([]*symexec.Program, error) {
	var programs []*symexec.Program
	for _, name := range append(builtins, cfg.Builtins...) {
		p, err := symexec.Builtin(name)
		if err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}
	for _, file := range cfg.Programs {
		files = append(files, cfg.RelPath(file))
	}
	for _, file := range files {
		p, err := symexec.LoadProgram(file)
		if err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}
	return programs, nil
}

// analyze runs the analysis of p and prints the outcome to w. It returns false if the analysis failed.
func analyze(w io.Writer, cfg *config.Config, p *symexec.Program) bool {
	logger := config.NewLogGroup(cfg)
	engine, err := symexec.NewEngine(cfg, logger, forest.NewBoxManager())
	if err != nil {
		logger.Errorf("%s", err)
		return false
	}
	if err := engine.Compile(p); err != nil {
		fmt.Fprintf(w, "%s %s: %v\n", formatutil.Red("INVALID"), p.Name, err)
		printHint(w, err)
		return false
	}
	res, err := engine.Run()
	var programErr *symexec.ProgramError
	var notImplemented *symexec.NotImplementedError
	switch {
	case err == nil:
		fmt.Fprintf(w, "%s %s (%d states, %d traces)\n", formatutil.Green("SAFE"), p.Name,
			res.StatesEvaluated, res.TracesEvaluated)
	case errors.As(err, &programErr):
		fmt.Fprintf(w, "%s %s: %s\n", formatutil.Red("ERROR"), p.Name, programErr)
		fmt.Fprintf(w, "%s\n%s", formatutil.Bold("trace:"), formatutil.Listing("  ", res.FormatTrace()))
	case errors.As(err, &notImplemented):
		fmt.Fprintf(w, "%s %s: %s\n", formatutil.Yellow("UNKNOWN"), p.Name, notImplemented)
		printHint(w, err)
		fmt.Fprintf(w, "%s\n%s", formatutil.Bold("trace:"), formatutil.Listing("  ", res.FormatTrace()))
	default:
		fmt.Fprintf(w, "%s %s: %v\n", formatutil.Yellow("UNKNOWN"), p.Name, err)
		printHint(w, err)
	}
	if res != nil && cfg.ReportBoxes {
		fmt.Fprintf(w, "%s\n", formatutil.Bold("boxes:"))
		for _, b := range res.Boxes {
			fmt.Fprintf(w, "  %s\n", b)
		}
	}
	if res != nil && cfg.ReportFixpoints {
		for _, site := range res.Sites {
			fmt.Fprintf(w, "%s\n%s", formatutil.Bold("fixpoint:"), formatutil.Listing("  ", site.String()))
		}
	}
	return err == nil
}

func printHint(w io.Writer, err error) {
	if hint := tools.HintForErrorMessage(err.Error()); hint != "" {
		fmt.Fprintf(w, "  Hint: %s\n", hint)
	}
}
