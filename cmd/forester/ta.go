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
	"os"

	"github.com/awslabs/ar-go-forester/analysis/treeaut"
	"github.com/awslabs/ar-go-forester/analysis/treeaut/timbuk"
	"github.com/spf13/cobra"
)

var taCmd = &cobra.Command{
	Use:   "ta [flags] file.timbuk",
	Short: "manipulate tree automata in the Timbuk format",
	Long: `Read the tree automata of a Timbuk file. By default, print their size. With --minimize, print their
minimization. With --include, test the language inclusion of every automaton in the next one.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		minimize, _ := cmd.Flags().GetBool("minimize")
		include, _ := cmd.Flags().GetBool("include")
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("could not open automata: %w", err)
		}
		defer f.Close()
		automata, err := timbuk.Read(f, treeaut.NewBackend[string]())
		if err != nil {
			return err
		}
		return printAutomata(cmd.OutOrStdout(), automata, minimize, include)
	},
}

func init() {
	taCmd.Flags().Bool("minimize", false, "print the minimized automata")
	taCmd.Flags().Bool("include", false, "test the inclusion of consecutive automata")
	rootCmd.AddCommand(taCmd)
}

func label(s string) string { return s }

func printAutomata(w io.Writer, automata []timbuk.Named, minimize bool, include bool) error {
	for _, a := range automata {
		switch {
		case minimize:
			m := a.TA.Minimized(treeaut.New(a.TA.Backend()))
			if err := timbuk.Write(w, m, a.Name, label, a.StateName); err != nil {
				return err
			}
			fmt.Fprintln(w)
			m.Clear()
		case !include:
			fmt.Fprintf(w, "%s: %d states, %d transitions, %d final\n", a.Name, len(a.TA.States()), a.TA.Len(),
				len(a.TA.FinalStates()))
		}
	}
	if include {
		for i := 0; i+1 < len(automata); i++ {
			a, b := automata[i], automata[i+1]
			fmt.Fprintf(w, "%s <= %s: %t\n", a.Name, b.Name, treeaut.Subseteq(a.TA, b.TA))
		}
	}
	return nil
}
