package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <problem.yaml>",
		Short: "Print an arcset and its chronological order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := readProblem(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprint(w, set.String())

			order, err := set.ChronoOrder()
			if err != nil {
				return err
			}
			names := make([]string, len(order))
			for i, p := range order {
				names[i] = p.String()
			}
			fmt.Fprintf(w, "chrono %s\n", strings.Join(names, " "))
			fmt.Fprintf(w, "total tof %g\n", set.TotalTOF())

			return nil
		},
	}
}
