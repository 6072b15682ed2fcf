package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/lvlarc/corrector"
)

func newCorrectCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "correct <problem.yaml>",
		Short: "Correct an arcset until its constraints are met",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run := func(w io.Writer) error { return a.runCorrect(cmd, args[0], w) }
			if out == "" {
				return run(cmd.OutOrStdout())
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}

			return writeAndClose(f, run)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&out, "out", "o", "", "write the report here instead of stdout")
	f.Float64("tolerance", 0, "convergence threshold on the constraint error (0 uses the arcset's)")
	f.Int("max-iterations", corrector.DefaultMaxIterations, "iteration budget")
	f.String("tof-mode", corrector.TOFFree.String(), "FREE, FIXED, FIXED_SIGN or EQUAL_ARC")
	f.Bool("allow-divergence", false, "report the best iterate instead of failing")
	f.Int("parallelism", corrector.DefaultParallelism, "segments propagated concurrently")

	return cmd
}

// writeAndClose runs write against wc and closes it; a close error is
// reported when write itself succeeded.
func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) (err error) {
	defer func() {
		if cerr := wc.Close(); err == nil {
			err = cerr
		}
	}()

	return write(wc)
}

func (a *app) runCorrect(cmd *cobra.Command, path string, w io.Writer) error {
	s, err := a.settings()
	if err != nil {
		return err
	}
	logger, err := s.Logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	opts, err := s.Options(logger)
	if err != nil {
		return err
	}
	model, err := s.NewModel()
	if err != nil {
		return err
	}
	set, err := readProblem(path)
	if err != nil {
		return err
	}

	res, err := corrector.Correct(cmd.Context(), set, model, opts...)
	if err != nil {
		return fmt.Errorf("correct %s: %w", path, err)
	}

	return writeYAML(w, reportFile{
		Status:      res.Status.String(),
		RunID:       res.RunID,
		Iterations:  res.Iterations,
		ErrNorm:     res.ErrNorm,
		Tables:      res.Arcset.Tables(),
		Constraints: res.Arcset.AllConstraints(),
	})
}
