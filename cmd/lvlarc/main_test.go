package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/lvlarc/config"
	"github.com/katalvlaran/lvlarc/corrector"
)

// chainProblem: N0 pinned at x=0 moving at unit speed, N1 guessed short of x=2.
const chainProblem = `
tables:
  system: drift
  state:
    - [0, 0, 0, 1, 0, 0]
    - [1.5, 0, 0, 1, 0, 0]
  epoch: [0, 2]
  tof: [2]
  stm: [[]]
constraints:
  - {type: STATE, id: 0, data: [0, 0, 0, 1, 0, 0]}
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()

	return out.String(), err
}

func TestCorrectCommand(t *testing.T) {
	problem := writeFile(t, "chain.yaml", chainProblem)
	outPath := filepath.Join(t.TempDir(), "report.yaml")

	_, err := run(t, "correct", problem, "--tof-mode", "FIXED", "-o", outPath)
	require.NoError(t, err)

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var rep reportFile
	require.NoError(t, yaml.Unmarshal(raw, &rep))
	require.Equal(t, "converged", rep.Status)
	require.NotEmpty(t, rep.RunID)
	require.Equal(t, 2, rep.Iterations)
	require.Len(t, rep.Tables.State, 2)
	require.InDelta(t, 2.0, rep.Tables.State[1][0], 1e-12)
	require.Equal(t, []float64{2}, rep.Tables.TOF)
	require.Len(t, rep.Constraints, 1)

	out, err := run(t, "correct", problem, "--tof-mode", "FIXED")
	require.NoError(t, err)
	require.Contains(t, out, "status: converged")
}

func TestCorrectCommandErrors(t *testing.T) {
	problem := writeFile(t, "chain.yaml", chainProblem)

	_, err := run(t, "correct", problem, "--tof-mode", "sideways")
	require.ErrorIs(t, err, config.ErrInvalidSettings)

	_, err = run(t, "correct", problem, "--model", "two-body")
	require.ErrorIs(t, err, corrector.ErrSystemMismatch)

	cfg := writeFile(t, "lvlarc.yaml", "max_iterations: 1\n")
	_, err = run(t, "--config", cfg, "correct", problem, "--tof-mode", "FIXED")
	require.ErrorIs(t, err, corrector.ErrDiverged)

	_, err = run(t, "correct", filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)

	_, err = run(t, "correct")
	require.Error(t, err)
}

func TestInspectCommand(t *testing.T) {
	problem := writeFile(t, "chain.yaml", chainProblem)

	out, err := run(t, "inspect", problem)
	require.NoError(t, err)
	require.Contains(t, out, `Arcset "drift" (2 nodes, 1 segments`)
	require.Contains(t, out, "chrono N0 S0 N1\n")
	require.Contains(t, out, "total tof 2\n")
}

type failingCloser struct {
	bytes.Buffer
	err error
}

func (c *failingCloser) Close() error { return c.err }

func TestWriteAndCloseReportsCloseError(t *testing.T) {
	errClose := errors.New("disk full")
	errWrite := errors.New("write failed")
	write := func(w io.Writer) error {
		_, err := io.WriteString(w, "status: CONVERGED\n")
		return err
	}

	c := &failingCloser{err: errClose}
	require.ErrorIs(t, writeAndClose(c, write), errClose)
	require.Equal(t, "status: CONVERGED\n", c.String())

	c = &failingCloser{err: errClose}
	err := writeAndClose(c, func(io.Writer) error { return errWrite })
	require.ErrorIs(t, err, errWrite, "the write error wins over the close error")

	require.NoError(t, writeAndClose(&failingCloser{}, write))
}
