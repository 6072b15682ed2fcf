package main

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/lvlarc/arcset"
	"github.com/katalvlaran/lvlarc/constraint"
)

// problemFile is the on-disk problem: arcset tables plus the constraints to
// attach, IDs referring to table rows.
type problemFile struct {
	Tables      arcset.Tables           `yaml:"tables"`
	Constraints []constraint.Constraint `yaml:"constraints,omitempty"`
}

// reportFile is written by the correct command.
type reportFile struct {
	Status      string                  `yaml:"status"`
	RunID       string                  `yaml:"run_id"`
	Iterations  int                     `yaml:"iterations"`
	ErrNorm     float64                 `yaml:"err_norm"`
	Tables      arcset.Tables           `yaml:"tables"`
	Constraints []constraint.Constraint `yaml:"constraints,omitempty"`
}

func readProblem(path string) (*arcset.Arcset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var p problemFile
	if err = yaml.NewDecoder(f).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	a, err := arcset.FromTables(p.Tables)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	for _, c := range p.Constraints {
		if err = a.AddConstraint(c); err != nil {
			return nil, fmt.Errorf("load %s: constraint %v: %w", path, c, err)
		}
	}

	return a, nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}

	return enc.Close()
}
