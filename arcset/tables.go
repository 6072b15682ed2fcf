package arcset

import (
	"fmt"
	"io"
	"math"
	"sort"

	"gopkg.in/yaml.v3"
)

// Tables is the persisted layout of an arcset, one row per node or segment in
// storage order (call PutInChronoOrder first for a chronological file).
//
//   - State:  N rows, the node states.
//   - Epoch:  N values.
//   - TOF:    one value per segment (N−1 for a simple chain).
//   - STM:    one row-major StateDim×StateDim row per segment; a segment that
//     was never propagated is written as a row of NaN.
//   - Links:  per segment [origin row, terminus row, joined segment row], −1 for none.
//     When absent, segments are rebuilt as the chain row i ↔ row i+1.
//   - Extra:  named extra-parameter tables, one row per node (empty when unset).
type Tables struct {
	System string                 `yaml:"system"`
	Tol    float64                `yaml:"tol"`
	State  [][]float64            `yaml:"state"`
	Epoch  []float64              `yaml:"epoch"`
	TOF    []float64              `yaml:"tof"`
	STM    [][]float64            `yaml:"stm"`
	Links  [][]int                `yaml:"links,omitempty"`
	Extra  map[string][][]float64 `yaml:"extra,omitempty"`
}

// Tables exports the arcset in storage order.
func (a *Arcset) Tables() Tables {
	t := Tables{
		System: a.system,
		Tol:    a.tol,
		State:  make([][]float64, len(a.nodes)),
		Epoch:  make([]float64, len(a.nodes)),
		TOF:    make([]float64, len(a.segs)),
		STM:    make([][]float64, len(a.segs)),
		Links:  make([][]int, len(a.segs)),
	}
	var i int
	names := make(map[string]bool)
	for i = range a.nodes {
		t.State[i] = append([]float64(nil), a.nodes[i].State...)
		t.Epoch[i] = a.nodes[i].Epoch
		for name := range a.nodes[i].Extra {
			names[name] = true
		}
	}
	for i = range a.segs {
		s := a.segs[i]
		t.TOF[i] = s.TOF
		if len(s.STM) == STMSize {
			t.STM[i] = append([]float64(nil), s.STM...)
		} else {
			t.STM[i] = nanRow(STMSize)
		}
		t.Links[i] = []int{a.rowOfNode(s.Origin()), a.rowOfNode(s.Terminus()), a.rowOfSeg(s.segLink)}
	}
	if len(names) > 0 {
		t.Extra = make(map[string][][]float64, len(names))
		for name := range names {
			rows := make([][]float64, len(a.nodes))
			for i = range a.nodes {
				rows[i] = append([]float64{}, a.nodes[i].Extra[name]...)
			}
			t.Extra[name] = rows
		}
	}

	return t
}

func (a *Arcset) rowOfNode(id int) int {
	if id == InvalidID || a.nodeIx[id] == InvalidID {
		return InvalidID
	}

	return a.nodeIx[id]
}

func (a *Arcset) rowOfSeg(id int) int {
	if id == InvalidID || a.segIx[id] == InvalidID {
		return InvalidID
	}

	return a.segIx[id]
}

func nanRow(n int) []float64 {
	row := make([]float64, n)
	var i int
	for i = range row {
		row[i] = math.NaN()
	}

	return row
}

// FromTables rebuilds an arcset from its persisted tables without
// re-propagating. Node and segment IDs equal their row numbers.
//
// Errors: ErrBadTables for inconsistent shapes; AddSeg errors for links that
// violate the linking rules.
func FromTables(t Tables) (*Arcset, error) {
	n := len(t.State)
	if len(t.Epoch) != n {
		return nil, arcErrorf(opTables, fmt.Errorf("%d states but %d epochs: %w", n, len(t.Epoch), ErrBadTables))
	}
	if len(t.STM) != len(t.TOF) {
		return nil, arcErrorf(opTables, fmt.Errorf("%d TOFs but %d STMs: %w", len(t.TOF), len(t.STM), ErrBadTables))
	}
	if t.Links == nil && n > 0 && len(t.TOF) != n-1 {
		return nil, arcErrorf(opTables, fmt.Errorf("chain of %d nodes needs %d TOFs, have %d: %w", n, n-1, len(t.TOF), ErrBadTables))
	}
	if t.Links != nil && len(t.Links) != len(t.TOF) {
		return nil, arcErrorf(opTables, fmt.Errorf("%d TOFs but %d link rows: %w", len(t.TOF), len(t.Links), ErrBadTables))
	}

	opts := []Option{}
	if t.Tol > 0 {
		opts = append(opts, WithTolerance(t.Tol))
	}
	a := New(t.System, opts...)
	var i int
	for i = 0; i < n; i++ {
		a.AddNode(NewNode(t.State[i], t.Epoch[i]))
	}
	names := make([]string, 0, len(t.Extra))
	for name := range t.Extra {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rows := t.Extra[name]
		if len(rows) != n {
			return nil, arcErrorf(opTables, fmt.Errorf("extra %q has %d rows for %d nodes: %w", name, len(rows), n, ErrBadTables))
		}
		for i = range rows {
			if len(rows[i]) > 0 {
				_ = a.SetNodeExtra(i, name, rows[i])
			}
		}
	}

	for i = range t.TOF {
		origin, terminus := i, i+1
		if t.Links != nil {
			if len(t.Links[i]) < 2 {
				return nil, arcErrorf(opTables, fmt.Errorf("link row %d: %w", i, ErrBadTables))
			}
			origin, terminus = t.Links[i][0], t.Links[i][1]
		} else if t.TOF[i] < 0 {
			origin, terminus = i+1, i
		}
		seg := NewSegment(origin, terminus, t.TOF[i])
		if len(t.STM[i]) == STMSize && !math.IsNaN(t.STM[i][0]) {
			seg.STM = append([]float64(nil), t.STM[i]...)
		}
		id, err := a.AddSeg(seg)
		if err != nil {
			return nil, arcErrorf(opTables, err)
		}
		if id == InvalidID {
			return nil, arcErrorf(opTables, fmt.Errorf("segment row %d rejected: %w", i, ErrBadTables))
		}
	}
	for i = range t.Links {
		if len(t.Links[i]) > 2 && t.Links[i][2] != InvalidID && t.Links[i][2] > i {
			if err := a.LinkSegments(i, t.Links[i][2]); err != nil {
				return nil, arcErrorf(opTables, err)
			}
		}
	}

	return a, nil
}

// WriteYAML encodes the tables as YAML.
func (t Tables) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("arcset: encode tables: %w", err)
	}

	return enc.Close()
}

// ReadTables decodes YAML written by WriteYAML.
func ReadTables(r io.Reader) (Tables, error) {
	var t Tables
	if err := yaml.NewDecoder(r).Decode(&t); err != nil {
		return Tables{}, fmt.Errorf("arcset: decode tables: %w", err)
	}

	return t, nil
}
