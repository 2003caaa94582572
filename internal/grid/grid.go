// Package grid loads parameter grids for the combinatorial queries.
//
// A grid document lists candidate values for positional and named
// parameters:
//
//	args: [[1, 2], [10, 20]]
//	kwargs: {
//		mode: ["fast", "slow"]
//	}
//
// CUE and JSON documents are evaluated with cuelang.org/go; YAML documents
// are read with gopkg.in/yaml.v3. Named parameters keep their declaration
// order in all formats.
package grid

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/pers"
	"github.com/roach88/pers/value"
)

// Top-level keys of a grid document.
const (
	KeyArgs   = "args"
	KeyKwargs = "kwargs"
)

// Param is one parameter's candidate list. Name is empty for positional
// parameters.
type Param struct {
	Name       string
	Candidates []value.Value
}

// Document is a parsed grid document.
type Document struct {
	Args   []Param
	Kwargs []Param
}

// Grid builds the query grid.
func (s *Document) Grid() *pers.Grid {
	g := pers.NewGrid()
	for _, p := range s.Args {
		g.ArgValues(p.Candidates...)
	}
	for _, p := range s.Kwargs {
		g.KwargValues(p.Name, p.Candidates...)
	}
	return g
}

// Load reads a grid document. The format is chosen by extension: ".cue",
// ".json", ".yaml" or ".yml".
func Load(path string) (*pers.Grid, error) {
	gd, err := LoadDocument(path)
	if err != nil {
		return nil, err
	}
	g := gd.Grid()
	if err := g.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// LoadDocument reads a grid document without building the grid.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read grid: %w", err)
	}

	var gd *Document
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".cue", ".json":
		gd, err = parseCUE(path, data)
	case ".yaml", ".yml":
		gd, err = parseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported grid file extension %q (want .cue, .json, .yaml or .yml)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return gd, nil
}

func unknownKey(key string) error {
	return fmt.Errorf("unknown key %q (want %q or %q)", key, KeyArgs, KeyKwargs)
}
