package grid

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pers/value"
)

// parseYAML reads a YAML grid document. Mapping order is preserved by
// walking the node tree.
func parseYAML(data []byte) (*Document, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if doc.Kind == 0 {
		return &Document{}, nil
	}
	root := resolve(&doc)
	if root.Kind == yaml.DocumentNode {
		root = resolve(root.Content[0])
	}
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("grid must be a mapping")
	}

	gd := &Document{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i].Value, resolve(root.Content[i+1])
		var err error
		switch key {
		case KeyArgs:
			gd.Args, err = yamlArgs(val)
		case KeyKwargs:
			gd.Kwargs, err = yamlKwargs(val)
		default:
			err = unknownKey(key)
		}
		if err != nil {
			return nil, err
		}
	}
	return gd, nil
}

func yamlArgs(n *yaml.Node) ([]Param, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: %s must be a list of lists", n.Line, KeyArgs)
	}
	params := make([]Param, 0, len(n.Content))
	for i, c := range n.Content {
		candidates, err := yamlCandidates(resolve(c))
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", KeyArgs, i, err)
		}
		params = append(params, Param{Candidates: candidates})
	}
	return params, nil
}

func yamlKwargs(n *yaml.Node) ([]Param, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: %s must be a mapping", n.Line, KeyKwargs)
	}
	params := make([]Param, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		name := n.Content[i].Value
		for _, p := range params {
			if p.Name == name {
				return nil, fmt.Errorf("line %d: %s.%s listed twice", n.Content[i].Line, KeyKwargs, name)
			}
		}
		candidates, err := yamlCandidates(resolve(n.Content[i+1]))
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", KeyKwargs, name, err)
		}
		params = append(params, Param{Name: name, Candidates: candidates})
	}
	return params, nil
}

func yamlCandidates(n *yaml.Node) ([]value.Value, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: candidates must be a list", n.Line)
	}
	v, err := fromYAML(n)
	if err != nil {
		return nil, err
	}
	return v.(value.Array), nil
}

// fromYAML converts a node tree. Scalars follow YAML 1.2 core schema
// resolution, so 1 is an Int, 1.5 a Float and "1" a String.
func fromYAML(n *yaml.Node) (value.Value, error) {
	n = resolve(n)
	switch n.Kind {
	case yaml.SequenceNode:
		out := make(value.Array, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromYAML(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		out := make(value.Object, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := fromYAML(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out[n.Content[i].Value] = v
		}
		return out, nil
	case yaml.ScalarNode:
		var raw any
		if err := n.Decode(&raw); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		v, err := value.FromGo(raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported yaml node", n.Line)
	}
}

func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}
