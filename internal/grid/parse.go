package grid

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pers/value"
)

// ParseValue parses a single command-line token with YAML scalar rules:
// "3" is an Int, "0.5" a Float, "true" a Bool, "null" or "~" Null, and
// anything else a String. Flow collections such as "[1, 2]" or "{a: 1}"
// are accepted too.
func ParseValue(s string) (value.Value, error) {
	if strings.TrimSpace(s) == "" {
		return value.String(s), nil
	}
	var n yaml.Node
	if err := yaml.Unmarshal([]byte(s), &n); err != nil {
		return nil, fmt.Errorf("parse %q: %w", s, err)
	}
	if len(n.Content) == 0 {
		return value.Null{}, nil
	}
	v, err := fromYAML(n.Content[0])
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", s, err)
	}
	return v, nil
}

// ParseList parses comma-separated candidates: "1,2,a". A value starting
// with "[" is parsed as one YAML flow sequence instead, which allows
// quoting: `[1, "a,b"]`.
func ParseList(s string) ([]value.Value, error) {
	if strings.HasPrefix(strings.TrimSpace(s), "[") {
		v, err := ParseValue(s)
		if err != nil {
			return nil, err
		}
		arr, ok := v.(value.Array)
		if !ok {
			return nil, fmt.Errorf("parse %q: expected a list", s)
		}
		return arr, nil
	}

	parts := strings.Split(s, ",")
	out := make([]value.Value, 0, len(parts))
	for _, p := range parts {
		v, err := ParseValue(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseKwarg parses "name=v1,v2".
func ParseKwarg(s string) (string, []value.Value, error) {
	name, list, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", nil, fmt.Errorf("invalid named argument %q (want name=v1,v2)", s)
	}
	vals, err := ParseList(list)
	if err != nil {
		return "", nil, fmt.Errorf("argument %q: %w", name, err)
	}
	return name, vals, nil
}

// FromFlags builds a document from repeated --arg and --kwarg values.
func FromFlags(args, kwargs []string) (*Document, error) {
	gd := &Document{}
	for i, a := range args {
		vals, err := ParseList(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		gd.Args = append(gd.Args, Param{Candidates: vals})
	}
	for _, kw := range kwargs {
		name, vals, err := ParseKwarg(kw)
		if err != nil {
			return nil, err
		}
		gd.Kwargs = append(gd.Kwargs, Param{Name: name, Candidates: vals})
	}
	return gd, nil
}
