package grid

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/pers/value"
)

// parseCUE evaluates a CUE (or JSON) grid document.
func parseCUE(path string, data []byte) (*Document, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, fmt.Errorf("grid must be a struct: %w", err)
	}

	gd := &Document{}
	for iter.Next() {
		switch label := iter.Selector().Unquoted(); label {
		case KeyArgs:
			gd.Args, err = cueArgs(iter.Value())
		case KeyKwargs:
			gd.Kwargs, err = cueKwargs(iter.Value())
		default:
			err = unknownKey(label)
		}
		if err != nil {
			return nil, err
		}
	}
	return gd, nil
}

func cueArgs(v cue.Value) ([]Param, error) {
	lists, err := v.List()
	if err != nil {
		return nil, fmt.Errorf("%s must be a list of lists: %w", KeyArgs, err)
	}
	var params []Param
	for i := 0; lists.Next(); i++ {
		candidates, err := cueCandidates(lists.Value())
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", KeyArgs, i, err)
		}
		params = append(params, Param{Candidates: candidates})
	}
	return params, nil
}

func cueKwargs(v cue.Value) ([]Param, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, fmt.Errorf("%s must be a struct: %w", KeyKwargs, err)
	}
	var params []Param
	for iter.Next() {
		name := iter.Selector().Unquoted()
		candidates, err := cueCandidates(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", KeyKwargs, name, err)
		}
		params = append(params, Param{Name: name, Candidates: candidates})
	}
	return params, nil
}

func cueCandidates(v cue.Value) ([]value.Value, error) {
	if v.Kind() != cue.ListKind {
		return nil, fmt.Errorf("candidates must be a list, got %s", v.Kind())
	}
	return cueList(v)
}

func cueList(v cue.Value) (value.Array, error) {
	iter, err := v.List()
	if err != nil {
		return nil, err
	}
	out := value.Array{}
	for iter.Next() {
		elem, err := fromCUE(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, elem)
	}
	return out, nil
}

// fromCUE converts a concrete CUE value.
func fromCUE(v cue.Value) (value.Value, error) {
	switch v.Kind() {
	case cue.NullKind:
		return value.Null{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		return value.Bool(b), err
	case cue.IntKind:
		i, err := v.Int64()
		return value.Int(i), err
	case cue.FloatKind:
		f, err := v.Float64()
		return value.Float(f), err
	case cue.StringKind:
		s, err := v.String()
		return value.String(s), err
	case cue.ListKind:
		return cueList(v)
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, err
		}
		out := value.Object{}
		for iter.Next() {
			elem, err := fromCUE(iter.Value())
			if err != nil {
				return nil, err
			}
			out[iter.Selector().Unquoted()] = elem
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value of kind %s", v.Kind())
	}
}
