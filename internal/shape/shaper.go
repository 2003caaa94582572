package shape

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/roach88/pers/value"
)

// Default field naming.
const (
	DefaultArgPrefix    = "_arg_"
	DefaultResultPrefix = "_result_"
	DefaultResultKey    = "result"
)

// Options configures a Shaper.
type Options struct {
	ArgPrefix    string   // name prefix for positional args without a declared name
	ResultPrefix string   // name prefix for flattened result entries
	ResultKey    string   // field holding a scalar (or unflattened) result
	Flatten      bool     // expand mappings and sequences into separate fields
	Skip         []string // fields dropped from the final record
}

// DefaultOptions returns the default naming scheme with flattening enabled.
func DefaultOptions() Options {
	return Options{
		ArgPrefix:    DefaultArgPrefix,
		ResultPrefix: DefaultResultPrefix,
		ResultKey:    DefaultResultKey,
		Flatten:      true,
	}
}

// Shaper turns results and calls into flat records. It is immutable and
// safe for concurrent use.
type Shaper struct {
	opts Options
	skip map[string]struct{}
}

// New creates a Shaper.
func New(opts Options) *Shaper {
	skip := make(map[string]struct{}, len(opts.Skip))
	for _, name := range opts.Skip {
		skip[name] = struct{}{}
	}
	opts.Skip = slices.Clone(opts.Skip)
	return &Shaper{opts: opts, skip: skip}
}

// Options returns a copy of the configuration.
func (s *Shaper) Options() Options {
	opts := s.opts
	opts.Skip = slices.Clone(s.opts.Skip)
	return opts
}

// Bind resolves argument fields for a call. Positional argument i is named
// params[i] when declared, ArgPrefix+i otherwise. Named arguments keep their
// names. Binding a declared parameter both positionally and by name fails
// with ErrBinding.
func (s *Shaper) Bind(args value.Array, kwargs value.Object, params []string) (value.Object, error) {
	out := make(value.Object, len(args)+len(kwargs))
	for i, arg := range args {
		name := s.opts.ArgPrefix + strconv.Itoa(i)
		if i < len(params) {
			name = params[i]
		}
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("%w: positional argument %d repeats field %q", ErrBinding, i, name)
		}
		out[name] = arg
	}
	for name, v := range kwargs {
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("%w: multiple values for argument %q", ErrBinding, name)
		}
		out[name] = v
	}
	return out, nil
}

// Fields returns the result fields for a raw result.
// Without flattening the whole result is stored under ResultKey.
func (s *Shaper) Fields(result value.Value) value.Object {
	if !s.opts.Flatten {
		if result == nil {
			result = value.Null{}
		}
		return value.Object{s.opts.ResultKey: result}
	}
	return fields(Classify(result), s.opts.ResultPrefix, s.opts.ResultKey)
}

// Shape merges argument fields (from Bind) with result fields into a record.
// Result fields win on a name collision. With flattening enabled, a result
// field that shares a name with a differently valued named argument is a
// *ConflictError; equal values merge silently. Skipped fields are removed
// after the conflict check.
func (s *Shaper) Shape(result value.Value, argFields, kwargs value.Object) (value.Object, error) {
	resFields := s.Fields(result)

	if s.opts.Flatten {
		for _, name := range kwargs.SortedKeys() {
			rv, ok := resFields[name]
			if !ok {
				continue
			}
			if av := kwargs[name]; !value.Equal(av, rv) {
				return nil, &ConflictError{Field: name, Argument: av, Result: rv}
			}
		}
	}

	record := make(value.Object, len(argFields)+len(resFields))
	for k, v := range argFields {
		record[k] = v
	}
	for k, v := range resFields {
		record[k] = v
	}
	for name := range s.skip {
		delete(record, name)
	}
	return record, nil
}
