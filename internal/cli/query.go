package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pers"
	"github.com/roach88/pers/internal/grid"
	"github.com/roach88/pers/value"
)

// QueryOptions holds flags shared by the query subcommands.
type QueryOptions struct {
	*RootOptions
	StoreOptions
	Grid   string   // grid document (.cue, .json, .yaml)
	Args   []string // positional candidate lists
	Kwargs []string // name=v1,v2
}

// QueryResult is the JSON payload of query all and query any.
type QueryResult struct {
	Query        string `json:"query"`
	Result       bool   `json:"result"`
	Combinations int    `json:"combinations"`
}

// MissingCall is one missing combination in JSON output.
type MissingCall struct {
	Args   value.Array  `json:"args"`
	Kwargs value.Object `json:"kwargs"`
}

// MissingResult is the JSON payload of query missing.
type MissingResult struct {
	Missing      []MissingCall `json:"missing"`
	Combinations int           `json:"combinations"`
}

// NewQueryCommand creates the query command and its subcommands.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Check which argument combinations are stored",
		Long: `Evaluate the Cartesian product of candidate values per parameter against
a store, without computing anything.

Candidates come from a grid document (--grid) or from flags: every --arg adds
a positional parameter, every --kwarg a named one. Values follow YAML scalar
rules, so 1 is an integer, 1.0 a float and "1" a string.

Exit codes:
  0 - Query holds (all / any) or ran (missing)
  1 - Query does not hold
  2 - Command error

Examples:
  pers query all results.json --arg 1,2 --kwarg mode=fast,slow
  pers query missing results.db --grid sweep.cue
  pers query any results.json --kwarg 'x=[1, "a,b"]'`,
	}

	cmd.PersistentFlags().StringVar(&opts.Grid, "grid", "", "grid document (.cue, .json, .yaml, .yml)")
	cmd.PersistentFlags().StringArrayVar(&opts.Args, "arg", nil, "positional candidates v1,v2,... (repeatable)")
	cmd.PersistentFlags().StringArrayVar(&opts.Kwargs, "kwarg", nil, "named candidates name=v1,v2,... (repeatable)")
	cmd.PersistentFlags().StringVar(&opts.StoreOptions.Format, "store-format", "", "store format (json|json+zstd|sqlite), default from extension")

	cmd.AddCommand(newQueryBoolCommand(opts, "all", "Report whether every combination is stored"))
	cmd.AddCommand(newQueryBoolCommand(opts, "any", "Report whether at least one combination is stored"))
	cmd.AddCommand(newQueryMissingCommand(opts))

	return cmd
}

func newQueryBoolCommand(opts *QueryOptions, name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <store>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryBool(opts, name, args[0], cmd)
		},
	}
}

func newQueryMissingCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "missing <store>",
		Short: "List combinations that are not stored",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryMissing(opts, args[0], cmd)
		},
	}
}

// buildGrid reads the grid from --grid or from --arg/--kwarg.
func buildGrid(opts *QueryOptions, f *OutputFormatter) (*pers.Grid, error) {
	if opts.Grid != "" && (len(opts.Args) > 0 || len(opts.Kwargs) > 0) {
		return nil, f.Fail(ExitCommandError, ErrCodeInvalidGrid, "--grid cannot be combined with --arg or --kwarg", nil)
	}

	var g *pers.Grid
	if opts.Grid != "" {
		loaded, err := grid.Load(opts.Grid)
		if err != nil {
			return nil, f.Fail(ExitCommandError, ErrCodeInvalidGrid, "failed to load grid", err)
		}
		g = loaded
	} else {
		gd, err := grid.FromFlags(opts.Args, opts.Kwargs)
		if err != nil {
			return nil, f.Fail(ExitCommandError, ErrCodeInvalidGrid, "invalid grid flags", err)
		}
		g = gd.Grid()
	}
	if err := g.Err(); err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeInvalidGrid, "invalid grid", err)
	}
	return g, nil
}

func runQueryBool(opts *QueryOptions, query, path string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	f := newFormatter(opts.RootOptions, cmd)

	g, err := buildGrid(opts, f)
	if err != nil {
		return err
	}
	r, err := openStore(ctx, f, path, &opts.StoreOptions)
	if err != nil {
		return err
	}
	defer closeStore(ctx, r)

	var holds bool
	if query == "all" {
		holds, err = r.All(g)
	} else {
		holds, err = r.Any(g)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "query failed", err)
	}

	if f.JSON() {
		err = f.Success(QueryResult{Query: query, Result: holds, Combinations: g.Size()})
	} else {
		err = f.Success(holds)
	}
	if err != nil {
		return err
	}
	if !holds {
		return NewExitError(ExitFailure, fmt.Sprintf("query %s does not hold", query))
	}
	return nil
}

func runQueryMissing(opts *QueryOptions, path string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	f := newFormatter(opts.RootOptions, cmd)

	g, err := buildGrid(opts, f)
	if err != nil {
		return err
	}
	r, err := openStore(ctx, f, path, &opts.StoreOptions)
	if err != nil {
		return err
	}
	defer closeStore(ctx, r)

	missing, err := r.Missing(g)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "query failed", err)
	}

	if f.JSON() {
		result := MissingResult{
			Missing:      make([]MissingCall, len(missing)),
			Combinations: g.Size(),
		}
		for i, c := range missing {
			result.Missing[i] = MissingCall{Args: orEmptyArray(c.Args), Kwargs: orEmptyObject(c.Kwargs)}
		}
		return f.Success(result)
	}

	for _, c := range missing {
		fmt.Fprintln(f.Writer, c.String())
	}
	_, err = fmt.Fprintf(f.Writer, "%d of %d combinations missing\n", len(missing), g.Size())
	return err
}

func orEmptyArray(a value.Array) value.Array {
	if a == nil {
		return value.Array{}
	}
	return a
}

func orEmptyObject(o value.Object) value.Object {
	if o == nil {
		return value.Object{}
	}
	return o
}
