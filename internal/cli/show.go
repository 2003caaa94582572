package cli

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/pers"
	"github.com/roach88/pers/value"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	StoreOptions
	Start int
	End   int // -1 means through the last record
}

// ShowResult is the JSON payload of the show command.
type ShowResult struct {
	Total   int           `json:"total"`
	Start   int           `json:"start"`
	Records []pers.Record `json:"records"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <store>",
		Short: "Print stored records",
		Long: `Print records in insertion order as a table, one column per field.

Use --start and --end to select the half-open range [start, end).

Examples:
  pers show results.json
  pers show results.db --start 10 --end 20
  pers show results.json --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	opts.StoreOptions.register(cmd)
	cmd.Flags().IntVar(&opts.Start, "start", 0, "index of the first record")
	cmd.Flags().IntVar(&opts.End, "end", -1, "index after the last record (-1 for all)")

	return cmd
}

func runShow(opts *ShowOptions, path string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	f := newFormatter(opts.RootOptions, cmd)

	if opts.Start < 0 || opts.End < -1 || (opts.End >= 0 && opts.End < opts.Start) {
		return f.Fail(ExitCommandError, ErrCodeInvalidRange,
			fmt.Sprintf("invalid range [%d, %d)", opts.Start, opts.End), nil)
	}

	r, err := openStore(ctx, f, path, &opts.StoreOptions)
	if err != nil {
		return err
	}
	defer closeStore(ctx, r)

	end := opts.End
	if end < 0 {
		end = r.Len()
	}
	records := r.Slice(opts.Start, end)

	if f.JSON() {
		return f.Success(ShowResult{
			Total:   r.Len(),
			Start:   opts.Start,
			Records: records,
		})
	}
	return writeTable(f.Writer, opts.Start, records)
}

// writeTable prints records as aligned columns: the record index, then
// every field that occurs in any record, sorted by name.
func writeTable(w io.Writer, start int, records []pers.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No records.")
		return err
	}

	var columns []string
	seen := map[string]struct{}{}
	for _, rec := range records {
		for name := range rec {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				columns = append(columns, name)
			}
		}
	}
	slices.Sort(columns)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "#\t%s\n", strings.Join(columns, "\t"))
	for i, rec := range records {
		cells := make([]string, 0, len(columns)+1)
		cells = append(cells, strconv.Itoa(start+i))
		for _, name := range columns {
			v, ok := rec[name]
			if !ok {
				cells = append(cells, "")
				continue
			}
			cells = append(cells, formatCell(v))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// formatCell renders strings bare and everything else as canonical JSON.
func formatCell(v value.Value) string {
	if s, ok := v.(value.String); ok {
		return string(s)
	}
	return value.Format(v)
}
