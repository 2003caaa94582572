package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/pers"
	"github.com/roach88/pers/value"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	StoreOptions
	As     string // "json" | "yaml"
	Output string // file to write; stdout when empty
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <store>",
		Short: "Write all records as a JSON or YAML list",
		Long: `Write every record of a store, in insertion order, as one JSON array or
YAML sequence. Field names are sorted within each record.

Examples:
  pers export results.db
  pers export results.json --as yaml -o results.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	opts.StoreOptions.register(cmd)
	cmd.Flags().StringVar(&opts.As, "as", "json", "export encoding (json|yaml)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")

	return cmd
}

func runExport(opts *ExportOptions, path string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	f := newFormatter(opts.RootOptions, cmd)

	if opts.As != "json" && opts.As != "yaml" {
		return f.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("invalid --as %q: must be json or yaml", opts.As), nil)
	}

	r, err := openStore(ctx, f, path, &opts.StoreOptions)
	if err != nil {
		return err
	}
	defer closeStore(ctx, r)

	var buf bytes.Buffer
	if opts.As == "yaml" {
		err = writeYAML(&buf, r.Records())
	} else {
		err = writeJSON(&buf, r.Records())
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to encode records", err)
	}

	if opts.Output == "" {
		_, err = cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(opts.Output, buf.Bytes(), 0o644); err != nil {
		return f.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to write output", err)
	}
	if f.JSON() {
		return f.Success(map[string]any{"output": opts.Output, "records": r.Len()})
	}
	return f.Success(fmt.Sprintf("Exported %d records to %s", r.Len(), opts.Output))
}

func writeJSON(w io.Writer, records []pers.Record) error {
	arr := make(value.Array, len(records))
	for i, rec := range records {
		arr[i] = rec
	}
	data, err := value.MarshalCanonical(arr)
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return err
	}
	out.WriteByte('\n')
	_, err = w.Write(out.Bytes())
	return err
}

func writeYAML(w io.Writer, records []pers.Record) error {
	doc := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, rec := range records {
		doc.Content = append(doc.Content, yamlNode(rec))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// yamlNode converts v to a node tree with explicit tags, so Int and Float
// stay distinguishable and strings that look like numbers stay quoted.
func yamlNode(v value.Value) *yaml.Node {
	switch val := v.(type) {
	case nil, value.Null:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case value.Bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(bool(val))}
	case value.Int:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(int64(val), 10)}
	case value.Float:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: value.Format(val)}
	case value.String:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(val)}
	case value.Array:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
		for _, elem := range val {
			n.Content = append(n.Content, yamlNode(elem))
		}
		return n
	case value.Object:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range val.SortedKeys() {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				yamlNode(val[k]),
			)
		}
		return n
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value.Format(v)}
	}
}
