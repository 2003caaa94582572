package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pers"
)

// SessionInfo counts the records computed by one session.
type SessionInfo struct {
	ID      string `json:"id"`
	Records int    `json:"records"`
}

// InfoResult describes a store.
type InfoResult struct {
	Path     string        `json:"path"`
	Format   string        `json:"format"`
	Records  int           `json:"records"`
	Sessions []SessionInfo `json:"sessions"`
	Fields   []string      `json:"fields"`
}

// NewInfoCommand creates the info command.
func NewInfoCommand(rootOpts *RootOptions) *cobra.Command {
	storeOpts := &StoreOptions{}

	cmd := &cobra.Command{
		Use:   "info <store>",
		Short: "Summarize a store",
		Long: `Print the format, record count, sessions and field names of a store.

Sessions are listed in the order their first record was stored.

Examples:
  pers info results.json
  pers info results.db --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(rootOpts, storeOpts, args[0], cmd)
		},
	}
	storeOpts.register(cmd)

	return cmd
}

func runInfo(opts *RootOptions, storeOpts *StoreOptions, path string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	f := newFormatter(opts, cmd)

	r, err := openStore(ctx, f, path, storeOpts)
	if err != nil {
		return err
	}
	defer closeStore(ctx, r)

	result := describe(r)
	if f.JSON() {
		return f.Success(result)
	}
	return writeInfoText(f.Writer, result)
}

func describe(r *pers.Results) InfoResult {
	result := InfoResult{
		Path:     r.Path(),
		Format:   r.Format(),
		Sessions: []SessionInfo{},
		Fields:   []string{},
	}

	sessions := map[string]int{}
	fields := map[string]struct{}{}
	for _, e := range r.Entries() {
		result.Records++
		i, ok := sessions[e.Session]
		if !ok {
			i = len(result.Sessions)
			sessions[e.Session] = i
			result.Sessions = append(result.Sessions, SessionInfo{ID: e.Session})
		}
		result.Sessions[i].Records++
		for name := range e.Record {
			fields[name] = struct{}{}
		}
	}
	for name := range fields {
		result.Fields = append(result.Fields, name)
	}
	slices.Sort(result.Fields)
	return result
}

func writeInfoText(w io.Writer, info InfoResult) error {
	fmt.Fprintf(w, "Store:    %s\n", info.Path)
	fmt.Fprintf(w, "Format:   %s\n", info.Format)
	fmt.Fprintf(w, "Records:  %d\n", info.Records)
	fmt.Fprintf(w, "Sessions: %d\n", len(info.Sessions))
	for _, s := range info.Sessions {
		id := s.ID
		if id == "" {
			id = "(none)"
		}
		fmt.Fprintf(w, "  %s  %d records\n", id, s.Records)
	}
	_, err := fmt.Fprintf(w, "Fields:   %s\n", strings.Join(info.Fields, ", "))
	return err
}
