package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pers/internal/store"
)

// ConvertOptions holds flags for the convert command.
type ConvertOptions struct {
	*RootOptions
	From  string // source format override
	To    string // destination format override
	Force bool   // overwrite an existing destination
}

// ConvertResult is the JSON payload of the convert command.
type ConvertResult struct {
	Source      string `json:"source"`
	SourceFmt   string `json:"source_format"`
	Destination string `json:"destination"`
	DestFmt     string `json:"destination_format"`
	Records     int    `json:"records"`
}

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConvertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "convert <src> <dst>",
		Short: "Copy a store into another format",
		Long: `Copy every entry of a store, with its key, order and session, into a new
store. Formats are taken from the file extensions unless --from or --to
is given.

Examples:
  pers convert results.json results.db
  pers convert results.db archive.json.zst
  pers convert results.db results.bin --to json+zstd --force`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "source format (json|json+zstd|sqlite)")
	cmd.Flags().StringVar(&opts.To, "to", "", "destination format (json|json+zstd|sqlite)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite an existing destination")

	return cmd
}

func runConvert(opts *ConvertOptions, srcPath, dstPath string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	f := newFormatter(opts.RootOptions, cmd)

	if _, err := os.Stat(srcPath); errors.Is(err, os.ErrNotExist) {
		return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("store not found: %s", srcPath), nil)
	}
	if _, err := os.Stat(dstPath); err == nil && !opts.Force {
		return f.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("destination exists: %s (use --force)", dstPath), nil)
	}

	srcOpts, err := formatOption(opts.From)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "invalid --from", err)
	}
	dstOpts, err := formatOption(opts.To)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "invalid --to", err)
	}

	srcBackend, err := store.Open(srcPath, srcOpts...)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeOpenFailed, "failed to open source", err)
	}
	defer srcBackend.Close()
	src := store.NewCache(srcBackend, "")
	if err := src.Load(ctx); err != nil {
		return f.Fail(ExitCommandError, ErrCodeOpenFailed, "failed to load source", err)
	}

	dstBackend, err := store.Open(dstPath, dstOpts...)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeOpenFailed, "failed to open destination", err)
	}
	defer dstBackend.Close()

	// Not loaded: the first save replaces whatever the destination held.
	dst := store.NewCache(dstBackend, "")
	for _, e := range src.Entries() {
		if err := dst.Put(e); err != nil {
			return f.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to copy entry", err)
		}
	}
	if err := dst.Save(ctx); err != nil {
		return f.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to save destination", err)
	}

	slog.Debug("store converted",
		"source", srcPath,
		"destination", dstPath,
		"records", dst.Len(),
	)

	result := ConvertResult{
		Source:      srcPath,
		SourceFmt:   string(srcBackend.Format()),
		Destination: dstPath,
		DestFmt:     string(dstBackend.Format()),
		Records:     dst.Len(),
	}
	if f.JSON() {
		return f.Success(result)
	}
	return f.Success(fmt.Sprintf("Converted %d records from %s (%s) to %s (%s)",
		result.Records, result.Source, result.SourceFmt, result.Destination, result.DestFmt))
}

func formatOption(name string) ([]store.Option, error) {
	if name == "" {
		return nil, nil
	}
	format, err := store.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	return []store.Option{store.WithFormat(format)}, nil
}
