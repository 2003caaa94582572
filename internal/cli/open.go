package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pers"
)

// StoreOptions are flags shared by commands that read a store.
type StoreOptions struct {
	Format string // overrides detection from the extension
}

func (o *StoreOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Format, "store-format", "", "store format (json|json+zstd|sqlite), default from extension")
}

// openStore opens an existing store read-only.
func openStore(ctx context.Context, f *OutputFormatter, path string, o *StoreOptions) (*pers.Results, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("store not found: %s", path), nil)
		}
		return nil, f.Fail(ExitCommandError, ErrCodeNotFound, "cannot access store", err)
	}

	opts := []pers.Option{pers.ReadOnly(), pers.WithLogger(slog.Default())}
	if o != nil && o.Format != "" {
		opts = append(opts, pers.WithFormat(o.Format))
	}
	r, err := pers.Open(ctx, path, opts...)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeOpenFailed, "failed to open store", err)
	}
	return r, nil
}

func closeStore(ctx context.Context, r *pers.Results) {
	if err := r.Close(ctx); err != nil {
		slog.Error("error closing store", "path", r.Path(), "error", err)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
