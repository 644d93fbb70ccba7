package cli

import (
	"busbook/internal/audit"
	"busbook/pkg/model"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

var ValidFormats = []string{FormatText, FormatJSON}

// Backend is what busctl commands operate on.
type Backend interface {
	Migrate(ctx context.Context) error
	Cleanup(ctx context.Context) (int64, error)
	ReleaseLocks(ctx context.Context, busID string) (*model.ReleaseLocksResponse, error)
	Audit(ctx context.Context) ([]audit.Report, error)
	Close()
}

// Connector opens a Backend. It runs only when a command executes, so help
// and flag errors never touch the database.
type Connector func(ctx context.Context) (Backend, error)

type RootOptions struct {
	Format  string
	Timeout time.Duration
	connect Connector
}

func NewRootCommand(connect Connector) *cobra.Command {
	opts := &RootOptions{connect: connect}

	cmd := &cobra.Command{
		Use:   "busctl",
		Short: "Operator tooling for the busbook seat inventory",
		Long:  "Run migrations, sweep expired buses, release stale seat locks and audit booked seats.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatText, "output format (json|text)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 2*time.Minute, "overall command timeout")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewCleanupCommand(opts))
	cmd.AddCommand(NewReleaseLocksCommand(opts))
	cmd.AddCommand(NewAuditCommand(opts))

	return cmd
}

// withBackend runs fn against a freshly connected backend under the
// command timeout.
func withBackend(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, b Backend, out *OutputFormatter) error) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	backend, err := opts.connect(ctx)
	if err != nil {
		return out.Failure(ExitCommandError, nil, "failed to connect", err)
	}
	defer backend.Close()

	return fn(ctx, backend, out)
}
