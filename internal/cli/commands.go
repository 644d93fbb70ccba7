package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create collections, validators and indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, b Backend, out *OutputFormatter) error {
				if err := b.Migrate(ctx); err != nil {
					return out.Failure(ExitCommandError, nil, "migration failed", err)
				}
				return out.Success(map[string]any{"migrated": true}, "Migration completed successfully.")
			})
		},
	}
}

func NewCleanupCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete buses whose travel date has passed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, b Backend, out *OutputFormatter) error {
				deleted, err := b.Cleanup(ctx)
				if err != nil {
					return out.Failure(ExitCommandError, nil, "cleanup failed", err)
				}
				return out.Success(map[string]any{"deletedCount": deleted}, fmt.Sprintf("Removed %d expired buses", deleted))
			})
		},
	}
}

func NewReleaseLocksCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "release-locks <busId>",
		Short: "Drop expired seat locks on one bus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, b Backend, out *OutputFormatter) error {
				resp, err := b.ReleaseLocks(ctx, args[0])
				if err != nil {
					return out.Failure(ExitCommandError, nil, "release failed", err)
				}
				return out.Success(resp, fmt.Sprintf("%s (%d removed)", resp.Message, resp.Removed))
			})
		},
	}
}

func NewAuditCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Report booked seats without a booking record",
		Long:  "Exits 1 when orphan seats are found so the audit can gate scripts.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, b Backend, out *OutputFormatter) error {
				reports, err := b.Audit(ctx)
				if err != nil {
					return out.Failure(ExitCommandError, nil, "audit failed", err)
				}
				if len(reports) == 0 {
					return out.Success(reports, "No orphan seats found.")
				}

				if opts.Format == FormatText {
					var sb strings.Builder
					for _, r := range reports {
						fmt.Fprintf(&sb, "%s  %s  %-20s seats %v\n", r.BusID, r.Date, r.BusName, r.OrphanSeats)
					}
					fmt.Fprint(cmd.OutOrStdout(), sb.String())
				}
				return out.Failure(ExitFailure, reports, fmt.Sprintf("%d bus(es) with orphan seats", len(reports)), nil)
			})
		},
	}
}
