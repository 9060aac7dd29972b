package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/project-tktt/go-vacancies/internal/common/storage"
	"github.com/project-tktt/go-vacancies/internal/domain"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [keywords...]",
	Short: "Print saved vacancies, optionally filtered by keywords",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withStore(ctx, func(store storage.Storage) error {
			records, err := store.Load(ctx, strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("load vacancies: %w", err)
			}
			if err := storage.Display(cmd.OutOrStdout(), records); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total vacancies: %d\n", len(records))
			return nil
		})
	},
}

var markCmd = &cobra.Command{
	Use:   "mark <id_vac>...",
	Short: "Flag saved vacancies for deletion",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withStore(ctx, func(store storage.Storage) error {
			var errs []error
			for _, id := range args {
				if err := store.MarkDeleted(ctx, id); err != nil {
					if isNotFound(err) {
						fmt.Fprintf(cmd.ErrOrStderr(), "No saved vacancy %s\n", id)
					}
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %s\n", id)
			}
			return errors.Join(errs...)
		})
	},
}

var unmarkAllCmd = &cobra.Command{
	Use:   "unmark-all",
	Short: "Clear every deletion flag",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		return withStore(ctx, func(store storage.Storage) error {
			return store.ClearMarks(ctx)
		})
	},
}

var purgeMarkedCmd = &cobra.Command{
	Use:   "purge-marked",
	Short: "Permanently remove flagged vacancies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		return withStore(ctx, func(store storage.Storage) error {
			return store.DeleteMarked(ctx)
		})
	},
}

var purgeAllCmd = &cobra.Command{
	Use:   "purge-all",
	Short: "Permanently remove every saved vacancy",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return errors.New("purge-all removes every saved vacancy; rerun with --yes")
		}
		ctx := cmd.Context()
		return withStore(ctx, func(store storage.Storage) error {
			return store.DeleteAll(ctx)
		})
	},
}

func init() {
	purgeAllCmd.Flags().Bool("yes", false, "Confirm removal of every saved vacancy")

	rootCmd.AddCommand(listCmd, markCmd, unmarkAllCmd, purgeMarkedCmd, purgeAllCmd)
}

// isNotFound lets callers tell unknown ids from backend failures
func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
