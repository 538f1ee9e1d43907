package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"wayfarer/pkg/storage"
)

func newRunsCommand() *cobra.Command {
	var storeKind, storePath string
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List archived runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if limit <= 0 {
				return fmt.Errorf("limit must be positive, got %d", limit)
			}

			store, err := storage.NewStore(storeKind, storePath)
			if err != nil {
				return err
			}
			if err := store.Init(ctx); err != nil {
				return err
			}
			defer func() {
				_ = storage.CloseIfSupported(store)
			}()

			runs, err := store.ListRuns(ctx)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no archived runs")
				return nil
			}

			w := cmd.OutOrStdout()
			printed := 0
			for i := len(runs) - 1; i >= 0 && printed < limit; i-- {
				r := runs[i]
				fmt.Fprintf(w, "%s  %s  instance=%s  front=%d  evaluations=%s  %s\n",
					r.ID,
					r.Problem,
					r.Fingerprint,
					len(r.Front),
					humanize.Comma(r.Evaluations),
					humanize.Time(r.CreatedAt))
				printed++
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&storeKind, "store", "sqlite", "archive backend: memory|sqlite")
	flags.StringVar(&storePath, "store-path", "wayfarer.db", "sqlite database path")
	flags.IntVar(&limit, "limit", 20, "maximum runs to list")
	return cmd
}
