package cli

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/jo-hoe/goclipart/internal/journal"
	"github.com/spf13/cobra"
)

func newJournalCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the Journal",
	}

	cmd.AddCommand(newJournalListCmd(configPath))

	return cmd
}

func newJournalListCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved Journal entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			store, err := journal.NewStore(config.Journal.Type, config.Journal.ConnectionString, osfs.New("/"))
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					slog.Error("Journal close error", "err", err)
				}
			}()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tMIME TYPE\tSAVED")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ID, e.Title(), e.MIMEType(), e.Timestamp.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
}
