package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/PhantomInTheWire/image-scrambler/pkg/config"
	"github.com/PhantomInTheWire/image-scrambler/pkg/history"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently scrambled images",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dbPath, err := config.ExpandHome(cfg.HistoryDB)
		if err != nil {
			return err
		}
		store, err := history.Open(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.Recent(flagHistoryLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No scrambled images yet.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tWHEN\tSOURCE\tOUTPUT\tOPERATIONS\tGRID\tSEED")
		for _, e := range entries {
			grid := "-"
			if e.Columns > 0 {
				grid = fmt.Sprintf("%dx%d", e.Columns, e.Rows)
			}
			ops := strings.Join(e.Tags, ",")
			if ops == "" {
				ops = "-"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%d\n",
				e.ID, e.CreatedAt.Format("2006-01-02 15:04"), e.Source, e.Output, ops, grid, e.Seed)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", history.DefaultLimit, "Number of entries to show")
}
