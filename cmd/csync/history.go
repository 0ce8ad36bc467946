package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/csync-dev/csync/internal/core/history"
)

var historyCmd = &cobra.Command{
	Use:   "history <name>",
	Short: "Print the local history log of a tracked file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		rec, err := cfg.GetFile(args[0])
		if err != nil {
			return err
		}

		log, err := history.NewStore().LoadOrEmpty(rec.HistoryPath())
		if err != nil {
			return err
		}
		if log.Len() == 0 {
			fmt.Printf("%s has no history yet\n", rec.Name)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tFINGERPRINT\tRECORDED")
		for i, e := range log.Entries() {
			fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, e.Fingerprint, e.Note)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
