package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/csync-dev/csync/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last recorded sync outcome for every tracked file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		journal, err := state.Open(cfg.GetDataDir())
		if err != nil {
			return err
		}
		defer journal.Close()

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tLAST RUN\tRELATIONSHIP\tACTION\tSTATUS")

		for _, rec := range cfg.Files {
			last, err := journal.LastRun(rec.Name)
			if err != nil {
				return err
			}
			if last == nil {
				fmt.Fprintf(w, "%s\tnever\t-\t-\t-\n", rec.Name)
				continue
			}

			status := last.Status
			if last.Error != "" {
				status = fmt.Sprintf("%s (%s)", last.Status, last.Error)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				rec.Name,
				last.EndTime.Format("2006-01-02 15:04:05"),
				last.Relationship,
				last.Action,
				status)
		}

		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
