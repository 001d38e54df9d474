package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded runs, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("scenario")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := newApp(cmd).History(name, limit)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded yet")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tSCENARIO\tDURATION\tRESULT")
		for _, r := range runs {
			result := "ok"
			if !r.OK() {
				result = "error: " + r.Error
			}
			if r.Diff != nil && r.Diff.Error == "" && r.Diff.Pixels > 0 {
				result += fmt.Sprintf(" (%d px changed)", r.Diff.Pixels)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%v\t%s\n",
				r.ID,
				r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				r.Scenario,
				r.Duration().Round(time.Millisecond),
				result,
			)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringP("scenario", "s", "", "Only show runs of this scenario")
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to show")
}
