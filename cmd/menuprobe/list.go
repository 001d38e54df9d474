package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/menuprobe/internal/scenario"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the probe scenarios",
	Run: func(cmd *cobra.Command, args []string) {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tPORT\tTARGET\tSCREENSHOT\tDESCRIPTION")
		for _, sc := range scenario.Catalog() {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
				sc.Name, sc.Port, sc.Target(), strings.Join(sc.Screenshots(), ","), sc.Description)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
