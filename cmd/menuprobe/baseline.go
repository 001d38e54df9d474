package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var baselineCmd = &cobra.Command{
	Use:   "baseline [scenario...]",
	Short: "Promote the latest screenshots to the baseline",
	Long: `Copies the screenshots currently in the output directory into baseline.dir.
Later runs compare their screenshots against these.`,
	Run: func(cmd *cobra.Command, args []string) {
		promoted, err := newApp(cmd).PromoteBaselines(args)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if len(promoted) == 0 {
			fmt.Println("No screenshots to promote")
			return
		}
		for _, path := range promoted {
			fmt.Printf("Baseline saved: %s\n", path)
		}
	},
}

func init() {
	rootCmd.AddCommand(baselineCmd)
	baselineCmd.Flags().String("out", "", "Screenshot directory (overrides output.dir)")
}
