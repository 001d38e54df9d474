package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/menuprobe/internal/app"
)

var runCmd = &cobra.Command{
	Use:   "run [scenario...]",
	Short: "Run probe scenarios (all of them by default)",
	Long: `Runs the named scenarios one after another. Each one starts the file server,
opens the page in a browser, prints what it finds, saves a screenshot and tears
everything down again. Failures are printed as "Error: ..." and do not change
the exit code unless --strict is set.`,
	Run: func(cmd *cobra.Command, args []string) {
		strict, _ := cmd.Flags().GetBool("strict")
		a := newApp(cmd)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		reports, err := a.RunScenarios(ctx, args)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		if n := app.Failed(reports); strict && n > 0 {
			stop()
			fmt.Printf("%d of %d scenarios failed\n", n, len(reports))
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd)
	runCmd.Flags().Bool("strict", false, "Exit with status 1 when any scenario fails")
}
