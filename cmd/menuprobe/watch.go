package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run scenarios on the configured schedule",
	Long: `Runs watch.scenarios now and then on watch.schedule until interrupted.
SIGHUP reloads the config file, including watch.schedule and
watch.scenarios. Command line flags keep overriding the reloaded values.`,
	Run: func(cmd *cobra.Command, args []string) {
		a := newApp(cmd)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Channel to listen for interrupt, terminate and reload signals.
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
		go func() {
			for sig := range signals {
				if sig == syscall.SIGHUP {
					if err := a.ReloadConfig(); err != nil {
						log.Printf("Failed to reload config: %v", err)
					}
					continue
				}
				fmt.Printf("\nStart shutdown... Signal: %v\n", sig)
				cancel()
				return
			}
		}()

		if err := a.Watch(ctx); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Watch stopped")
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addRunFlags(watchCmd)
}
