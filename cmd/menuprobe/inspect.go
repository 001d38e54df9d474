package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/menuprobe/internal/browser"
	"github.com/ibeckermayer/menuprobe/internal/fileserver"
	"github.com/ibeckermayer/menuprobe/internal/probe"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Open the served site in a visible browser",
	Long: `Starts the file server and a non-headless browser on the page so selectors
can be checked by hand. Console output is printed as it arrives. Press Enter to
close everything.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, _ := loadConfig(cmd)
		root, _ := cmd.Flags().GetString("root")
		port, _ := cmd.Flags().GetInt("port")
		route, _ := cmd.Flags().GetString("route")
		if root == "" {
			root = cfg.Server.Root
		}

		srv := fileserver.New(root, cfg.Server.Host, port)
		if err := srv.Start(); err != nil {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
		defer srv.Close()

		bcfg := cfg.Browser
		bcfg.Headless = false // non-headless so you can see it

		ctx := context.Background()
		session, err := probe.Launch(ctx, probe.Options{
			Allocator:   browser.Options(bcfg),
			StepTimeout: cfg.StepTimeoutDuration(),
			OnConsole:   func(line string) { fmt.Println(line) },
		})
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		defer session.Close()

		url := srv.URL(probe.IndexPage + route)
		log.Printf("Opening %s...", url)

		go func() {
			if err := session.Navigate(ctx, url, false); err != nil {
				log.Printf("Failed to navigate: %v", err)
			}
		}()

		fmt.Println("Press Enter to end program...")
		fmt.Scanln()

		log.Println("Done.")
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().String("root", "", "Directory to serve (overrides server.root)")
	inspectCmd.Flags().IntP("port", "p", 0, "Port to listen on (0 picks a free one)")
	inspectCmd.Flags().String("route", "", `Hash route to open, e.g. "#/sets"`)
}
