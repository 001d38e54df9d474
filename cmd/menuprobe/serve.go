package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/menuprobe/internal/fileserver"
	"github.com/ibeckermayer/menuprobe/internal/probe"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the site without running a scenario",
	Long:  `Starts only the static file server, with access logging, until interrupted.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, _ := loadConfig(cmd)
		root, _ := cmd.Flags().GetString("root")
		port, _ := cmd.Flags().GetInt("port")
		if root == "" {
			root = cfg.Server.Root
		}

		srv := fileserver.New(root, cfg.Server.Host, port, fileserver.WithAccessLog(true))
		if err := srv.Start(); err != nil {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Serving %s on %s\n", root, srv.URL(probe.IndexPage))

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		sig := <-shutdown
		fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

		if err := srv.Close(); err != nil {
			fmt.Printf("Error stopping server: %v\n", err)
		}
		fmt.Println("Server stopped")
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("root", "", "Directory to serve (overrides server.root)")
	serveCmd.Flags().IntP("port", "p", 8000, "Port to listen on (0 picks a free one)")
}
