package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/menuprobe/internal/config"
	"github.com/ibeckermayer/menuprobe/internal/report"
)

var openCmd = &cobra.Command{
	Use:       "open <config|out|report|cache>",
	Short:     "Open the config file, output directory, gallery or cache",
	ValidArgs: []string{"config", "out", "report", "cache"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		runOpen(cmd, args[0])
	},
}

func runOpen(cmd *cobra.Command, target string) {
	var path string
	var err error

	switch target {
	case "config":
		path, _ = cmd.Flags().GetString("config")
		if path == "" {
			path, err = config.ConfigPath()
		}
	case "out":
		cfg, _ := loadConfig(cmd)
		path = cfg.Output.Dir
	case "report":
		cfg, _ := loadConfig(cmd)
		path = filepath.Join(cfg.Output.Dir, report.FileName)
	case "cache":
		path, err = config.CacheDir()
	default:
		fmt.Printf("Unknown target: %s\n", target)
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("Failed to get path: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		log.Fatalf("Nothing to open: %v", err)
	}

	if err := browser.OpenFile(path); err != nil {
		log.Fatalf("Failed to open: %v", err)
	}
}

func init() {
	rootCmd.AddCommand(openCmd)
}
