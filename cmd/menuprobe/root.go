package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/menuprobe/internal/app"
	"github.com/ibeckermayer/menuprobe/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "menuprobe",
	Short: "Probe a static menu site with a headless browser",
	Long: `menuprobe serves a directory over HTTP, loads it in a headless Chrome,
runs one of a fixed set of probe scenarios against it and saves a screenshot
for visual inspection.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (default is the user config dir)")
}

// addRunFlags registers the flags that override config values for commands
// that run scenarios.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("root", "", "Directory to serve (overrides server.root)")
	cmd.Flags().String("out", "", "Screenshot directory (overrides output.dir)")
	cmd.Flags().Int("port", 0, "Serve every scenario on this port instead of its own")
	cmd.Flags().Bool("headful", false, "Show the browser window")
}

// overrides collects whichever run flags cmd defines.
func overrides(cmd *cobra.Command) app.Overrides {
	var o app.Overrides
	if f := cmd.Flags().Lookup("root"); f != nil {
		o.Root = f.Value.String()
	}
	if f := cmd.Flags().Lookup("out"); f != nil {
		o.OutDir = f.Value.String()
	}
	if cmd.Flags().Lookup("port") != nil {
		o.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Lookup("headful") != nil {
		o.Headful, _ = cmd.Flags().GetBool("headful")
	}
	return o
}

// loadConfig reads the config named by --config, creating the default file
// on first use.
func loadConfig(cmd *cobra.Command) (*config.Config, string) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg, path
}

func newApp(cmd *cobra.Command) *app.App {
	cfg, path := loadConfig(cmd)
	return app.New(cfg,
		app.WithConfigPath(path),
		app.WithOverrides(overrides(cmd)),
	)
}
