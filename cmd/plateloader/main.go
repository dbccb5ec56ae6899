package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/mastercactapus/plateloader/config"
	"github.com/spf13/cobra"
)

func main() {
	log.SetFlags(log.Lshortfile)

	var cfgPath string
	rootCmd := &cobra.Command{
		Use:   "plateloader",
		Short: "Fill a 96-well plate one well at a time",
		Long: `plateloader drives a motion stage and a fly dispenser to fill every
well of a 96-well plate, retrying and purging as the dispenser reports.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath, "Path to the JSON config file.")

	rootCmd.AddCommand(serveCmd(&cfgPath))
	rootCmd.AddCommand(calibrateCmd(&cfgPath))
	rootCmd.AddCommand(portsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads path. A missing file at the default path uses the defaults.
func loadConfig(cmd *cobra.Command, path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		log.Printf("WARN: %s not found, using defaults", path)
		return config.Default(), nil
	}
	return cfg, err
}
