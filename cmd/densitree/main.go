package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/statlas/densitree/log"
)

func main() {
	root := &cobra.Command{
		Use:   "densitree",
		Short: "Adaptive histogram density estimation over binary space partitions",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "densitree.yml", "path to the YAML config")
	root.PersistentFlags().StringVar(&logLevel, "log", log.INFO, "log level: silent, error, info, debug")
	root.AddCommand(newBuildCommand(), newBacktrackCommand())

	cobra.OnInitialize(func() {
		log.SetLogger("densitree", logLevel)
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

var (
	configPath string
	logLevel   string
)
