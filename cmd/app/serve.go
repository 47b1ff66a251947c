package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"CascadeWatch/internal/di"
	"CascadeWatch/pkg/config"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the detector service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "configs/config.yaml", "config file path")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnv(serveConfigPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("app initialization failed: %w", err)
	}
	return app.Run()
}
