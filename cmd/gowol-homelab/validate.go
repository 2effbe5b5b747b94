package main

import (
	"fmt"
	"os"

	"github.com/fgeck/gowol-homelab/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long:  `Validate the configuration file without contacting the backend.`,
	RunE:  validateConfig,
}

func validateConfig(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		// Check if file exists
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			log.Error().Str("file", configFile).Msg("config file not found")
			return fmt.Errorf("config file not found: %s", configFile)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Validate configuration
	if err := config.Validate(cfg); err != nil {
		log.Error().Err(err).Msg("configuration validation failed")
		return err
	}

	// Print configuration summary
	fmt.Println("Configuration is valid!")
	fmt.Println()
	fmt.Println("Backend:")
	fmt.Printf("  URL: %s\n", cfg.API.BaseURL)
	fmt.Printf("  Timeout: %s\n", cfg.API.Timeout)
	fmt.Println()
	fmt.Println("History:")
	fmt.Printf("  Backend: %s\n", cfg.History.Backend)
	fmt.Printf("  Path: %s\n", cfg.History.Path)
	fmt.Println()
	fmt.Println("Status Polling:")
	fmt.Printf("  Sweep interval: %s\n", cfg.Poller.SweepInterval)
	fmt.Printf("  Sweep concurrency: %d\n", cfg.Poller.SweepConcurrency)
	fmt.Printf("  Confirm interval: %s\n", cfg.Poller.ConfirmInterval)
	fmt.Printf("  Confirm attempts: %d\n", cfg.Poller.ConfirmAttempts)
	fmt.Println()
	fmt.Println("Optional Features:")
	fmt.Printf("  Telegram: %v\n", cfg.Telegram != nil)

	if cfg.Telegram != nil {
		fmt.Println()
		fmt.Println("Telegram Configuration:")
		fmt.Printf("  Chat ID: %s\n", cfg.Telegram.ChatID)
		fmt.Printf("  Bot Token: (configured)\n")
	}

	return nil
}
