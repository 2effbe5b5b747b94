package main

import (
	"fmt"

	"github.com/fgeck/gowol-homelab/internal/services/status"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <address>",
	Short: "Check whether a device is online",
	Long:  `Query the backend once for the online state of an IP address or hostname.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	checker := status.New(log.Logger, cfg.API.BaseURL, cfg.API.Timeout)
	online, err := checker.CheckStatus(ctx, args[0])
	if err != nil {
		log.Error().Err(err).Str("address", args[0]).Msg("status check failed")
		return err
	}

	fmt.Printf("%s: %s\n", args[0], onlineLabel(online))
	return nil
}

func onlineLabel(online bool) string {
	if online {
		return "online"
	}
	return "offline"
}
