package main

import (
	"fmt"
	"sort"

	"github.com/fgeck/gowol-homelab/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Continuously poll the status of history devices",
	Long: `Sweep the status of every history entry with an address, right away
and then every poller.sweep_interval, printing the results until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	r, closer, err := newRunner(cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to open history")
		return err
	}
	defer closer.Close()
	defer r.Close()

	r.OnDeviceStatus(func(statuses models.DeviceStatusMap) {
		printStatuses(statuses, r.History())
	})

	ctx, cancel := signalContext()
	defer cancel()

	watched := 0
	for _, item := range r.History() {
		if item.IPAddress != "" {
			watched++
		}
	}
	if watched == 0 {
		log.Warn().Msg("no history entries with an address to watch")
	}

	log.Info().
		Int("devices", watched).
		Dur("interval", cfg.Poller.SweepInterval).
		Msg("watching device status")

	r.Start(ctx)
	<-ctx.Done()

	return nil
}

func printStatuses(statuses models.DeviceStatusMap, items []models.HistoryItem) {
	names := make(map[string]string, len(items))
	for _, item := range items {
		names[item.IPAddress] = item.DeviceName
	}

	addresses := make([]string, 0, len(statuses))
	for address := range statuses {
		addresses = append(addresses, address)
	}
	sort.Strings(addresses)

	for _, address := range addresses {
		label := address
		if name := names[address]; name != "" {
			label = fmt.Sprintf("%s (%s)", name, address)
		}
		fmt.Printf("%-40s %s\n", label, onlineLabel(statuses[address]))
	}
}
