package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/fgeck/gowol-homelab/internal/models"
	"github.com/fgeck/gowol-homelab/internal/services/history"
	"github.com/fgeck/gowol-homelab/internal/services/runner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var historyOutput string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage recently woken devices",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recently woken devices, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyWakeCmd = &cobra.Command{
	Use:   "wake <index>",
	Short: "Wake the device at a history index",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryWake,
}

var historyRemoveCmd = &cobra.Command{
	Use:   "remove <index>",
	Short: "Remove the device at a history index",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryRemove,
}

func init() {
	historyListCmd.Flags().StringVarP(&historyOutput, "output", "o", "table", "output format: table, json or yaml")
	historyWakeCmd.Flags().BoolVar(&wakeNoWait, "no-wait", false, "do not wait for the device to come online")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyWakeCmd)
	historyCmd.AddCommand(historyRemoveCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, closer, err := loadHistory()
	if err != nil {
		return err
	}
	defer closer.Close()

	return writeHistory(os.Stdout, store.Items(), historyOutput)
}

func runHistoryWake(cmd *cobra.Command, args []string) error {
	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}

	return wakeAndReport(func(ctx context.Context, r runner.Service) (*models.WakeAttempt, error) {
		return r.WakeHistory(ctx, index)
	})
}

func runHistoryRemove(cmd *cobra.Command, args []string) error {
	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}

	store, closer, err := loadHistory()
	if err != nil {
		return err
	}
	defer closer.Close()

	if _, ok := store.Get(index); !ok {
		return fmt.Errorf("no history entry at index %d", index)
	}

	remaining := store.Remove(index)
	log.Info().Int("index", index).Int("remaining", len(remaining)).Msg("history entry removed")

	return writeHistory(os.Stdout, remaining, "table")
}

func loadHistory() (*history.Store, io.Closer, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	store, closer, err := openHistory(cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to open history")
		return nil, nil, err
	}
	return store, closer, nil
}

func parseIndex(s string) (int, error) {
	index, err := strconv.Atoi(s)
	if err != nil || index < 0 {
		return 0, fmt.Errorf("invalid history index %q", s)
	}
	return index, nil
}

func writeHistory(w io.Writer, items []models.HistoryItem, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(items)
	case "table":
		if len(items) == 0 {
			_, err := fmt.Fprintln(w, "No devices in history.")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "INDEX\tNAME\tMAC\tADDRESS")
		for i, item := range items {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i, dash(item.DeviceName), item.MAC, dash(item.IPAddress))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
