package main

import (
	"context"
	"fmt"

	"github.com/fgeck/gowol-homelab/internal/models"
	"github.com/fgeck/gowol-homelab/internal/services/runner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	wakeName   string
	wakeIP     string
	wakeNoWait bool
)

var wakeCmd = &cobra.Command{
	Use:   "wake <mac>",
	Short: "Wake a device by MAC address",
	Long: `Ask the backend to wake the device with the given MAC address and
record it in the history. When --ip is set the device status is polled
until it comes online or the attempt limit is reached.`,
	Args: cobra.ExactArgs(1),
	RunE: runWake,
}

func init() {
	wakeCmd.Flags().StringVarP(&wakeName, "name", "n", "", "device name to store in the history")
	wakeCmd.Flags().StringVar(&wakeIP, "ip", "", "IP address or hostname to poll after waking")
	wakeCmd.Flags().BoolVar(&wakeNoWait, "no-wait", false, "do not wait for the device to come online")
}

func runWake(cmd *cobra.Command, args []string) error {
	form := models.WakeFormData{
		MAC:        args[0],
		DeviceName: wakeName,
		IPAddress:  wakeIP,
	}
	return wakeAndReport(func(ctx context.Context, r runner.Service) (*models.WakeAttempt, error) {
		return r.Wake(ctx, form)
	})
}

// wakeAndReport runs one orchestrated wake and prints the outcome.
func wakeAndReport(wake func(ctx context.Context, r runner.Service) (*models.WakeAttempt, error)) error {
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

	ctx, cancel := signalContext()
	defer cancel()

	// A signal ends the confirmation loop as well as the request.
	stop := context.AfterFunc(ctx, r.Close)
	defer stop()

	attempt, err := wake(ctx, r)
	if err != nil {
		return err
	}
	fmt.Println(attempt.Message.Text)

	return awaitConfirmation(attempt, r.Close)
}

// awaitConfirmation prints the confirmation outcome unless --no-wait is set.
func awaitConfirmation(attempt *models.WakeAttempt, stop func()) error {
	if attempt.Confirmation == nil {
		return nil
	}
	if wakeNoWait {
		stop()
		return nil
	}

	result, ok := <-attempt.Confirmation
	if !ok {
		return nil
	}

	msg := result.Message()
	fmt.Println(msg.Text)
	if msg.IsError {
		return fmt.Errorf("%s after %d checks", result.Outcome, result.Attempts)
	}
	return nil
}
