// Package runner orchestrates the wake workflow: validation, the wake request,
// history bookkeeping and status polling.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fgeck/gowol-homelab/internal/mac"
	"github.com/fgeck/gowol-homelab/internal/models"
	"github.com/fgeck/gowol-homelab/internal/services/history"
	"github.com/fgeck/gowol-homelab/internal/services/status"
	"github.com/fgeck/gowol-homelab/internal/services/telegram"
	"github.com/fgeck/gowol-homelab/internal/services/wake"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNoHistoryEntry is returned when a history index does not exist.
var ErrNoHistoryEntry = errors.New("no history entry at index")

// Service defines the interface for the wake orchestrator.
type Service interface {
	Start(ctx context.Context)
	Close()
	Wake(ctx context.Context, form models.WakeFormData) (*models.WakeAttempt, error)
	WakeHistory(ctx context.Context, index int) (*models.WakeAttempt, error)
	RemoveHistory(index int) []models.HistoryItem
	Busy() bool
	Status() models.StatusMessage
	History() []models.HistoryItem
	DeviceStatus() models.DeviceStatusMap
	OnDeviceStatus(fn func(models.DeviceStatusMap))
}

// HistoryStore is the subset of *history.Store the runner needs.
type HistoryStore interface {
	Restore() []models.HistoryItem
	Items() []models.HistoryItem
	Get(index int) (models.HistoryItem, bool)
	Add(item models.HistoryItem) []models.HistoryItem
	Remove(index int) []models.HistoryItem
	OnChange(fn func([]models.HistoryItem))
}

// Sweeper is the background status sweep.
type Sweeper interface {
	Start(ctx context.Context, addresses []string)
	Stop()
	Statuses() models.DeviceStatusMap
	OnSweep(fn func(models.DeviceStatusMap))
}

// Confirmer runs one post-wake confirmation loop.
type Confirmer interface {
	Confirm(ctx context.Context, address string) models.ConfirmResult
}

// Impl implements the runner Service interface.
type Impl struct {
	wakeSvc     wake.Service
	history     HistoryStore
	sweeper     Sweeper
	confirmer   Confirmer
	telegramSvc telegram.Service
	telegramCfg *models.TelegramConfig
	logger      zerolog.Logger

	// ctx bounds background work: the sweep and confirmation loops.
	ctx    context.Context
	cancel context.CancelFunc
	loops  sync.WaitGroup

	mu       sync.Mutex
	inFlight int
	status   models.StatusMessage
	started  bool
	closed   bool
}

// New creates a runner wired to the HTTP backend described by cfg.
func New(logger zerolog.Logger, cfg models.Config, store *history.Store) *Impl {
	checker := status.New(logger, cfg.API.BaseURL, cfg.API.Timeout)

	var telegramSvc telegram.Service
	if cfg.Telegram != nil {
		telegramSvc = telegram.New(logger)
	}

	return NewWithServices(
		logger,
		wake.New(logger, cfg.API.BaseURL, cfg.API.Timeout),
		store,
		status.NewSweeper(logger, checker, cfg.Poller.SweepInterval, cfg.Poller.SweepConcurrency),
		status.NewConfirmer(logger, checker, cfg.Poller.ConfirmInterval, cfg.Poller.ConfirmAttempts),
		telegramSvc,
		cfg.Telegram,
	)
}

// NewWithServices creates a runner with custom services (for testing).
// telegramSvc and telegramCfg may be nil.
func NewWithServices(
	logger zerolog.Logger,
	wakeSvc wake.Service,
	store HistoryStore,
	sweeper Sweeper,
	confirmer Confirmer,
	telegramSvc telegram.Service,
	telegramCfg *models.TelegramConfig,
) *Impl {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Impl{
		wakeSvc:     wakeSvc,
		history:     store,
		sweeper:     sweeper,
		confirmer:   confirmer,
		telegramSvc: telegramSvc,
		telegramCfg: telegramCfg,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}

	store.OnChange(s.onHistoryChange)

	return s
}

// Start loads the persisted history and begins the background sweep. The
// sweep follows history changes until ctx ends or Close is called.
func (s *Impl) Start(ctx context.Context) {
	context.AfterFunc(ctx, s.cancel)

	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	items := s.history.Restore()

	s.logger.Info().Int("history", len(items)).Msg("runner started")
}

// Close stops the sweep, cancels outstanding confirmation loops and waits
// for them to finish.
func (s *Impl) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.sweeper.Stop()
	s.loops.Wait()
}

// Wake validates form, asks the backend to wake the device, records it in the
// history and, when an address is given, starts a confirmation loop. Errors
// are also reflected in Status.
func (s *Impl) Wake(ctx context.Context, form models.WakeFormData) (*models.WakeAttempt, error) {
	attempt := &models.WakeAttempt{ID: uuid.New(), Form: form}
	logger := s.logger.With().
		Str("attempt_id", attempt.ID.String()).
		Str("mac", form.MAC).
		Logger()

	if !mac.Validate(form.MAC) {
		attempt.Message = s.setStatus(models.StatusMessage{Text: mac.ErrInvalidFormat.Error(), IsError: true})
		logger.Warn().Msg("rejected invalid MAC address")
		return attempt, mac.ErrInvalidFormat
	}

	logger.Info().
		Str("device", form.DeviceName).
		Str("address", form.IPAddress).
		Msg("waking device")

	result, err := s.sendWake(ctx, form.MAC)
	if err != nil {
		attempt.Message = s.setStatus(models.StatusMessage{Text: "error: " + err.Error(), IsError: true})
		logger.Error().Err(err).Msg("wake failed")
		return attempt, fmt.Errorf("wake %s: %w", form.MAC, err)
	}

	s.history.Add(models.HistoryItem{
		MAC:        form.MAC,
		DeviceName: form.DeviceName,
		IPAddress:  form.IPAddress,
	})

	attempt.Message = s.setStatus(models.StatusMessage{Text: result.Message})

	if form.IPAddress != "" {
		attempt.Confirmation = s.startConfirmation(attempt, logger)
	}

	return attempt, nil
}

// WakeHistory wakes the history entry at index.
func (s *Impl) WakeHistory(ctx context.Context, index int) (*models.WakeAttempt, error) {
	item, ok := s.history.Get(index)
	if !ok {
		return nil, fmt.Errorf("%w %d", ErrNoHistoryEntry, index)
	}
	return s.Wake(ctx, item.FormData())
}

// RemoveHistory deletes the history entry at index. Out-of-range is a no-op.
func (s *Impl) RemoveHistory(index int) []models.HistoryItem {
	return s.history.Remove(index)
}

// Busy reports whether a wake request is in flight.
func (s *Impl) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight > 0
}

// Status returns the latest user-visible message.
func (s *Impl) Status() models.StatusMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// History returns the current device history.
func (s *Impl) History() []models.HistoryItem {
	return s.history.Items()
}

// DeviceStatus returns the latest background sweep results.
func (s *Impl) DeviceStatus() models.DeviceStatusMap {
	return s.sweeper.Statuses()
}

// OnDeviceStatus registers fn to receive the status map after every sweep.
func (s *Impl) OnDeviceStatus(fn func(models.DeviceStatusMap)) {
	s.sweeper.OnSweep(fn)
}

func (s *Impl) sendWake(ctx context.Context, macAddr string) (*models.WakeResult, error) {
	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	return s.wakeSvc.SendWake(ctx, macAddr)
}

func (s *Impl) setStatus(msg models.StatusMessage) models.StatusMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = msg
	return msg
}

func (s *Impl) startConfirmation(attempt *models.WakeAttempt, logger zerolog.Logger) <-chan models.ConfirmResult {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		logger.Warn().Msg("runner closed, skipping status confirmation")
		return nil
	}
	s.loops.Add(1)
	s.mu.Unlock()

	ch := make(chan models.ConfirmResult, 1)
	address := attempt.Form.IPAddress
	start := time.Now()

	logger.Info().Str("address", address).Msg("monitoring device status")

	go func() {
		defer s.loops.Done()
		defer close(ch)

		result := s.confirmer.Confirm(s.ctx, address)
		if result.Outcome != models.OutcomeCancelled {
			s.setStatus(result.Message())
			s.notify(attempt, result, start, logger)
		}
		ch <- result
	}()

	return ch
}

func (s *Impl) notify(attempt *models.WakeAttempt, result models.ConfirmResult, start time.Time, logger zerolog.Logger) {
	if s.telegramSvc == nil || s.telegramCfg == nil {
		return
	}

	msg := models.TelegramMessage{
		AttemptID:  attempt.ID.String(),
		DeviceName: attempt.Form.DeviceName,
		MAC:        attempt.Form.MAC,
		Address:    result.Address,
		Outcome:    result.Outcome,
		Attempts:   result.Attempts,
		StartTime:  start,
		Duration:   result.Duration,
	}
	if result.Error != nil {
		msg.ErrorMessage = result.Error.Error()
	}

	res, err := s.telegramSvc.SendNotification(s.ctx, *s.telegramCfg, msg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to send Telegram notification")
		return
	}
	if res.Error != nil {
		logger.Error().Err(res.Error).Msg("failed to send Telegram notification")
	}
}

func (s *Impl) onHistoryChange(items []models.HistoryItem) {
	s.mu.Lock()
	active := s.started && !s.closed
	s.mu.Unlock()
	if !active {
		return
	}

	s.sweeper.Start(s.ctx, addresses(items))
}

func addresses(items []models.HistoryItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item.IPAddress != "" {
			out = append(out, item.IPAddress)
		}
	}
	return out
}
