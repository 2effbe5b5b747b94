//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fgeck/gowol-homelab/internal/models"
	"github.com/fgeck/gowol-homelab/internal/services/history"
	"github.com/fgeck/gowol-homelab/internal/services/runner"
	"github.com/fgeck/gowol-homelab/internal/services/wake"
	"github.com/fgeck/gowol-homelab/internal/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// fakeBackend mimics the wake HTTP backend. A host reports online once it
// has been polled onlineAfter times since its wake request.
type fakeBackend struct {
	onlineAfter int32
	rejectMAC   string

	mu     sync.Mutex
	woken  []string
	polls  map[string]*atomic.Int32
	server *httptest.Server
}

func newFakeBackend(t *testing.T, onlineAfter int32) *fakeBackend {
	t.Helper()

	b := &fakeBackend{onlineAfter: onlineAfter, polls: map[string]*atomic.Int32{}}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/wake", func(w http.ResponseWriter, r *http.Request) {
		mac := r.URL.Query().Get("mac")
		w.Header().Set("Content-Type", "application/json")
		if mac == b.rejectMAC {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "failed to send magic packet"})
			return
		}

		b.mu.Lock()
		b.woken = append(b.woken, mac)
		b.mu.Unlock()

		_ = json.NewEncoder(w).Encode(map[string]string{"message": "WoL packet sent to " + mac})
	})
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		ip := r.URL.Query().Get("ip")

		b.mu.Lock()
		counter, ok := b.polls[ip]
		if !ok {
			counter = &atomic.Int32{}
			b.polls[ip] = counter
		}
		b.mu.Unlock()

		n := counter.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"online": n >= b.onlineAfter, "method": "ping"})
	})

	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)

	return b
}

func (b *fakeBackend) wokenMACs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.woken...)
}

func testConfig(baseURL, historyPath string) models.Config {
	return models.Config{
		API:     models.APIConfig{BaseURL: baseURL, Timeout: 2 * time.Second},
		History: models.HistoryConfig{Backend: "file", Path: historyPath},
		Poller: models.PollerConfig{
			SweepInterval:    50 * time.Millisecond,
			SweepConcurrency: 2,
			ConfirmInterval:  20 * time.Millisecond,
			ConfirmAttempts:  10,
		},
	}
}

func waitResult(t *testing.T, ch <-chan models.ConfirmResult) models.ConfirmResult {
	t.Helper()
	require.NotNil(t, ch)
	select {
	case res := <-ch:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for confirmation")
		return models.ConfirmResult{}
	}
}

func TestWake_DeviceComesOnline_E2E(t *testing.T) {
	backend := newFakeBackend(t, 3)
	path := filepath.Join(t.TempDir(), "history.json")
	store := history.New(testLogger(), storage.NewFileStore(path))

	r := runner.New(testLogger(), testConfig(backend.server.URL, path), store)
	defer r.Close()
	r.Start(context.Background())

	attempt, err := r.Wake(context.Background(), models.WakeFormData{
		MAC:        "AA:BB:CC:DD:EE:FF",
		DeviceName: "nas",
		IPAddress:  "192.168.1.10",
	})
	require.NoError(t, err)
	assert.Equal(t, "WoL packet sent to AA:BB:CC:DD:EE:FF", attempt.Message.Text)

	result := waitResult(t, attempt.Confirmation)

	assert.Equal(t, models.OutcomeOnline, result.Outcome)
	assert.Equal(t, "192.168.1.10: device is online", r.Status().Text)
	assert.Equal(t, []string{"AA:BB:CC:DD:EE:FF"}, backend.wokenMACs())

	// History survives a fresh store on the same file.
	reloaded := history.New(testLogger(), storage.NewFileStore(path)).Load()
	assert.Equal(t, []models.HistoryItem{{MAC: "AA:BB:CC:DD:EE:FF", DeviceName: "nas", IPAddress: "192.168.1.10"}}, reloaded)
}

func TestWake_DeviceNeverOnline_E2E(t *testing.T) {
	backend := newFakeBackend(t, 1000)
	path := filepath.Join(t.TempDir(), "history.json")
	store := history.New(testLogger(), storage.NewFileStore(path))

	r := runner.New(testLogger(), testConfig(backend.server.URL, path), store)
	defer r.Close()

	attempt, err := r.Wake(context.Background(), models.WakeFormData{MAC: "AA:BB:CC:DD:EE:FF", IPAddress: "10.0.0.99"})
	require.NoError(t, err)

	result := waitResult(t, attempt.Confirmation)

	assert.Equal(t, models.OutcomeTimedOut, result.Outcome)
	assert.Equal(t, 10, result.Attempts)
	assert.True(t, r.Status().IsError)
}

func TestWake_Rejected_E2E(t *testing.T) {
	backend := newFakeBackend(t, 1)
	backend.rejectMAC = "AA:BB:CC:DD:EE:FF"
	path := filepath.Join(t.TempDir(), "history.json")
	store := history.New(testLogger(), storage.NewFileStore(path))

	r := runner.New(testLogger(), testConfig(backend.server.URL, path), store)
	defer r.Close()

	attempt, err := r.Wake(context.Background(), models.WakeFormData{MAC: "AA:BB:CC:DD:EE:FF", IPAddress: "10.0.0.1"})

	var rejected *wake.RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, http.StatusInternalServerError, rejected.StatusCode)
	assert.Equal(t, "error: failed to send magic packet", r.Status().Text)
	assert.Nil(t, attempt.Confirmation)
	assert.Empty(t, r.History())
}

func TestWake_BackendUnreachable_E2E(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	store := history.New(testLogger(), storage.NewFileStore(path))

	r := runner.New(testLogger(), testConfig("http://127.0.0.1:1", path), store)
	defer r.Close()

	_, err := r.Wake(context.Background(), models.WakeFormData{MAC: "AA:BB:CC:DD:EE:FF"})

	var transport *wake.TransportError
	require.ErrorAs(t, err, &transport)
	assert.True(t, r.Status().IsError)
	assert.False(t, r.Busy())
}

func TestSweep_FollowsHistory_E2E(t *testing.T) {
	backend := newFakeBackend(t, 1)
	path := filepath.Join(t.TempDir(), "history.db")
	db, err := storage.NewSQLiteStore(path, storage.DefaultNamespace)
	require.NoError(t, err)
	defer db.Close()

	store := history.New(testLogger(), db)
	cfg := testConfig(backend.server.URL, path)
	cfg.History.Backend = "sqlite"

	r := runner.New(testLogger(), cfg, store)
	defer r.Close()

	sweeps := make(chan models.DeviceStatusMap, 16)
	r.OnDeviceStatus(func(m models.DeviceStatusMap) {
		select {
		case sweeps <- m:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)

	_, err = r.Wake(ctx, models.WakeFormData{MAC: "AA:BB:CC:DD:EE:01", IPAddress: "10.0.0.1"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return r.DeviceStatus()["10.0.0.1"]
	}, 5*time.Second, 20*time.Millisecond)

	r.RemoveHistory(0)

	require.Eventually(t, func() bool {
		_, tracked := r.DeviceStatus()["10.0.0.1"]
		return !tracked
	}, 5*time.Second, 20*time.Millisecond)
}
