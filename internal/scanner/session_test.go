package scanner_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"tix-voucher/internal/scanner"
	"tix-voucher/internal/storage"
	"tix-voucher/internal/tickets/ledger"
	"tix-voucher/internal/tickets/qr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCamera struct {
	mu       sync.Mutex
	devices  []scanner.Device
	startErr error
	onDecode func(string)
	deviceID string
	starts   int
	stops    int
}

func (c *fakeCamera) Devices(ctx context.Context) ([]scanner.Device, error) {
	return c.devices, nil
}

func (c *fakeCamera) Start(ctx context.Context, deviceID string, onDecode func(string)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.startErr != nil {
		return c.startErr
	}
	c.starts++
	c.deviceID = deviceID
	c.onDecode = onDecode
	return nil
}

func (c *fakeCamera) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stops++
	return nil
}

// Emit plays one decoded frame the way a camera goroutine would.
func (c *fakeCamera) Emit(text string) {
	c.mu.Lock()
	onDecode := c.onDecode
	c.mu.Unlock()
	onDecode(text)
}

func (c *fakeCamera) Stops() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stops
}

type harness struct {
	session *scanner.Session
	camera  *fakeCamera
	store   *ledger.Store
	qr      *qr.Generator
}

func newHarness(t *testing.T, opts scanner.Options) harness {
	t.Helper()
	store, err := ledger.Open(context.Background(), storage.NewMemory())
	require.NoError(t, err)
	_, err = store.Generate(context.Background(), ledger.GenerateRequest{Count: 3, Prefix: "TIX"})
	require.NoError(t, err)

	camera := &fakeCamera{devices: []scanner.Device{{ID: "cam-front"}, {ID: "cam-back"}}}
	generator := qr.NewGenerator("", 128)
	return harness{
		session: scanner.NewSession(camera, store, generator, opts),
		camera:  camera,
		store:   store,
		qr:      generator,
	}
}

func (h harness) payload(t *testing.T, number string) string {
	t.Helper()
	for _, ticket := range h.store.Tickets() {
		if ticket.Number == number {
			text, err := h.qr.Text(ticket)
			require.NoError(t, err)
			return text
		}
	}
	t.Fatalf("ticket %s not generated", number)
	return ""
}

func TestStartUsesFirstDevice(t *testing.T) {
	h := newHarness(t, scanner.Options{})

	device, err := h.session.Start(context.Background())
	require.NoError(t, err)
	defer h.session.Stop()

	assert.Equal(t, "cam-front", device.ID)
	assert.Equal(t, "cam-front", h.camera.deviceID)
	assert.True(t, h.session.Running())

	_, err = h.session.Start(context.Background())
	assert.ErrorIs(t, err, scanner.ErrAlreadyRunning)
}

func TestStartWithoutDevices(t *testing.T) {
	h := newHarness(t, scanner.Options{})
	h.camera.devices = nil

	_, err := h.session.Start(context.Background())
	assert.ErrorIs(t, err, scanner.ErrNoCamera)
	assert.False(t, h.session.Running())
}

func TestStartCameraFailure(t *testing.T) {
	h := newHarness(t, scanner.Options{})
	h.camera.startErr = errors.New("permission denied")

	_, err := h.session.Start(context.Background())
	assert.ErrorContains(t, err, "permission denied")
	assert.False(t, h.session.Running())
}

func TestStopIsIdempotent(t *testing.T) {
	h := newHarness(t, scanner.Options{})
	_, err := h.session.Start(context.Background())
	require.NoError(t, err)
	done := h.session.Done()

	require.NoError(t, h.session.Stop())
	require.NoError(t, h.session.Stop())

	assert.Equal(t, 1, h.camera.Stops())
	assert.False(t, h.session.Running())
	select {
	case <-done:
	default:
		t.Fatal("Done not closed after Stop")
	}
}

func TestCameraReleasedOnContextCancel(t *testing.T) {
	h := newHarness(t, scanner.Options{})
	ctx, cancel := context.WithCancel(context.Background())

	_, err := h.session.Start(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case <-h.session.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("camera not released after cancel")
	}
	assert.Eventually(t, func() bool { return h.camera.Stops() == 1 }, time.Second, 10*time.Millisecond)
}

func TestRestartSurvivesPreviousTeardown(t *testing.T) {
	h := newHarness(t, scanner.Options{})
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		_, err := h.session.Start(ctx)
		require.NoError(t, err)
		require.NoError(t, h.session.Stop())

		_, err = h.session.Start(ctx)
		require.NoError(t, err)
		// give the first run's teardown goroutine time to wake
		time.Sleep(time.Millisecond)

		require.True(t, h.session.Running(), "restart %d was stopped by an earlier run", i)
		require.NoError(t, h.session.Stop())
	}
	assert.Equal(t, 100, h.camera.Stops())
}

func TestSuccessfulFrameStopsCamera(t *testing.T) {
	h := newHarness(t, scanner.Options{StopOnSuccess: true})
	_, err := h.session.Start(context.Background())
	require.NoError(t, err)

	h.camera.Emit(h.payload(t, "TIX-000002"))

	assert.False(t, h.session.Running())
	assert.Equal(t, 1, h.camera.Stops())

	history := h.session.History()
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)
	assert.Equal(t, "TIX-000002", history[0].Ticket.Number)
	assert.Equal(t, "Scanned successfully", history[0].Message)
}

func TestFramesAfterStopAreIgnored(t *testing.T) {
	h := newHarness(t, scanner.Options{StopOnSuccess: true})
	_, err := h.session.Start(context.Background())
	require.NoError(t, err)

	h.camera.Emit(h.payload(t, "TIX-000001"))
	h.camera.Emit(h.payload(t, "TIX-000001"))

	assert.Len(t, h.session.History(), 1)
}

func TestKeepScanningWhenStopOnSuccessDisabled(t *testing.T) {
	h := newHarness(t, scanner.Options{StopOnSuccess: false})
	_, err := h.session.Start(context.Background())
	require.NoError(t, err)
	defer h.session.Stop()

	h.camera.Emit(h.payload(t, "TIX-000001"))
	h.camera.Emit(h.payload(t, "TIX-000001"))

	assert.True(t, h.session.Running())
	history := h.session.History()
	require.Len(t, history, 2)
	assert.True(t, history[0].Duplicate)
	assert.Equal(t, "Already scanned", history[0].Message)
	assert.True(t, history[1].Success)
}

func TestInvalidFrameNeverReachesLedger(t *testing.T) {
	h := newHarness(t, scanner.Options{})

	_, err := h.session.HandleDecoded(context.Background(), `{"number":"TIX-000001"}`)

	var decodeErr *ledger.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.ErrorIs(t, err, qr.ErrInvalidPayload)
	assert.Empty(t, h.session.History())
	for _, ticket := range h.store.Tickets() {
		assert.False(t, ticket.Scanned())
	}
}

func TestManualEntry(t *testing.T) {
	h := newHarness(t, scanner.Options{})
	ctx := context.Background()

	record, handled, err := h.session.ManualEntry(ctx, "  ")
	require.NoError(t, err)
	assert.False(t, handled)

	record, handled, err = h.session.ManualEntry(ctx, " TIX-000003 ")
	require.NoError(t, err)
	assert.True(t, handled)
	assert.True(t, record.Success)
	assert.Equal(t, "TIX-000003", record.Ticket.Number)

	record, handled, err = h.session.ManualEntry(ctx, h.payload(t, "TIX-000003"))
	require.NoError(t, err)
	assert.True(t, handled)
	assert.True(t, record.Duplicate)

	record, _, err = h.session.ManualEntry(ctx, "TIX-404404")
	require.NoError(t, err)
	assert.False(t, record.Success)
	assert.Equal(t, "Ticket not found", record.Message)

	_, handled, err = h.session.ManualEntry(ctx, `{"id":`)
	assert.ErrorIs(t, err, ledger.ErrDecode)
	assert.False(t, handled)
}

func TestHistoryKeepsNewestRecords(t *testing.T) {
	h := newHarness(t, scanner.Options{HistorySize: 3})
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		_, _, err := h.session.ManualEntry(ctx, fmt.Sprintf("MISSING-%d", i))
		require.NoError(t, err)
	}

	history := h.session.History()
	require.Len(t, history, 3)
	assert.Equal(t, "MISSING-5", history[0].Ticket.Number)
	assert.Equal(t, "MISSING-3", history[2].Ticket.Number)
}

func TestLineCameraDeliversLines(t *testing.T) {
	camera := scanner.NewLineCamera("stdin", strings.NewReader("first\n\n  second  \n"))

	devices, err := camera.Devices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "stdin", devices[0].ID)

	var mu sync.Mutex
	var got []string
	require.NoError(t, camera.Start(context.Background(), "stdin", func(text string) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, text)
	}))

	select {
	case <-camera.EOF():
	case <-time.After(2 * time.Second):
		t.Fatal("input not exhausted")
	}
	require.NoError(t, camera.Stop())
	require.NoError(t, camera.Stop())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "second"}, got)
	assert.NoError(t, camera.Err())
}

func TestLineCameraWithoutInput(t *testing.T) {
	camera := scanner.NewLineCamera("none", nil)

	devices, err := camera.Devices(context.Background())
	require.NoError(t, err)
	assert.Empty(t, devices)
	assert.Error(t, camera.Start(context.Background(), "none", func(string) {}))
}

func TestSessionOverLineCamera(t *testing.T) {
	store, err := ledger.Open(context.Background(), storage.NewMemory())
	require.NoError(t, err)
	batch, err := store.Generate(context.Background(), ledger.GenerateRequest{Count: 2, Prefix: "GATE"})
	require.NoError(t, err)

	generator := qr.NewGenerator("", 128)
	var input strings.Builder
	for _, ticket := range batch {
		text, err := generator.Text(ticket)
		require.NoError(t, err)
		input.WriteString(text + "\n")
	}

	camera := scanner.NewLineCamera("stdin", strings.NewReader(input.String()))
	session := scanner.NewSession(camera, store, generator, scanner.Options{})
	_, err = session.Start(context.Background())
	require.NoError(t, err)

	select {
	case <-camera.EOF():
	case <-time.After(2 * time.Second):
		t.Fatal("input not exhausted")
	}
	require.NoError(t, session.Stop())

	assert.Len(t, session.History(), 2)
	for _, ticket := range store.Tickets() {
		assert.True(t, ticket.Scanned())
	}
}
