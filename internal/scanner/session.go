// Package scanner drives a camera-backed scan session against the ledger.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"tix-voucher/internal/logger"
	"tix-voucher/internal/tickets/ledger"
	"tix-voucher/internal/tickets/qr"
	"tix-voucher/internal/tickets/validator"
)

var (
	ErrNoCamera       = errors.New("no camera found")
	ErrAlreadyRunning = errors.New("scan session already running")
)

type Device struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Camera yields decoded QR text. Start returns once frames are flowing and
// delivers each decoded symbol to onDecode, from the camera's own goroutine,
// until Stop or ctx is done. Stop must not wait for an in-flight onDecode call.
type Camera interface {
	Devices(ctx context.Context) ([]Device, error)
	Start(ctx context.Context, deviceID string, onDecode func(text string)) error
	Stop() error
}

type Ledger interface {
	Scan(ctx context.Context, lookup validator.Lookup) (ledger.ScanOutcome, error)
}

type PayloadDecoder interface {
	Decode(text string) (qr.Payload, error)
}

// Record is one entry of the scan history.
type Record struct {
	Timestamp time.Time        `json:"timestamp"`
	Ticket    validator.Lookup `json:"ticket"`
	Success   bool             `json:"success"`
	Duplicate bool             `json:"duplicate"`
	Message   string           `json:"message"`
}

type Options struct {
	HistorySize   int
	StopOnSuccess bool
	Logger        *logger.Logger
	Now           func() time.Time
}

type Session struct {
	camera  Camera
	ledger  Ledger
	decoder PayloadDecoder
	log     *logger.Logger
	now     func() time.Time

	historySize   int
	stopOnSuccess bool

	// scanMu serializes decoded frames and manual entries.
	scanMu  sync.Mutex
	history []Record

	mu      sync.Mutex
	running bool
	device  Device
	done    chan struct{}
	cancel  context.CancelFunc
}

func NewSession(camera Camera, l Ledger, decoder PayloadDecoder, opts Options) *Session {
	if opts.HistorySize <= 0 {
		opts.HistorySize = 10
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	closed := make(chan struct{})
	close(closed)

	return &Session{
		camera:        camera,
		ledger:        l,
		decoder:       decoder,
		log:           opts.Logger,
		now:           opts.Now,
		historySize:   opts.HistorySize,
		stopOnSuccess: opts.StopOnSuccess,
		done:          closed,
	}
}

// Start opens the first camera device. The camera is released by Stop or when
// ctx is done, whichever comes first.
func (s *Session) Start(ctx context.Context) (Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return s.device, ErrAlreadyRunning
	}

	devices, err := s.camera.Devices(ctx)
	if err != nil {
		return Device{}, fmt.Errorf("failed to list cameras: %w", err)
	}
	if len(devices) == 0 {
		return Device{}, ErrNoCamera
	}
	device := devices[0]

	runCtx, cancel := context.WithCancel(ctx)
	if err := s.camera.Start(runCtx, device.ID, func(text string) { s.onFrame(runCtx, text) }); err != nil {
		cancel()
		return Device{}, fmt.Errorf("failed to start camera %s: %w", device.ID, err)
	}

	s.running = true
	s.device = device
	s.done = make(chan struct{})
	s.cancel = cancel

	go func(done chan struct{}) {
		select {
		case <-runCtx.Done():
			s.stopRun(done)
		case <-done:
		}
	}(s.done)

	s.log.Info("SCANNER", fmt.Sprintf("Camera %s started", device.ID))
	return device, nil
}

// Stop releases the camera. It is safe to call more than once.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

// stopRun stops the session only while done still belongs to the current run.
func (s *Session) stopRun(done chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != done {
		return
	}
	s.stopLocked()
}

func (s *Session) stopLocked() error {
	if !s.running {
		return nil
	}
	s.running = false
	s.cancel()
	close(s.done)

	if err := s.camera.Stop(); err != nil {
		s.log.Warn("SCANNER", fmt.Sprintf("Camera %s did not stop cleanly: %v", s.device.ID, err))
		return fmt.Errorf("failed to stop camera: %w", err)
	}
	s.log.Info("SCANNER", fmt.Sprintf("Camera %s stopped", s.device.ID))
	return nil
}

func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Done is closed when the camera is released.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *Session) onFrame(ctx context.Context, text string) {
	if !s.Running() {
		return
	}
	if _, err := s.HandleDecoded(ctx, text); err != nil {
		s.log.Warn("SCANNER", err.Error())
	}
}

// HandleDecoded validates a decoded symbol against the ledger. Payloads that
// are not a ticket are rejected with *ledger.DecodeError and never reach the ledger.
func (s *Session) HandleDecoded(ctx context.Context, text string) (Record, error) {
	payload, err := s.decoder.Decode(text)
	if err != nil {
		return Record{}, &ledger.DecodeError{Source: "qr", Err: err}
	}
	record, err := s.scan(ctx, validator.Lookup{ID: payload.ID, Number: payload.Number})
	if err != nil {
		return record, err
	}
	if record.Success && s.stopOnSuccess {
		if err := s.Stop(); err != nil {
			return record, err
		}
	}
	return record, nil
}

// ManualEntry accepts either a QR payload object or a bare ticket number.
// Blank input is ignored.
func (s *Session) ManualEntry(ctx context.Context, input string) (Record, bool, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Record{}, false, nil
	}
	if strings.HasPrefix(input, "{") {
		record, err := s.HandleDecoded(ctx, input)
		return record, err == nil, err
	}
	record, err := s.scan(ctx, validator.Lookup{Number: input})
	return record, err == nil, err
}

func (s *Session) scan(ctx context.Context, lookup validator.Lookup) (Record, error) {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	outcome, err := s.ledger.Scan(ctx, lookup)
	if err != nil {
		return Record{}, err
	}

	record := Record{
		Timestamp: s.now(),
		Ticket:    lookup,
		Success:   outcome.Success,
		Duplicate: outcome.Reason == validator.Duplicate,
		Message:   outcome.Message,
	}
	s.history = append([]Record{record}, s.history...)
	if len(s.history) > s.historySize {
		s.history = s.history[:s.historySize]
	}
	return record, nil
}

// History returns the most recent records, newest first.
func (s *Session) History() []Record {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()
	out := make([]Record, len(s.history))
	copy(out, s.history)
	return out
}
