package scanner

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// LineCamera treats each line of a reader as one decoded QR symbol. It backs
// the scan station, where a hardware scanner types into stdin.
type LineCamera struct {
	Name   string
	Reader io.Reader

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	lines   chan string
	readErr error
	reading bool
	eof     chan struct{}
	eofOnce sync.Once
}

func NewLineCamera(name string, r io.Reader) *LineCamera {
	return &LineCamera{Name: name, Reader: r, eof: make(chan struct{})}
}

func (c *LineCamera) Devices(ctx context.Context) ([]Device, error) {
	if c.Reader == nil {
		return nil, nil
	}
	return []Device{{ID: c.Name, Label: "line input"}}, nil
}

// Start delivers lines until Stop or ctx cancellation. The reader is drained by
// a single goroutine shared across restarts.
func (c *LineCamera) Start(ctx context.Context, deviceID string, onDecode func(text string)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Reader == nil {
		return errors.New("line camera has no input")
	}
	if c.started {
		return errors.New("line camera already started")
	}
	if !c.reading {
		c.reading = true
		c.lines = make(chan string)
		go c.read()
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.started = true
	c.cancel = cancel

	go func() {
		for {
			select {
			case <-runCtx.Done():
				return
			case line, ok := <-c.lines:
				if !ok {
					c.eofOnce.Do(func() { close(c.eof) })
					return
				}
				if line = strings.TrimSpace(line); line != "" {
					onDecode(line)
				}
			}
		}
	}()
	return nil
}

func (c *LineCamera) read() {
	scanner := bufio.NewScanner(c.Reader)
	for scanner.Scan() {
		c.lines <- scanner.Text()
	}
	c.mu.Lock()
	c.readErr = scanner.Err()
	c.mu.Unlock()
	close(c.lines)
}

// EOF is closed once the input is exhausted and the last line was delivered.
func (c *LineCamera) EOF() <-chan struct{} {
	return c.eof
}

// Stop ends delivery without waiting for a pending onDecode call.
func (c *LineCamera) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return nil
	}
	c.started = false
	c.cancel()
	return nil
}

// Err reports a read failure once input has ended.
func (c *LineCamera) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readErr
}
