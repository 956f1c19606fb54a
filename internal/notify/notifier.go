// Package notify keeps the single transient notification (toast) shown to the operator.
package notify

import (
	"context"
	"sync"
	"time"
)

type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Warning Kind = "warning"
	Info    Kind = "info"
)

type Notification struct {
	ID        uint64    `json:"id"`
	Kind      Kind      `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Notifier holds at most one active notification. Showing a new one supersedes the
// previous one, and each notification dismisses itself after dismissAfter.
type Notifier struct {
	mu           sync.Mutex
	dismissAfter time.Duration
	seq          uint64
	current      *Notification
	timer        *time.Timer
	now          func() time.Time

	clientMutex sync.RWMutex
	clients     []chan Notification
}

func New(dismissAfter time.Duration) *Notifier {
	return &Notifier{
		dismissAfter: dismissAfter,
		now:          time.Now,
	}
}

// Show replaces the current notification and restarts the dismiss timer.
func (n *Notifier) Show(kind Kind, message string) Notification {
	n.mu.Lock()
	n.seq++
	note := Notification{
		ID:        n.seq,
		Kind:      kind,
		Message:   message,
		CreatedAt: n.now(),
	}
	n.current = &note

	if n.timer != nil {
		n.timer.Stop()
	}
	if n.dismissAfter > 0 {
		id := note.ID
		n.timer = time.AfterFunc(n.dismissAfter, func() { n.dismiss(id) })
	}
	// broadcast under mu so subscribers see notifications in ID order
	n.broadcast(note)
	n.mu.Unlock()
	return note
}

// Current returns the active notification, if any.
func (n *Notifier) Current() (Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return Notification{}, false
	}
	return *n.current, true
}

// Dismiss hides the active notification immediately.
func (n *Notifier) Dismiss() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.clearLocked()
}

// dismiss only clears the notification it was scheduled for; a stale timer
// firing after a newer Show is a no-op.
func (n *Notifier) dismiss(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current != nil && n.current.ID == id {
		n.clearLocked()
	}
}

func (n *Notifier) clearLocked() {
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.current = nil
}

// Subscribe streams every shown notification until ctx is done.
func (n *Notifier) Subscribe(ctx context.Context) <-chan Notification {
	clientChan := make(chan Notification, 10)

	n.clientMutex.Lock()
	n.clients = append(n.clients, clientChan)
	n.clientMutex.Unlock()

	go func() {
		<-ctx.Done()
		n.removeClient(clientChan)
	}()

	return clientChan
}

func (n *Notifier) broadcast(note Notification) {
	n.clientMutex.RLock()
	defer n.clientMutex.RUnlock()

	for _, clientChan := range n.clients {
		// Non-blocking send; a full subscriber misses the notification
		select {
		case clientChan <- note:
		default:
		}
	}
}

func (n *Notifier) removeClient(clientChan chan Notification) {
	n.clientMutex.Lock()
	defer n.clientMutex.Unlock()

	for i, ch := range n.clients {
		if ch == clientChan {
			n.clients = append(n.clients[:i], n.clients[i+1:]...)
			close(clientChan)
			break
		}
	}
}

// SubscriberCount returns the number of live subscriptions.
func (n *Notifier) SubscriberCount() int {
	n.clientMutex.RLock()
	defer n.clientMutex.RUnlock()
	return len(n.clients)
}

// Close stops the pending dismiss timer.
func (n *Notifier) Close() {
	n.Dismiss()
}
