// Package ledger owns the ticket collection, the settings and the single-slot
// undo batch. It is the only code that mutates ticket state.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"tix-voucher/internal/logger"
	"tix-voucher/internal/models"
	"tix-voucher/internal/notify"
	"tix-voucher/internal/storage"
	"tix-voucher/internal/tickets/codec"
	"tix-voucher/internal/tickets/numbering"
	"tix-voucher/internal/tickets/validator"

	"github.com/google/uuid"
)

// TimeLayout is used when a timestamp appears in a notification.
const TimeLayout = "2006-01-02 15:04:05"

// Publisher shows operator notifications. *notify.Notifier satisfies it.
type Publisher interface {
	Show(kind notify.Kind, message string) notify.Notification
}

// Limits bounds the ticket count of a single generation request.
type Limits struct {
	Min int
	Max int
}

var DefaultLimits = Limits{Min: 1, Max: 200}

func (l Limits) validate() error {
	if l.Min < 1 || l.Max < l.Min {
		return &ValidationError{
			Field:   "limits",
			Message: fmt.Sprintf("batch size range %d..%d must start at 1 or more and not be empty", l.Min, l.Max),
		}
	}
	return nil
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func WithLimits(limits Limits) Option {
	return func(s *Store) { s.limits = limits }
}

func WithNotifier(p Publisher) Option {
	return func(s *Store) { s.notifier = p }
}

func WithLogger(log *logger.Logger) Option {
	return func(s *Store) { s.log = log }
}

type Store struct {
	mu       sync.Mutex
	adapter  storage.Adapter
	notifier Publisher
	log      *logger.Logger
	limits   Limits
	now      func() time.Time
	newID    func() string

	tickets   []models.Ticket
	lastBatch []string
	settings  models.Settings
}

// persisted is the value stored under storage.TicketsKey.
type persisted struct {
	Tickets   []models.Ticket `json:"tickets"`
	LastBatch []string        `json:"lastBatch"`
}

type GenerateRequest struct {
	Count  int
	Prefix string
	Extra  string
}

// ScanOutcome is the result of a scan attempt. Ticket is set unless the lookup
// matched nothing.
type ScanOutcome struct {
	Success bool              `json:"success"`
	Reason  validator.Outcome `json:"reason,omitempty"`
	Message string            `json:"message"`
	Ticket  *models.Ticket    `json:"ticket,omitempty"`
	Lookup  validator.Lookup  `json:"lookup"`
}

// Err converts a rejected outcome into *LookupError or *ConflictError.
func (o ScanOutcome) Err() error {
	switch o.Reason {
	case validator.NotFound:
		return &LookupError{Lookup: o.Lookup}
	case validator.Duplicate:
		conflict := &ConflictError{}
		if o.Ticket != nil {
			conflict.Ticket = *o.Ticket
			if o.Ticket.ScannedAt != nil {
				conflict.ScannedAt = *o.Ticket.ScannedAt
			}
		}
		return conflict
	}
	return nil
}

// Open loads the ledger from adapter. Unreadable stored values fall back to
// defaults with a warning; adapter failures are returned.
func Open(ctx context.Context, adapter storage.Adapter, opts ...Option) (*Store, error) {
	s := &Store{
		adapter:  adapter,
		log:      logger.NewNop(),
		limits:   DefaultLimits,
		now:      time.Now,
		newID:    uuid.NewString,
		settings: models.DefaultSettings(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.limits.validate(); err != nil {
		return nil, err
	}

	if err := s.loadTickets(ctx); err != nil {
		return nil, err
	}
	if err := s.loadSettings(ctx); err != nil {
		return nil, err
	}

	s.log.Info("LEDGER", fmt.Sprintf("Loaded %d tickets for %q", len(s.tickets), s.settings.OrganizationName))
	return s, nil
}

func (s *Store) loadTickets(ctx context.Context) error {
	raw, ok, err := s.adapter.Get(ctx, storage.TicketsKey)
	if err != nil {
		return fmt.Errorf("failed to load tickets: %w", err)
	}
	if !ok {
		s.log.LogStorage("GET", storage.TicketsKey, "not found, starting empty")
		return nil
	}

	var state persisted
	trimmed := bytes.TrimSpace([]byte(raw))
	if bytes.HasPrefix(trimmed, []byte("[")) {
		// older values hold only the ticket array
		err = json.Unmarshal(trimmed, &state.Tickets)
	} else {
		err = json.Unmarshal(trimmed, &state)
	}
	if err != nil {
		s.log.Warn("LEDGER", fmt.Sprintf("Stored tickets unreadable, starting empty: %v", err))
		return nil
	}

	s.tickets = state.Tickets
	s.lastBatch = s.knownIDs(state.LastBatch)
	s.log.LogStorage("GET", storage.TicketsKey, fmt.Sprintf("%d tickets", len(s.tickets)))
	return nil
}

func (s *Store) loadSettings(ctx context.Context) error {
	raw, ok, err := s.adapter.Get(ctx, storage.SettingsKey)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if !ok {
		return nil
	}

	settings := models.DefaultSettings()
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		s.log.Warn("LEDGER", fmt.Sprintf("Stored settings unreadable, using defaults: %v", err))
		return nil
	}
	if settings.MaxUsers < 1 {
		settings.MaxUsers = models.DefaultSettings().MaxUsers
	}
	s.settings = settings
	return nil
}

// knownIDs keeps the batch ids that still refer to a ticket.
func (s *Store) knownIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	present := make(map[string]struct{}, len(s.tickets))
	for _, t := range s.tickets {
		present[t.ID] = struct{}{}
	}
	var kept []string
	for _, id := range ids {
		if _, ok := present[id]; ok {
			kept = append(kept, id)
		}
	}
	return kept
}

func (s *Store) writeTickets(ctx context.Context, tickets []models.Ticket, batch []string) error {
	if tickets == nil {
		tickets = []models.Ticket{}
	}
	raw, err := json.Marshal(persisted{Tickets: tickets, LastBatch: batch})
	if err != nil {
		return fmt.Errorf("failed to encode tickets: %w", err)
	}
	if err := s.adapter.Set(ctx, storage.TicketsKey, string(raw)); err != nil {
		s.log.Error("STORAGE", fmt.Sprintf("Failed to save tickets: %v", err))
		return fmt.Errorf("failed to save tickets: %w", err)
	}
	s.log.LogStorage("SET", storage.TicketsKey, fmt.Sprintf("%d tickets", len(tickets)))
	return nil
}

func (s *Store) writeSettings(ctx context.Context, settings models.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := s.adapter.Set(ctx, storage.SettingsKey, string(raw)); err != nil {
		s.log.Error("STORAGE", fmt.Sprintf("Failed to save settings: %v", err))
		return fmt.Errorf("failed to save settings: %w", err)
	}
	s.log.LogStorage("SET", storage.SettingsKey, settings.OrganizationName)
	return nil
}

func (s *Store) show(kind notify.Kind, message string) {
	if s.notifier != nil {
		s.notifier.Show(kind, message)
	}
}

func (s *Store) reject(err *ValidationError) error {
	s.log.Warn("LEDGER", err.Error())
	s.show(notify.Error, err.Error())
	return err
}

// Generate allocates Count consecutive numbers under Prefix and records them as
// the new last batch. The batch is returned lowest number first.
func (s *Store) Generate(ctx context.Context, req GenerateRequest) ([]models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := strings.TrimSpace(req.Prefix)
	if prefix == "" {
		return nil, s.reject(&ValidationError{Field: "prefix", Message: "must not be blank"})
	}
	if req.Count < 1 || req.Count < s.limits.Min || req.Count > s.limits.Max {
		return nil, s.reject(&ValidationError{
			Field:   "count",
			Message: fmt.Sprintf("must be between %d and %d, got %d", s.limits.Min, s.limits.Max, req.Count),
		})
	}

	existing := make([]string, len(s.tickets))
	for i, t := range s.tickets {
		existing[i] = t.Number
	}
	start, err := numbering.Reserve(existing, prefix, req.Count)
	if err != nil {
		return nil, s.reject(&ValidationError{Field: "prefix", Message: err.Error()})
	}
	generatedAt := s.now()

	batch := make([]models.Ticket, req.Count)
	ids := make([]string, req.Count)
	for i := range batch {
		batch[i] = models.Ticket{
			ID:          s.newID(),
			Number:      numbering.Format(prefix, start+uint64(i)),
			GeneratedAt: generatedAt,
			Extra:       req.Extra,
		}
		ids[i] = batch[i].ID
	}

	next := make([]models.Ticket, 0, len(batch)+len(s.tickets))
	next = append(next, batch...)
	next = append(next, s.tickets...)

	if err := s.writeTickets(ctx, next, ids); err != nil {
		s.show(notify.Error, "Failed to save generated tickets")
		return nil, err
	}
	s.tickets = next
	s.lastBatch = ids

	s.log.LogTicket("GENERATE", fmt.Sprintf("%s..%s", batch[0].Number, batch[len(batch)-1].Number),
		fmt.Sprintf("%d ticket(s)", len(batch)))
	s.show(notify.Success, fmt.Sprintf("Successfully generated %d ticket(s)", len(batch)))
	return models.CloneTickets(batch), nil
}

// Scan marks the first ticket matching lookup as redeemed. Not-found and
// duplicate scans are reported in the outcome and change nothing.
func (s *Store) Scan(ctx context.Context, lookup validator.Lookup) (ScanOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lookup.ID = strings.TrimSpace(lookup.ID)
	lookup.Number = strings.TrimSpace(lookup.Number)
	if lookup.Empty() {
		return ScanOutcome{}, s.reject(&ValidationError{Field: "lookup", Message: "id or number is required"})
	}

	decision := validator.Decide(s.tickets, lookup)
	switch decision.Outcome {
	case validator.NotFound:
		s.log.LogScan("NOT-FOUND", lookup.Reference(), "no matching ticket")
		s.show(notify.Error, "Ticket not found in system")
		return ScanOutcome{
			Reason:  validator.NotFound,
			Message: "Ticket not found",
			Lookup:  lookup,
		}, nil

	case validator.Duplicate:
		ticket := models.CloneTickets(s.tickets[decision.Index : decision.Index+1])[0]
		scannedAt := ticket.ScannedAt.Format(TimeLayout)
		s.log.LogScan("DUPLICATE", ticket.Number, "first scanned "+scannedAt)
		s.show(notify.Warning, "Ticket already scanned on "+scannedAt)
		return ScanOutcome{
			Reason:  validator.Duplicate,
			Message: "Already scanned",
			Ticket:  &ticket,
			Lookup:  lookup,
		}, nil
	}

	next := models.CloneTickets(s.tickets)
	scannedAt := s.now()
	next[decision.Index].ScannedAt = &scannedAt

	if err := s.writeTickets(ctx, next, s.lastBatch); err != nil {
		s.show(notify.Error, "Failed to save scan")
		return ScanOutcome{}, err
	}
	s.tickets = next

	ticket := models.CloneTickets(next[decision.Index : decision.Index+1])[0]
	s.log.LogScan("ACCEPTED", ticket.Number, "scanned")
	s.show(notify.Success, fmt.Sprintf("Ticket %s scanned successfully!", ticket.Number))
	return ScanOutcome{
		Success: true,
		Reason:  validator.Accepted,
		Message: "Scanned successfully",
		Ticket:  &ticket,
		Lookup:  lookup,
	}, nil
}

// UndoLastGeneration removes the tickets of the most recent batch. Only one
// level is kept; a second call fails with ErrNothingToUndo.
func (s *Store) UndoLastGeneration(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.lastBatch) == 0 {
		s.show(notify.Error, "No generation to undo")
		return false, ErrNothingToUndo
	}

	drop := make(map[string]struct{}, len(s.lastBatch))
	for _, id := range s.lastBatch {
		drop[id] = struct{}{}
	}
	next := make([]models.Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		if _, ok := drop[t.ID]; !ok {
			next = append(next, t)
		}
	}

	if err := s.writeTickets(ctx, next, nil); err != nil {
		s.show(notify.Error, "Failed to undo last generation")
		return false, err
	}
	removed := len(s.tickets) - len(next)
	s.tickets = next
	s.lastBatch = nil

	s.log.LogTicket("UNDO", "-", fmt.Sprintf("removed %d ticket(s)", removed))
	s.show(notify.Success, "Last generation undone")
	return true, nil
}

// Export snapshots the ledger as an export document.
func (s *Store) Export() codec.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return codec.NewDocument(models.CloneTickets(s.tickets), s.settings, s.now())
}

// ExportJSON encodes the ledger and returns the bytes with a suggested file name.
func (s *Store) ExportJSON() ([]byte, string, error) {
	doc := s.Export()
	raw, err := codec.Encode(doc)
	if err != nil {
		s.show(notify.Error, "Failed to export data")
		return nil, "", fmt.Errorf("failed to encode export: %w", err)
	}
	s.show(notify.Success, "Data exported successfully")
	return raw, codec.FileName(doc.ExportedAt), nil
}

// Import replaces the sections present in raw. The document is fully
// validated before anything is adopted; importing tickets discards the undo batch.
func (s *Store) Import(ctx context.Context, raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	imported, err := codec.Decode(raw)
	if err != nil {
		s.log.Warn("LEDGER", fmt.Sprintf("Import rejected: %v", err))
		s.show(notify.Error, "Failed to import data")
		return &DecodeError{Source: "import", Err: err}
	}
	if imported.Version != 0 && imported.Version != codec.Version {
		s.log.Warn("LEDGER", fmt.Sprintf("Importing document version %d, expected %d", imported.Version, codec.Version))
	}

	if imported.HasTickets {
		if err := s.writeTickets(ctx, imported.Tickets, nil); err != nil {
			s.show(notify.Error, "Failed to import data")
			return err
		}
	}
	if imported.HasSettings {
		if err := s.writeSettings(ctx, imported.Settings); err != nil {
			if imported.HasTickets {
				if restoreErr := s.writeTickets(ctx, s.tickets, s.lastBatch); restoreErr != nil {
					s.log.Error("LEDGER", fmt.Sprintf("Failed to restore tickets after import error: %v", restoreErr))
				}
			}
			s.show(notify.Error, "Failed to import data")
			return err
		}
	}

	if imported.HasTickets {
		s.tickets = imported.Tickets
		s.lastBatch = nil
	}
	if imported.HasSettings {
		s.settings = imported.Settings
	}

	s.log.Info("LEDGER", fmt.Sprintf("Imported document: tickets=%t settings=%t", imported.HasTickets, imported.HasSettings))
	s.show(notify.Success, "Data imported successfully")
	return nil
}

// UpdateSettings merges the present fields of patch into the settings.
func (s *Store) UpdateSettings(ctx context.Context, patch models.SettingsPatch) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.MaxUsers != nil && *patch.MaxUsers < 1 {
		return s.settings, s.reject(&ValidationError{Field: "maxUsers", Message: "must be at least 1"})
	}

	next := patch.Apply(s.settings)
	if err := s.writeSettings(ctx, next); err != nil {
		s.show(notify.Error, "Failed to update settings")
		return s.settings, err
	}
	s.settings = next

	s.show(notify.Success, "Settings updated")
	return next, nil
}

// ClearAllData removes every ticket and the undo batch. Settings are kept.
func (s *Store) ClearAllData(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.adapter.Clear(ctx, storage.TicketsKey); err != nil {
		s.log.Error("STORAGE", fmt.Sprintf("Failed to clear tickets: %v", err))
		s.show(notify.Error, "Failed to clear data")
		return fmt.Errorf("failed to clear tickets: %w", err)
	}
	s.log.LogStorage("CLEAR", storage.TicketsKey, fmt.Sprintf("%d tickets removed", len(s.tickets)))
	s.tickets = nil
	s.lastBatch = nil

	s.show(notify.Success, "All data cleared")
	return nil
}

// Tickets returns a copy of the collection, newest batch first.
func (s *Store) Tickets() []models.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneTickets(s.tickets)
}

func (s *Store) Settings() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// LastBatch returns the tickets of the undoable batch, or nil.
func (s *Store) LastBatch() []models.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.lastBatch) == 0 {
		return nil
	}
	ids := make(map[string]struct{}, len(s.lastBatch))
	for _, id := range s.lastBatch {
		ids[id] = struct{}{}
	}
	var batch []models.Ticket
	for _, t := range s.tickets {
		if _, ok := ids[t.ID]; ok {
			batch = append(batch, t)
		}
	}
	return models.CloneTickets(batch)
}
