// Package codec encodes and decodes the full-ledger export document.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tix-voucher/internal/models"
)

// Version is the document version written by Encode.
const Version = 1

var (
	ErrMalformed    = errors.New("document is not well-formed JSON")
	ErrSchema       = errors.New("document does not match the export schema")
	ErrInconsistent = errors.New("document repeats a ticket id or number")
)

type Document struct {
	Tickets    []models.Ticket `json:"tickets"`
	Settings   models.Settings `json:"settings"`
	ExportedAt time.Time       `json:"exportedAt"`
	Version    int             `json:"version"`
}

func NewDocument(tickets []models.Ticket, settings models.Settings, exportedAt time.Time) Document {
	if tickets == nil {
		tickets = []models.Ticket{}
	}
	return Document{
		Tickets:    tickets,
		Settings:   settings,
		ExportedAt: exportedAt,
		Version:    Version,
	}
}

// Encode renders the document with two-space indentation.
func Encode(doc Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// FileName is the suggested download name for an export taken at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("tix-voucher-export-%d.json", t.UnixMilli())
}

// Imported is a validated document. Has* report which sections were present.
type Imported struct {
	Tickets     []models.Ticket
	HasTickets  bool
	Settings    models.Settings
	HasSettings bool
	Version     int
}

type wireTicket struct {
	ID          *string
	Number      *string
	GeneratedAt *time.Time
	Extra       *string
	ScannedAt   *time.Time
}

func (w *wireTicket) fields() map[string]interface{} {
	return map[string]interface{}{
		"id":          &w.ID,
		"number":      &w.Number,
		"generatedAt": &w.GeneratedAt,
		"extra":       &w.Extra,
		"scannedAt":   &w.ScannedAt,
	}
}

type wireSettings struct {
	OrganizationName *string
	MaxUsers         *int
}

func (w *wireSettings) fields() map[string]interface{} {
	return map[string]interface{}{
		"organizationName": &w.OrganizationName,
		"maxUsers":         &w.MaxUsers,
	}
}

// decodeExact fills fields from the object in raw. Keys match case-sensitively
// and unknown keys are ignored.
func decodeExact(raw json.RawMessage, fields map[string]interface{}) error {
	var object map[string]json.RawMessage
	if err := json.Unmarshal(raw, &object); err != nil {
		return err
	}
	for key, dst := range fields {
		value, ok := object[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, dst); err != nil {
			return fmt.Errorf("%s: %v", key, err)
		}
	}
	return nil
}

// Decode parses raw and checks every present section against the schema.
// Nothing is returned unless the whole document is valid.
func Decode(raw []byte) (Imported, error) {
	var out Imported

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) || !json.Valid(raw) {
			return out, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return out, fmt.Errorf("%w: top level must be an object", ErrSchema)
	}
	if top == nil {
		// the literal null
		return out, fmt.Errorf("%w: top level must be an object", ErrSchema)
	}

	if section, ok := present(top, "tickets"); ok {
		tickets, err := decodeTickets(section)
		if err != nil {
			return Imported{}, err
		}
		out.Tickets = tickets
		out.HasTickets = true
	}

	if section, ok := present(top, "settings"); ok {
		settings, err := decodeSettings(section)
		if err != nil {
			return Imported{}, err
		}
		out.Settings = settings
		out.HasSettings = true
	}

	if section, ok := present(top, "version"); ok {
		if err := json.Unmarshal(section, &out.Version); err != nil {
			return Imported{}, fmt.Errorf("%w: version must be an integer", ErrSchema)
		}
	}

	return out, nil
}

// present treats a missing key and an explicit null the same way.
func present(top map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	section, ok := top[key]
	if !ok || bytes.Equal(bytes.TrimSpace(section), []byte("null")) {
		return nil, false
	}
	return section, true
}

func decodeTickets(section json.RawMessage) ([]models.Ticket, error) {
	var wire []json.RawMessage
	if err := json.Unmarshal(section, &wire); err != nil {
		return nil, fmt.Errorf("%w: tickets must be an array", ErrSchema)
	}

	tickets := make([]models.Ticket, 0, len(wire))
	ids := make(map[string]int, len(wire))
	numbers := make(map[string]int, len(wire))

	for i, item := range wire {
		var w wireTicket
		if err := decodeExact(item, w.fields()); err != nil {
			return nil, fmt.Errorf("%w: tickets[%d]: %v", ErrSchema, i, err)
		}
		if w.ID == nil || *w.ID == "" {
			return nil, fmt.Errorf("%w: tickets[%d].id is required", ErrSchema, i)
		}
		if w.Number == nil || *w.Number == "" {
			return nil, fmt.Errorf("%w: tickets[%d].number is required", ErrSchema, i)
		}
		if w.GeneratedAt == nil {
			return nil, fmt.Errorf("%w: tickets[%d].generatedAt is required", ErrSchema, i)
		}

		if prev, dup := ids[*w.ID]; dup {
			return nil, fmt.Errorf("%w: tickets[%d] and tickets[%d] share id %s", ErrInconsistent, prev, i, *w.ID)
		}
		if prev, dup := numbers[*w.Number]; dup {
			return nil, fmt.Errorf("%w: tickets[%d] and tickets[%d] share number %s", ErrInconsistent, prev, i, *w.Number)
		}
		ids[*w.ID] = i
		numbers[*w.Number] = i

		t := models.Ticket{
			ID:          *w.ID,
			Number:      *w.Number,
			GeneratedAt: *w.GeneratedAt,
			ScannedAt:   w.ScannedAt,
		}
		if w.Extra != nil {
			t.Extra = *w.Extra
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}

func decodeSettings(section json.RawMessage) (models.Settings, error) {
	var w wireSettings
	if err := decodeExact(section, w.fields()); err != nil {
		return models.Settings{}, fmt.Errorf("%w: settings: %v", ErrSchema, err)
	}
	if w.OrganizationName == nil {
		return models.Settings{}, fmt.Errorf("%w: settings.organizationName is required", ErrSchema)
	}
	if w.MaxUsers == nil {
		return models.Settings{}, fmt.Errorf("%w: settings.maxUsers is required", ErrSchema)
	}
	if *w.MaxUsers < 1 {
		return models.Settings{}, fmt.Errorf("%w: settings.maxUsers must be at least 1", ErrSchema)
	}
	return models.Settings{
		OrganizationName: *w.OrganizationName,
		MaxUsers:         *w.MaxUsers,
	}, nil
}
