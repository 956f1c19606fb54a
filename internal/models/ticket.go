package models

import "time"

// Ticket is a single issued voucher. Only ScannedAt ever changes after creation.
type Ticket struct {
	ID          string     `json:"id"`
	Number      string     `json:"number"`
	GeneratedAt time.Time  `json:"generatedAt"`
	Extra       string     `json:"extra"`
	ScannedAt   *time.Time `json:"scannedAt"`
}

// Scanned reports whether the ticket has already been redeemed.
func (t Ticket) Scanned() bool {
	return t.ScannedAt != nil
}

// CloneTickets returns a deep copy so callers cannot reach into ledger state.
func CloneTickets(tickets []Ticket) []Ticket {
	if tickets == nil {
		return nil
	}
	out := make([]Ticket, len(tickets))
	for i, t := range tickets {
		if t.ScannedAt != nil {
			at := *t.ScannedAt
			t.ScannedAt = &at
		}
		out[i] = t
	}
	return out
}
