// Package validator decides the outcome of a scan against a ticket set.
package validator

import (
	"strings"

	"tix-voucher/internal/models"
)

// Lookup identifies a ticket by id, number, or both. Matching is OR.
type Lookup struct {
	ID     string `json:"id,omitempty"`
	Number string `json:"number,omitempty"`
}

func (l Lookup) Empty() bool {
	return strings.TrimSpace(l.ID) == "" && strings.TrimSpace(l.Number) == ""
}

// Reference is a printable identifier for logs and messages.
func (l Lookup) Reference() string {
	if l.Number != "" {
		return l.Number
	}
	return l.ID
}

func (l Lookup) Matches(t models.Ticket) bool {
	return (l.ID != "" && t.ID == l.ID) || (l.Number != "" && t.Number == l.Number)
}

type Outcome string

const (
	Accepted  Outcome = "accepted"
	Duplicate Outcome = "duplicate"
	NotFound  Outcome = "not-found"
)

// Decision carries the outcome and, unless NotFound, the index of the matched ticket.
type Decision struct {
	Outcome Outcome
	Index   int
}

// Decide scans tickets in order; the first match wins.
func Decide(tickets []models.Ticket, lookup Lookup) Decision {
	for i, t := range tickets {
		if !lookup.Matches(t) {
			continue
		}
		if t.Scanned() {
			return Decision{Outcome: Duplicate, Index: i}
		}
		return Decision{Outcome: Accepted, Index: i}
	}
	return Decision{Outcome: NotFound, Index: -1}
}
