package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"tix-voucher/internal/models"

	"github.com/shopspring/decimal"
)

// Period selects how tickets are grouped in a breakdown
type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

// Filter selects tickets by scan status
type Filter string

const (
	All        Filter = "all"
	Scanned    Filter = "scanned"
	NotScanned Filter = "not-scanned"
)

// Service computes reports over a ticket snapshot. Bucket boundaries are
// evaluated in Location.
type Service struct {
	Location *time.Location
}

// NewService creates a new analytics service
func NewService(loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{Location: loc}
}

// Stats represents the headline numbers of the ledger
type Stats struct {
	Total      int             `json:"total"`
	Scanned    int             `json:"scanned"`
	NotScanned int             `json:"notScanned"`
	ScanRate   decimal.Decimal `json:"scanRate"`
}

// PeriodMetrics contains generated and scanned counts for one period. Tickets
// are grouped by when they were generated.
type PeriodMetrics struct {
	Date      string    `json:"date"`
	Start     time.Time `json:"start"`
	Generated int       `json:"generated"`
	Scanned   int       `json:"scanned"`
}

// Report bundles everything the reports view shows
type Report struct {
	Stats     Stats           `json:"stats"`
	Period    Period          `json:"period"`
	Breakdown []PeriodMetrics `json:"breakdown"`
	Filter    Filter          `json:"filter"`
	Tickets   []models.Ticket `json:"tickets"`
}

// ParsePeriod maps a period name, defaulting to daily when empty
func ParsePeriod(name string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(name))); p {
	case "":
		return Daily, nil
	case Daily, Weekly, Monthly:
		return p, nil
	default:
		return "", fmt.Errorf("unknown period %q (want daily, weekly or monthly)", name)
	}
}

// ParseFilter maps a filter name, defaulting to all when empty
func ParseFilter(name string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return All, nil
	case All, Scanned, NotScanned:
		return f, nil
	default:
		return "", fmt.Errorf("unknown filter %q (want all, scanned or not-scanned)", name)
	}
}

// Summarize counts tickets and computes the scan rate as a percentage rounded
// to one decimal place.
func (s *Service) Summarize(tickets []models.Ticket) Stats {
	stats := Stats{Total: len(tickets), ScanRate: decimal.Zero}
	for _, t := range tickets {
		if t.Scanned() {
			stats.Scanned++
		}
	}
	stats.NotScanned = stats.Total - stats.Scanned

	if stats.Total > 0 {
		stats.ScanRate = decimal.NewFromInt(int64(stats.Scanned)).
			Mul(decimal.NewFromInt(100)).
			DivRound(decimal.NewFromInt(int64(stats.Total)), 4).
			Round(1)
	}
	return stats
}

// Breakdown groups tickets by generation period, oldest period first.
// Weeks start on Sunday.
func (s *Service) Breakdown(tickets []models.Ticket, period Period) []PeriodMetrics {
	buckets := make(map[time.Time]*PeriodMetrics)

	for _, t := range tickets {
		start := s.periodStart(t.GeneratedAt, period)
		bucket, ok := buckets[start]
		if !ok {
			bucket = &PeriodMetrics{Date: label(start, period), Start: start}
			buckets[start] = bucket
		}
		bucket.Generated++
		if t.Scanned() {
			bucket.Scanned++
		}
	}

	out := make([]PeriodMetrics, 0, len(buckets))
	for _, bucket := range buckets {
		out = append(out, *bucket)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

// FilterTickets keeps tickets matching the scan status filter, in input order
func (s *Service) FilterTickets(tickets []models.Ticket, filter Filter) []models.Ticket {
	out := make([]models.Ticket, 0, len(tickets))
	for _, t := range tickets {
		switch filter {
		case Scanned:
			if !t.Scanned() {
				continue
			}
		case NotScanned:
			if t.Scanned() {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// Build assembles the full report
func (s *Service) Build(tickets []models.Ticket, period Period, filter Filter) Report {
	return Report{
		Stats:     s.Summarize(tickets),
		Period:    period,
		Breakdown: s.Breakdown(tickets, period),
		Filter:    filter,
		Tickets:   s.FilterTickets(tickets, filter),
	}
}

func (s *Service) periodStart(at time.Time, period Period) time.Time {
	at = at.In(s.Location)
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, s.Location)

	switch period {
	case Weekly:
		return day.AddDate(0, 0, -int(day.Weekday()))
	case Monthly:
		return time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, s.Location)
	default:
		return day
	}
}

func label(start time.Time, period Period) string {
	if period == Monthly {
		return start.Format("2006-01")
	}
	return start.Format("2006-01-02")
}
