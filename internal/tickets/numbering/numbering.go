// Package numbering allocates human readable ticket numbers of the form PREFIX-000001.
package numbering

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// Width is the minimum zero-padded width of the sequence part.
const Width = 6

// ErrExhausted is returned when the requested run would pass the largest sequence.
var ErrExhausted = errors.New("ticket sequence exhausted")

// NextNumber returns one past the highest sequence already used for prefix, or 1.
// Numbers for other prefixes and malformed numbers are ignored.
func NextNumber(existing []string, prefix string) (uint64, error) {
	return Reserve(existing, prefix, 1)
}

// Reserve returns the first of count consecutive sequences above every number
// already used for prefix.
func Reserve(existing []string, prefix string, count int) (uint64, error) {
	if count < 1 {
		return 0, fmt.Errorf("count must be positive, got %d", count)
	}
	top := highest(existing, prefix)
	if top > math.MaxUint64-uint64(count) {
		return 0, fmt.Errorf("%w: %s-%d leaves no room for %d more", ErrExhausted, prefix, top, count)
	}
	return top + 1, nil
}

func highest(existing []string, prefix string) uint64 {
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `-(\d+)$`)

	var top uint64
	for _, number := range existing {
		match := pattern.FindStringSubmatch(number)
		if match == nil {
			continue
		}
		seq, err := strconv.ParseUint(match[1], 10, 64)
		if err != nil {
			// digit run too large for uint64
			continue
		}
		if seq > top {
			top = seq
		}
	}
	return top
}

// Format renders prefix and seq as PREFIX-000042. Wider values are not truncated.
func Format(prefix string, seq uint64) string {
	return fmt.Sprintf("%s-%0*d", prefix, Width, seq)
}
