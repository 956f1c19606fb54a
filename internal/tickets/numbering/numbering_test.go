package numbering

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func next(t *testing.T, existing []string, prefix string) uint64 {
	t.Helper()
	seq, err := NextNumber(existing, prefix)
	require.NoError(t, err)
	return seq
}

func TestNextNumberEmpty(t *testing.T) {
	assert.Equal(t, uint64(1), next(t, nil, "TIX"))
}

func TestNextNumberTakesMaxPlusOne(t *testing.T) {
	existing := []string{"TIX-000003", "TIX-000001", "TIX-000010", "TIX-000002"}
	assert.Equal(t, uint64(11), next(t, existing, "TIX"))
}

func TestNextNumberIgnoresOtherPrefixes(t *testing.T) {
	existing := []string{"VIP-000050", "TIX-000002", "TIXX-000099", "XTIX-000077"}

	assert.Equal(t, uint64(3), next(t, existing, "TIX"))
	assert.Equal(t, uint64(51), next(t, existing, "VIP"))
	assert.Equal(t, uint64(1), next(t, existing, "GA"))
}

func TestNextNumberIsCaseSensitive(t *testing.T) {
	assert.Equal(t, uint64(1), next(t, []string{"tix-000009"}, "TIX"))
}

func TestNextNumberSkipsMalformed(t *testing.T) {
	existing := []string{
		"TIX-",
		"TIX-12a",
		"TIX-000004-extra",
		"TIX 000008",
		"",
		"TIX-99999999999999999999999999",
		"TIX-000002",
	}
	assert.Equal(t, uint64(3), next(t, existing, "TIX"))
}

func TestNextNumberQuotesPrefix(t *testing.T) {
	existing := []string{"A.B-000004", "AXB-000009"}
	assert.Equal(t, uint64(5), next(t, existing, "A.B"))
}

func TestNextNumberAcceptsUnpaddedAndWide(t *testing.T) {
	existing := []string{"TIX-7", "TIX-1234567"}
	assert.Equal(t, uint64(1234568), next(t, existing, "TIX"))
}

func TestNextNumberAtLargestSequence(t *testing.T) {
	existing := []string{"TIX-000000", "TIX-" + strconv.FormatUint(math.MaxUint64, 10)}

	_, err := NextNumber(existing, "TIX")

	assert.ErrorIs(t, err, ErrExhausted)
}

func TestReserveRejectsRunPastLargestSequence(t *testing.T) {
	existing := []string{"TIX-" + strconv.FormatUint(math.MaxUint64-2, 10)}

	start, err := Reserve(existing, "TIX", 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64-1), start)

	_, err = Reserve(existing, "TIX", 3)
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestReserveRejectsNonPositiveCount(t *testing.T) {
	_, err := Reserve(nil, "TIX", 0)
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "TIX-000001", Format("TIX", 1))
	assert.Equal(t, "VIP-000042", Format("VIP", 42))
	assert.Equal(t, "TIX-999999", Format("TIX", 999999))
	assert.Equal(t, "TIX-1000000", Format("TIX", 1000000))
}
