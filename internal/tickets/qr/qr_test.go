package qr

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
	"time"

	"tix-voucher/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTicket() models.Ticket {
	return models.Ticket{
		ID:          "7f0c7d2e-5a0b-4c1e-9d55-0f4f3c1a2b3c",
		Number:      "TIX-000042",
		GeneratedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Extra:       "not part of the payload",
	}
}

func TestPlainTextPayload(t *testing.T) {
	g := NewGenerator("", 0)

	text, err := g.Text(sampleTicket())
	require.NoError(t, err)

	assert.False(t, g.Sealed())
	assert.Equal(t, `{"id":"7f0c7d2e-5a0b-4c1e-9d55-0f4f3c1a2b3c","number":"TIX-000042"}`, text)
}

func TestSealedPayloadRoundTrip(t *testing.T) {
	g := NewGenerator("top-secret", 256)

	text, err := g.Text(sampleTicket())
	require.NoError(t, err)
	assert.True(t, g.Sealed())
	assert.False(t, strings.HasPrefix(text, "{"))
	assert.NotContains(t, text, "TIX-000042")

	payload, err := g.Decode(text)
	require.NoError(t, err)
	assert.Equal(t, PayloadFor(sampleTicket()), payload)
}

func TestSealedPayloadWrongSecret(t *testing.T) {
	text, err := NewGenerator("one", 256).Text(sampleTicket())
	require.NoError(t, err)

	_, err = NewGenerator("two", 256).Decode(text)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestDecodeAcceptsPlainJSONWithSecret(t *testing.T) {
	g := NewGenerator("top-secret", 256)

	payload, err := g.Decode(` {"id":"a","number":"TIX-000001"} `)
	require.NoError(t, err)
	assert.Equal(t, Payload{ID: "a", Number: "TIX-000001"}, payload)
}

func TestDecodeRejectsIncompletePayloads(t *testing.T) {
	g := NewGenerator("", 256)

	for _, text := range []string{
		"",
		"TIX-000001",
		`{"id":"a"}`,
		`{"number":"TIX-000001"}`,
		`{"id":"a","number":`,
		`{"id":1,"number":"TIX-000001"}`,
	} {
		_, err := g.Decode(text)
		assert.ErrorIs(t, err, ErrInvalidPayload, "text %q", text)
	}
}

func TestPNG(t *testing.T) {
	g := NewGenerator("", 128)

	raw, err := g.PNG(sampleTicket())
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
}
