// Package qr builds and reads the payload carried by a ticket's QR symbol.
package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"tix-voucher/internal/models"

	"github.com/skip2/go-qrcode"
)

var ErrInvalidPayload = errors.New("invalid QR payload")

// Payload is the JSON object encoded in every symbol.
type Payload struct {
	ID     string `json:"id"`
	Number string `json:"number"`
}

func PayloadFor(ticket models.Ticket) Payload {
	return Payload{ID: ticket.ID, Number: ticket.Number}
}

// Generator renders payloads. With a secret the payload is sealed with
// AES-CFB and base64url encoded; without one it is plain JSON.
type Generator struct {
	secret []byte
	size   int
}

func NewGenerator(secret string, size int) *Generator {
	if size <= 0 {
		size = 256
	}
	g := &Generator{size: size}
	if secret != "" {
		hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
		g.secret = hashed[:]
	}
	return g
}

func (g *Generator) Sealed() bool {
	return g.secret != nil
}

// Text is the string placed in the symbol for ticket.
func (g *Generator) Text(ticket models.Ticket) (string, error) {
	data, err := json.Marshal(PayloadFor(ticket))
	if err != nil {
		return "", err
	}
	if g.secret == nil {
		return string(data), nil
	}
	return encryptAES(data, g.secret)
}

// PNG renders the symbol at the highest error-correction level.
func (g *Generator) PNG(ticket models.Ticket) ([]byte, error) {
	text, err := g.Text(ticket)
	if err != nil {
		return nil, fmt.Errorf("failed to build QR payload: %w", err)
	}
	png, err := qrcode.Encode(text, qrcode.Highest, g.size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR symbol: %w", err)
	}
	return png, nil
}

// Decode parses decoded symbol text. Plain JSON is always accepted; sealed
// text requires the generator's secret. Both id and number must be present.
func (g *Generator) Decode(text string) (Payload, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Payload{}, fmt.Errorf("%w: empty", ErrInvalidPayload)
	}

	data := []byte(text)
	if !strings.HasPrefix(text, "{") {
		if g.secret == nil {
			return Payload{}, fmt.Errorf("%w: not a JSON object", ErrInvalidPayload)
		}
		plain, err := decryptAES(text, g.secret)
		if err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		data = plain
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if p.ID == "" || p.Number == "" {
		return Payload{}, fmt.Errorf("%w: id and number are required", ErrInvalidPayload)
	}
	return p, nil
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]

	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

func decryptAES(text string, key []byte) ([]byte, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("not base64url: %w", err)
	}
	if len(ciphertext) < aes.BlockSize {
		return nil, errors.New("ciphertext too short")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	iv := ciphertext[:aes.BlockSize]
	plain := make([]byte, len(ciphertext)-aes.BlockSize)
	stream := cipher.NewCFBDecrypter(block, iv)
	stream.XORKeyStream(plain, ciphertext[aes.BlockSize:])
	return plain, nil
}
