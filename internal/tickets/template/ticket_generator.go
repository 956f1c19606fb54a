package template

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"

	"tix-voucher/internal/models"

	"github.com/signintech/gopdf"
)

var ErrNoTickets = errors.New("no tickets to print")

const (
	columns     = 2
	rows        = 4
	pageMargin  = 30.0
	cardGap     = 10.0
	qrSide      = 90.0
	cardPadding = 10.0
	lineHeight  = 14.0
)

// Card is one ticket with its rendered QR symbol (PNG).
type Card struct {
	Ticket models.Ticket
	QR     []byte
}

// SheetGenerator lays ticket cards out on A4 pages, eight per page.
type SheetGenerator struct {
	FontPath string
}

func NewSheetGenerator(fontPath string) *SheetGenerator {
	return &SheetGenerator{FontPath: fontPath}
}

func (g *SheetGenerator) Generate(organization string, cards []Card) ([]byte, error) {
	if len(cards) == 0 {
		return nil, ErrNoTickets
	}

	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4}) // A4 size

	if err := pdf.AddTTFFont("dejavu", g.FontPath); err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}

	pageW := gopdf.PageSizeA4.W
	pageH := gopdf.PageSizeA4.H
	cardW := (pageW - 2*pageMargin - float64(columns-1)*cardGap) / columns
	cardH := (pageH - 2*pageMargin - float64(rows-1)*cardGap) / rows
	perPage := columns * rows

	for i, card := range cards {
		slot := i % perPage
		if slot == 0 {
			pdf.AddPage()
		}
		x := pageMargin + float64(slot%columns)*(cardW+cardGap)
		y := pageMargin + float64(slot/columns)*(cardH+cardGap)

		if err := addCard(pdf, organization, card, x, y, cardW, cardH); err != nil {
			return nil, fmt.Errorf("failed to draw ticket %s: %w", card.Ticket.Number, err)
		}
	}

	// Output
	var buf bytes.Buffer
	if err := pdf.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}

	return buf.Bytes(), nil
}

func addCard(pdf *gopdf.GoPdf, organization string, card Card, x, y, w, h float64) error {
	pdf.SetLineWidth(0.8)
	pdf.RectFromUpperLeftWithStyle(x, y, w, h, "D")

	// Header
	if err := pdf.SetFont("dejavu", "", 9); err != nil {
		return fmt.Errorf("failed to set font: %w", err)
	}
	pdf.SetXY(x+cardPadding, y+cardPadding)
	pdf.Cell(nil, organization)

	if err := pdf.SetFont("dejavu", "", 16); err != nil {
		return fmt.Errorf("failed to set font: %w", err)
	}
	pdf.SetXY(x+cardPadding, y+cardPadding+lineHeight)
	pdf.Cell(nil, card.Ticket.Number)

	// QR Code
	qrY := y + cardPadding + 2.5*lineHeight
	addQRCode(pdf, card.QR, x+cardPadding, qrY)

	// Ticket Info
	if err := pdf.SetFont("dejavu", "", 8); err != nil {
		return fmt.Errorf("failed to set font: %w", err)
	}
	infoX := x + 2*cardPadding + qrSide
	pdf.SetXY(infoX, qrY)
	for _, line := range ticketInfo(card.Ticket) {
		pdf.Cell(nil, line)
		pdf.Br(lineHeight)
		pdf.SetX(infoX)
	}
	return nil
}

func ticketInfo(ticket models.Ticket) []string {
	info := []string{
		"Generated: " + ticket.GeneratedAt.Format("2006-01-02 15:04"),
	}
	if ticket.Extra != "" {
		info = append(info, ticket.Extra)
	}
	if ticket.ScannedAt != nil {
		info = append(info, "Scanned: "+ticket.ScannedAt.Format("2006-01-02 15:04"))
	}
	info = append(info, "ID: "+shortID(ticket.ID))
	return info
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func addQRCode(pdf *gopdf.GoPdf, qrCode []byte, x, y float64) {
	if len(qrCode) == 0 {
		return
	}
	img, err := png.Decode(bytes.NewReader(qrCode))
	if err != nil {
		pdf.SetXY(x, y)
		pdf.Cell(nil, "Failed to load QR code")
		return
	}

	rect := &gopdf.Rect{W: qrSide, H: qrSide}
	if err := pdf.ImageFrom(img, x, y, rect); err != nil {
		pdf.SetXY(x, y)
		pdf.Cell(nil, "Failed to draw QR code")
	}
}
