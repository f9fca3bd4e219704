package ui

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// renderQR draws content as a QR code using half blocks, two modules per
// text row. Light modules are drawn and dark modules left blank, so it
// scans on a dark terminal background.
func renderQR(content string) (string, error) {
	code, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	bitmap := code.Bitmap()

	var b strings.Builder
	for y := 0; y < len(bitmap); y += 2 {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := range bitmap[y] {
			topLight := !bitmap[y][x]
			bottomLight := y+1 >= len(bitmap) || !bitmap[y+1][x]
			switch {
			case topLight && bottomLight:
				b.WriteString("█")
			case topLight:
				b.WriteString("▀")
			case bottomLight:
				b.WriteString("▄")
			default:
				b.WriteByte(' ')
			}
		}
	}
	return b.String(), nil
}
