// Package preview turns photo bytes into terminal art using upper half
// blocks: each cell shows two vertically stacked pixels, the top one as the
// foreground colour and the bottom one as the background.
package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const halfBlock = "▀"

// Decode parses JPEG, PNG, GIF or WebP bytes.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode photo: %w", err)
	}
	return img, nil
}

// Fit returns the largest pixel size with src's aspect ratio that fits in
// cols x rows cells.
func Fit(src image.Rectangle, cols, rows int) (width, height int) {
	sw, sh := src.Dx(), src.Dy()
	if sw <= 0 || sh <= 0 || cols <= 0 || rows <= 0 {
		return 0, 0
	}
	maxW, maxH := cols, rows*2
	width = maxW
	height = sh * maxW / sw
	if height > maxH {
		height = maxH
		width = sw * maxH / sh
	}
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return width, height
}

// Scale resamples src to width x height.
func Scale(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// Render draws img into at most cols x rows terminal cells.
func Render(img image.Image, cols, rows int) string {
	w, h := Fit(img.Bounds(), cols, rows)
	if w == 0 || h == 0 {
		return ""
	}
	scaled := Scale(img, w, h)

	var b strings.Builder
	for y := 0; y < h; y += 2 {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x < w; x++ {
			top := scaled.RGBAAt(x, y)
			style := lipgloss.NewStyle().Foreground(hex(top))
			if y+1 < h {
				style = style.Background(hex(scaled.RGBAAt(x, y+1)))
			}
			b.WriteString(style.Render(halfBlock))
		}
	}
	return b.String()
}

// RenderBytes decodes and renders in one step.
func RenderBytes(data []byte, cols, rows int) (string, error) {
	img, err := Decode(data)
	if err != nil {
		return "", err
	}
	return Render(img, cols, rows), nil
}

func hex(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}
