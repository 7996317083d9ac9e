package device

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/rleal/face-attendance/internal/gallery"
)

const (
	credentialSize = 480
	photoSize      = 180
	jpegQuality    = 70
)

var (
	backgroundRed = color.RGBA{R: 180, G: 20, B: 20, A: 255}
	boxRed        = color.RGBA{R: 200, G: 50, B: 50, A: 255}
	white         = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// RenderCredential draws the 480x480 credential shown on the device
// screen: the person's photo over a red institutional background with
// name, RUT, career and shift below it.
func RenderCredential(entry *gallery.Entry) ([]byte, error) {
	canvas := image.NewRGBA(image.Rect(0, 0, credentialSize, credentialSize))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(backgroundRed), image.Point{}, draw.Src)

	photoX := (credentialSize - photoSize) / 2
	photoY := 30

	// White frame behind the photo.
	frame := image.Rect(photoX-5, photoY-5, photoX+photoSize+5, photoY+photoSize+5)
	draw.Draw(canvas, frame, image.NewUniform(white), image.Point{}, draw.Src)

	if len(entry.PhotoJPEG) > 0 {
		photo, err := jpeg.Decode(bytes.NewReader(entry.PhotoJPEG))
		if err != nil {
			return nil, fmt.Errorf("decoding profile photo: %w", err)
		}
		photo = cropSquare(photo)
		dst := image.Rect(photoX, photoY, photoX+photoSize, photoY+photoSize)
		draw.BiLinear.Scale(canvas, dst, photo, photo.Bounds(), draw.Over, nil)
	}

	// Text box under the photo.
	box := image.Rect(40, 250, credentialSize-40, 430)
	draw.Draw(canvas, box, image.NewUniform(boxRed), image.Point{}, draw.Src)

	lines := []string{
		strings.ToUpper(entry.Name),
		"RUT: " + entry.RUT,
		entry.Career,
		"Jornada: " + shiftLabel(entry.Shift),
	}
	for i, line := range lines {
		drawText(canvas, line, 60, 285+i*35)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encoding credential: %w", err)
	}
	return buf.Bytes(), nil
}

func shiftLabel(shift string) string {
	switch shift {
	case gallery.ShiftDay:
		return "Diurna"
	case gallery.ShiftEvening:
		return "Vespertina"
	default:
		return shift
	}
}

// cropSquare center-crops an image to a square so faces are not
// distorted by the scale into the square photo slot.
func cropSquare(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == h {
		return img
	}
	side := w
	if h < side {
		side = h
	}
	x0 := b.Min.X + (w-side)/2
	y0 := b.Min.Y + (h-side)/2
	crop := image.Rect(x0, y0, x0+side, y0+side)

	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(dst, dst.Bounds(), img, crop.Min, draw.Src)
	return dst
}

func drawText(dst *image.RGBA, text string, x, y int) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(white),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
