// Package qr renders text payloads as QR code images with fixed parameters:
// UTF-8 content and medium error correction. Encoding failures (payload over
// the QR version ceiling) propagate to the caller; there is no truncation,
// chunking or retry here.
package qr

import (
	"image"
	"image/color"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the rendered edge length in pixels when the caller does not
// ask for a specific size.
const DefaultSize = 512

// PNG encodes text as a size x size QR code PNG.
func PNG(text string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	return qrcode.Encode(text, qrcode.Medium, size)
}

// Image encodes text as a size x size QR code image.
func Image(text string, size int) (image.Image, error) {
	if size <= 0 {
		size = DefaultSize
	}
	q, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	return q.Image(size), nil
}

// Placeholder draws a deterministic QR-looking pattern for previews. It is
// not scannable; callers may substitute it when a real payload is not
// available yet. The core never falls back to it on encode failure.
func Placeholder(size int) image.Image {
	img := image.NewGray(image.Rect(0, 0, size, size))
	black := color.Gray{Y: 0}
	white := color.Gray{Y: 255}

	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			isEdge := x < size/10 || y < size/10 || x >= size*9/10 || y >= size*9/10

			// finder-pattern stand-ins: top left, top right, bottom left
			isTopLeft := x < size/4 && y < size/4
			isTopRight := x >= size*3/4 && y < size/4
			isBottomLeft := x < size/4 && y >= size*3/4

			isInner := (x > size/6 && x < size/3 && y > size/6 && y < size/3) ||
				(x > size*2/3 && x < size*5/6 && y > size/6 && y < size/3) ||
				(x > size/6 && x < size/3 && y > size*2/3 && y < size*5/6)

			isPattern := (x+y)%8 < 4 && x > size/3 && x < size*2/3 && y > size/3 && y < size*2/3

			switch {
			case isEdge || isTopLeft || isTopRight || isBottomLeft:
				img.SetGray(x, y, black)
			case isInner:
				img.SetGray(x, y, white)
			case isPattern:
				img.SetGray(x, y, black)
			default:
				img.SetGray(x, y, white)
			}
		}
	}
	return img
}
