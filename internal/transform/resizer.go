// Package transform implements the image transform service: resize and
// re-encode image bytes with fixed parameters. It is stateless.
package transform

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// FitPolicy selects how the source maps onto the target dimensions.
type FitPolicy string

const (
	// FitCover crops the source to fill the target dimensions exactly.
	FitCover FitPolicy = "cover"
	// FitInside scales the source to fit within the target dimensions,
	// preserving aspect ratio.
	FitInside FitPolicy = "fit"
)

type Encoding string

const (
	EncodingJPEG Encoding = "jpeg"
	EncodingPNG  Encoding = "png"
)

// Resize decodes src, resizes it per the fit policy and re-encodes it.
// Quality applies to JPEG output only.
func Resize(src []byte, width, height int, fit FitPolicy, encoding Encoding, quality int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target dimensions %dx%d", width, height)
	}

	img, err := imaging.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode source image: %w", err)
	}

	var out image.Image
	switch fit {
	case FitInside:
		out = imaging.Fit(img, width, height, imaging.Lanczos)
	case FitCover, "":
		out = imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)
	default:
		return nil, fmt.Errorf("unsupported fit policy %q", fit)
	}

	var buf bytes.Buffer
	switch encoding {
	case EncodingPNG:
		err = imaging.Encode(&buf, out, imaging.PNG)
	case EncodingJPEG, "":
		if quality <= 0 || quality > 100 {
			quality = 90
		}
		err = imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(quality))
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
