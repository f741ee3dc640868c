package infra

import (
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

// Logo bounds used on document headers.
const (
	LogoMaxWidth  = 300
	LogoMaxHeight = 300
)

// NormalizeLogo decodes an uploaded image, fits it inside the logo bounds
// and re-encodes it as PNG.
func NormalizeLogo(r io.Reader) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("logo: decode: %w", err)
	}
	b := img.Bounds()
	if b.Dx() > LogoMaxWidth || b.Dy() > LogoMaxHeight {
		img = imaging.Fit(img, LogoMaxWidth, LogoMaxHeight, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("logo: encode: %w", err)
	}
	return buf.Bytes(), nil
}
