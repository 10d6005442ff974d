// Package favicon loads a server icon PNG and resizes it to the 64x64
// square the status responder embeds as a base64 data URI, using
// github.com/nfnt/resize the way the image-pipeline examples in the
// pack downscale arbitrary uploads to a fixed thumbnail size.
package favicon

import (
	"bytes"
	"fmt"
	"image/png"
	"os"

	"github.com/nfnt/resize"
)

const size = 64

// Load reads path, decodes it as PNG, and resizes it to 64x64 if it
// isn't already, returning re-encoded PNG bytes ready to embed in a
// status response.
func Load(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("favicon: open %s: %w", path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("favicon: decode %s: %w", path, err)
	}

	b := img.Bounds()
	if b.Dx() != size || b.Dy() != size {
		img = resize.Resize(size, size, img, resize.Lanczos3)
	}

	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, fmt.Errorf("favicon: encode: %w", err)
	}
	return out.Bytes(), nil
}
