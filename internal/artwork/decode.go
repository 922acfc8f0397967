package artwork

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/micro-nova/nowplaying/internal/models"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DefaultMaxEdge is the longest side, in pixels, of a decoded image.
const DefaultMaxEdge = 512

// MaxSourcePixels bounds the dimensions of an image before it is decoded.
// A small compressed file can expand to gigabytes of pixels.
const MaxSourcePixels = 40_000_000

// Decode turns raw image bytes into a PNG no larger than maxEdge on its
// longest side. The aspect ratio is kept; images already within bounds are
// only re-encoded.
func Decode(raw []byte, maxEdge int) (*models.ArtImage, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty image", models.ErrFetchFailure)
	}
	if maxEdge <= 0 {
		maxEdge = DefaultMaxEdge
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", models.ErrFetchFailure, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxSourcePixels {
		return nil, fmt.Errorf("%w: image is %dx%d, over the %d pixel limit",
			models.ErrFetchFailure, cfg.Width, cfg.Height, MaxSourcePixels)
	}

	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", models.ErrFetchFailure, err)
	}

	img := scaleToFit(src, maxEdge)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: encode %s as png: %v", models.ErrFetchFailure, format, err)
	}

	b := img.Bounds()
	return &models.ArtImage{
		ContentType: "image/png",
		Data:        buf.Bytes(),
		Width:       b.Dx(),
		Height:      b.Dy(),
	}, nil
}

func scaleToFit(src image.Image, maxEdge int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxEdge && h <= maxEdge {
		return src
	}
	nw, nh := maxEdge, maxEdge
	if w > h {
		nh = max(1, h*maxEdge/w)
	} else {
		nw = max(1, w*maxEdge/h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
