package render

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	xdraw "golang.org/x/image/draw"
)

// ErrAssetLoad marks a missing or undecodable raster asset. It is fatal
// at startup: serving a map without its base image is pointless.
var ErrAssetLoad = errors.New("map asset unusable")

// IconWidth is the width the mower icon is scaled down to.
const IconWidth = 64

// loadImage decodes a PNG or JPEG raster from disk.
func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetLoad, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrAssetLoad, path, err)
	}
	return img, nil
}

// scaleIcon shrinks an icon to IconWidth, keeping its aspect ratio.
// Icons already narrow enough pass through untouched.
func scaleIcon(src image.Image) *image.RGBA {
	b := src.Bounds()
	if b.Dx() <= IconWidth {
		return toRGBA(src)
	}

	h := int(float64(b.Dy()) * float64(IconWidth) / float64(b.Dx()))
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, IconWidth, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}
