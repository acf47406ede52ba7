package raster

import (
	"fmt"
	"image"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"

	perrors "github.com/provide-io/pwakit/pkg/pwa/errors"
)

// Resize produces a side×side raster with a Lanczos-3 filter.
//
// The source keeps its aspect ratio: it is scaled to the largest fit and
// centered on a transparent canvas. Sources smaller than side are upscaled.
// The result never aliases src.
func Resize(src *image.NRGBA, side uint) (*image.NRGBA, error) {
	if side == 0 {
		return nil, fmt.Errorf("%w: icon side must be positive", perrors.ErrEncode)
	}
	b := src.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: source has no pixels", perrors.ErrEncode)
	}

	w, h := fit(uint(b.Dx()), uint(b.Dy()), side)
	scaled := resize.Resize(w, h, src, resize.Lanczos3)

	dst := image.NewNRGBA(image.Rect(0, 0, int(side), int(side)))
	at := image.Pt((int(side)-int(w))/2, (int(side)-int(h))/2)
	draw.Draw(dst, image.Rectangle{Min: at, Max: at.Add(image.Pt(int(w), int(h)))}, scaled, scaled.Bounds().Min, draw.Src)

	return dst, nil
}

// fit returns the aspect-preserving dimensions of a w×h image scaled so its
// longer edge equals side.
func fit(w, h, side uint) (uint, uint) {
	switch {
	case w == h:
		return side, side
	case w > h:
		return side, max(1, (h*side+w/2)/w)
	default:
		return max(1, (w*side+h/2)/h), side
	}
}
