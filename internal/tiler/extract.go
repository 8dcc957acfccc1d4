package tiler

import (
	"fmt"

	"github.com/mranderson01901234/upscaler10x-sub004/internal/codec"
)

// Extract populates t.Data with the pixels of t.Source cropped from src,
// into a buffer owned exclusively by the tile (spec.md §4.2 "Extraction").
func Extract(src *codec.Image, t *Tile) error {
	region, err := src.Crop(t.Source.Left, t.Source.Top, t.Source.Width, t.Source.Height)
	if err != nil {
		return fmt.Errorf("tiler: extract tile (%d,%d): %w", t.TileX, t.TileY, err)
	}
	t.Data = region
	return nil
}

// Stitcher is the single writer to an output canvas, compositing resampled
// tiles as they complete (spec.md §4.2 "Stitching rule"). Tiles MAY finish
// resampling in any order; the Stitcher holds no lock of its own, so
// callers serialize Paste calls so every output pixel is written exactly
// once.
type Stitcher struct {
	canvas *codec.Image
}

// NewStitcher allocates the output canvas for a tiled job.
func NewStitcher(width, height int, format codec.Format) (*Stitcher, error) {
	canvas, err := codec.NewImage(width, height, format)
	if err != nil {
		return nil, fmt.Errorf("tiler: allocate output canvas: %w", err)
	}
	return &Stitcher{canvas: canvas}, nil
}

// Paste crops resampled (the resampler's output for t, already in the
// tile's float or 8-bit format) to t's stitching bounds and writes it into
// the canvas at t's output origin. Out-of-bounds pastes are a fatal error
// for the session per spec.md §4.2.
func (s *Stitcher) Paste(t Tile, resampled *codec.Image) error {
	crop := t.CroppedBounds(resampled.Width(), resampled.Height())
	if crop.Width <= 0 || crop.Height <= 0 {
		return fmt.Errorf("tiler: tile (%d,%d) crop produced an empty region", t.TileX, t.TileY)
	}

	cropped, err := resampled.Crop(crop.Left, crop.Top, crop.Width, crop.Height)
	if err != nil {
		return fmt.Errorf("tiler: tile (%d,%d) crop out of bounds: %w", t.TileX, t.TileY, err)
	}

	if t.OutputOriginX < 0 || t.OutputOriginY < 0 ||
		t.OutputOriginX+cropped.Width() > s.canvas.Width() ||
		t.OutputOriginY+cropped.Height() > s.canvas.Height() {
		return fmt.Errorf("tiler: tile (%d,%d) paste out of bounds at (%d,%d) size %dx%d into canvas %dx%d",
			t.TileX, t.TileY, t.OutputOriginX, t.OutputOriginY, cropped.Width(), cropped.Height(),
			s.canvas.Width(), s.canvas.Height())
	}

	bpp := s.canvas.Format().BytesPerPixel()
	dst := s.canvas.Bytes()
	src := cropped.Bytes()
	rowBytes := cropped.Width() * bpp
	for y := 0; y < cropped.Height(); y++ {
		dstStart := ((t.OutputOriginY+y)*s.canvas.Width() + t.OutputOriginX) * bpp
		srcStart := y * rowBytes
		copy(dst[dstStart:dstStart+rowBytes], src[srcStart:srcStart+rowBytes])
	}
	return nil
}

// Canvas returns the output canvas. Valid to call once every tile has been
// pasted.
func (s *Stitcher) Canvas() *codec.Image {
	return s.canvas
}
