package tiler

import "github.com/mranderson01901234/upscaler10x-sub004/internal/codec"

// Rect is an axis-aligned pixel rectangle, used both in source coordinates
// (the extraction region) and output coordinates (the composited region).
type Rect struct {
	Left, Top, Width, Height int
}

// Right returns Left+Width.
func (r Rect) Right() int { return r.Left + r.Width }

// Bottom returns Top+Height.
func (r Rect) Bottom() int { return r.Top + r.Height }

// Tile is one unit of the Tiler's work: a source-space extraction region,
// the output-space region it contributes to the composited canvas once its
// overlap halo is cropped, and (once extracted) the source pixels of its
// Source region, halo included (spec.md §4.2).
type Tile struct {
	// TileX, TileY are the tile's column/row index in the grid.
	TileX, TileY int

	// Source is the extraction rectangle in source-image coordinates,
	// including the overlap halo on interior edges.
	Source Rect

	// CropLeft, CropTop, CropRight, CropBottom are the overlap_output
	// pixel counts to discard from each edge of the resampled tile before
	// compositing (spec.md §4.2's stitching rule): overlap_output on any
	// edge that borders a neighboring tile, zero on a grid boundary edge.
	CropLeft, CropTop, CropRight, CropBottom int

	// OutputOrigin is the (round(source_left*scale), round(source_top*scale))
	// + (CropLeft, CropTop) position where the cropped tile is pasted into
	// the output canvas.
	OutputOriginX, OutputOriginY int

	// Data holds the tile's pixels once Extract or the resampler has
	// populated it; nil before extraction.
	Data *codec.Image
}

// CroppedBounds returns the rectangle, in the tile's own local pixel space
// (0,0 at the tile's own top-left), that survives the stitching crop.
func (t *Tile) CroppedBounds(resampledWidth, resampledHeight int) Rect {
	left := t.CropLeft
	top := t.CropTop
	right := resampledWidth - t.CropRight
	bottom := resampledHeight - t.CropBottom
	if right < left {
		right = left
	}
	if bottom < top {
		bottom = top
	}
	return Rect{Left: left, Top: top, Width: right - left, Height: bottom - top}
}
