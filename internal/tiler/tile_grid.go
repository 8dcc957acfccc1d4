package tiler

import "math"

// OverlapOutput is the fixed overlap, in output pixels, every tile carries
// on each interior edge (spec.md §3).
const OverlapOutput = 64

// TileGrid is the tiling geometry derived from a source image's dimensions
// and the requested scale factor (spec.md §3/§4.2). It holds no pixel data;
// pixel extraction happens per Tile via Extract.
type TileGrid struct {
	// InputWidth, InputHeight are the source image dimensions.
	InputWidth, InputHeight int

	// Scale is the scale factor this grid was built for.
	Scale float64

	// InputTileSize is the square tile side in source pixels, one of
	// {512, 1024, 1536, 2048}.
	InputTileSize int

	// OverlapInput is round(OverlapOutput / Scale).
	OverlapInput int

	// Stride is InputTileSize - OverlapInput.
	Stride int

	// TilesX, TilesY are the tile grid dimensions.
	TilesX, TilesY int
}

// selectInputTileSize picks input_tile_size from the output-side length,
// per spec.md §4.2's tile-sizing rule.
func selectInputTileSize(outputSide int) int {
	switch {
	case outputSide > 8000:
		return 2048
	case outputSide < 2000:
		return 512
	default:
		return 1024
	}
}

// NewTileGrid builds the tiling geometry for a source image of the given
// dimensions at the given scale factor.
func NewTileGrid(inputWidth, inputHeight int, scale float64) *TileGrid {
	outputSide := int(math.Round(float64(max(inputWidth, inputHeight)) * scale))
	tileSize := selectInputTileSize(outputSide)
	overlapInput := int(math.Round(OverlapOutput / scale))
	if overlapInput < 0 {
		overlapInput = 0
	}
	stride := tileSize - overlapInput
	if stride < 1 {
		stride = 1
	}

	g := &TileGrid{
		InputWidth:    inputWidth,
		InputHeight:   inputHeight,
		Scale:         scale,
		InputTileSize: tileSize,
		OverlapInput:  overlapInput,
		Stride:        stride,
	}
	g.TilesX = ceilDiv(inputWidth, stride)
	g.TilesY = ceilDiv(inputHeight, stride)
	return g
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// TileCount returns TilesX * TilesY.
func (g *TileGrid) TileCount() int { return g.TilesX * g.TilesY }

// Tile builds the Tile at grid position (tx, ty): its source extraction
// rectangle (spec.md §4.2 "Extraction"), its stitching crop amounts, and
// the output-canvas origin the cropped tile pastes at (spec.md §4.2
// "Stitching rule").
func (g *TileGrid) Tile(tx, ty int) Tile {
	startX := max(0, tx*g.Stride-g.OverlapInput)
	startY := max(0, ty*g.Stride-g.OverlapInput)
	endX := min(g.InputWidth, startX+g.InputTileSize+g.OverlapInput)
	endY := min(g.InputHeight, startY+g.InputTileSize+g.OverlapInput)

	t := Tile{
		TileX: tx,
		TileY: ty,
		Source: Rect{
			Left:   startX,
			Top:    startY,
			Width:  endX - startX,
			Height: endY - startY,
		},
	}

	if tx > 0 {
		t.CropLeft = OverlapOutput
	}
	if ty > 0 {
		t.CropTop = OverlapOutput
	}
	if tx < g.TilesX-1 {
		t.CropRight = OverlapOutput
	}
	if ty < g.TilesY-1 {
		t.CropBottom = OverlapOutput
	}

	t.OutputOriginX = int(math.Round(float64(startX)*g.Scale)) + t.CropLeft
	t.OutputOriginY = int(math.Round(float64(startY)*g.Scale)) + t.CropTop

	return t
}

// Tiles returns every Tile in the grid, in row-major order.
func (g *TileGrid) Tiles() []Tile {
	out := make([]Tile, 0, g.TileCount())
	for ty := 0; ty < g.TilesY; ty++ {
		for tx := 0; tx < g.TilesX; tx++ {
			out = append(out, g.Tile(tx, ty))
		}
	}
	return out
}

// OutputWidth and OutputHeight are the final canvas dimensions: round(W*S)
// and round(H*S).
func (g *TileGrid) OutputWidth() int {
	return int(math.Round(float64(g.InputWidth) * g.Scale))
}

func (g *TileGrid) OutputHeight() int {
	return int(math.Round(float64(g.InputHeight) * g.Scale))
}
