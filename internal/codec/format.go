// Package codec implements the image decode/encode/tiling boundary
// the scaling pipeline consumes (spec.md §6).
package codec

// Format represents a pixel storage layout: channel count and the
// per-channel sample type (interleaved 8-bit integer or 32-bit float).
type Format uint8

const (
	// FormatRGB8 is interleaved 8-bit RGB (3 bytes per pixel, no alpha).
	FormatRGB8 Format = iota

	// FormatRGBA8 is interleaved 8-bit RGBA (4 bytes per pixel).
	FormatRGBA8

	// FormatRGB32F is interleaved 32-bit float RGB (12 bytes per pixel).
	// Used as working storage for resampling kernels (spec.md §4.4).
	FormatRGB32F

	// FormatRGBA32F is interleaved 32-bit float RGBA (16 bytes per pixel).
	FormatRGBA32F

	// formatCount is the number of known formats.
	formatCount
)

// FormatInfo describes the byte layout of a Format.
type FormatInfo struct {
	BytesPerPixel int
	Channels      int
	HasAlpha      bool
	IsFloat       bool
}

var formatInfoTable = [formatCount]FormatInfo{
	FormatRGB8:    {BytesPerPixel: 3, Channels: 3, HasAlpha: false, IsFloat: false},
	FormatRGBA8:   {BytesPerPixel: 4, Channels: 4, HasAlpha: true, IsFloat: false},
	FormatRGB32F:  {BytesPerPixel: 12, Channels: 3, HasAlpha: false, IsFloat: true},
	FormatRGBA32F: {BytesPerPixel: 16, Channels: 4, HasAlpha: true, IsFloat: true},
}

// Info returns the FormatInfo for this format.
func (f Format) Info() FormatInfo {
	if f >= formatCount {
		return FormatInfo{}
	}
	return formatInfoTable[f]
}

// BytesPerPixel returns the number of bytes per pixel for this format.
func (f Format) BytesPerPixel() int { return f.Info().BytesPerPixel }

// Channels returns the channel count (3 or 4 per spec.md §3).
func (f Format) Channels() int { return f.Info().Channels }

// HasAlpha returns true if this format carries an alpha channel.
func (f Format) HasAlpha() bool { return f.Info().HasAlpha }

// IsFloat returns true for 32-bit float working-storage formats.
func (f Format) IsFloat() bool { return f.Info().IsFloat }

// IsValid returns true if f is a recognized format.
func (f Format) IsValid() bool { return f < formatCount }

// String returns a human-readable format name.
func (f Format) String() string {
	switch f {
	case FormatRGB8:
		return "RGB8"
	case FormatRGBA8:
		return "RGBA8"
	case FormatRGB32F:
		return "RGB32F"
	case FormatRGBA32F:
		return "RGBA32F"
	default:
		return "Unknown"
	}
}

// RowBytes returns the number of bytes needed for a row of the given width.
func (f Format) RowBytes(width int) int { return width * f.BytesPerPixel() }

// ImageBytes returns the total number of bytes needed for an image of the
// given dimensions in this format.
func (f Format) ImageBytes(width, height int) int { return f.RowBytes(width) * height }

// FloatVersion returns the 32-bit float working-storage format with the
// same channel count as f (used when promoting decoded 8-bit pixels to
// kernel working storage, spec.md §4.4).
func (f Format) FloatVersion() Format {
	switch f {
	case FormatRGB8, FormatRGB32F:
		return FormatRGB32F
	default:
		return FormatRGBA32F
	}
}

// EncodeVersion returns the 8-bit interleaved format with the same channel
// count as f (used when clamping kernel output back down for encode).
func (f Format) EncodeVersion() Format {
	switch f {
	case FormatRGB8, FormatRGB32F:
		return FormatRGB8
	default:
		return FormatRGBA8
	}
}
