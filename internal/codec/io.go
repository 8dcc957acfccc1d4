package codec

import (
	"bytes"
	"errors"
	"fmt"
	stdimage "image"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/tiff"

	"github.com/deepteams/webp"
)

// Container is the on-disk encoding spec.md §6's decode/encode boundary
// understands.
type Container uint8

const (
	// ContainerPNG is lossless PNG.
	ContainerPNG Container = iota
	// ContainerJPEG is lossy JPEG.
	ContainerJPEG
	// ContainerWebP is the WebP container (lossy VP8 or lossless VP8L).
	ContainerWebP
	// ContainerTIFF is TIFF with LZW or no compression.
	ContainerTIFF
)

// ErrUnsupportedContainer is returned when a Container value is not one of
// the constants above.
var ErrUnsupportedContainer = errors.New("codec: unsupported container")

// EncodeOptions configures the encode boundary (spec.md §6's quality and
// compression parameters).
type EncodeOptions struct {
	// Quality is the JPEG/WebP lossy quality, 1-100. Ignored for PNG and
	// lossless WebP.
	Quality int
	// Lossless requests VP8L encoding when Container is ContainerWebP.
	Lossless bool
	// TIFFCompression selects "lzw" or "none"; any other value (including
	// the zero value) is treated as "lzw".
	TIFFCompression string
}

func init() {
	stdimage.RegisterFormat("webp", "RIFF????WEBP", webp.Decode, webp.DecodeConfig)
}

// DecodeMetadata reads just the dimensions a container declares, without
// decoding pixel data, so a caller can size a TileGrid before committing to
// a full decode (spec.md §6 "decode_metadata").
func DecodeMetadata(r io.Reader) (width, height int, format Format, err error) {
	cfg, _, err := stdimage.DecodeConfig(r)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("codec: decode metadata: %w", err)
	}
	return cfg.Width, cfg.Height, FormatRGBA8, nil
}

// DecodePixels decodes full pixel data from r into an Image, auto-detecting
// the container from its header (spec.md §6 "decode_pixels"). The result is
// FormatRGBA8 when the decoded image's type has an alpha channel
// (image.NRGBA, RGBA, NRGBA64 or RGBA64), even if every pixel is opaque,
// and FormatRGB8 otherwise.
func DecodePixels(r io.Reader) (*Image, error) {
	src, _, err := stdimage.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("codec: decode pixels: %w", err)
	}
	return fromStdImage(src), nil
}

// DecodePixelsBytes is DecodePixels over an in-memory buffer.
func DecodePixelsBytes(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, errors.New("codec: empty input")
	}
	return DecodePixels(bytes.NewReader(data))
}

// Encode writes img to w in the requested container (spec.md §6 "encode").
// A float working-storage img is converted to 8-bit with Image.FromFloat
// before encoding.
func Encode(w io.Writer, img *Image, container Container, opts EncodeOptions) error {
	if img.format.IsFloat() {
		img = img.FromFloat()
	}
	switch container {
	case ContainerPNG:
		return encodePNG(w, img)
	case ContainerJPEG:
		return encodeJPEG(w, img, opts)
	case ContainerWebP:
		return encodeWebP(w, img, opts)
	case ContainerTIFF:
		return encodeTIFF(w, img, opts)
	default:
		return ErrUnsupportedContainer
	}
}

// EncodeToBytes is Encode into an in-memory buffer.
func EncodeToBytes(img *Image, container Container, opts EncodeOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, container, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodePNG(w io.Writer, img *Image) error {
	if err := png.Encode(w, toStdImage(img)); err != nil {
		return fmt.Errorf("codec: encode PNG: %w", err)
	}
	return nil
}

func encodeJPEG(w io.Writer, img *Image, opts EncodeOptions) error {
	quality := opts.Quality
	if quality <= 0 {
		quality = 90
	}
	if quality > 100 {
		quality = 100
	}
	if err := jpeg.Encode(w, toStdImage(img), &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("codec: encode JPEG: %w", err)
	}
	return nil
}

func encodeWebP(w io.Writer, img *Image, opts EncodeOptions) error {
	quality := float32(opts.Quality)
	if quality <= 0 {
		quality = 90
	}
	webpOpts := webp.DefaultOptions()
	webpOpts.Lossless = opts.Lossless
	webpOpts.Quality = quality
	if err := webp.Encode(w, toStdImage(img), webpOpts); err != nil {
		return fmt.Errorf("codec: encode WebP: %w", err)
	}
	return nil
}

func encodeTIFF(w io.Writer, img *Image, opts EncodeOptions) error {
	compression := tiff.LZW
	if opts.TIFFCompression == "none" {
		compression = tiff.Uncompressed
	}
	tiffOpts := &tiff.Options{Compression: compression, Predictor: true}
	if err := tiff.Encode(w, toStdImage(img), tiffOpts); err != nil {
		return fmt.Errorf("codec: encode TIFF: %w", err)
	}
	return nil
}

// fromStdImage converts a decoded standard-library image into a codec.Image,
// preserving the alpha channel when the source's concrete type carries one.
func fromStdImage(src stdimage.Image) *Image {
	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	format := FormatRGB8
	if hasAlphaChannel(src) {
		format = FormatRGBA8
	}

	out, _ := NewImage(width, height, format)
	ch := format.Channels()

	if nrgba, ok := src.(*stdimage.NRGBA); ok && format == FormatRGBA8 {
		for y := 0; y < height; y++ {
			srcStart := y * nrgba.Stride
			dstStart := y * width * 4
			copy(out.data[dstStart:dstStart+width*4], nrgba.Pix[srcStart:srcStart+width*4])
		}
		return out
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, a := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			off := (y*width + x) * ch
			out.data[off] = byte(r >> 8)
			out.data[off+1] = byte(g >> 8)
			out.data[off+2] = byte(b >> 8)
			if ch == 4 {
				out.data[off+3] = byte(a >> 8)
			}
		}
	}
	return out
}

// hasAlphaChannel reports whether src's concrete type carries an alpha
// channel at all, independent of whether any individual pixel happens to
// be transparent.
func hasAlphaChannel(src stdimage.Image) bool {
	switch src.(type) {
	case *stdimage.NRGBA, *stdimage.RGBA, *stdimage.NRGBA64, *stdimage.RGBA64:
		return true
	default:
		return false
	}
}

// toStdImage converts a codec.Image (8-bit, RGB or RGBA) to a standard
// library image.Image for handoff to an encoder.
func toStdImage(img *Image) stdimage.Image {
	rect := stdimage.Rect(0, 0, img.width, img.height)
	ch := img.format.Channels()

	if ch == 4 {
		nrgba := stdimage.NewNRGBA(rect)
		for y := 0; y < img.height; y++ {
			srcStart := y * img.width * 4
			dstStart := y * nrgba.Stride
			copy(nrgba.Pix[dstStart:dstStart+img.width*4], img.data[srcStart:srcStart+img.width*4])
		}
		return nrgba
	}

	nrgba := stdimage.NewNRGBA(rect)
	for y := 0; y < img.height; y++ {
		for x := 0; x < img.width; x++ {
			so := (y*img.width + x) * 3
			do := y*nrgba.Stride + x*4
			nrgba.Pix[do] = img.data[so]
			nrgba.Pix[do+1] = img.data[so+1]
			nrgba.Pix[do+2] = img.data[so+2]
			nrgba.Pix[do+3] = 255
		}
	}
	return nrgba
}
