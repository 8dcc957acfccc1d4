package codec

import (
	"bytes"
	"testing"
)

func testImage(t *testing.T) *Image {
	t.Helper()
	img, err := NewImage(4, 4, FormatRGBA8)
	if err != nil {
		t.Fatalf("NewImage: %v", err)
	}
	for i := range img.data {
		img.data[i] = byte(i % 256)
	}
	return img
}

func TestEncodeDecode_PNG_RoundTrip(t *testing.T) {
	img := testImage(t)

	var buf bytes.Buffer
	if err := Encode(&buf, img, ContainerPNG, EncodeOptions{}); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := DecodePixels(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("DecodePixels: %v", err)
	}
	if decoded.Width() != img.Width() || decoded.Height() != img.Height() {
		t.Fatalf("decoded dims = %dx%d, want %dx%d", decoded.Width(), decoded.Height(), img.Width(), img.Height())
	}
	if !bytes.Equal(decoded.Bytes(), img.Bytes()) {
		t.Error("PNG round trip did not preserve pixel bytes")
	}
}

func TestEncodeDecode_JPEG_RoundTrip(t *testing.T) {
	img := testImage(t)

	var buf bytes.Buffer
	if err := Encode(&buf, img, ContainerJPEG, EncodeOptions{Quality: 95}); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := DecodePixels(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("DecodePixels: %v", err)
	}
	if decoded.Width() != img.Width() || decoded.Height() != img.Height() {
		t.Fatalf("decoded dims = %dx%d, want %dx%d", decoded.Width(), decoded.Height(), img.Width(), img.Height())
	}
}

func TestDecodeMetadata(t *testing.T) {
	img := testImage(t)
	var buf bytes.Buffer
	if err := Encode(&buf, img, ContainerPNG, EncodeOptions{}); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	w, h, _, err := DecodeMetadata(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("DecodeMetadata: %v", err)
	}
	if w != 4 || h != 4 {
		t.Errorf("DecodeMetadata dims = %dx%d, want 4x4", w, h)
	}
}

func TestEncode_UnsupportedContainer(t *testing.T) {
	img := testImage(t)
	var buf bytes.Buffer
	err := Encode(&buf, img, Container(99), EncodeOptions{})
	if err != ErrUnsupportedContainer {
		t.Errorf("err = %v, want ErrUnsupportedContainer", err)
	}
}

func TestDecodePixelsBytes_Empty(t *testing.T) {
	if _, err := DecodePixelsBytes(nil); err == nil {
		t.Error("expected error decoding empty input")
	}
}

func TestEncode_ConvertsFloatWorkingStorage(t *testing.T) {
	f, err := NewImageFromFloat32(2, 2, FormatRGBA32F, []float32{
		1, 0, 0, 1,
		0, 1, 0, 1,
		0, 0, 1, 1,
		1, 1, 1, 1,
	})
	if err != nil {
		t.Fatalf("NewImageFromFloat32: %v", err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, f, ContainerPNG, EncodeOptions{}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := DecodePixels(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("DecodePixels: %v", err)
	}
	if decoded.Width() != 2 || decoded.Height() != 2 {
		t.Fatalf("decoded dims = %dx%d, want 2x2", decoded.Width(), decoded.Height())
	}
}
