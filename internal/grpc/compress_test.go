package grpc

import (
	"bytes"
	"testing"
)

func TestGZIPCompressorRoundTrip(t *testing.T) {
	compressor := NewGZIPCompressor()
	if compressor.Name() != "gzip" {
		t.Fatalf("unexpected codec name %q", compressor.Name())
	}

	payload := []byte(`{"speed":42.5,"gear":"3"}`)
	compressed, err := compressor.Compress(payload)
	if err != nil {
		t.Fatalf("Compress() error: %v", err)
	}
	restored, err := compressor.Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress() error: %v", err)
	}
	if !bytes.Equal(restored, payload) {
		t.Fatalf("round trip mismatch: %q != %q", restored, payload)
	}

	//1.- Empty payloads must fail decompression instead of returning garbage.
	if _, err := compressor.Decompress(nil); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestZstdCompressorRoundTrip(t *testing.T) {
	compressor, err := NewZstdCompressor()
	if err != nil {
		t.Fatalf("NewZstdCompressor() error: %v", err)
	}
	if compressor.Name() != "zstd" {
		t.Fatalf("unexpected codec name %q", compressor.Name())
	}

	payload := bytes.Repeat([]byte(`{"lat":12.9716,"lng":77.5946}`), 32)
	compressed, err := compressor.Compress(payload)
	if err != nil {
		t.Fatalf("Compress() error: %v", err)
	}
	//1.- Repetitive telemetry should shrink noticeably under zstd.
	if len(compressed) >= len(payload) {
		t.Fatalf("expected compression, got %d >= %d", len(compressed), len(payload))
	}

	restored, err := compressor.Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress() error: %v", err)
	}
	if !bytes.Equal(restored, payload) {
		t.Fatal("round trip mismatch")
	}

	//2.- Corrupted frames surface a decode error.
	if _, err := compressor.Decompress([]byte("not zstd")); err == nil {
		t.Fatal("expected error for corrupt payload")
	}
}
