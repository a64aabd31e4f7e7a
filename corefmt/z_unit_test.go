package corefmt

import (
	"bytes"
	"testing"
)

func TestBlobFrameRoundtrip(t *testing.T) {
	payload := []byte("snapshot-bytes-0123456789")
	frame := EncodeBlobFrame(payload)
	got, err := DecodeBlobFrame(frame)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch: %q vs %q", got, payload)
	}

	if _, err := DecodeBlobFrame(frame[:len(frame)-3]); err == nil {
		t.Fatalf("expected error on truncated frame")
	}
}

func TestZstdFrameRoundtrip(t *testing.T) {
	payload := bytes.Repeat([]byte{0, 1, 2, 3}, 1024)
	frame, err := EncodeZstdFrame(payload)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if len(frame) >= len(payload) {
		t.Fatalf("repetitive payload should compress: frame=%d payload=%d", len(frame), len(payload))
	}
	got, err := DecodeZstdFrame(frame, 1<<20)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch after roundtrip")
	}

	if _, err := DecodeZstdFrame(frame, 16); err == nil {
		t.Fatalf("expected error when payload exceeds maxBytes")
	}
}
