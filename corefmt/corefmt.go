// Package corefmt 提供 Core 快照 ([]byte) 的傳輸編碼工具。
//
// 快照本質是 BLOB：能走二進位通道 (檔案、application/octet-stream) 就走二進位；
// 需要進 JSON/URL 時才用 Base64/Base64URL；需要人眼核對時用 Hex。
package corefmt

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/zintix-labs/matchlab/errs"
)

func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func DecodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(err, "decode base64 failed")
	}
	return b, err
}

func EncodeBase64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func DecodeBase64URL(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(err, "decode base64url failed")
	}
	return b, err
}

func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}

func DecodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(err, "decode hex failed")
	}
	return b, err
}

// EncodeBlobFrame encodes raw bytes into a length-prefixed binary frame.
//
//	frame := uvarint(len(payload)) || payload
//
// Notes:
//   - This format is NOT JSON-friendly. If you need JSON/HTTP text transport, use Base64/Base64URL.
//   - The length prefix uses unsigned varint (encoding/binary).
func EncodeBlobFrame(payload []byte) []byte {
	var hdr [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(hdr[:], uint64(len(payload)))

	out := make([]byte, 0, n+len(payload))
	out = append(out, hdr[:n]...)
	out = append(out, payload...)
	return out
}

// DecodeBlobFrame decodes a length-prefixed binary frame produced by EncodeBlobFrame.
// It returns an error if the frame is malformed or truncated.
func DecodeBlobFrame(frame []byte) ([]byte, error) {
	n, size := binary.Uvarint(frame)
	if size <= 0 {
		return nil, errs.NewWarn("decode blob frame failed: invalid varint length")
	}
	if uint64(len(frame)-size) < n {
		return nil, errs.NewWarn("decode blob frame failed: truncated payload")
	}
	payload := frame[size : size+int(n)]
	// Return a copy to avoid retaining the entire frame backing array.
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

// WriteBlobFrame writes a length-prefixed binary frame into w.
//
// This is useful for writing snapshots to disk or piping them through a binary channel.
func WriteBlobFrame(w io.Writer, payload []byte) error {
	var hdr [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(hdr[:], uint64(len(payload)))
	if _, err := w.Write(hdr[:n]); err != nil {
		return errs.Wrap(err, "write blob frame header failed")
	}
	if _, err := w.Write(payload); err != nil {
		return errs.Wrap(err, "write blob frame payload failed")
	}
	return nil
}

// ReadBlobFrame reads a length-prefixed binary frame from r.
//
// maxBytes is a safety cap to prevent unbounded allocations when reading untrusted input.
// If you read only trusted local files, you can pass a large maxBytes.
func ReadBlobFrame(r io.Reader, maxBytes uint64) ([]byte, error) {
	br := bufio.NewReader(r)
	ln, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, errs.Wrap(err, "read blob frame header failed")
	}
	if maxBytes > 0 && ln > maxBytes {
		return nil, errs.NewWarn("read blob frame failed: payload exceeds maxBytes")
	}
	buf := make([]byte, ln)
	if _, err := io.ReadFull(br, buf); err != nil {
		return nil, errs.Wrap(err, "read blob frame payload failed")
	}
	return buf, nil
}

// EncodeZstdFrame compresses payload with zstd and wraps it into a blob frame.
//
// 用於大量盤面/核心快照落盤：重播檔、模擬器的 per-move 紀錄匯出。
// 快照本身熵不高 (棋盤大量重複 byte)，zstd 通常能壓到三成以下。
func EncodeZstdFrame(payload []byte) ([]byte, error) {
	zw, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, errs.Wrap(err, "create zstd writer failed")
	}
	compressed := zw.EncodeAll(payload, make([]byte, 0, len(payload)/2+16))
	if err := zw.Close(); err != nil {
		return nil, errs.Wrap(err, "close zstd writer failed")
	}
	return EncodeBlobFrame(compressed), nil
}

// DecodeZstdFrame is the counterpart of EncodeZstdFrame.
//
// maxBytes caps the decompressed size (0 = no cap); untrusted input must set it.
func DecodeZstdFrame(frame []byte, maxBytes uint64) ([]byte, error) {
	compressed, err := DecodeBlobFrame(frame)
	if err != nil {
		return nil, err
	}
	zr, err := zstd.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, errs.Wrap(err, "create zstd reader failed")
	}
	defer zr.Close()

	var r io.Reader = zr
	if maxBytes > 0 {
		r = io.LimitReader(zr, int64(maxBytes)+1)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.Wrap(err, "read zstd payload failed")
	}
	if maxBytes > 0 && uint64(len(out)) > maxBytes {
		return nil, errs.NewWarn("decode zstd frame failed: payload exceeds maxBytes")
	}
	return out, nil
}
