// Package helper is the small utility layer consumed by everything
// above it: hashing, gzip, base64, UUID generation, and human-readable
// durations. Each helper here is a handful of lines behind a clear
// name, not a framework.
package helper

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// SHA256Hex returns the lowercase hex-encoded SHA-256 digest of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// GzipCompress compresses data with the default gzip level.
func GzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("helper: gzip compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("helper: gzip compress: %w", err)
	}
	return buf.Bytes(), nil
}

// GzipDecompress reverses GzipCompress.
func GzipDecompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("helper: gzip decompress: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("helper: gzip decompress: %w", err)
	}
	return out, nil
}

// Base64Encode encodes data as standard base64.
func Base64Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Base64Decode reverses Base64Encode.
func Base64Decode(s string) ([]byte, error) {
	out, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("helper: base64 decode: %w", err)
	}
	return out, nil
}

// NewUUID generates a fresh UUIDv4, the identity type every persisted
// entity uses.
func NewUUID() uuid.UUID {
	return uuid.New()
}

// ReadableDuration renders a duration the way an operator-facing log
// line or notification would: whole units down to seconds, dropping any
// unit that's zero, e.g. "2h15m", "45s", "1d3h".
func ReadableDuration(d time.Duration) string {
	if d < 0 {
		return "-" + ReadableDuration(-d)
	}
	if d == 0 {
		return "0s"
	}
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second

	out := ""
	if days > 0 {
		out += fmt.Sprintf("%dd", days)
	}
	if hours > 0 {
		out += fmt.Sprintf("%dh", hours)
	}
	if minutes > 0 {
		out += fmt.Sprintf("%dm", minutes)
	}
	if seconds > 0 || out == "" {
		out += fmt.Sprintf("%ds", seconds)
	}
	return out
}
