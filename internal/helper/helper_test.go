package helper

import (
	"testing"
	"time"
)

func TestSHA256Hex(t *testing.T) {
	got := SHA256Hex([]byte("cipher"))
	if len(got) != 64 {
		t.Fatalf("expected 64 hex chars, got %d (%s)", len(got), got)
	}
}

func TestGzipRoundTrip(t *testing.T) {
	orig := []byte("the quick brown fox jumps over the lazy dog, repeated repeated repeated")
	compressed, err := GzipCompress(orig)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	got, err := GzipDecompress(compressed)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if string(got) != string(orig) {
		t.Errorf("round trip mismatch: got %q want %q", got, orig)
	}
}

func TestBase64RoundTrip(t *testing.T) {
	orig := []byte{0, 1, 2, 250, 251, 252}
	encoded := Base64Encode(orig)
	got, err := Base64Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(got) != string(orig) {
		t.Errorf("round trip mismatch")
	}
}

func TestNewUUIDUnique(t *testing.T) {
	a := NewUUID()
	b := NewUUID()
	if a == b {
		t.Error("expected distinct UUIDs")
	}
}

func TestReadableDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{45 * time.Second, "45s"},
		{2*time.Hour + 15*time.Minute, "2h15m"},
		{24*time.Hour + 3*time.Hour, "1d3h"},
	}
	for _, c := range cases {
		if got := ReadableDuration(c.d); got != c.want {
			t.Errorf("ReadableDuration(%v) = %q, want %q", c.d, got, c.want)
		}
	}
}
