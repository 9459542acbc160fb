package utils

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestSealerRoundTrip(t *testing.T) {
	t.Parallel()

	key := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
	s, err := NewSealer(key)
	if err != nil {
		t.Fatalf("NewSealer() error = %v", err)
	}

	sealed, err := s.Encrypt("access-token")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if sealed == "access-token" || sealed == "" {
		t.Fatalf("Encrypt() = %q, want ciphertext", sealed)
	}
	plain, err := s.Decrypt(sealed)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if plain != "access-token" {
		t.Fatalf("Decrypt() = %q, want access-token", plain)
	}
}

func TestSealerEmptyPassthrough(t *testing.T) {
	t.Parallel()

	s, err := NewEphemeralSealer()
	if err != nil {
		t.Fatalf("NewEphemeralSealer() error = %v", err)
	}
	if got, _ := s.Encrypt(""); got != "" {
		t.Fatalf("Encrypt(\"\") = %q, want empty", got)
	}
	if got, _ := s.Decrypt(""); got != "" {
		t.Fatalf("Decrypt(\"\") = %q, want empty", got)
	}
}

func TestSealerRejectsForeignKey(t *testing.T) {
	t.Parallel()

	a, _ := NewEphemeralSealer()
	b, _ := NewEphemeralSealer()
	sealed, err := a.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if _, err := b.Decrypt(sealed); err == nil {
		t.Fatal("Decrypt() with another key succeeded, want error")
	}
}

func TestDecodeEncryptionKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  string
	}{
		{name: "empty", key: ""},
		{name: "not base64", key: "%%%"},
		{name: "short", key: base64.StdEncoding.EncodeToString([]byte("short"))},
	}
	for _, tc := range tests {
		if _, err := DecodeEncryptionKey(tc.key); err == nil {
			t.Fatalf("%s: DecodeEncryptionKey() error = nil, want error", tc.name)
		}
	}
}
