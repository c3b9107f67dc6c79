package artifact

import (
	"bytes"
	"testing"
)

func TestSealRoundTrip(t *testing.T) {
	sealer, err := NewSealer("correct horse battery staple")
	if err != nil {
		t.Fatalf("NewSealer() error = %v", err)
	}

	plaintext := []byte(`{"submissionId":"s-1"}`)
	sealed, err := sealer.Seal(plaintext)
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if bytes.Contains(sealed, plaintext) {
		t.Error("sealed output contains the plaintext")
	}

	opened, err := sealer.Open(sealed)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Errorf("Open() = %q, want %q", opened, plaintext)
	}
}

func TestSealNonDeterministic(t *testing.T) {
	sealer, err := NewSealer("key")
	if err != nil {
		t.Fatalf("NewSealer() error = %v", err)
	}

	a, err := sealer.Seal([]byte("payload"))
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	b, err := sealer.Seal([]byte("payload"))
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if bytes.Equal(a, b) {
		t.Error("two seals of the same payload are identical, want distinct nonces")
	}
}

func TestOpenWithWrongKey(t *testing.T) {
	sealer, _ := NewSealer("key-one")
	other, _ := NewSealer("key-two")

	sealed, err := sealer.Seal([]byte("payload"))
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if _, err := other.Open(sealed); err == nil {
		t.Error("Open() with a different key succeeded, want error")
	}
}

func TestNewSealerEmptyKey(t *testing.T) {
	if _, err := NewSealer(""); err == nil {
		t.Error("NewSealer(\"\") succeeded, want error")
	}
}
