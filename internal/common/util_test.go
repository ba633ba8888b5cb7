package common

import (
	"encoding/hex"
	"errors"
	"testing"
)

// ---------- MakeRandHexString ----------

func TestMakeRandHexString_LengthAndHex(t *testing.T) {
	const n = 16
	s, err := MakeRandHexString(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != n*2 {
		t.Fatalf("expected hex length %d, got %d", n*2, len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		t.Fatalf("string is not valid hex: %v", err)
	}
}

func TestMakeRandHexString_ZeroSize(t *testing.T) {
	s, err := MakeRandHexString(0)
	if err != nil {
		t.Fatalf("unexpected error for size=0: %v", err)
	}
	if s != "" {
		t.Fatalf("expected empty string for size=0, got %q", s)
	}
}

func TestMakeRandHexString_EntropyHint(t *testing.T) {
	const n = 32
	a, err := MakeRandHexString(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := MakeRandHexString(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a == b {
		t.Logf("warning: two MakeRandHexString(%d) results are identical; extremely unlikely", n)
	}
}

// ---------- GenerateRandByteArray ----------

func TestGenerateRandByteArray_Basic(t *testing.T) {
	const n = 24
	buf := GenerateRandByteArray(n)
	if buf == nil {
		t.Fatalf("expected non-nil slice")
	}
	if len(buf) != n {
		t.Fatalf("expected length %d, got %d", n, len(buf))
	}
}

func TestGenerateRandByteArray_EntropyHint(t *testing.T) {
	const n = 32
	a := GenerateRandByteArray(n)
	b := GenerateRandByteArray(n)

	if len(a) != n || len(b) != n {
		t.Fatalf("unexpected lengths: %d, %d", len(a), len(b))
	}

	identical := true
	for i := range a {
		if a[i] != b[i] {
			identical = false
			break
		}
	}
	if identical {
		t.Logf("warning: two GenerateRandByteArray(%d) results are identical; extremely unlikely", n)
	}
}

func TestValidationError_AddAndMessage(t *testing.T) {
	e := NewValidationError("email", "Enter a valid email address.")
	e.Add("password", "This password is too short. It must contain at least 8 characters.")
	e.Add("password", "This password is entirely numeric.")

	if len(e.Fields["password"]) != 2 {
		t.Fatalf("expected 2 password messages, got %v", e.Fields["password"])
	}
	want := "validation failed: email: Enter a valid email address., password: This password is too short. It must contain at least 8 characters.; This password is entirely numeric."
	if e.Error() != want {
		t.Fatalf("unexpected message:\n got %q\nwant %q", e.Error(), want)
	}
}

func TestAuthenticationFailed_UnwrapsCause(t *testing.T) {
	err := AuthenticationFailed("Access token has expired. Please login again", ErrTokenExpired)

	var af *AuthenticationFailedError
	if !errors.As(err, &af) {
		t.Fatalf("expected *AuthenticationFailedError, got %T", err)
	}
	if af.Detail != "Access token has expired. Please login again" {
		t.Fatalf("unexpected detail %q", af.Detail)
	}
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected cause to be ErrTokenExpired")
	}
}
