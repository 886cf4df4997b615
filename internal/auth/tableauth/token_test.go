package tableauth

import (
	"encoding/base64"
	"errors"
	"strconv"
	"testing"
	"time"
)

func TestGenerateAndValidate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token := Generate(7, now)

	if err := Validate(token, 7, time.Hour, now.Add(30*time.Minute)); err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	decoded, err := Decode(Generate(42, now))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.TableNumber != 42 {
		t.Errorf("table number = %d, want 42", decoded.TableNumber)
	}
	if !decoded.IssuedAt.Equal(now) {
		t.Errorf("issued at = %v, want %v", decoded.IssuedAt, now)
	}
}

func TestValidateWrongTable(t *testing.T) {
	now := time.Now()
	token := Generate(3, now)

	err := Validate(token, 4, time.Hour, now)
	if !errors.Is(err, ErrTableMismatch) {
		t.Fatalf("expected ErrTableMismatch, got %v", err)
	}
}

// The same token can be live for one caller and expired for another; the TTL
// belongs to the validator, not the token.
func TestValidatePerCallerTTL(t *testing.T) {
	issued := time.Now()
	token := Generate(5, issued)
	at := issued.Add(2 * time.Hour)

	if err := Validate(token, 5, 24*time.Hour, at); err != nil {
		t.Errorf("24h window: expected valid, got %v", err)
	}
	if err := Validate(token, 5, time.Hour, at); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("1h window: expected ErrTokenExpired, got %v", err)
	}
}

func TestValidateMalformed(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not base64", "!!not-base64!!"},
		{"wrong shape", base64.StdEncoding.EncodeToString([]byte("chair:5:time:123"))},
		{"too few parts", base64.StdEncoding.EncodeToString([]byte("table:5"))},
		{"bad table number", base64.StdEncoding.EncodeToString([]byte("table:abc:time:123"))},
		{"bad timestamp", base64.StdEncoding.EncodeToString([]byte("table:5:time:xyz"))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := Validate(tc.token, 5, time.Hour, now); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

// The token is intentionally unsigned, so a hand-built token for the right
// table passes validation.
func TestForgedTokenPasses(t *testing.T) {
	now := time.Now()
	forged := base64.StdEncoding.EncodeToString(
		[]byte("table:9:time:" + strconv.FormatInt(now.UnixMilli(), 10)))

	if err := Validate(forged, 9, time.Hour, now); err != nil {
		t.Fatalf("forged token should validate, got %v", err)
	}
}
