package payments

import (
	"regexp"
	"testing"
	"time"
)

func TestNewReceiptNumberFormat(t *testing.T) {
	now := time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC)
	got := NewReceiptNumber(now)

	pattern := regexp.MustCompile(`^REC-1772389800-[0-9a-f]{6}$`)
	if !pattern.MatchString(got) {
		t.Fatalf("receipt number %q does not match %s", got, pattern)
	}
}

func TestNewReceiptNumberUnique(t *testing.T) {
	now := time.Now()
	if NewReceiptNumber(now) == NewReceiptNumber(now) {
		t.Fatal("two receipts minted at the same instant collided")
	}
}
