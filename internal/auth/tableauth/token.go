// Package tableauth implements the table-scoped authorization token that
// gates access to a table's order and payment endpoints.
//
// The token is base64("table:<n>:time:<unix ms>"). It is not signed: anyone
// who knows the scheme can forge one, and the only real enforcement is the
// expiry check. Every consumer validates independently with its own TTL,
// which is why TTL is an argument here and not a property of the token.
package tableauth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidToken  = errors.New("tableauth: invalid token")
	ErrTableMismatch = errors.New("tableauth: token issued for a different table")
	ErrTokenExpired  = errors.New("tableauth: token expired")
)

// Token carries the decoded fields of a table auth token.
type Token struct {
	TableNumber int
	IssuedAt    time.Time
}

// Generate encodes a token for the table at the given time.
func Generate(tableNumber int, now time.Time) string {
	raw := fmt.Sprintf("table:%d:time:%d", tableNumber, now.UnixMilli())
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// Decode parses and structurally verifies the 4-part token.
func Decode(token string) (Token, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	parts := strings.Split(string(raw), ":")
	if len(parts) != 4 || parts[0] != "table" || parts[2] != "time" {
		return Token{}, ErrInvalidToken
	}

	tableNumber, err := strconv.Atoi(parts[1])
	if err != nil {
		return Token{}, fmt.Errorf("%w: bad table number", ErrInvalidToken)
	}
	issuedMs, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return Token{}, fmt.Errorf("%w: bad timestamp", ErrInvalidToken)
	}

	return Token{TableNumber: tableNumber, IssuedAt: time.UnixMilli(issuedMs)}, nil
}

// Validate checks token shape, table binding, and age against the caller's
// TTL. An empty token is invalid.
func Validate(token string, tableNumber int, ttl time.Duration, now time.Time) error {
	if token == "" {
		return ErrInvalidToken
	}

	decoded, err := Decode(token)
	if err != nil {
		return err
	}
	if decoded.TableNumber != tableNumber {
		return ErrTableMismatch
	}
	if now.Sub(decoded.IssuedAt) > ttl {
		return ErrTokenExpired
	}
	return nil
}
