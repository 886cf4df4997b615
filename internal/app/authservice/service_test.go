package authservice

import (
	"context"
	"testing"
	"time"

	"dinesync/internal/auth/tableauth"
	"dinesync/internal/shared/logger"
)

type fakeUoW struct{}

func (fakeUoW) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type storedToken struct {
	tableNumber int
	token       string
	issuedAt    time.Time
	expiresAt   time.Time
}

type fakeTokenRepo struct {
	stored        []storedToken
	evictedTables []int
}

func (r *fakeTokenRepo) DeleteExpired(ctx context.Context, tableNumber int, now time.Time) error {
	r.evictedTables = append(r.evictedTables, tableNumber)
	return nil
}

func (r *fakeTokenRepo) StoreToken(ctx context.Context, tableNumber int, token string, issuedAt, expiresAt time.Time) error {
	r.stored = append(r.stored, storedToken{tableNumber, token, issuedAt, expiresAt})
	return nil
}

type fakePublisher struct {
	events []string
}

func (p *fakePublisher) Publish(ctx context.Context, eventType string, payload map[string]any) bool {
	p.events = append(p.events, eventType)
	return true
}

func TestIssueToken(t *testing.T) {
	repo := &fakeTokenRepo{}
	pub := &fakePublisher{}
	svc := New(fakeUoW{}, repo, pub, logger.New("test"), time.Hour)
	now := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	issued, err := svc.IssueToken(context.Background(), 7)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	if issued.TableNumber != 7 {
		t.Errorf("table number = %d, want 7", issued.TableNumber)
	}
	if !issued.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("expires at = %v, want %v", issued.ExpiresAt, now.Add(time.Hour))
	}

	// the token must validate for its own table immediately
	if err := tableauth.Validate(issued.Token, 7, time.Hour, now); err != nil {
		t.Errorf("fresh token invalid: %v", err)
	}

	if len(repo.evictedTables) != 1 || repo.evictedTables[0] != 7 {
		t.Errorf("evicted tables = %v, want [7]", repo.evictedTables)
	}
	if len(repo.stored) != 1 || repo.stored[0].token != issued.Token {
		t.Errorf("stored tokens = %v", repo.stored)
	}

	if len(pub.events) != 1 || pub.events[0] != "table_authenticated" {
		t.Errorf("events = %v, want [table_authenticated]", pub.events)
	}
}

func TestIssueTokenInvalidTable(t *testing.T) {
	svc := New(fakeUoW{}, &fakeTokenRepo{}, &fakePublisher{}, logger.New("test"), time.Hour)

	if _, err := svc.IssueToken(context.Background(), 0); err == nil {
		t.Fatal("expected error for table 0")
	}
}
