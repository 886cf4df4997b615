package authservice

import (
	"context"
	"errors"
	"time"

	"dinesync/internal/auth/tableauth"
	"dinesync/internal/ports"
	"dinesync/internal/shared/contracts"
	"dinesync/internal/shared/logger"
)

// Service issues table session tokens. The token itself carries the table
// number and issue time; the stored row only exists for auditing and lazy
// cleanup, validation never reads it.
type Service struct {
	uow       ports.UnitOfWork
	repo      ports.TokenRepository
	publisher ports.Publisher
	logger    *logger.Logger
	issueTTL  time.Duration
	now       func() time.Time
}

var _ ports.TokenService = (*Service)(nil)

// New creates the auth service. issueTTL only drives the advertised
// expires_at; each consuming service enforces its own validation window.
func New(uow ports.UnitOfWork, repo ports.TokenRepository, publisher ports.Publisher, log *logger.Logger, issueTTL time.Duration) *Service {
	return &Service{
		uow:       uow,
		repo:      repo,
		publisher: publisher,
		logger:    log,
		issueTTL:  issueTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// IssueToken mints a fresh token for the table, evicting the table's expired
// rows on the way.
func (service *Service) IssueToken(ctx context.Context, tableNumber int) (ports.IssuedToken, error) {
	if tableNumber < 1 {
		return ports.IssuedToken{}, errors.New("table_number is required")
	}

	issuedAt := service.now()
	token := tableauth.Generate(tableNumber, issuedAt)
	expiresAt := issuedAt.Add(service.issueTTL)

	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		if err := service.repo.DeleteExpired(txCtx, tableNumber, issuedAt); err != nil {
			return err
		}
		return service.repo.StoreToken(txCtx, tableNumber, token, issuedAt, expiresAt)
	})
	if err != nil {
		service.logger.Error(ctx, "token_store_failed", "failed to store table token", err)
		return ports.IssuedToken{}, err
	}

	service.publisher.Publish(ctx, contracts.EventTableAuthenticated, map[string]any{
		"table_number": tableNumber,
		"timestamp":    issuedAt.Unix(),
	})

	service.logger.Info(ctx, "token_issued", "table token issued", map[string]any{
		"table_number": tableNumber,
		"expires_at":   expiresAt,
	})

	return ports.IssuedToken{
		Token:       token,
		TableNumber: tableNumber,
		ExpiresAt:   expiresAt,
	}, nil
}
