// Package ledger holds the journal operations: the chart of accounts,
// posting and amending entries, and balances.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/uow"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/validate"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/ledger"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/logger"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Service handles journal operations
type Service struct {
	scope     uow.TransactionScope
	logger    *zap.Logger
	publisher shared.EventPublisher
	metrics   *telemetry.LedgerMetrics
}

// NewService creates a new ledger Service
func NewService(scope uow.TransactionScope, logger *zap.Logger) *Service {
	return &Service{scope: scope, logger: logger}
}

// SetEventPublisher sets the publisher used after commit
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetMetrics sets the metrics recorder
func (s *Service) SetMetrics(m *telemetry.LedgerMetrics) {
	s.metrics = m
}

// CreateAccount creates an account. Codes are unique.
func (s *Service) CreateAccount(ctx context.Context, req CreateAccountRequest) (*ledger.Account, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	acc, err := ledger.NewAccount(req.Code, req.Name, ledger.AccountType(req.Type), ledger.NormalBalance(req.NormalBalance), req.IsCash)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		if _, err := repos.Accounts().FindByCode(ctx, acc.Code); err == nil {
			return shared.Newf(shared.CodeAlreadyExists, "Account %s already exists", acc.Code)
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		return repos.Accounts().Save(ctx, acc)
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// FindAccountByCode returns the account with code
func (s *Service) FindAccountByCode(ctx context.Context, code string) (*ledger.Account, error) {
	var acc *ledger.Account
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		acc, err = repos.Accounts().FindByCode(ctx, code)
		return err
	})
	return acc, err
}

// ListAccounts returns the chart ordered by code
func (s *Service) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	var out []ledger.Account
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		out, err = repos.Accounts().FindAll(ctx)
		return err
	})
	return out, err
}

// SeedChartOfAccounts creates every standard account that does not exist yet
func (s *Service) SeedChartOfAccounts(ctx context.Context) (*SeedResult, error) {
	result := &SeedResult{}
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		for _, spec := range ledger.StandardChart() {
			_, err := repos.Accounts().FindByCode(ctx, spec.Code)
			if err == nil {
				result.Existing++
				continue
			}
			if !errors.Is(err, shared.ErrNotFound) {
				return err
			}
			acc, err := ledger.NewAccount(spec.Code, spec.Name, spec.Type, spec.NormalBalance, spec.IsCash)
			if err != nil {
				return err
			}
			if err := repos.Accounts().Save(ctx, acc); err != nil {
				return fmt.Errorf("failed to seed account %s: %w", spec.Code, err)
			}
			result.Created = append(result.Created, spec.Code)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("chart of accounts seeded",
		zap.Int("created", len(result.Created)),
		zap.Int("existing", result.Existing),
	)
	return result, nil
}

// PostEntry posts a balanced journal entry. Unbalanced lines fail with
// UNBALANCED_ENTRY; nothing is auto-balanced.
func (s *Service) PostEntry(ctx context.Context, req PostEntryRequest) (*ledger.JournalEntry, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "post_entry",
		telemetry.AttrEntryType, req.EntryType,
		telemetry.AttrReference, req.Reference,
	)
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObservePosting(ctx, "post_entry", time.Since(start)) }()

	var entry *ledger.JournalEntry
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		lines, err := resolveLines(ctx, repos.Accounts(), req.Lines)
		if err != nil {
			return err
		}
		entry, err = PostInScope(ctx, repos, req.EntryDate, req.EntryType, req.Reference, req.Description, lines)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.EntryPosted(ctx, entry.EntryType)
	s.publish(ctx, ledger.NewEntryPostedEvent(entry))
	return entry, nil
}

// PostInScope builds and stores an entry inside an open unit of work
func PostInScope(
	ctx context.Context,
	repos uow.Repositories,
	date time.Time,
	entryType, reference, description string,
	lines []ledger.JournalLine,
) (*ledger.JournalEntry, error) {
	entry, err := ledger.NewJournalEntry(date, entryType, reference, description, lines)
	if err != nil {
		return nil, err
	}
	if err := repos.Entries().Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create journal entry: %w", err)
	}
	return entry, nil
}

// ReplaceEntryLines swaps every line of an entry. The new set must balance.
func (s *Service) ReplaceEntryLines(ctx context.Context, entryID uuid.UUID, inputs []LineInput) (*ledger.JournalEntry, error) {
	if len(inputs) == 0 {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Validation failed: lines: is required")
	}
	for _, in := range inputs {
		if err := validate.Struct(in); err != nil {
			return nil, err
		}
	}

	var entry *ledger.JournalEntry
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		entry, err = repos.Entries().FindByID(ctx, entryID)
		if err != nil {
			return err
		}
		lines, err := resolveLines(ctx, repos.Accounts(), inputs)
		if err != nil {
			return err
		}
		if err := entry.ReplaceLines(lines); err != nil {
			return err
		}
		return repos.Entries().ReplaceLines(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("journal entry lines replaced",
		zap.String("entry_id", entryID.String()),
		zap.Int("lines", len(entry.Lines)),
	)
	return entry, nil
}

// DeleteEntry removes an entry and its lines
func (s *Service) DeleteEntry(ctx context.Context, entryID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos uow.Repositories) error {
		return repos.Entries().Delete(ctx, entryID)
	})
}

// AccountBalance returns the normalized balance of an account over entries
// dated on or before asOf. A nil asOf includes everything.
func (s *Service) AccountBalance(ctx context.Context, accountID uuid.UUID, asOf *time.Time) (*BalanceResponse, error) {
	var resp *BalanceResponse
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		acc, err := repos.Accounts().FindByID(ctx, accountID)
		if err != nil {
			return err
		}
		balance, err := BalanceInScope(ctx, repos, acc, asOf)
		if err != nil {
			return err
		}
		resp = &BalanceResponse{AccountID: acc.ID, Code: acc.Code, Name: acc.Name, BalanceCents: balance, AsOf: asOf}
		return nil
	})
	return resp, err
}

// AccountBalanceByCode is AccountBalance keyed by account code
func (s *Service) AccountBalanceByCode(ctx context.Context, code string, asOf *time.Time) (*BalanceResponse, error) {
	acc, err := s.FindAccountByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.AccountBalance(ctx, acc.ID, asOf)
}

// BalanceInScope computes an account balance inside an open unit of work
func BalanceInScope(ctx context.Context, repos uow.Repositories, acc *ledger.Account, asOf *time.Time) (int64, error) {
	totals, err := repos.Entries().AccountTotals(ctx, acc.ID, asOf)
	if err != nil {
		return 0, fmt.Errorf("failed to total account %s: %w", acc.Code, err)
	}
	return acc.Normalize(totals.Debits, totals.Credits), nil
}

// RecordWithdrawal posts an owner withdrawal: debit Owner's Drawings, credit
// the cash account the money left from
func (s *Service) RecordWithdrawal(ctx context.Context, req WithdrawalRequest) (*ledger.JournalEntry, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "record_withdrawal",
		telemetry.AttrAmountCents, req.AmountCents,
	)
	defer span.End()

	var entry *ledger.JournalEntry
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		accounts, err := ledger.ResolveAccounts(ctx, repos.Accounts(), ledger.CodeOwnersDrawings, req.PaidFromCode)
		if err != nil {
			return err
		}
		paidFrom, _ := accounts.ByCode(req.PaidFromCode)
		if !paidFrom.IsCash {
			return shared.Newf("INVALID_ACCOUNT", "Account %s is not a cash account", paidFrom.Code)
		}
		note := req.Note
		if note == "" {
			note = "Owner withdrawal"
		}
		lines := []ledger.JournalLine{
			ledger.Debit(accounts.ID(ledger.CodeOwnersDrawings), req.AmountCents, note),
			ledger.Credit(paidFrom.ID, req.AmountCents, note),
		}
		entry, err = PostInScope(ctx, repos, req.Date, ledger.EntryTypeWithdrawal, "Withdrawal", note, lines)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.metrics.EntryPosted(ctx, entry.EntryType)
	s.publish(ctx, ledger.NewEntryPostedEvent(entry))
	return entry, nil
}

// FindByTypeAndReference returns entries matching both tags
func (s *Service) FindByTypeAndReference(ctx context.Context, entryType, reference string) ([]ledger.JournalEntry, error) {
	var out []ledger.JournalEntry
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		out, err = repos.Entries().FindByTypeAndReference(ctx, entryType, reference)
		return err
	})
	return out, err
}

// ListByType returns every entry of a type
func (s *Service) ListByType(ctx context.Context, entryType string) ([]ledger.JournalEntry, error) {
	var out []ledger.JournalEntry
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		out, err = repos.Entries().FindByType(ctx, entryType)
		return err
	})
	return out, err
}

// ListByDateRange returns entries dated within [from, to]
func (s *Service) ListByDateRange(ctx context.Context, from, to time.Time) ([]ledger.JournalEntry, error) {
	if to.Before(from) {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Validation failed: to: must not be before from")
	}
	var out []ledger.JournalEntry
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		out, err = repos.Entries().FindByDateRange(ctx, shared.DateOnly(from), shared.DateOnly(to))
		return err
	})
	return out, err
}

func resolveLines(ctx context.Context, repo ledger.AccountRepository, inputs []LineInput) ([]ledger.JournalLine, error) {
	lines := make([]ledger.JournalLine, 0, len(inputs))
	for _, in := range inputs {
		id := in.AccountID
		if id == uuid.Nil {
			acc, err := repo.FindByCode(ctx, in.AccountCode)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return nil, shared.Newf(shared.CodeNotFound, "Account %s not found", in.AccountCode)
				}
				return nil, err
			}
			id = acc.ID
		} else if _, err := repo.FindByID(ctx, id); err != nil {
			return nil, err
		}
		lines = append(lines, ledger.JournalLine{
			AccountID:   id,
			DebitCents:  in.DebitCents,
			CreditCents: in.CreditCents,
			Description: in.Description,
		})
	}
	return lines, nil
}

func (s *Service) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish ledger events", zap.Int("count", len(events)), zap.Error(err))
	}
}
