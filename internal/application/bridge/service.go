// Package bridge turns order lifecycle changes into stock movements and
// journal entries. Every posting is idempotent by entry type and the
// order's reference, so re-applying a status never posts twice.
package bridge

import (
	"context"
	"time"

	appinventory "github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/inventory"
	appledger "github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/ledger"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/uow"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/validate"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/inventory"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/ledger"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/order"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/lock"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/logger"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Service reacts to order status transitions and payments
type Service struct {
	scope     uow.TransactionScope
	inventory *appinventory.Service
	locker    uow.KeyLocker
	logger    *zap.Logger
	publisher shared.EventPublisher
	metrics   *telemetry.LedgerMetrics
}

// NewService creates a new bridge Service
func NewService(scope uow.TransactionScope, inv *appinventory.Service, locker uow.KeyLocker, logger *zap.Logger) *Service {
	return &Service{scope: scope, inventory: inv, locker: locker, logger: logger}
}

// SetEventPublisher sets the publisher used after commit
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetMetrics sets the metrics recorder
func (s *Service) SetMetrics(m *telemetry.LedgerMetrics) {
	s.metrics = m
}

// TransitionOrder moves an order to a new status and posts what the status
// requires:
//
//	in_prep    consume the recipe, Dr WIP / Cr inventory
//	delivered  revenue, deposits applied, WIP relieved to COGS
//	canceled   WIP relieved to Waste & Shrinkage
//
// Re-applying the current status posts whatever is still missing.
func (s *Service) TransitionOrder(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	next := order.Status(req.Status)
	ctx, span := telemetry.StartServiceSpan(ctx, "bridge", "transition_order",
		telemetry.AttrOrderStatus, req.Status,
	)
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObservePosting(ctx, "order_"+req.Status, time.Since(start)) }()

	keys, err := s.transitionKeys(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	release, err := s.acquire(ctx, keys...)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer release()

	res := &TransitionResult{}
	var items []*inventory.InventoryItem
	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		o, err := findOrder(ctx, repos, req.OrderID)
		if err != nil {
			return err
		}
		res.Order = o
		telemetry.SetAttributes(span, telemetry.AttrOrderNumber, o.Number)

		res.Changed, err = o.TransitionTo(next)
		if err != nil {
			return err
		}
		if res.Changed {
			if err := repos.Orders().Save(ctx, o); err != nil {
				return err
			}
		}

		date := req.Date
		if date.IsZero() {
			date = time.Now()
			if next == order.StatusDelivered {
				date = o.DeliveryDate
			}
		}

		switch o.Status {
		case order.StatusInPrep:
			posting, err := postInPrep(ctx, repos, s.inventory, o, date)
			if err != nil {
				return err
			}
			res.Movements = posting.movements
			items = posting.items
			res.addEntry(posting.entry)
		case order.StatusDelivered:
			entry, err := PostDeliveredInScope(ctx, repos, o, date)
			if err != nil {
				return err
			}
			res.addEntry(entry)
		case order.StatusCanceled:
			entry, err := PostCanceledInScope(ctx, repos, o, date)
			if err != nil {
				return err
			}
			res.addEntry(entry)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	logger.L(ctx).Info("order transitioned",
		zap.Int64("order_number", res.Order.Number),
		zap.String("status", res.Order.Status.String()),
		zap.Bool("changed", res.Changed),
		zap.Int("movements", len(res.Movements)),
		zap.Int("entries", len(res.Entries)),
	)

	events := shared.AggregateEvents(res.Order)
	for _, it := range items {
		events = append(events, shared.AggregateEvents(it)...)
	}
	for _, m := range res.Movements {
		s.metrics.MovementRecorded(ctx, m.MovementType.String())
		events = append(events, inventory.NewMovementRecordedEvent(m))
	}
	for _, e := range res.Entries {
		s.metrics.EntryPosted(ctx, e.EntryType)
		events = append(events, ledger.NewEntryPostedEvent(e))
	}
	s.publish(ctx, events...)
	return res, nil
}

// transitionKeys reads the order to learn which locks the transition needs.
// Moving into preparation also locks every stock pair the recipe draws from.
func (s *Service) transitionKeys(ctx context.Context, req TransitionRequest) ([]string, error) {
	keys := []string{lock.OrderKey(req.OrderID)}
	if order.Status(req.Status) != order.StatusInPrep {
		return keys, nil
	}
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		o, err := findOrder(ctx, repos, req.OrderID)
		if err != nil {
			return err
		}
		consumption, err := Consumption(ctx, repos, o)
		if err != nil {
			return err
		}
		for _, c := range consumption {
			keys = append(keys, lock.StockKey(c.IngredientID, o.PrepLocationID))
		}
		return nil
	})
	return keys, err
}

// RecordPayment records money received for an order. Before delivery it is
// a deposit (Dr cash / Cr Customer Deposits); after delivery it settles the
// receivable (Dr cash / Cr AR). Canceled orders take no payments.
func (s *Service) RecordPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "bridge", "record_payment",
		telemetry.AttrAmountCents, req.AmountCents,
	)
	defer span.End()

	release, err := s.acquire(ctx, lock.OrderKey(req.OrderID))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer release()

	res := &PaymentResult{}
	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		o, err := findOrder(ctx, repos, req.OrderID)
		if err != nil {
			return err
		}

		kind, entryType, creditCode := order.PaymentKindDeposit, ledger.EntryTypeOrderDeposit, ledger.CodeCustomerDeposits
		switch o.Status {
		case order.StatusDelivered:
			kind, entryType, creditCode = order.PaymentKindPayment, ledger.EntryTypeOrderPayment, ledger.CodeAccountsReceivable
		case order.StatusCanceled:
			return shared.Newf(shared.CodeInvalidStateTransition, "%s is canceled and cannot take payments", o.Reference())
		}

		accounts, err := ledger.ResolveAccounts(ctx, repos.Accounts(), req.PaidToCode, creditCode)
		if err != nil {
			return err
		}
		paidTo, _ := accounts.ByCode(req.PaidToCode)
		if !paidTo.IsCash {
			return shared.Newf("INVALID_ACCOUNT", "Account %s is not a cash account", paidTo.Code)
		}

		date := req.Date
		if date.IsZero() {
			date = time.Now()
		}
		desc := "Deposit for " + o.Reference()
		if kind == order.PaymentKindPayment {
			desc = "Payment for " + o.Reference()
		}
		res.Entry, err = appledger.PostInScope(ctx, repos, date, entryType, o.Reference(), desc, []ledger.JournalLine{
			ledger.Debit(paidTo.ID, req.AmountCents, desc),
			ledger.Credit(accounts.ID(creditCode), req.AmountCents, desc),
		})
		if err != nil {
			return err
		}

		res.Payment, err = order.NewPayment(o.ID, kind, req.AmountCents, date, paidTo.ID)
		if err != nil {
			return err
		}
		res.Payment.JournalEntryID = res.Entry.ID
		return repos.Payments().Create(ctx, res.Payment)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.EntryPosted(ctx, res.Entry.EntryType)
	s.publish(ctx, ledger.NewEntryPostedEvent(res.Entry))
	return res, nil
}

func (r *TransitionResult) addEntry(e *ledger.JournalEntry) {
	if e != nil {
		r.Entries = append(r.Entries, e)
	}
}

func (s *Service) acquire(ctx context.Context, keys ...string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	return s.locker.Acquire(ctx, keys...)
}

func (s *Service) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish order events", zap.Error(err))
	}
}
