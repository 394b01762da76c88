// Package verification runs independent consistency checks over the ledger,
// stock records and orders, and applies compensating repairs. Checks report
// findings as values; repairs never fail the caller and report every action
// with its outcome.
package verification

import (
	"context"
	"time"

	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/uow"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/lock"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/logger"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

type checkFunc func(*Service, *snapshot) *CheckResult

type repairFunc func(*Service, context.Context) []RepairAction

type checkSpec struct {
	name   string
	check  checkFunc
	repair repairFunc // nil for report-only checks
}

// registry lists the checks in evaluation order
var registry = []checkSpec{
	{CheckInventoryQuantities, checkInventoryQuantities, (*Service).repairInventoryQuantities},
	{CheckInventoryCostAccounting, checkInventoryCostAccounting, (*Service).repairInventoryCostAccounting},
	{CheckMovementCosts, checkMovementCosts, (*Service).repairMovementCosts},
	{CheckDuplicateMovements, checkDuplicateMovements, (*Service).repairDuplicateMovements},
	{CheckDuplicateCOGSEntries, checkDuplicateCOGSEntries, (*Service).repairDuplicateCOGSEntries},
	{CheckJournalEntriesBalanced, checkJournalEntriesBalanced, nil},
	{CheckWIPBalance, checkWIPBalance, nil},
	{CheckOrderWIPConsistency, checkOrderWIPConsistency, (*Service).repairOrderWIPConsistency},
	{CheckWithdrawalAccounts, checkWithdrawalAccounts, (*Service).repairWithdrawalAccounts},
	{CheckGiftOrderAccounting, checkGiftOrderAccounting, (*Service).repairGiftOrderAccounting},
	{CheckARBalance, checkARBalance, nil},
	{CheckCustomerDeposits, checkCustomerDeposits, (*Service).repairCustomerDeposits},
}

// CheckNames returns every check name in evaluation order
func CheckNames() []string {
	out := make([]string, len(registry))
	for i, c := range registry {
		out[i] = c.name
	}
	return out
}

func lookup(name string) (checkSpec, error) {
	for _, c := range registry {
		if c.name == name {
			return c, nil
		}
	}
	return checkSpec{}, shared.Newf(shared.CodeUnknownVerificationName, "Unknown verification check %q", name)
}

// Option configures a Service
type Option func(*Service)

// WithCostTolerance lets inventory valuation and the inventory accounts
// differ by up to cents before inventory_cost_accounting fails
func WithCostTolerance(cents int64) Option {
	return func(s *Service) {
		if cents >= 0 {
			s.costTolerance = cents
		}
	}
}

// Service runs checks and repairs
type Service struct {
	scope         uow.TransactionScope
	locker        uow.KeyLocker
	logger        *zap.Logger
	metrics       *telemetry.LedgerMetrics
	costTolerance int64
	now           func() time.Time
}

// NewService creates a new verification Service
func NewService(scope uow.TransactionScope, locker uow.KeyLocker, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{scope: scope, locker: locker, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetMetrics sets the metrics recorder
func (s *Service) SetMetrics(m *telemetry.LedgerMetrics) {
	s.metrics = m
}

// RunAllChecks evaluates every check against one consistent read
func (s *Service) RunAllChecks(ctx context.Context) (*Report, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "verification", "run_all_checks")
	defer span.End()

	snap, err := s.snapshot(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	report := &Report{CheckedAt: s.now()}
	for _, c := range registry {
		res := s.evaluate(ctx, c, snap)
		report.Results = append(report.Results, res)
		if res.Ok() {
			report.OkCount++
		} else {
			report.ErrorCount++
		}
	}
	telemetry.SetAttributes(span, "ok_count", report.OkCount, "error_count", report.ErrorCount)
	logger.L(ctx).Info("verification finished",
		zap.Int("ok", report.OkCount),
		zap.Int("errors", report.ErrorCount),
		zap.Strings("failed", report.Failed()),
	)
	return report, nil
}

// RunCheck evaluates a single check by name
func (s *Service) RunCheck(ctx context.Context, name string) (*CheckResult, error) {
	c, err := lookup(name)
	if err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "verification", "run_check", telemetry.AttrCheck, name)
	defer span.End()

	snap, err := s.snapshot(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return s.evaluate(ctx, c, snap), nil
}

// Repair runs the repair for one check, or for every check when name is
// "all". A repair only acts when its check currently fails, so running it
// again after success does nothing. Errors inside a repair are reported as
// failed actions; Repair itself fails only for an unknown check name or
// when the repair lock cannot be obtained.
func (s *Service) Repair(ctx context.Context, name string) ([]RepairAction, error) {
	var specs []checkSpec
	if name == AllChecks {
		specs = registry
	} else {
		c, err := lookup(name)
		if err != nil {
			return nil, err
		}
		specs = []checkSpec{c}
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "verification", "repair", telemetry.AttrCheck, name)
	defer span.End()

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, lock.RepairKey)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		defer release()
	}

	var actions []RepairAction
	for _, c := range specs {
		actions = append(actions, s.repairOne(ctx, c)...)
	}
	for _, a := range actions {
		s.metrics.RepairAttempted(ctx, a.Check, a.Outcome)
	}
	logger.L(ctx).Info("repair finished", zap.String("check", name), zap.Int("actions", len(actions)))
	return actions, nil
}

// repairOne re-evaluates a check and repairs it when it fails
func (s *Service) repairOne(ctx context.Context, c checkSpec) []RepairAction {
	res, err := s.RunCheck(ctx, c.name)
	if err != nil {
		return []RepairAction{failed(c.name, "evaluate", err)}
	}
	if res.Ok() {
		return nil
	}
	if c.repair == nil {
		return []RepairAction{skipped(c.name, "report", "no automatic repair: %d issue(s) need review", len(res.Issues))}
	}
	return c.repair(s, ctx)
}

// inScope runs one repair in its own unit of work. When it fails, the
// actions it reported as applied were rolled back and are marked failed.
func (s *Service) inScope(ctx context.Context, check string, fn func(repos uow.Repositories) ([]RepairAction, error)) []RepairAction {
	var actions []RepairAction
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		actions, err = fn(repos)
		return err
	})
	if err == nil {
		return actions
	}
	s.logger.Warn("repair rolled back", zap.String("check", check), zap.Error(err))
	for i := range actions {
		if actions[i].Outcome == OutcomeApplied {
			actions[i].Outcome = OutcomeFailed
			actions[i].Err = "rolled back: " + err.Error()
		}
	}
	return append(actions, failed(check, "repair", err))
}

func (s *Service) snapshot(ctx context.Context) (*snapshot, error) {
	var snap *snapshot
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		snap, err = loadSnapshot(ctx, repos)
		return err
	})
	return snap, err
}

func (s *Service) evaluate(ctx context.Context, c checkSpec, snap *snapshot) *CheckResult {
	res := c.check(s, snap)
	s.metrics.CheckEvaluated(ctx, c.name, res.Ok())
	if !res.Ok() {
		logger.L(ctx).Warn("verification check failed",
			zap.String("check", c.name),
			zap.Int("issues", len(res.Issues)),
		)
	}
	return res
}
