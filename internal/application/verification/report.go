package verification

import (
	"fmt"
	"time"
)

// Check names, in the order RunAllChecks evaluates them
const (
	CheckInventoryQuantities     = "inventory_quantities"
	CheckInventoryCostAccounting = "inventory_cost_accounting"
	CheckMovementCosts           = "movement_costs"
	CheckDuplicateMovements      = "duplicate_movements"
	CheckDuplicateCOGSEntries    = "duplicate_cogs_entries"
	CheckJournalEntriesBalanced  = "journal_entries_balanced"
	CheckWIPBalance              = "wip_balance"
	CheckOrderWIPConsistency     = "order_wip_consistency"
	CheckWithdrawalAccounts      = "withdrawal_accounts"
	CheckGiftOrderAccounting     = "gift_order_accounting"
	CheckARBalance               = "ar_balance"
	CheckCustomerDeposits        = "customer_deposits"
)

// AllChecks selects every check in Repair
const AllChecks = "all"

// Status is the outcome of one check
type Status string

const (
	StatusOk    Status = "ok"
	StatusError Status = "error"
)

// CheckResult is what one check found. Findings are values, not errors.
type CheckResult struct {
	Name   string           `json:"name"`
	Status Status           `json:"status"`
	Stats  map[string]int64 `json:"stats,omitempty"`
	Issues []string         `json:"issues,omitempty"`
}

// Ok reports whether the check passed
func (r *CheckResult) Ok() bool {
	return r.Status == StatusOk
}

func newResult(name string) *CheckResult {
	return &CheckResult{Name: name, Status: StatusOk, Stats: map[string]int64{}}
}

func (r *CheckResult) issuef(format string, args ...any) {
	r.Status = StatusError
	r.Issues = append(r.Issues, fmt.Sprintf(format, args...))
}

// Report is the outcome of every check
type Report struct {
	Results    []*CheckResult `json:"results"`
	OkCount    int            `json:"ok_count"`
	ErrorCount int            `json:"error_count"`
	CheckedAt  time.Time      `json:"checked_at"`
}

// Ok reports whether every check passed
func (r *Report) Ok() bool {
	return r.ErrorCount == 0
}

// Failed returns the names of the checks that found issues
func (r *Report) Failed() []string {
	var out []string
	for _, res := range r.Results {
		if !res.Ok() {
			out = append(out, res.Name)
		}
	}
	return out
}

// Repair outcomes
const (
	OutcomeApplied = "applied"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// RepairAction is one thing a repair did or tried to do
type RepairAction struct {
	Check   string `json:"check"`
	Action  string `json:"action"`
	Details string `json:"details"`
	Outcome string `json:"outcome"`
	Err     string `json:"error,omitempty"`
}

func applied(check, action, format string, args ...any) RepairAction {
	return RepairAction{Check: check, Action: action, Details: fmt.Sprintf(format, args...), Outcome: OutcomeApplied}
}

func skipped(check, action, format string, args ...any) RepairAction {
	return RepairAction{Check: check, Action: action, Details: fmt.Sprintf(format, args...), Outcome: OutcomeSkipped}
}

func failed(check, action string, err error) RepairAction {
	return RepairAction{Check: check, Action: action, Outcome: OutcomeFailed, Err: err.Error()}
}
