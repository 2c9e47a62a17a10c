/*
formula.go - Pure commission breakdown computation

PURPOSE:
  Converts a sale's raw monetary inputs and the parties' withholding rates
  into a deterministic breakdown plus a list of ledger-entry drafts.
  No I/O, no clock, no randomness - identical inputs always produce
  bit-identical outputs, which is what makes regeneration reproducible.

ALGORITHM:
  1. netRevenue = saleAmount - costAmount - branch - sales - override.
     Negative net revenue is preserved exactly (over-commissioned sale),
     never clamped - downstream auditors must be able to see the anomaly.
  2. One draft per (agent, manager, override) tier whose profile is present
     and whose commission amount is non-zero:
       withholding = round(gross * rate / 100, precision)
       net         = gross - withholding
  3. Optionally one HQ_NET draft carrying netRevenue with zero withholding.
  4. Rounding happens at the individual-entry level, at the currency's
     precision. Sum-of-parts vs. whole rounding drift is an accepted,
     bounded discrepancy (at most one rounding unit per entry).

ENTRY IDS:
  Draft IDs are derived from (saleID, role, payee) - the same natural key
  the storage uniqueness constraint uses. Regenerating with unchanged
  inputs therefore reproduces the exact same IDs.

SEE ALSO:
  - sync.go: Resolves inputs (rates, currency) and persists the drafts
  - types.go: FormulaInput building blocks
*/
package commission

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// INPUT / OUTPUT
// =============================================================================

// FormulaInput is everything the computation needs, fully resolved.
// The per-tier commission amounts are policy inputs supplied by the caller,
// not derived here. Rates are percentages (3.3 means 3.3%).
type FormulaInput struct {
	SaleID     SaleID
	SaleAmount decimal.Decimal
	CostAmount decimal.Decimal

	BranchCommission   decimal.Decimal
	SalesCommission    decimal.Decimal
	OverrideCommission decimal.Decimal

	ManagerProfileID  *ProfileID
	AgentProfileID    *ProfileID
	OverrideProfileID *ProfileID

	AgentWithholdingRate    decimal.Decimal
	ManagerWithholdingRate  decimal.Decimal
	OverrideWithholdingRate decimal.Decimal

	Currency     string
	Precision    int32
	IncludeHqNet bool

	Metadata AuditSnapshot
}

// LedgerEntryDraft is an entry without persistence fields (CreatedAt is
// assigned by the Synchronizer at insert time).
type LedgerEntryDraft struct {
	ID                EntryID
	SaleID            SaleID
	ProfileID         *ProfileID
	Role              Role
	GrossAmount       decimal.Decimal
	WithholdingRate   decimal.Decimal
	WithholdingAmount decimal.Decimal
	NetAmount         decimal.Decimal
	Currency          string
	Metadata          AuditSnapshot
}

// FormulaResult is the computed breakdown plus the drafts to persist.
type FormulaResult struct {
	Breakdown Breakdown
	Entries   []LedgerEntryDraft
}

// =============================================================================
// COMPUTATION
// =============================================================================

// ComputeCommission computes the commission breakdown and ledger-entry
// drafts for one sale. Pure: no side effects, deterministic output.
func ComputeCommission(in FormulaInput) (FormulaResult, error) {
	if err := validateInput(in); err != nil {
		return FormulaResult{}, err
	}

	netRevenue := in.SaleAmount.
		Sub(in.CostAmount).
		Sub(in.BranchCommission).
		Sub(in.SalesCommission).
		Sub(in.OverrideCommission)

	breakdown := Breakdown{
		NetRevenue:         netRevenue,
		BranchCommission:   in.BranchCommission,
		SalesCommission:    in.SalesCommission,
		OverrideCommission: in.OverrideCommission,
	}

	// Deterministic order: agent, manager, override, HQ.
	var entries []LedgerEntryDraft
	if in.AgentProfileID != nil && !in.SalesCommission.IsZero() {
		entries = append(entries, buildDraft(in, RoleAgentCommission, in.AgentProfileID, in.SalesCommission, in.AgentWithholdingRate))
	}
	if in.ManagerProfileID != nil && !in.BranchCommission.IsZero() {
		entries = append(entries, buildDraft(in, RoleManagerCommission, in.ManagerProfileID, in.BranchCommission, in.ManagerWithholdingRate))
	}
	if in.OverrideProfileID != nil && !in.OverrideCommission.IsZero() {
		entries = append(entries, buildDraft(in, RoleOverrideCommission, in.OverrideProfileID, in.OverrideCommission, in.OverrideWithholdingRate))
	}
	if in.IncludeHqNet {
		// The company's retained net. No payee, no withholding.
		entries = append(entries, buildDraft(in, RoleHQNet, nil, netRevenue, decimal.Zero))
	}

	return FormulaResult{Breakdown: breakdown, Entries: entries}, nil
}

func buildDraft(in FormulaInput, role Role, payee *ProfileID, gross, rate decimal.Decimal) LedgerEntryDraft {
	withholding := gross.Mul(rate).Div(decimal.NewFromInt(100)).Round(in.Precision)
	return LedgerEntryDraft{
		ID:                draftID(in.SaleID, role, payee),
		SaleID:            in.SaleID,
		ProfileID:         payee,
		Role:              role,
		GrossAmount:       gross,
		WithholdingRate:   rate,
		WithholdingAmount: withholding,
		NetAmount:         gross.Sub(withholding),
		Currency:          in.Currency,
		Metadata:          in.Metadata,
	}
}

// draftID derives the entry ID from the same natural key the storage
// uniqueness constraint is built on: (saleID, role, payee).
func draftID(saleID SaleID, role Role, payee *ProfileID) EntryID {
	p := "hq"
	if payee != nil {
		p = string(*payee)
	}
	return EntryID(fmt.Sprintf("%s:%s:%s", saleID, role, p))
}

// =============================================================================
// VALIDATION
// =============================================================================

var hundred = decimal.NewFromInt(100)

func validateInput(in FormulaInput) error {
	if in.Currency == "" {
		return &ComputationError{SaleID: in.SaleID, Field: "currency", Reason: "no currency resolved from product or configuration"}
	}
	if in.SaleAmount.IsNegative() {
		return &ComputationError{SaleID: in.SaleID, Field: "sale_amount", Reason: "must not be negative"}
	}
	if in.CostAmount.IsNegative() {
		return &ComputationError{SaleID: in.SaleID, Field: "cost_amount", Reason: "must not be negative"}
	}
	// costAmount > saleAmount is expected to be rare but is NOT rejected:
	// the resulting negative net revenue is a valid, auditable outcome.
	for field, amount := range map[string]decimal.Decimal{
		"branch_commission":   in.BranchCommission,
		"sales_commission":    in.SalesCommission,
		"override_commission": in.OverrideCommission,
	} {
		if amount.IsNegative() {
			return &ComputationError{SaleID: in.SaleID, Field: field, Reason: "must not be negative"}
		}
	}
	for field, rate := range map[string]decimal.Decimal{
		"agent_withholding_rate":    in.AgentWithholdingRate,
		"manager_withholding_rate":  in.ManagerWithholdingRate,
		"override_withholding_rate": in.OverrideWithholdingRate,
	} {
		if rate.IsNegative() || rate.GreaterThan(hundred) {
			return &ComputationError{SaleID: in.SaleID, Field: field, Reason: "must be between 0 and 100"}
		}
	}
	if in.Precision < 0 {
		return &ComputationError{SaleID: in.SaleID, Field: "precision", Reason: "must not be negative"}
	}
	return nil
}
