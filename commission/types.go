/*
Package commission provides the commission ledger and settlement engine.

PURPOSE:
  This package contains the core types and algorithms for splitting a
  confirmed sale's gross revenue across a two-tier sales hierarchy
  (branch manager -> sales agent, plus an optional override beneficiary),
  applying per-party withholding tax, and materializing an auditable,
  idempotently-regenerable set of ledger entries.

KEY CONCEPTS IN THIS FILE (types.go):
  - Sale: One commercial transaction with hierarchy references and a
    cached commission summary
  - Profile: A commission-earning actor (manager or agent)
  - LedgerEntry: One immutable row per (sale, payee-role) combination
  - AuditSnapshot: Typed copy of every formula input, attached to each
    entry so audits can recompute independently of current DB state
  - Config: Explicit engine configuration (no ambient globals)

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Replace, never patch: entries are regenerated as a set, not edited
  3. Type Safety: Strong ID types prevent mixing sale/profile IDs
  4. Auditability: Every entry carries the full input snapshot

SEE ALSO:
  - formula.go: Pure commission breakdown computation
  - sync.go: Ledger Synchronizer (the only writer of entries)
  - store.go: Persistence interfaces
*/
package commission

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type SaleID string
type ProfileID string
type ProductID string
type EntryID string

// =============================================================================
// ROLES - Payee roles on a ledger entry
// =============================================================================

type Role string

const (
	RoleAgentCommission    Role = "AGENT_COMMISSION"
	RoleManagerCommission  Role = "MANAGER_COMMISSION"
	RoleOverrideCommission Role = "OVERRIDE_COMMISSION"
	RoleHQNet              Role = "HQ_NET" // company-retained net, no payee
)

// =============================================================================
// SALE LIFECYCLE
// =============================================================================

type SaleStatus string

const (
	SalePending         SaleStatus = "PENDING"
	SaleConfirmed       SaleStatus = "CONFIRMED"
	SalePaid            SaleStatus = "PAID"
	SalePayoutScheduled SaleStatus = "PAYOUT_SCHEDULED"
	SaleCancelled       SaleStatus = "CANCELLED"
)

// EligibleForLedger reports whether ledger generation is meaningful for
// this status. Only confirmed-or-later, non-cancelled sales qualify.
func (s SaleStatus) EligibleForLedger() bool {
	switch s {
	case SaleConfirmed, SalePaid, SalePayoutScheduled:
		return true
	default:
		return false
	}
}

// =============================================================================
// PROFILES - Commission-earning parties
// =============================================================================

type ProfileType string

const (
	ProfileBranchManager ProfileType = "BRANCH_MANAGER"
	ProfileSalesAgent    ProfileType = "SALES_AGENT"
)

// Profile is an affiliate party. A single profile may act as a sale's
// manager, its agent, or the override beneficiary simultaneously.
// WithholdingRate is a percentage; nil means "use the configured default".
type Profile struct {
	ID              ProfileID
	Type            ProfileType
	Name            string
	WithholdingRate *decimal.Decimal
	CreatedAt       time.Time
}

// Product carries the sale's currency. A sale without a product falls back
// to the configured default currency.
type Product struct {
	ID       ProductID
	Code     string
	Name     string
	Currency string
}

// =============================================================================
// SALE
// =============================================================================

// Sale is one commercial transaction. The per-tier commission amounts
// (BranchCommission, SalesCommission, OverrideCommission) are policy
// inputs decided by a rate table elsewhere - the engine never derives
// them, it only splits and records them.
//
// Summary is a denormalized cache written exclusively by the Synchronizer;
// it is only guaranteed consistent with the ledger immediately after a
// successful sync.
type Sale struct {
	ID         SaleID
	SaleAmount decimal.Decimal
	CostAmount decimal.Decimal

	ManagerProfileID  *ProfileID
	AgentProfileID    *ProfileID
	OverrideProfileID *ProfileID
	ProductID         *ProductID

	BranchCommission   decimal.Decimal
	SalesCommission    decimal.Decimal
	OverrideCommission decimal.Decimal

	Status   SaleStatus
	SaleDate time.Time

	Summary Breakdown

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Breakdown is the computed commission split for one sale.
// Invariant: NetRevenue = SaleAmount - CostAmount - BranchCommission
// - SalesCommission - OverrideCommission. Negative net revenue is a valid,
// notable outcome (over-commissioned sale) and is preserved exactly.
type Breakdown struct {
	NetRevenue         decimal.Decimal
	BranchCommission   decimal.Decimal
	SalesCommission    decimal.Decimal
	OverrideCommission decimal.Decimal
}

// =============================================================================
// LEDGER ENTRIES
// =============================================================================

// LedgerEntry is one immutable record of a commission amount owed to one
// payee for one sale. Entries are generated atomically as a set per sale;
// regeneration replaces the whole set. ProfileID is nil for HQ_NET.
type LedgerEntry struct {
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
	CreatedAt         time.Time
}

// AuditSnapshot is a serializable copy of every formula input. All entries
// from one invocation share the same snapshot, so a later audit can
// recompute and compare independently of what is currently stored.
// It stays strictly typed inside the engine and is serialized to a
// schemaless column only at the storage boundary.
type AuditSnapshot struct {
	SaleID             SaleID          `json:"sale_id"`
	SaleStatus         SaleStatus      `json:"sale_status"`
	SaleDate           string          `json:"sale_date"`
	ProductCode        string          `json:"product_code,omitempty"`
	ManagerProfileID   *ProfileID      `json:"manager_profile_id,omitempty"`
	AgentProfileID     *ProfileID      `json:"agent_profile_id,omitempty"`
	OverrideProfileID  *ProfileID      `json:"override_profile_id,omitempty"`
	SaleAmount         decimal.Decimal `json:"sale_amount"`
	CostAmount         decimal.Decimal `json:"cost_amount"`
	BranchCommission   decimal.Decimal `json:"branch_commission"`
	SalesCommission    decimal.Decimal `json:"sales_commission"`
	OverrideCommission decimal.Decimal `json:"override_commission"`
	AgentRate          decimal.Decimal `json:"agent_rate"`
	ManagerRate        decimal.Decimal `json:"manager_rate"`
	OverrideRate       decimal.Decimal `json:"override_rate"`
	Currency           string          `json:"currency"`
	Precision          int32           `json:"precision"`
	IncludeHqNet       bool            `json:"include_hq_net"`
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds the engine-wide defaults. Injected into the Synchronizer at
// construction time - the formula itself never reads ambient state.
type Config struct {
	// DefaultWithholdingRate applies when a profile has no rate set.
	// Percentage, e.g. 3.3 for the Korean freelance withholding rate.
	DefaultWithholdingRate decimal.Decimal

	// DefaultCurrency applies when a sale's product carries no currency.
	// Empty means "no default": currency resolution fails loudly instead.
	DefaultCurrency string
}

// DefaultConfig returns the stock configuration: 3.3% withholding, KRW.
func DefaultConfig() Config {
	return Config{
		DefaultWithholdingRate: decimal.NewFromFloat(3.3),
		DefaultCurrency:        "KRW",
	}
}

// CurrencyPrecision returns the decimal precision for rounding amounts in
// the given ISO currency. Integer currencies round to whole units.
func CurrencyPrecision(currency string) int32 {
	switch currency {
	case "KRW", "JPY", "VND":
		return 0
	default:
		return 2
	}
}
