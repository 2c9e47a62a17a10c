/*
sync.go - Ledger Synchronizer

PURPOSE:
  The only component allowed to write LedgerEntry rows and the Sale's
  cached summary fields. Loads the sale with its parties, resolves rates
  and currency, drives the pure formula, and persists the result
  transactionally.

IDEMPOTENCY:
  - regenerate=true:  delete + insert + summary update in ONE transaction.
    Repeating the call with unchanged inputs reproduces the same entries
    (same IDs, same amounts; only CreatedAt differs).
  - regenerate=false: inserts are deduplicated against the uniqueness
    constraint on (sale_id, role, payee), so a racing duplicate call is a
    no-op (entriesCreated = 0), never a duplicate ledger.

CONCURRENCY:
  Invocations for the same sale are serialized with a per-sale mutex on
  top of the store transaction. Different sales proceed independently -
  the formula is pure and the synchronizer keeps no other mutable state.

FAILURE SEMANTICS:
  Any failure aborts the enclosing transaction: old entries either all
  remain or are fully replaced, never half-replaced. No retries here -
  callers decide, using IsRetryable/IsNotFound.

SEE ALSO:
  - formula.go: The pure computation this drives
  - store.go: TxStore contract (WithTx, dedup inserts)
*/
package commission

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// OPTIONS / RESULT
// =============================================================================

// SyncOptions controls one synchronization call.
type SyncOptions struct {
	// Regenerate deletes all existing entries for the sale before inserting
	// the freshly computed set.
	Regenerate bool

	// IncludeHq additionally emits the company's retained-net entry.
	IncludeHq bool
}

// SyncResult is returned from a successful synchronization.
type SyncResult struct {
	SaleID         SaleID
	Breakdown      Breakdown
	EntriesCreated int
}

// =============================================================================
// SYNCHRONIZER
// =============================================================================

// Synchronizer orchestrates commission ledger generation for sales.
type Synchronizer struct {
	store TxStore
	cfg   Config

	mu    sync.Mutex
	locks map[SaleID]*sync.Mutex
}

// NewSynchronizer creates a Synchronizer on the given transactional store.
func NewSynchronizer(store TxStore, cfg Config) *Synchronizer {
	return &Synchronizer{
		store: store,
		cfg:   cfg,
		locks: make(map[SaleID]*sync.Mutex),
	}
}

// SyncSaleLedgers computes and persists the commission ledger for one sale.
// See SyncOptions for regeneration and HQ-entry behavior.
func (s *Synchronizer) SyncSaleLedgers(ctx context.Context, saleID SaleID, opts SyncOptions) (*SyncResult, error) {
	unlock := s.lockSale(saleID)
	defer unlock()

	bundle, err := s.loadBundle(ctx, saleID)
	if err != nil {
		return nil, err
	}
	sale := bundle.Sale

	if !sale.Status.EligibleForLedger() {
		return nil, &InvalidStateError{SaleID: saleID, Status: sale.Status}
	}

	input, err := s.buildInput(bundle, sale.BranchCommission, sale.SalesCommission, sale.OverrideCommission, opts.IncludeHq)
	if err != nil {
		return nil, err
	}

	return s.persist(ctx, saleID, input, opts.Regenerate)
}

// VoidSaleLedgers retracts the ledger of a cancelled sale by regenerating
// it through the same replace mechanism with zeroed commission inputs.
// The result is an empty entry set and a zeroed summary - provably
// retracted, never silently stale or manually deleted.
func (s *Synchronizer) VoidSaleLedgers(ctx context.Context, saleID SaleID) (*SyncResult, error) {
	unlock := s.lockSale(saleID)
	defer unlock()

	bundle, err := s.loadBundle(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if bundle.Sale.Status != SaleCancelled {
		return nil, &InvalidStateError{SaleID: saleID, Status: bundle.Sale.Status}
	}

	input, err := s.buildInput(bundle, decimal.Zero, decimal.Zero, decimal.Zero, false)
	if err != nil {
		return nil, err
	}
	// A voided sale produces no revenue at all.
	input.SaleAmount = decimal.Zero
	input.CostAmount = decimal.Zero
	input.Metadata.SaleAmount = decimal.Zero
	input.Metadata.CostAmount = decimal.Zero

	return s.persist(ctx, saleID, input, true)
}

// =============================================================================
// LOADING AND INPUT RESOLUTION
// =============================================================================

func (s *Synchronizer) loadBundle(ctx context.Context, saleID SaleID) (*SaleBundle, error) {
	bundle, err := s.store.GetSaleBundle(ctx, saleID)
	if err != nil {
		return nil, &PersistenceError{Op: "load sale", Err: err}
	}
	if bundle == nil {
		return nil, fmt.Errorf("sale %s: %w", saleID, ErrSaleNotFound)
	}

	// A dangling hierarchy reference is a data error, not a zero-commission
	// sale: fail fast before any write.
	if bundle.Sale.ManagerProfileID != nil && bundle.Manager == nil {
		return nil, fmt.Errorf("manager %s of sale %s: %w", *bundle.Sale.ManagerProfileID, saleID, ErrProfileNotFound)
	}
	if bundle.Sale.AgentProfileID != nil && bundle.Agent == nil {
		return nil, fmt.Errorf("agent %s of sale %s: %w", *bundle.Sale.AgentProfileID, saleID, ErrProfileNotFound)
	}
	if bundle.Sale.OverrideProfileID != nil && bundle.Override == nil {
		return nil, fmt.Errorf("override %s of sale %s: %w", *bundle.Sale.OverrideProfileID, saleID, ErrProfileNotFound)
	}
	return bundle, nil
}

func (s *Synchronizer) buildInput(bundle *SaleBundle, branch, sales, override decimal.Decimal, includeHq bool) (FormulaInput, error) {
	sale := bundle.Sale

	agentRate := s.resolveRate(bundle.Agent)
	managerRate := s.resolveRate(bundle.Manager)
	// The override payee is commonly the manager of record; fall back to
	// the manager rate when the override profile carries none of its own.
	overrideRate := managerRate
	if bundle.Override != nil && bundle.Override.WithholdingRate != nil {
		overrideRate = *bundle.Override.WithholdingRate
	}

	currency := s.cfg.DefaultCurrency
	productCode := ""
	if bundle.Product != nil {
		productCode = bundle.Product.Code
		if bundle.Product.Currency != "" {
			currency = bundle.Product.Currency
		}
	}
	if currency == "" {
		// Fail loudly rather than guessing a currency.
		return FormulaInput{}, &ComputationError{SaleID: sale.ID, Field: "currency", Reason: "no product currency and no default configured"}
	}

	snapshot := AuditSnapshot{
		SaleID:             sale.ID,
		SaleStatus:         sale.Status,
		SaleDate:           sale.SaleDate.UTC().Format("2006-01-02"),
		ProductCode:        productCode,
		ManagerProfileID:   sale.ManagerProfileID,
		AgentProfileID:     sale.AgentProfileID,
		OverrideProfileID:  sale.OverrideProfileID,
		SaleAmount:         sale.SaleAmount,
		CostAmount:         sale.CostAmount,
		BranchCommission:   branch,
		SalesCommission:    sales,
		OverrideCommission: override,
		AgentRate:          agentRate,
		ManagerRate:        managerRate,
		OverrideRate:       overrideRate,
		Currency:           currency,
		Precision:          CurrencyPrecision(currency),
		IncludeHqNet:       includeHq,
	}

	return FormulaInput{
		SaleID:                  sale.ID,
		SaleAmount:              sale.SaleAmount,
		CostAmount:              sale.CostAmount,
		BranchCommission:        branch,
		SalesCommission:         sales,
		OverrideCommission:      override,
		ManagerProfileID:        sale.ManagerProfileID,
		AgentProfileID:          sale.AgentProfileID,
		OverrideProfileID:       sale.OverrideProfileID,
		AgentWithholdingRate:    agentRate,
		ManagerWithholdingRate:  managerRate,
		OverrideWithholdingRate: overrideRate,
		Currency:                currency,
		Precision:               CurrencyPrecision(currency),
		IncludeHqNet:            includeHq,
		Metadata:                snapshot,
	}, nil
}

func (s *Synchronizer) resolveRate(p *Profile) decimal.Decimal {
	if p != nil && p.WithholdingRate != nil {
		return *p.WithholdingRate
	}
	return s.cfg.DefaultWithholdingRate
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func (s *Synchronizer) persist(ctx context.Context, saleID SaleID, input FormulaInput, regenerate bool) (*SyncResult, error) {
	// Compute before opening the transaction: a formula failure must leave
	// the store untouched.
	result, err := ComputeCommission(input)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entries := make([]LedgerEntry, len(result.Entries))
	for i, d := range result.Entries {
		entries[i] = LedgerEntry{
			ID:                d.ID,
			SaleID:            d.SaleID,
			ProfileID:         d.ProfileID,
			Role:              d.Role,
			GrossAmount:       d.GrossAmount,
			WithholdingRate:   d.WithholdingRate,
			WithholdingAmount: d.WithholdingAmount,
			NetAmount:         d.NetAmount,
			Currency:          d.Currency,
			Metadata:          d.Metadata,
			CreatedAt:         now,
		}
	}

	created := 0
	err = s.store.WithTx(ctx, func(st Store) error {
		if regenerate {
			if err := st.DeleteEntriesBySale(ctx, saleID); err != nil {
				return fmt.Errorf("delete entries: %w", err)
			}
		}
		n, err := st.InsertEntries(ctx, entries)
		if err != nil {
			return fmt.Errorf("insert entries: %w", err)
		}
		created = n
		if err := st.UpdateSaleSummary(ctx, saleID, result.Breakdown); err != nil {
			return fmt.Errorf("update summary: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, &PersistenceError{Op: fmt.Sprintf("sync sale %s", saleID), Err: err}
	}

	return &SyncResult{SaleID: saleID, Breakdown: result.Breakdown, EntriesCreated: created}, nil
}

// =============================================================================
// PER-SALE SERIALIZATION
// =============================================================================

// lockSale serializes concurrent invocations for the same sale. Locks are
// kept for the process lifetime; the sale cardinality of a single engine
// instance is small enough that this does not need eviction.
func (s *Synchronizer) lockSale(id SaleID) func() {
	s.mu.Lock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}
