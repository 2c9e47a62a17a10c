/*
store.go - Persistence interfaces for sales, profiles and ledger entries

PURPOSE:
  Defines the interface between the engine and the database. Different
  implementations can use SQLite, PostgreSQL, or in-memory storage.

KEY INTERFACES:
  SaleStore:       Sale/profile/product reads and the summary-cache write
  LedgerStore:     Entry replace/insert/list with conflict-skipping inserts
  Store:           SaleStore + LedgerStore
  TxStore:         Store with atomic multi-write transactions
  SettlementStore: Settlement run persistence (downstream aggregator)

DEDUP CONTRACT:
  InsertEntries must skip (not fail) entries that collide with the
  uniqueness constraint on (sale_id, role, payee_profile_id) and report
  how many rows were actually inserted. A non-regenerating sync that races
  an earlier successful one is then a no-op rather than a duplicate.

ATOMIC REPLACE:
  Regeneration runs delete + insert + summary update inside one WithTx
  call, so a concurrent reader never observes an empty ledger window and
  a mid-way failure leaves the previous state fully intact.

IMPLEMENTATIONS:
  - store/sqlite:   Production SQLite
  - store/postgres: Production PostgreSQL (pgx)
  - store/memory:   In-memory for testing/dev

SEE ALSO:
  - sync.go: The only caller of the write paths
  - settlement.go: Read-only consumer of entries
*/
package commission

import (
	"context"
	"time"
)

// =============================================================================
// SALE STORE
// =============================================================================

// SaleBundle is a sale loaded together with its related records in one
// read. Absent relations are nil.
type SaleBundle struct {
	Sale     Sale
	Manager  *Profile
	Agent    *Profile
	Override *Profile
	Product  *Product
}

// SaleStore provides read access to sales and parties plus the single
// summary-cache write. Profiles are owned by an external partner-management
// collaborator; the engine only reads them.
type SaleStore interface {
	// GetSaleBundle loads a sale with manager, agent, override and product.
	// Returns (nil, nil) when the sale does not exist.
	GetSaleBundle(ctx context.Context, id SaleID) (*SaleBundle, error)

	GetSale(ctx context.Context, id SaleID) (*Sale, error)
	ListSales(ctx context.Context) ([]Sale, error)
	SaveSale(ctx context.Context, sale Sale) error

	// UpdateSaleSummary writes the cached breakdown fields. Called only by
	// the Synchronizer, inside the same transaction as the entry writes.
	UpdateSaleSummary(ctx context.Context, id SaleID, b Breakdown) error

	GetProfile(ctx context.Context, id ProfileID) (*Profile, error)
	ListProfiles(ctx context.Context) ([]Profile, error)
	SaveProfile(ctx context.Context, p Profile) error

	GetProduct(ctx context.Context, id ProductID) (*Product, error)
	SaveProduct(ctx context.Context, p Product) error
}

// =============================================================================
// LEDGER STORE
// =============================================================================

// LedgerStore persists ledger entries. Entries are never updated in place:
// the only mutations are insert (with conflict skip) and whole-sale delete,
// both driven by the Synchronizer's regenerate-and-replace mechanism.
type LedgerStore interface {
	// InsertEntries inserts drafts, skipping any that violate the
	// (sale_id, role, payee_profile_id) uniqueness constraint.
	// Returns the number of rows actually inserted.
	InsertEntries(ctx context.Context, entries []LedgerEntry) (int, error)

	// DeleteEntriesBySale removes all entries for a sale. Only valid inside
	// a regeneration transaction.
	DeleteEntriesBySale(ctx context.Context, id SaleID) error

	ListEntriesBySale(ctx context.Context, id SaleID) ([]LedgerEntry, error)

	// ListEntriesInRange returns entries created in [from, to), for the
	// settlement aggregator.
	ListEntriesInRange(ctx context.Context, from, to time.Time) ([]LedgerEntry, error)
}

// =============================================================================
// COMPOSITE / TRANSACTIONAL STORES
// =============================================================================

// Store is the full persistence collaborator consumed by the engine.
type Store interface {
	SaleStore
	LedgerStore
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// SETTLEMENT STORE
// =============================================================================

// SettlementStore persists settlement runs produced by the aggregator.
type SettlementStore interface {
	SaveSettlementRun(ctx context.Context, run SettlementRun) error
	ListSettlementRuns(ctx context.Context) ([]SettlementRun, error)
}
