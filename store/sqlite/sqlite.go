/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements commission.TxStore and commission.SettlementStore using
  SQLite. In production, the same patterns apply to PostgreSQL - see
  store/postgres for the pgx implementation.

DEDUP ENFORCEMENT:
  ledger_entries carries a UNIQUE(sale_id, role, profile_id) constraint;
  inserts use INSERT OR IGNORE so a racing non-regenerating sync skips
  already-present rows instead of failing. The payee column stores '' for
  HQ_NET so the constraint covers the house entry too (SQL UNIQUE treats
  NULLs as distinct).

TRANSACTIONS:
  WithTx wraps delete + insert + summary update of a regeneration in one
  SQL transaction. Readers on other connections see the old ledger until
  commit - there is no window with zero entries.

CONCURRENCY:
  Uses sync.RWMutex on top of WAL mode; WithTx holds the write lock for
  the whole transaction and the tx-scoped store skips re-locking.

USAGE:
  store, err := sqlite.New("./data/commission.db")   // ":memory:" for tests
  sync := commission.NewSynchronizer(store, commission.DefaultConfig())

SEE ALSO:
  - commission/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/commission-engine/commission"
)

// Fixed-width UTC layout so string comparison orders chronologically.
const timeLayout = "2006-01-02 15:04:05.000000000"

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements commission.TxStore and commission.SettlementStore.
type Store struct {
	db   *sql.DB
	q    queryer
	mu   *sync.RWMutex
	inTx bool
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: writes are serialized by the store mutex anyway, and
	// ":memory:" databases are per-connection.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, q: db, mu: &sync.RWMutex{}}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		sale_amount TEXT NOT NULL,
		cost_amount TEXT NOT NULL,
		manager_profile_id TEXT,
		agent_profile_id TEXT,
		override_profile_id TEXT,
		product_id TEXT,
		branch_commission TEXT NOT NULL,
		sales_commission TEXT NOT NULL,
		override_commission TEXT NOT NULL,
		status TEXT NOT NULL,
		sale_date TEXT NOT NULL,
		net_revenue TEXT NOT NULL DEFAULT '0',
		summary_branch TEXT NOT NULL DEFAULT '0',
		summary_sales TEXT NOT NULL DEFAULT '0',
		summary_override TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sales_status ON sales(status);

	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		name TEXT NOT NULL,
		withholding_rate TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL,
		name TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT ''
	);

	-- Ledger entries: one row per (sale, role, payee). profile_id is ''
	-- for HQ_NET so the uniqueness constraint covers the house entry.
	CREATE TABLE IF NOT EXISTS ledger_entries (
		id TEXT PRIMARY KEY,
		sale_id TEXT NOT NULL,
		profile_id TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		gross_amount TEXT NOT NULL,
		withholding_rate TEXT NOT NULL,
		withholding_amount TEXT NOT NULL,
		net_amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		metadata_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(sale_id, role, profile_id)
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_entries_sale ON ledger_entries(sale_id);
	CREATE INDEX IF NOT EXISTS idx_ledger_entries_profile ON ledger_entries(profile_id);
	CREATE INDEX IF NOT EXISTS idx_ledger_entries_created ON ledger_entries(created_at);

	CREATE TABLE IF NOT EXISTS settlement_runs (
		id TEXT PRIMARY KEY,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		status TEXT NOT NULL,
		lines_json TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		completed_at TEXT
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LOCKING
// =============================================================================

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) rlock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a SQL transaction. The write lock is held for
// the duration so WAL's single-writer constraint is never contended.
func (s *Store) WithTx(ctx context.Context, fn func(commission.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	child := &Store{db: s.db, q: tx, mu: s.mu, inTx: true}
	if err := fn(child); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// =============================================================================
// SALES
// =============================================================================

func (s *Store) SaveSale(ctx context.Context, sale commission.Sale) error {
	defer s.lock()()

	now := time.Now().UTC().Format(timeLayout)
	created := sale.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT OR REPLACE INTO sales (
			id, sale_amount, cost_amount,
			manager_profile_id, agent_profile_id, override_profile_id, product_id,
			branch_commission, sales_commission, override_commission,
			status, sale_date,
			net_revenue, summary_branch, summary_sales, summary_override,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(sale.ID), sale.SaleAmount.String(), sale.CostAmount.String(),
		profileIDArg(sale.ManagerProfileID), profileIDArg(sale.AgentProfileID),
		profileIDArg(sale.OverrideProfileID), productIDArg(sale.ProductID),
		sale.BranchCommission.String(), sale.SalesCommission.String(), sale.OverrideCommission.String(),
		string(sale.Status), sale.SaleDate.UTC().Format(timeLayout),
		sale.Summary.NetRevenue.String(), sale.Summary.BranchCommission.String(),
		sale.Summary.SalesCommission.String(), sale.Summary.OverrideCommission.String(),
		created.Format(timeLayout), now,
	)
	return err
}

func (s *Store) GetSale(ctx context.Context, id commission.SaleID) (*commission.Sale, error) {
	defer s.rlock()()
	return s.getSale(ctx, id)
}

func (s *Store) getSale(ctx context.Context, id commission.SaleID) (*commission.Sale, error) {
	row := s.q.QueryRowContext(ctx, saleColumns+` FROM sales WHERE id = ?`, string(id))
	sale, err := scanSale(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sale, nil
}

const saleColumns = `SELECT id, sale_amount, cost_amount,
	manager_profile_id, agent_profile_id, override_profile_id, product_id,
	branch_commission, sales_commission, override_commission,
	status, sale_date,
	net_revenue, summary_branch, summary_sales, summary_override,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSale(row rowScanner) (*commission.Sale, error) {
	var (
		sale                             commission.Sale
		id, status                       string
		saleAmt, costAmt                 string
		manager, agent, override, prod   sql.NullString
		branch, salesC, overrideC        string
		saleDate, createdAt, updatedAt   string
		net, sumBranch, sumSales, sumOvr string
	)
	err := row.Scan(&id, &saleAmt, &costAmt,
		&manager, &agent, &override, &prod,
		&branch, &salesC, &overrideC,
		&status, &saleDate,
		&net, &sumBranch, &sumSales, &sumOvr,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	sale.ID = commission.SaleID(id)
	sale.Status = commission.SaleStatus(status)
	if sale.SaleAmount, err = decimal.NewFromString(saleAmt); err != nil {
		return nil, fmt.Errorf("sale %s: bad sale_amount: %w", id, err)
	}
	if sale.CostAmount, err = decimal.NewFromString(costAmt); err != nil {
		return nil, fmt.Errorf("sale %s: bad cost_amount: %w", id, err)
	}
	if sale.BranchCommission, err = decimal.NewFromString(branch); err != nil {
		return nil, err
	}
	if sale.SalesCommission, err = decimal.NewFromString(salesC); err != nil {
		return nil, err
	}
	if sale.OverrideCommission, err = decimal.NewFromString(overrideC); err != nil {
		return nil, err
	}
	if sale.Summary.NetRevenue, err = decimal.NewFromString(net); err != nil {
		return nil, err
	}
	if sale.Summary.BranchCommission, err = decimal.NewFromString(sumBranch); err != nil {
		return nil, err
	}
	if sale.Summary.SalesCommission, err = decimal.NewFromString(sumSales); err != nil {
		return nil, err
	}
	if sale.Summary.OverrideCommission, err = decimal.NewFromString(sumOvr); err != nil {
		return nil, err
	}
	if manager.Valid && manager.String != "" {
		pid := commission.ProfileID(manager.String)
		sale.ManagerProfileID = &pid
	}
	if agent.Valid && agent.String != "" {
		pid := commission.ProfileID(agent.String)
		sale.AgentProfileID = &pid
	}
	if override.Valid && override.String != "" {
		pid := commission.ProfileID(override.String)
		sale.OverrideProfileID = &pid
	}
	if prod.Valid && prod.String != "" {
		pid := commission.ProductID(prod.String)
		sale.ProductID = &pid
	}
	sale.SaleDate, _ = time.Parse(timeLayout, saleDate)
	sale.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	sale.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	return &sale, nil
}

func (s *Store) ListSales(ctx context.Context) ([]commission.Sale, error) {
	defer s.rlock()()

	rows, err := s.q.QueryContext(ctx, saleColumns+` FROM sales ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []commission.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, *sale)
	}
	return sales, rows.Err()
}

// GetSaleBundle loads the sale with manager, agent, override and product
// in one call.
func (s *Store) GetSaleBundle(ctx context.Context, id commission.SaleID) (*commission.SaleBundle, error) {
	defer s.rlock()()

	sale, err := s.getSale(ctx, id)
	if err != nil || sale == nil {
		return nil, err
	}

	bundle := &commission.SaleBundle{Sale: *sale}
	if sale.ManagerProfileID != nil {
		if bundle.Manager, err = s.getProfile(ctx, *sale.ManagerProfileID); err != nil {
			return nil, err
		}
	}
	if sale.AgentProfileID != nil {
		if bundle.Agent, err = s.getProfile(ctx, *sale.AgentProfileID); err != nil {
			return nil, err
		}
	}
	if sale.OverrideProfileID != nil {
		if bundle.Override, err = s.getProfile(ctx, *sale.OverrideProfileID); err != nil {
			return nil, err
		}
	}
	if sale.ProductID != nil {
		if bundle.Product, err = s.getProduct(ctx, *sale.ProductID); err != nil {
			return nil, err
		}
	}
	return bundle, nil
}

func (s *Store) UpdateSaleSummary(ctx context.Context, id commission.SaleID, b commission.Breakdown) error {
	defer s.lock()()

	res, err := s.q.ExecContext(ctx, `
		UPDATE sales
		SET net_revenue = ?, summary_branch = ?, summary_sales = ?, summary_override = ?, updated_at = ?
		WHERE id = ?`,
		b.NetRevenue.String(), b.BranchCommission.String(),
		b.SalesCommission.String(), b.OverrideCommission.String(),
		time.Now().UTC().Format(timeLayout), string(id),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return commission.ErrSaleNotFound
	}
	return nil
}

// =============================================================================
// PROFILES / PRODUCTS
// =============================================================================

func (s *Store) SaveProfile(ctx context.Context, p commission.Profile) error {
	defer s.lock()()

	var rate any
	if p.WithholdingRate != nil {
		rate = p.WithholdingRate.String()
	}
	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT OR REPLACE INTO profiles (id, type, name, withholding_rate, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		string(p.ID), string(p.Type), p.Name, rate, created.Format(timeLayout),
	)
	return err
}

func (s *Store) GetProfile(ctx context.Context, id commission.ProfileID) (*commission.Profile, error) {
	defer s.rlock()()
	return s.getProfile(ctx, id)
}

func (s *Store) getProfile(ctx context.Context, id commission.ProfileID) (*commission.Profile, error) {
	var (
		p         commission.Profile
		pid, typ  string
		rate      sql.NullString
		createdAt string
	)
	err := s.q.QueryRowContext(ctx,
		`SELECT id, type, name, withholding_rate, created_at FROM profiles WHERE id = ?`,
		string(id)).Scan(&pid, &typ, &p.Name, &rate, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.ID = commission.ProfileID(pid)
	p.Type = commission.ProfileType(typ)
	if rate.Valid {
		d, err := decimal.NewFromString(rate.String)
		if err != nil {
			return nil, fmt.Errorf("profile %s: bad withholding_rate: %w", pid, err)
		}
		p.WithholdingRate = &d
	}
	p.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return &p, nil
}

func (s *Store) ListProfiles(ctx context.Context) ([]commission.Profile, error) {
	defer s.rlock()()

	rows, err := s.q.QueryContext(ctx,
		`SELECT id, type, name, withholding_rate, created_at FROM profiles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []commission.Profile
	for rows.Next() {
		var (
			p         commission.Profile
			pid, typ  string
			rate      sql.NullString
			createdAt string
		)
		if err := rows.Scan(&pid, &typ, &p.Name, &rate, &createdAt); err != nil {
			return nil, err
		}
		p.ID = commission.ProfileID(pid)
		p.Type = commission.ProfileType(typ)
		if rate.Valid {
			d, err := decimal.NewFromString(rate.String)
			if err != nil {
				return nil, err
			}
			p.WithholdingRate = &d
		}
		p.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (s *Store) SaveProduct(ctx context.Context, p commission.Product) error {
	defer s.lock()()

	_, err := s.q.ExecContext(ctx, `
		INSERT OR REPLACE INTO products (id, code, name, currency)
		VALUES (?, ?, ?, ?)`,
		string(p.ID), p.Code, p.Name, p.Currency,
	)
	return err
}

func (s *Store) GetProduct(ctx context.Context, id commission.ProductID) (*commission.Product, error) {
	defer s.rlock()()
	return s.getProduct(ctx, id)
}

func (s *Store) getProduct(ctx context.Context, id commission.ProductID) (*commission.Product, error) {
	var (
		p   commission.Product
		pid string
	)
	err := s.q.QueryRowContext(ctx,
		`SELECT id, code, name, currency FROM products WHERE id = ?`,
		string(id)).Scan(&pid, &p.Code, &p.Name, &p.Currency)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.ID = commission.ProductID(pid)
	return &p, nil
}

// =============================================================================
// LEDGER ENTRIES
// =============================================================================

// InsertEntries inserts entries with INSERT OR IGNORE, returning the
// number of rows actually inserted. Collisions with the
// (sale_id, role, profile_id) constraint are skipped, not errors.
func (s *Store) InsertEntries(ctx context.Context, entries []commission.LedgerEntry) (int, error) {
	defer s.lock()()

	inserted := 0
	for _, e := range entries {
		metadata, err := json.Marshal(e.Metadata)
		if err != nil {
			return inserted, fmt.Errorf("marshal metadata for entry %s: %w", e.ID, err)
		}
		payee := ""
		if e.ProfileID != nil {
			payee = string(*e.ProfileID)
		}
		res, err := s.q.ExecContext(ctx, `
			INSERT OR IGNORE INTO ledger_entries (
				id, sale_id, profile_id, role,
				gross_amount, withholding_rate, withholding_amount, net_amount,
				currency, metadata_json, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(e.ID), string(e.SaleID), payee, string(e.Role),
			e.GrossAmount.String(), e.WithholdingRate.String(),
			e.WithholdingAmount.String(), e.NetAmount.String(),
			e.Currency, string(metadata), e.CreatedAt.UTC().Format(timeLayout),
		)
		if err != nil {
			return inserted, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, err
		}
		inserted += int(n)
	}
	return inserted, nil
}

func (s *Store) DeleteEntriesBySale(ctx context.Context, id commission.SaleID) error {
	defer s.lock()()

	_, err := s.q.ExecContext(ctx, `DELETE FROM ledger_entries WHERE sale_id = ?`, string(id))
	return err
}

const entryColumns = `SELECT id, sale_id, profile_id, role,
	gross_amount, withholding_rate, withholding_amount, net_amount,
	currency, metadata_json, created_at`

func (s *Store) ListEntriesBySale(ctx context.Context, id commission.SaleID) ([]commission.LedgerEntry, error) {
	defer s.rlock()()

	rows, err := s.q.QueryContext(ctx, entryColumns+` FROM ledger_entries WHERE sale_id = ? ORDER BY id`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *Store) ListEntriesInRange(ctx context.Context, from, to time.Time) ([]commission.LedgerEntry, error) {
	defer s.rlock()()

	rows, err := s.q.QueryContext(ctx,
		entryColumns+` FROM ledger_entries WHERE created_at >= ? AND created_at < ? ORDER BY id`,
		from.UTC().Format(timeLayout), to.UTC().Format(timeLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]commission.LedgerEntry, error) {
	var entries []commission.LedgerEntry
	for rows.Next() {
		var (
			e                        commission.LedgerEntry
			id, saleID, payee, role  string
			gross, rate, wh, net     string
			metadataJSON, createdAt  string
		)
		if err := rows.Scan(&id, &saleID, &payee, &role,
			&gross, &rate, &wh, &net,
			&e.Currency, &metadataJSON, &createdAt); err != nil {
			return nil, err
		}
		e.ID = commission.EntryID(id)
		e.SaleID = commission.SaleID(saleID)
		e.Role = commission.Role(role)
		if payee != "" {
			pid := commission.ProfileID(payee)
			e.ProfileID = &pid
		}
		var err error
		if e.GrossAmount, err = decimal.NewFromString(gross); err != nil {
			return nil, err
		}
		if e.WithholdingRate, err = decimal.NewFromString(rate); err != nil {
			return nil, err
		}
		if e.WithholdingAmount, err = decimal.NewFromString(wh); err != nil {
			return nil, err
		}
		if e.NetAmount, err = decimal.NewFromString(net); err != nil {
			return nil, err
		}
		if err = json.Unmarshal([]byte(metadataJSON), &e.Metadata); err != nil {
			return nil, fmt.Errorf("entry %s: bad metadata: %w", id, err)
		}
		e.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// SETTLEMENT RUNS
// =============================================================================

func (s *Store) SaveSettlementRun(ctx context.Context, run commission.SettlementRun) error {
	defer s.lock()()

	lines, err := json.Marshal(run.Lines)
	if err != nil {
		return fmt.Errorf("marshal settlement lines: %w", err)
	}
	var completed any
	if run.CompletedAt != nil {
		completed = run.CompletedAt.UTC().Format(timeLayout)
	}
	_, err = s.q.ExecContext(ctx, `
		INSERT OR REPLACE INTO settlement_runs
			(id, period_start, period_end, status, lines_json, error, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.PeriodStart.UTC().Format(timeLayout), run.PeriodEnd.UTC().Format(timeLayout),
		run.Status, string(lines), run.Error, run.CreatedAt.UTC().Format(timeLayout), completed,
	)
	return err
}

func (s *Store) ListSettlementRuns(ctx context.Context) ([]commission.SettlementRun, error) {
	defer s.rlock()()

	rows, err := s.q.QueryContext(ctx, `
		SELECT id, period_start, period_end, status, lines_json, error, created_at, completed_at
		FROM settlement_runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []commission.SettlementRun
	for rows.Next() {
		var (
			run                           commission.SettlementRun
			start, end, created, linesRaw string
			completed                     sql.NullString
		)
		if err := rows.Scan(&run.ID, &start, &end, &run.Status, &linesRaw, &run.Error, &created, &completed); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(linesRaw), &run.Lines); err != nil {
			return nil, fmt.Errorf("run %s: bad lines: %w", run.ID, err)
		}
		run.PeriodStart, _ = time.Parse(timeLayout, start)
		run.PeriodEnd, _ = time.Parse(timeLayout, end)
		run.CreatedAt, _ = time.Parse(timeLayout, created)
		if completed.Valid {
			t, _ := time.Parse(timeLayout, completed.String)
			run.CompletedAt = &t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func profileIDArg(id *commission.ProfileID) any {
	if id == nil {
		return nil
	}
	return string(*id)
}

func productIDArg(id *commission.ProductID) any {
	if id == nil {
		return nil
	}
	return string(*id)
}
