/*
Package postgres provides a PostgreSQL-backed implementation of the
storage interfaces using pgx.

PURPOSE:
  Production alternative to store/sqlite. Identical semantics:
  - UNIQUE (sale_id, role, profile_id) on ledger_entries
  - ON CONFLICT DO NOTHING inserts (dedup by constraint, never failure)
  - WithTx wraps the regeneration replace in one database transaction

CONCURRENCY:
  No application-level mutex here: PostgreSQL's own transaction isolation
  serializes writers. The Synchronizer's per-sale lock still prevents two
  in-process regenerations from interleaving.

USAGE:
  pool, err := postgres.NewPool(ctx, os.Getenv("DATABASE_URL"))
  store, err := postgres.New(ctx, pool)

SEE ALSO:
  - commission/store.go: Interface definitions
  - store/sqlite: SQLite implementation (same schema shape)
*/
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/warp/commission-engine/commission"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconnCommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgxpool.Pool and pgx.Tx return pgconn.CommandTag from Exec; alias the
// minimal surface we use so both satisfy querier without adapters.
type pgconnCommandTag = interface{ RowsAffected() int64 }

type poolQuerier struct{ pool *pgxpool.Pool }

func (p poolQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconnCommandTag, error) {
	tag, err := p.pool.Exec(ctx, sql, args...)
	return tag, err
}
func (p poolQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return p.pool.Query(ctx, sql, args...)
}
func (p poolQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}

type txQuerier struct{ tx pgx.Tx }

func (t txQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconnCommandTag, error) {
	tag, err := t.tx.Exec(ctx, sql, args...)
	return tag, err
}
func (t txQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.tx.Query(ctx, sql, args...)
}
func (t txQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.tx.QueryRow(ctx, sql, args...)
}

// NewPool creates a pgx connection pool and verifies connectivity.
func NewPool(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	if connStr == "" {
		return nil, fmt.Errorf("empty connection string")
	}
	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return pool, nil
}

// Store implements commission.TxStore and commission.SettlementStore.
type Store struct {
	pool *pgxpool.Pool
	q    querier
}

// New creates a Store on the given pool and applies the schema.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	s := &Store{pool: pool, q: poolQuerier{pool: pool}}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		sale_amount NUMERIC NOT NULL,
		cost_amount NUMERIC NOT NULL,
		manager_profile_id TEXT,
		agent_profile_id TEXT,
		override_profile_id TEXT,
		product_id TEXT,
		branch_commission NUMERIC NOT NULL,
		sales_commission NUMERIC NOT NULL,
		override_commission NUMERIC NOT NULL,
		status TEXT NOT NULL,
		sale_date TIMESTAMPTZ NOT NULL,
		net_revenue NUMERIC NOT NULL DEFAULT 0,
		summary_branch NUMERIC NOT NULL DEFAULT 0,
		summary_sales NUMERIC NOT NULL DEFAULT 0,
		summary_override NUMERIC NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		name TEXT NOT NULL,
		withholding_rate NUMERIC,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL,
		name TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS ledger_entries (
		id TEXT PRIMARY KEY,
		sale_id TEXT NOT NULL,
		profile_id TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		gross_amount NUMERIC NOT NULL,
		withholding_rate NUMERIC NOT NULL,
		withholding_amount NUMERIC NOT NULL,
		net_amount NUMERIC NOT NULL,
		currency TEXT NOT NULL,
		metadata JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (sale_id, role, profile_id)
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_entries_sale ON ledger_entries(sale_id);
	CREATE INDEX IF NOT EXISTS idx_ledger_entries_profile ON ledger_entries(profile_id);
	CREATE INDEX IF NOT EXISTS idx_ledger_entries_created ON ledger_entries(created_at);

	CREATE TABLE IF NOT EXISTS settlement_runs (
		id TEXT PRIMARY KEY,
		period_start TIMESTAMPTZ NOT NULL,
		period_end TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL,
		lines JSONB NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ
	);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func (s *Store) WithTx(ctx context.Context, fn func(commission.Store) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	child := &Store{pool: s.pool, q: txQuerier{tx: tx}}
	if err := fn(child); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// =============================================================================
// SALES
// =============================================================================

func (s *Store) SaveSale(ctx context.Context, sale commission.Sale) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO sales (
			id, sale_amount, cost_amount,
			manager_profile_id, agent_profile_id, override_profile_id, product_id,
			branch_commission, sales_commission, override_commission,
			status, sale_date,
			net_revenue, summary_branch, summary_sales, summary_override
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (id) DO UPDATE SET
			sale_amount = EXCLUDED.sale_amount,
			cost_amount = EXCLUDED.cost_amount,
			manager_profile_id = EXCLUDED.manager_profile_id,
			agent_profile_id = EXCLUDED.agent_profile_id,
			override_profile_id = EXCLUDED.override_profile_id,
			product_id = EXCLUDED.product_id,
			branch_commission = EXCLUDED.branch_commission,
			sales_commission = EXCLUDED.sales_commission,
			override_commission = EXCLUDED.override_commission,
			status = EXCLUDED.status,
			sale_date = EXCLUDED.sale_date,
			updated_at = NOW()`,
		string(sale.ID), sale.SaleAmount, sale.CostAmount,
		profileIDArg(sale.ManagerProfileID), profileIDArg(sale.AgentProfileID),
		profileIDArg(sale.OverrideProfileID), productIDArg(sale.ProductID),
		sale.BranchCommission, sale.SalesCommission, sale.OverrideCommission,
		string(sale.Status), sale.SaleDate.UTC(),
		sale.Summary.NetRevenue, sale.Summary.BranchCommission,
		sale.Summary.SalesCommission, sale.Summary.OverrideCommission,
	)
	return err
}

const saleColumns = `SELECT id, sale_amount, cost_amount,
	manager_profile_id, agent_profile_id, override_profile_id, product_id,
	branch_commission, sales_commission, override_commission,
	status, sale_date,
	net_revenue, summary_branch, summary_sales, summary_override,
	created_at, updated_at`

func (s *Store) GetSale(ctx context.Context, id commission.SaleID) (*commission.Sale, error) {
	row := s.q.QueryRow(ctx, saleColumns+` FROM sales WHERE id = $1`, string(id))
	sale, err := scanSale(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func scanSale(row pgx.Row) (*commission.Sale, error) {
	var (
		sale                           commission.Sale
		id, status                     string
		manager, agent, override, prod *string
	)
	err := row.Scan(&id, &sale.SaleAmount, &sale.CostAmount,
		&manager, &agent, &override, &prod,
		&sale.BranchCommission, &sale.SalesCommission, &sale.OverrideCommission,
		&status, &sale.SaleDate,
		&sale.Summary.NetRevenue, &sale.Summary.BranchCommission,
		&sale.Summary.SalesCommission, &sale.Summary.OverrideCommission,
		&sale.CreatedAt, &sale.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sale.ID = commission.SaleID(id)
	sale.Status = commission.SaleStatus(status)
	if manager != nil {
		pid := commission.ProfileID(*manager)
		sale.ManagerProfileID = &pid
	}
	if agent != nil {
		pid := commission.ProfileID(*agent)
		sale.AgentProfileID = &pid
	}
	if override != nil {
		pid := commission.ProfileID(*override)
		sale.OverrideProfileID = &pid
	}
	if prod != nil {
		pid := commission.ProductID(*prod)
		sale.ProductID = &pid
	}
	return &sale, nil
}

func (s *Store) ListSales(ctx context.Context) ([]commission.Sale, error) {
	rows, err := s.q.Query(ctx, saleColumns+` FROM sales ORDER BY id`)
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

func (s *Store) GetSaleBundle(ctx context.Context, id commission.SaleID) (*commission.SaleBundle, error) {
	sale, err := s.GetSale(ctx, id)
	if err != nil || sale == nil {
		return nil, err
	}

	bundle := &commission.SaleBundle{Sale: *sale}
	if sale.ManagerProfileID != nil {
		if bundle.Manager, err = s.GetProfile(ctx, *sale.ManagerProfileID); err != nil {
			return nil, err
		}
	}
	if sale.AgentProfileID != nil {
		if bundle.Agent, err = s.GetProfile(ctx, *sale.AgentProfileID); err != nil {
			return nil, err
		}
	}
	if sale.OverrideProfileID != nil {
		if bundle.Override, err = s.GetProfile(ctx, *sale.OverrideProfileID); err != nil {
			return nil, err
		}
	}
	if sale.ProductID != nil {
		if bundle.Product, err = s.GetProduct(ctx, *sale.ProductID); err != nil {
			return nil, err
		}
	}
	return bundle, nil
}

func (s *Store) UpdateSaleSummary(ctx context.Context, id commission.SaleID, b commission.Breakdown) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE sales
		SET net_revenue = $1, summary_branch = $2, summary_sales = $3, summary_override = $4, updated_at = NOW()
		WHERE id = $5`,
		b.NetRevenue, b.BranchCommission, b.SalesCommission, b.OverrideCommission, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return commission.ErrSaleNotFound
	}
	return nil
}

// =============================================================================
// PROFILES / PRODUCTS
// =============================================================================

func (s *Store) SaveProfile(ctx context.Context, p commission.Profile) error {
	var rate *string
	if p.WithholdingRate != nil {
		v := p.WithholdingRate.String()
		rate = &v
	}
	_, err := s.q.Exec(ctx, `
		INSERT INTO profiles (id, type, name, withholding_rate)
		VALUES ($1, $2, $3, $4::numeric)
		ON CONFLICT (id) DO UPDATE SET
			type = EXCLUDED.type, name = EXCLUDED.name, withholding_rate = EXCLUDED.withholding_rate`,
		string(p.ID), string(p.Type), p.Name, rate)
	return err
}

func (s *Store) GetProfile(ctx context.Context, id commission.ProfileID) (*commission.Profile, error) {
	var (
		p        commission.Profile
		pid, typ string
		rate     *decimal.Decimal
	)
	err := s.q.QueryRow(ctx,
		`SELECT id, type, name, withholding_rate, created_at FROM profiles WHERE id = $1`,
		string(id)).Scan(&pid, &typ, &p.Name, &rate, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.ID = commission.ProfileID(pid)
	p.Type = commission.ProfileType(typ)
	p.WithholdingRate = rate
	return &p, nil
}

func (s *Store) ListProfiles(ctx context.Context) ([]commission.Profile, error) {
	rows, err := s.q.Query(ctx,
		`SELECT id, type, name, withholding_rate, created_at FROM profiles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []commission.Profile
	for rows.Next() {
		var (
			p        commission.Profile
			pid, typ string
			rate     *decimal.Decimal
		)
		if err := rows.Scan(&pid, &typ, &p.Name, &rate, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.ID = commission.ProfileID(pid)
		p.Type = commission.ProfileType(typ)
		p.WithholdingRate = rate
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (s *Store) SaveProduct(ctx context.Context, p commission.Product) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO products (id, code, name, currency)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			code = EXCLUDED.code, name = EXCLUDED.name, currency = EXCLUDED.currency`,
		string(p.ID), p.Code, p.Name, p.Currency)
	return err
}

func (s *Store) GetProduct(ctx context.Context, id commission.ProductID) (*commission.Product, error) {
	var (
		p   commission.Product
		pid string
	)
	err := s.q.QueryRow(ctx,
		`SELECT id, code, name, currency FROM products WHERE id = $1`,
		string(id)).Scan(&pid, &p.Code, &p.Name, &p.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
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

func (s *Store) InsertEntries(ctx context.Context, entries []commission.LedgerEntry) (int, error) {
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
		tag, err := s.q.Exec(ctx, `
			INSERT INTO ledger_entries (
				id, sale_id, profile_id, role,
				gross_amount, withholding_rate, withholding_amount, net_amount,
				currency, metadata, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			ON CONFLICT (sale_id, role, profile_id) DO NOTHING`,
			string(e.ID), string(e.SaleID), payee, string(e.Role),
			e.GrossAmount, e.WithholdingRate, e.WithholdingAmount, e.NetAmount,
			e.Currency, metadata, e.CreatedAt.UTC())
		if err != nil {
			return inserted, err
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func (s *Store) DeleteEntriesBySale(ctx context.Context, id commission.SaleID) error {
	_, err := s.q.Exec(ctx, `DELETE FROM ledger_entries WHERE sale_id = $1`, string(id))
	return err
}

const entryColumns = `SELECT id, sale_id, profile_id, role,
	gross_amount, withholding_rate, withholding_amount, net_amount,
	currency, metadata, created_at`

func (s *Store) ListEntriesBySale(ctx context.Context, id commission.SaleID) ([]commission.LedgerEntry, error) {
	rows, err := s.q.Query(ctx, entryColumns+` FROM ledger_entries WHERE sale_id = $1 ORDER BY id`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *Store) ListEntriesInRange(ctx context.Context, from, to time.Time) ([]commission.LedgerEntry, error) {
	rows, err := s.q.Query(ctx,
		entryColumns+` FROM ledger_entries WHERE created_at >= $1 AND created_at < $2 ORDER BY id`,
		from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows pgx.Rows) ([]commission.LedgerEntry, error) {
	var entries []commission.LedgerEntry
	for rows.Next() {
		var (
			e                       commission.LedgerEntry
			id, saleID, payee, role string
			metadata                []byte
		)
		if err := rows.Scan(&id, &saleID, &payee, &role,
			&e.GrossAmount, &e.WithholdingRate, &e.WithholdingAmount, &e.NetAmount,
			&e.Currency, &metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.ID = commission.EntryID(id)
		e.SaleID = commission.SaleID(saleID)
		e.Role = commission.Role(role)
		if payee != "" {
			pid := commission.ProfileID(payee)
			e.ProfileID = &pid
		}
		if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
			return nil, fmt.Errorf("entry %s: bad metadata: %w", id, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// SETTLEMENT RUNS
// =============================================================================

func (s *Store) SaveSettlementRun(ctx context.Context, run commission.SettlementRun) error {
	lines, err := json.Marshal(run.Lines)
	if err != nil {
		return fmt.Errorf("marshal settlement lines: %w", err)
	}
	_, err = s.q.Exec(ctx, `
		INSERT INTO settlement_runs
			(id, period_start, period_end, status, lines, error, created_at, completed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO NOTHING`,
		run.ID, run.PeriodStart.UTC(), run.PeriodEnd.UTC(), run.Status,
		lines, run.Error, run.CreatedAt.UTC(), run.CompletedAt)
	return err
}

func (s *Store) ListSettlementRuns(ctx context.Context) ([]commission.SettlementRun, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, period_start, period_end, status, lines, error, created_at, completed_at
		FROM settlement_runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []commission.SettlementRun
	for rows.Next() {
		var (
			run   commission.SettlementRun
			lines []byte
		)
		if err := rows.Scan(&run.ID, &run.PeriodStart, &run.PeriodEnd, &run.Status,
			&lines, &run.Error, &run.CreatedAt, &run.CompletedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(lines, &run.Lines); err != nil {
			return nil, fmt.Errorf("run %s: bad lines: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func profileIDArg(id *commission.ProfileID) *string {
	if id == nil {
		return nil
	}
	v := string(*id)
	return &v
}

func productIDArg(id *commission.ProductID) *string {
	if id == nil {
		return nil
	}
	v := string(*id)
	return &v
}
