// Package memory provides an in-memory Store implementation (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/commission-engine/commission"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type entryKey struct {
	SaleID commission.SaleID
	Role   commission.Role
	Payee  commission.ProfileID // "" for HQ_NET
}

type Memory struct {
	mu       sync.RWMutex
	sales    map[commission.SaleID]commission.Sale
	profiles map[commission.ProfileID]commission.Profile
	products map[commission.ProductID]commission.Product
	entries  map[entryKey]commission.LedgerEntry
	runs     []commission.SettlementRun
}

func New() *Memory {
	return &Memory{
		sales:    make(map[commission.SaleID]commission.Sale),
		profiles: make(map[commission.ProfileID]commission.Profile),
		products: make(map[commission.ProductID]commission.Product),
		entries:  make(map[entryKey]commission.LedgerEntry),
	}
}

// =============================================================================
// SALES / PROFILES / PRODUCTS
// =============================================================================

func (m *Memory) GetSaleBundle(_ context.Context, id commission.SaleID) (*commission.SaleBundle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bundleLocked(id)
}

func (m *Memory) bundleLocked(id commission.SaleID) (*commission.SaleBundle, error) {
	sale, ok := m.sales[id]
	if !ok {
		return nil, nil
	}
	bundle := &commission.SaleBundle{Sale: sale}
	if sale.ManagerProfileID != nil {
		if p, ok := m.profiles[*sale.ManagerProfileID]; ok {
			cp := p
			bundle.Manager = &cp
		}
	}
	if sale.AgentProfileID != nil {
		if p, ok := m.profiles[*sale.AgentProfileID]; ok {
			cp := p
			bundle.Agent = &cp
		}
	}
	if sale.OverrideProfileID != nil {
		if p, ok := m.profiles[*sale.OverrideProfileID]; ok {
			cp := p
			bundle.Override = &cp
		}
	}
	if sale.ProductID != nil {
		if p, ok := m.products[*sale.ProductID]; ok {
			cp := p
			bundle.Product = &cp
		}
	}
	return bundle, nil
}

func (m *Memory) GetSale(_ context.Context, id commission.SaleID) (*commission.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sale, ok := m.sales[id]
	if !ok {
		return nil, nil
	}
	return &sale, nil
}

func (m *Memory) ListSales(_ context.Context) ([]commission.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sales := make([]commission.Sale, 0, len(m.sales))
	for _, s := range m.sales {
		sales = append(sales, s)
	}
	sort.Slice(sales, func(i, j int) bool { return sales[i].ID < sales[j].ID })
	return sales, nil
}

func (m *Memory) SaveSale(_ context.Context, sale commission.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales[sale.ID] = sale
	return nil
}

func (m *Memory) UpdateSaleSummary(_ context.Context, id commission.SaleID, b commission.Breakdown) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateSummaryLocked(id, b)
}

func (m *Memory) updateSummaryLocked(id commission.SaleID, b commission.Breakdown) error {
	sale, ok := m.sales[id]
	if !ok {
		return commission.ErrSaleNotFound
	}
	sale.Summary = b
	sale.UpdatedAt = time.Now().UTC()
	m.sales[id] = sale
	return nil
}

func (m *Memory) GetProfile(_ context.Context, id commission.ProfileID) (*commission.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) ListProfiles(_ context.Context) ([]commission.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	profiles := make([]commission.Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		profiles = append(profiles, p)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })
	return profiles, nil
}

func (m *Memory) SaveProfile(_ context.Context, p commission.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = p
	return nil
}

func (m *Memory) GetProduct(_ context.Context, id commission.ProductID) (*commission.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) SaveProduct(_ context.Context, p commission.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
	return nil
}

// =============================================================================
// LEDGER ENTRIES
// =============================================================================

func keyOf(e commission.LedgerEntry) entryKey {
	k := entryKey{SaleID: e.SaleID, Role: e.Role}
	if e.ProfileID != nil {
		k.Payee = *e.ProfileID
	}
	return k
}

// InsertEntries inserts drafts, skipping uniqueness-constraint collisions.
func (m *Memory) InsertEntries(_ context.Context, entries []commission.LedgerEntry) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(entries)
}

func (m *Memory) insertLocked(entries []commission.LedgerEntry) (int, error) {
	inserted := 0
	for _, e := range entries {
		k := keyOf(e)
		if _, exists := m.entries[k]; exists {
			continue
		}
		m.entries[k] = e
		inserted++
	}
	return inserted, nil
}

func (m *Memory) DeleteEntriesBySale(_ context.Context, id commission.SaleID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteLocked(id)
	return nil
}

func (m *Memory) deleteLocked(id commission.SaleID) {
	for k := range m.entries {
		if k.SaleID == id {
			delete(m.entries, k)
		}
	}
}

func (m *Memory) ListEntriesBySale(_ context.Context, id commission.SaleID) ([]commission.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []commission.LedgerEntry
	for _, e := range m.entries {
		if e.SaleID == id {
			result = append(result, e)
		}
	}
	sortEntries(result)
	return result, nil
}

func (m *Memory) ListEntriesInRange(_ context.Context, from, to time.Time) ([]commission.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []commission.LedgerEntry
	for _, e := range m.entries {
		if !e.CreatedAt.Before(from) && e.CreatedAt.Before(to) {
			result = append(result, e)
		}
	}
	sortEntries(result)
	return result, nil
}

func sortEntries(entries []commission.LedgerEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
}

// =============================================================================
// SETTLEMENT RUNS
// =============================================================================

func (m *Memory) SaveSettlementRun(_ context.Context, run commission.SettlementRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *Memory) ListSettlementRuns(_ context.Context) ([]commission.SettlementRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	runs := make([]commission.SettlementRun, len(m.runs))
	copy(runs, m.runs)
	return runs, nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a transaction. For the memory store this is
// simulated with a snapshot + rollback on error, under the write lock, so
// a reader never observes a half-applied replace.
func (m *Memory) WithTx(_ context.Context, fn func(commission.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshotLocked()
	view := &txView{parent: m}

	if err := fn(view); err != nil {
		m.restoreLocked(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	sales   map[commission.SaleID]commission.Sale
	entries map[entryKey]commission.LedgerEntry
}

func (m *Memory) snapshotLocked() memorySnapshot {
	salesCopy := make(map[commission.SaleID]commission.Sale, len(m.sales))
	for k, v := range m.sales {
		salesCopy[k] = v
	}
	entriesCopy := make(map[entryKey]commission.LedgerEntry, len(m.entries))
	for k, v := range m.entries {
		entriesCopy[k] = v
	}
	return memorySnapshot{sales: salesCopy, entries: entriesCopy}
}

func (m *Memory) restoreLocked(s memorySnapshot) {
	m.sales = s.sales
	m.entries = s.entries
}

// txView routes Store calls back to the parent without re-locking.
// Only the operations the Synchronizer uses inside a transaction touch
// mutable state; reads see the in-progress writes.
type txView struct {
	parent *Memory
}

func (v *txView) GetSaleBundle(_ context.Context, id commission.SaleID) (*commission.SaleBundle, error) {
	return v.parent.bundleLocked(id)
}

func (v *txView) GetSale(_ context.Context, id commission.SaleID) (*commission.Sale, error) {
	sale, ok := v.parent.sales[id]
	if !ok {
		return nil, nil
	}
	return &sale, nil
}

func (v *txView) ListSales(ctx context.Context) ([]commission.Sale, error) {
	sales := make([]commission.Sale, 0, len(v.parent.sales))
	for _, s := range v.parent.sales {
		sales = append(sales, s)
	}
	sort.Slice(sales, func(i, j int) bool { return sales[i].ID < sales[j].ID })
	return sales, nil
}

func (v *txView) SaveSale(_ context.Context, sale commission.Sale) error {
	v.parent.sales[sale.ID] = sale
	return nil
}

func (v *txView) UpdateSaleSummary(_ context.Context, id commission.SaleID, b commission.Breakdown) error {
	return v.parent.updateSummaryLocked(id, b)
}

func (v *txView) GetProfile(_ context.Context, id commission.ProfileID) (*commission.Profile, error) {
	p, ok := v.parent.profiles[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (v *txView) ListProfiles(ctx context.Context) ([]commission.Profile, error) {
	profiles := make([]commission.Profile, 0, len(v.parent.profiles))
	for _, p := range v.parent.profiles {
		profiles = append(profiles, p)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })
	return profiles, nil
}

func (v *txView) SaveProfile(_ context.Context, p commission.Profile) error {
	v.parent.profiles[p.ID] = p
	return nil
}

func (v *txView) GetProduct(_ context.Context, id commission.ProductID) (*commission.Product, error) {
	p, ok := v.parent.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (v *txView) SaveProduct(_ context.Context, p commission.Product) error {
	v.parent.products[p.ID] = p
	return nil
}

func (v *txView) InsertEntries(_ context.Context, entries []commission.LedgerEntry) (int, error) {
	return v.parent.insertLocked(entries)
}

func (v *txView) DeleteEntriesBySale(_ context.Context, id commission.SaleID) error {
	v.parent.deleteLocked(id)
	return nil
}

func (v *txView) ListEntriesBySale(_ context.Context, id commission.SaleID) ([]commission.LedgerEntry, error) {
	var result []commission.LedgerEntry
	for _, e := range v.parent.entries {
		if e.SaleID == id {
			result = append(result, e)
		}
	}
	sortEntries(result)
	return result, nil
}

func (v *txView) ListEntriesInRange(_ context.Context, from, to time.Time) ([]commission.LedgerEntry, error) {
	var result []commission.LedgerEntry
	for _, e := range v.parent.entries {
		if !e.CreatedAt.Before(from) && e.CreatedAt.Before(to) {
			result = append(result, e)
		}
	}
	sortEntries(result)
	return result, nil
}
