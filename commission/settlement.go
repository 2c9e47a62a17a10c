/*
settlement.go - Settlement aggregation over ledger entries

PURPOSE:
  Groups ledger entries by payee and period into payable settlements.
  This is the downstream, read-only consumer of the Synchronizer's output:
  it never writes ledger rows, only reads them and records settlement runs.

STABILITY:
  The persisted LedgerEntry shape is the de facto interface between the
  Synchronizer and this aggregator; lines are emitted in a stable order
  (payee, then currency) so repeated runs over the same period compare
  byte-for-byte.

SEE ALSO:
  - store.go: ListEntriesInRange / SettlementStore
  - api/scheduler.go: Periodic settlement runs
*/
package commission

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// SETTLEMENT TYPES
// =============================================================================

// SettlementLine is the payable total for one profile in one currency.
type SettlementLine struct {
	ProfileID        ProfileID
	Currency         string
	GrossTotal       decimal.Decimal
	WithholdingTotal decimal.Decimal
	NetTotal         decimal.Decimal
	EntryCount       int
}

// SettlementRun records one aggregation over a period.
type SettlementRun struct {
	ID          string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Status      string // "completed" or "failed"
	Lines       []SettlementLine
	Error       string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// =============================================================================
// AGGREGATOR
// =============================================================================

// Aggregator builds settlements from ledger entries.
type Aggregator struct {
	store Store
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// BuildSettlements groups entries created in [from, to) by payee and
// currency. HQ_NET entries have no payee and are excluded - the company
// does not settle with itself.
func (a *Aggregator) BuildSettlements(ctx context.Context, from, to time.Time) ([]SettlementLine, error) {
	entries, err := a.store.ListEntriesInRange(ctx, from, to)
	if err != nil {
		return nil, &PersistenceError{Op: "list entries for settlement", Err: err}
	}

	type lineKey struct {
		profile  ProfileID
		currency string
	}
	totals := make(map[lineKey]*SettlementLine)
	for _, e := range entries {
		if e.Role == RoleHQNet || e.ProfileID == nil {
			continue
		}
		k := lineKey{profile: *e.ProfileID, currency: e.Currency}
		line, ok := totals[k]
		if !ok {
			line = &SettlementLine{ProfileID: k.profile, Currency: k.currency}
			totals[k] = line
		}
		line.GrossTotal = line.GrossTotal.Add(e.GrossAmount)
		line.WithholdingTotal = line.WithholdingTotal.Add(e.WithholdingAmount)
		line.NetTotal = line.NetTotal.Add(e.NetAmount)
		line.EntryCount++
	}

	lines := make([]SettlementLine, 0, len(totals))
	for _, line := range totals {
		lines = append(lines, *line)
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].ProfileID != lines[j].ProfileID {
			return lines[i].ProfileID < lines[j].ProfileID
		}
		return lines[i].Currency < lines[j].Currency
	})
	return lines, nil
}

// RunSettlement builds settlements for the period and records the run.
func (a *Aggregator) RunSettlement(ctx context.Context, store SettlementStore, from, to time.Time) (*SettlementRun, error) {
	run := SettlementRun{
		ID:          uuid.NewString(),
		PeriodStart: from,
		PeriodEnd:   to,
		CreatedAt:   time.Now().UTC(),
	}

	lines, err := a.BuildSettlements(ctx, from, to)
	if err != nil {
		run.Status = "failed"
		run.Error = err.Error()
	} else {
		now := time.Now().UTC()
		run.Status = "completed"
		run.Lines = lines
		run.CompletedAt = &now
	}

	if saveErr := store.SaveSettlementRun(ctx, run); saveErr != nil {
		return nil, &PersistenceError{Op: fmt.Sprintf("save settlement run %s", run.ID), Err: saveErr}
	}
	if err != nil {
		return &run, err
	}
	return &run, nil
}
