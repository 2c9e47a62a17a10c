package commission_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/store/memory"
)

// seedSettlementLedger syncs two sales sharing the same manager so the
// aggregator has something to fold per payee.
func seedSettlementLedger(t *testing.T) *memory.Memory {
	t.Helper()
	ctx := context.Background()
	st := seedStore(t)

	agentRate := dec("5")
	require.NoError(t, st.SaveProfile(ctx, commission.Profile{
		ID:              "agt-2",
		Type:            commission.ProfileSalesAgent,
		Name:            "Agent Two",
		WithholdingRate: &agentRate,
	}))
	productID := commission.ProductID("crs-1")
	require.NoError(t, st.SaveSale(ctx, commission.Sale{
		ID:               "sale-2",
		SaleAmount:       dec("800000"),
		CostAmount:       dec("300000"),
		ManagerProfileID: pid("mgr-1"),
		AgentProfileID:   pid("agt-2"),
		ProductID:        &productID,
		BranchCommission: dec("80000"),
		SalesCommission:  dec("120000"),
		Status:           commission.SalePaid,
		SaleDate:         time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
	}))

	sync := commission.NewSynchronizer(st, commission.DefaultConfig())
	opts := commission.SyncOptions{Regenerate: true, IncludeHq: true}
	_, err := sync.SyncSaleLedgers(ctx, "sale-1", opts)
	require.NoError(t, err)
	_, err = sync.SyncSaleLedgers(ctx, "sale-2", opts)
	require.NoError(t, err)
	return st
}

func settlementWindow() (time.Time, time.Time) {
	now := time.Now().UTC()
	return now.Add(-time.Hour), now.Add(time.Hour)
}

func TestBuildSettlements_GroupsByPayee(t *testing.T) {
	// GIVEN: Two synced sales sharing one manager
	// WHEN: Building settlements over a window covering both
	// THEN: One line per payee per currency, manager totals folded across
	//       both sales, stable payee order

	ctx := context.Background()
	st := seedSettlementLedger(t)
	agg := commission.NewAggregator(st)
	from, to := settlementWindow()

	lines, err := agg.BuildSettlements(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, lines, 3)

	// Sorted by profile ID: agt-1, agt-2, mgr-1.
	assert.Equal(t, commission.ProfileID("agt-1"), lines[0].ProfileID)
	assert.Equal(t, commission.ProfileID("agt-2"), lines[1].ProfileID)
	assert.Equal(t, commission.ProfileID("mgr-1"), lines[2].ProfileID)

	// Manager: 100,000 + 80,000 gross across the two sales at 3.3%.
	mgr := lines[2]
	assert.Equal(t, 2, mgr.EntryCount)
	assert.Equal(t, "KRW", mgr.Currency)
	assertDecEqual(t, "180000", mgr.GrossTotal)
	assertDecEqual(t, "5940", mgr.WithholdingTotal)
	assertDecEqual(t, "174060", mgr.NetTotal)

	// Per-line totals reconcile.
	for _, l := range lines {
		assert.True(t, l.NetTotal.Equal(l.GrossTotal.Sub(l.WithholdingTotal)),
			"net must reconcile for %s", l.ProfileID)
	}
}

func TestBuildSettlements_ExcludesHQEntries(t *testing.T) {
	// HQ_NET has no payee; the company does not settle with itself.

	ctx := context.Background()
	st := seedSettlementLedger(t)
	agg := commission.NewAggregator(st)
	from, to := settlementWindow()

	lines, err := agg.BuildSettlements(ctx, from, to)
	require.NoError(t, err)
	for _, l := range lines {
		assert.NotEmpty(t, l.ProfileID)
	}
}

func TestBuildSettlements_EmptyWindow(t *testing.T) {
	ctx := context.Background()
	st := seedSettlementLedger(t)
	agg := commission.NewAggregator(st)

	from := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	lines, err := agg.BuildSettlements(ctx, from, from.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestRunSettlement_RecordsCompletedRun(t *testing.T) {
	// GIVEN: A populated ledger
	// WHEN: Running a settlement
	// THEN: The run is persisted with its lines and marked completed

	ctx := context.Background()
	st := seedSettlementLedger(t)
	agg := commission.NewAggregator(st)
	from, to := settlementWindow()

	run, err := agg.RunSettlement(ctx, st, from, to)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "completed", run.Status)
	assert.Len(t, run.Lines, 3)
	require.NotNil(t, run.CompletedAt)

	runs, err := st.ListSettlementRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Len(t, runs[0].Lines, 3)
}
