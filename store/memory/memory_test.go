package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/commission-engine/commission"
)

func entry(saleID commission.SaleID, role commission.Role, payee string) commission.LedgerEntry {
	e := commission.LedgerEntry{
		ID:          commission.EntryID(string(saleID) + ":" + string(role) + ":" + payee),
		SaleID:      saleID,
		Role:        role,
		GrossAmount: decimal.NewFromInt(100000),
		Currency:    "KRW",
		CreatedAt:   time.Now().UTC(),
	}
	if payee != "hq" {
		pid := commission.ProfileID(payee)
		e.ProfileID = &pid
	}
	return e
}

func TestInsertEntries_SkipsExistingKeys(t *testing.T) {
	ctx := context.Background()
	m := New()

	n, err := m.InsertEntries(ctx, []commission.LedgerEntry{
		entry("s1", commission.RoleAgentCommission, "agt-1"),
		entry("s1", commission.RoleHQNet, "hq"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = m.InsertEntries(ctx, []commission.LedgerEntry{
		entry("s1", commission.RoleAgentCommission, "agt-1"),
		entry("s1", commission.RoleManagerCommission, "mgr-1"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := m.ListEntriesBySale(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestWithTx_RestoresSnapshotOnError(t *testing.T) {
	// GIVEN: Entries and a sale summary in place
	// WHEN: A transaction mutates both and then fails
	// THEN: Every mutation is rolled back

	ctx := context.Background()
	m := New()
	require.NoError(t, m.SaveSale(ctx, commission.Sale{ID: "s1", Status: commission.SaleConfirmed}))
	_, err := m.InsertEntries(ctx, []commission.LedgerEntry{
		entry("s1", commission.RoleAgentCommission, "agt-1"),
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = m.WithTx(ctx, func(st commission.Store) error {
		if err := st.DeleteEntriesBySale(ctx, "s1"); err != nil {
			return err
		}
		if _, err := st.InsertEntries(ctx, []commission.LedgerEntry{
			entry("s1", commission.RoleManagerCommission, "mgr-1"),
		}); err != nil {
			return err
		}
		if err := st.UpdateSaleSummary(ctx, "s1", commission.Breakdown{NetRevenue: decimal.NewFromInt(42)}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	entries, err := m.ListEntriesBySale(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, commission.RoleAgentCommission, entries[0].Role)

	sale, err := m.GetSale(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, sale.Summary.NetRevenue.IsZero())
}

func TestWithTx_ReadsSeeInProgressWrites(t *testing.T) {
	ctx := context.Background()
	m := New()

	err := m.WithTx(ctx, func(st commission.Store) error {
		if _, err := st.InsertEntries(ctx, []commission.LedgerEntry{
			entry("s1", commission.RoleAgentCommission, "agt-1"),
		}); err != nil {
			return err
		}
		inside, err := st.ListEntriesBySale(ctx, "s1")
		if err != nil {
			return err
		}
		assert.Len(t, inside, 1)
		return nil
	})
	require.NoError(t, err)

	after, err := m.ListEntriesBySale(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, after, 1)
}
