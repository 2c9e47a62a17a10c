package commission_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/commission-engine/commission"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func pid(s string) *commission.ProfileID {
	p := commission.ProfileID(s)
	return &p
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// baseInput is a fully-populated KRW sale: 1,000,000 gross, 400,000 cost,
// 100,000 branch / 150,000 sales / 50,000 override commissions.
func baseInput() commission.FormulaInput {
	return commission.FormulaInput{
		SaleID:                  "sale-1",
		SaleAmount:              dec("1000000"),
		CostAmount:              dec("400000"),
		BranchCommission:        dec("100000"),
		SalesCommission:         dec("150000"),
		OverrideCommission:      dec("50000"),
		ManagerProfileID:        pid("mgr-1"),
		AgentProfileID:          pid("agt-1"),
		OverrideProfileID:       pid("mgr-1"),
		AgentWithholdingRate:    dec("3.3"),
		ManagerWithholdingRate:  dec("3.3"),
		OverrideWithholdingRate: dec("3.3"),
		Currency:                "KRW",
		Precision:               0,
	}
}

func assertDecEqual(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), "expected %s, got %s %v", expected, actual, msgAndArgs)
}

// =============================================================================
// BALANCE INVARIANT
// =============================================================================

func TestComputeCommission_BalanceInvariant(t *testing.T) {
	// GIVEN: A fully-populated sale
	// WHEN: Computing the commission breakdown
	// THEN: sum(non-HQ gross) + netRevenue + costAmount == saleAmount

	in := baseInput()
	in.IncludeHqNet = true

	res, err := commission.ComputeCommission(in)
	require.NoError(t, err)

	assertDecEqual(t, "300000", res.Breakdown.NetRevenue)

	sum := res.Breakdown.NetRevenue.Add(in.CostAmount)
	for _, e := range res.Entries {
		if e.Role != commission.RoleHQNet {
			sum = sum.Add(e.GrossAmount)
		}
	}
	assert.True(t, sum.Equal(in.SaleAmount), "parties + net + cost must equal sale amount, got %s", sum)
}

func TestComputeCommission_NegativeMarginPreserved(t *testing.T) {
	// GIVEN: Deductions exceed the sale amount (over-commissioned sale)
	// WHEN: Computing the breakdown
	// THEN: netRevenue is -10, returned as-is - not clamped, not rejected

	in := commission.FormulaInput{
		SaleID:                 "sale-neg",
		SaleAmount:             dec("100"),
		CostAmount:             dec("40"),
		BranchCommission:       dec("30"),
		SalesCommission:        dec("40"),
		ManagerProfileID:       pid("mgr-1"),
		AgentProfileID:         pid("agt-1"),
		AgentWithholdingRate:   dec("3.3"),
		ManagerWithholdingRate: dec("3.3"),
		Currency:               "USD",
		Precision:              2,
	}

	res, err := commission.ComputeCommission(in)
	require.NoError(t, err)
	assertDecEqual(t, "-10", res.Breakdown.NetRevenue)
}

// =============================================================================
// WITHHOLDING AND ROUNDING
// =============================================================================

func TestComputeCommission_WithholdingRounding(t *testing.T) {
	// GIVEN: gross 100,000 at the 3.3% withholding rate in an integer currency
	// WHEN: Computing the agent entry
	// THEN: withholding is exactly 3,300 and net is exactly gross - withholding

	in := baseInput()
	res, err := commission.ComputeCommission(in)
	require.NoError(t, err)

	var manager *commission.LedgerEntryDraft
	for i := range res.Entries {
		if res.Entries[i].Role == commission.RoleManagerCommission {
			manager = &res.Entries[i]
		}
	}
	require.NotNil(t, manager)
	assertDecEqual(t, "3300", manager.WithholdingAmount)
	assert.True(t, manager.NetAmount.Equal(manager.GrossAmount.Sub(manager.WithholdingAmount)),
		"net must equal gross minus withholding with no drift")
	assertDecEqual(t, "96700", manager.NetAmount)
}

func TestComputeCommission_RoundsAtEntryLevel(t *testing.T) {
	// GIVEN: A fractional gross in a 2-decimal currency
	// WHEN: Computing withholding (100.01 * 3.3% = 3.30033)
	// THEN: Withholding rounds to currency precision, net absorbs the remainder

	in := baseInput()
	in.Currency = "USD"
	in.Precision = 2
	in.SalesCommission = dec("100.01")

	res, err := commission.ComputeCommission(in)
	require.NoError(t, err)

	var agent *commission.LedgerEntryDraft
	for i := range res.Entries {
		if res.Entries[i].Role == commission.RoleAgentCommission {
			agent = &res.Entries[i]
		}
	}
	require.NotNil(t, agent)
	assertDecEqual(t, "3.30", agent.WithholdingAmount)
	assertDecEqual(t, "96.71", agent.NetAmount)
}

// =============================================================================
// ROLE COMPLETENESS
// =============================================================================

func TestComputeCommission_RoleCompleteness(t *testing.T) {
	// GIVEN: manager=5, agent=7, no override, includeHq=true
	// WHEN: Computing
	// THEN: Exactly three entries - AGENT, MANAGER, HQ_NET - and no OVERRIDE

	in := baseInput()
	in.ManagerProfileID = pid("5")
	in.AgentProfileID = pid("7")
	in.OverrideProfileID = nil
	in.OverrideCommission = decimal.Zero
	in.IncludeHqNet = true

	res, err := commission.ComputeCommission(in)
	require.NoError(t, err)
	require.Len(t, res.Entries, 3)

	roles := map[commission.Role]int{}
	for _, e := range res.Entries {
		roles[e.Role]++
	}
	assert.Equal(t, 1, roles[commission.RoleAgentCommission])
	assert.Equal(t, 1, roles[commission.RoleManagerCommission])
	assert.Equal(t, 1, roles[commission.RoleHQNet])
	assert.Zero(t, roles[commission.RoleOverrideCommission])
}

func TestComputeCommission_ZeroCommissionTierSkipped(t *testing.T) {
	// GIVEN: A manager is present but the branch commission is zero
	// WHEN: Computing
	// THEN: No MANAGER_COMMISSION entry is emitted

	in := baseInput()
	in.BranchCommission = decimal.Zero
	in.OverrideProfileID = nil
	in.OverrideCommission = decimal.Zero

	res, err := commission.ComputeCommission(in)
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, commission.RoleAgentCommission, res.Entries[0].Role)
}

func TestComputeCommission_HQNetEntry(t *testing.T) {
	// GIVEN: includeHq=true
	// THEN: The HQ entry carries netRevenue as gross with zero withholding
	//       and no payee

	in := baseInput()
	in.IncludeHqNet = true

	res, err := commission.ComputeCommission(in)
	require.NoError(t, err)

	var hq *commission.LedgerEntryDraft
	for i := range res.Entries {
		if res.Entries[i].Role == commission.RoleHQNet {
			hq = &res.Entries[i]
		}
	}
	require.NotNil(t, hq)
	assert.Nil(t, hq.ProfileID)
	assert.True(t, hq.GrossAmount.Equal(res.Breakdown.NetRevenue))
	assert.True(t, hq.WithholdingAmount.IsZero())
	assert.True(t, hq.NetAmount.Equal(res.Breakdown.NetRevenue))
}

// =============================================================================
// DETERMINISM
// =============================================================================

func TestComputeCommission_Deterministic(t *testing.T) {
	// GIVEN: Identical inputs
	// WHEN: Computing twice
	// THEN: Outputs are identical, including entry IDs

	in := baseInput()
	in.IncludeHqNet = true

	first, err := commission.ComputeCommission(in)
	require.NoError(t, err)
	second, err := commission.ComputeCommission(in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputeCommission_SharedMetadataSnapshot(t *testing.T) {
	// All entries from one invocation carry the same audit snapshot.

	in := baseInput()
	in.IncludeHqNet = true
	in.Metadata = commission.AuditSnapshot{SaleID: in.SaleID, Currency: in.Currency, SaleAmount: in.SaleAmount}

	res, err := commission.ComputeCommission(in)
	require.NoError(t, err)
	require.NotEmpty(t, res.Entries)
	for _, e := range res.Entries {
		assert.Equal(t, in.Metadata, e.Metadata)
	}
}

// =============================================================================
// INPUT VALIDATION
// =============================================================================

func TestComputeCommission_NegativeSaleAmountRejected(t *testing.T) {
	in := baseInput()
	in.SaleAmount = dec("-1")

	_, err := commission.ComputeCommission(in)
	require.Error(t, err)
	assert.True(t, commission.IsComputation(err))

	var compErr *commission.ComputationError
	require.ErrorAs(t, err, &compErr)
	assert.Equal(t, "sale_amount", compErr.Field)
}

func TestComputeCommission_MissingCurrencyRejected(t *testing.T) {
	in := baseInput()
	in.Currency = ""

	_, err := commission.ComputeCommission(in)
	require.Error(t, err)

	var compErr *commission.ComputationError
	require.ErrorAs(t, err, &compErr)
	assert.Equal(t, "currency", compErr.Field)
}

func TestComputeCommission_RateOutOfRangeRejected(t *testing.T) {
	in := baseInput()
	in.AgentWithholdingRate = dec("101")

	_, err := commission.ComputeCommission(in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, commission.ErrComputation))
}

func TestComputeCommission_CostAboveSaleAllowed(t *testing.T) {
	// costAmount > saleAmount is unusual but NOT rejected; the negative
	// net revenue must survive for auditors.

	in := baseInput()
	in.CostAmount = dec("2000000")

	res, err := commission.ComputeCommission(in)
	require.NoError(t, err)
	assert.True(t, res.Breakdown.NetRevenue.IsNegative())
}
