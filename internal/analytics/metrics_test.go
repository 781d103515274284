// AngelaMos | 2026
// metrics_test.go

package analytics

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func money(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

func count(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: true}
}

func ad(client string, budget, spent float64) AdMetrics {
	return AdMetrics{
		ClientID: client,
		Budget:   money(budget),
		Spent:    money(spent),
	}
}

func TestTotalsTreatNullAsZero(t *testing.T) {
	ads := []AdMetrics{
		{Spent: money(120.5), Budget: money(200), Leads: count(3), Reach: count(1000)},
		{},
		{Spent: money(79.5), Leads: count(7)},
	}

	assert.InDelta(t, 200.0, TotalSpent(ads), 1e-9)
	assert.InDelta(t, 200.0, TotalBudget(ads), 1e-9)
	assert.Equal(t, int64(10), TotalLeads(ads))
	assert.Equal(t, int64(1000), TotalReach(ads))
	assert.Zero(t, TotalSpent(nil))
}

func TestTotalsAreOrderIndependent(t *testing.T) {
	ads := []AdMetrics{ad("a", 100, 10), ad("b", 50, 20), ad("c", 0, 5)}
	reversed := []AdMetrics{ads[2], ads[1], ads[0]}

	assert.Equal(t, TotalSpent(ads), TotalSpent(reversed))
	assert.Equal(t, BudgetAlert(ads), BudgetAlert(reversed))
	assert.GreaterOrEqual(t, TotalSpent(ads), 0.0)
}

func TestUtilization(t *testing.T) {
	assert.Equal(t, 0, Utilization(1000, 0))
	assert.Equal(t, 0, Utilization(1000, -5))
	assert.Equal(t, 95, Utilization(95000, 100000))
	assert.Equal(t, 120, Utilization(120, 100))
	assert.Equal(t, 33, Utilization(1, 3))
	assert.Equal(t, 67, Utilization(2, 3))
}

func TestUnderBudget(t *testing.T) {
	assert.Equal(t, 0, UnderBudget(10, 0))
	assert.Equal(t, -20, UnderBudget(80000, 100000))
	assert.Equal(t, 10, UnderBudget(110, 100))
	assert.Equal(t, -3, UnderBudget(97.5, 100))
}

func TestCostPerLead(t *testing.T) {
	_, ok := CostPerLead(1000, 0)
	assert.False(t, ok)

	cpl, ok := CostPerLead(1000, 50)
	require.True(t, ok)
	assert.Equal(t, 20, cpl)

	cpl, ok = CostPerLead(1000, 3)
	require.True(t, ok)
	assert.Equal(t, 333, cpl)
}

func TestAverageCTR(t *testing.T) {
	assert.Zero(t, AverageCTR(nil))
	assert.Equal(t, "0", FormatCTR(nil))

	ads := []AdMetrics{{CTR: money(1.5)}, {CTR: money(2.25)}, {}}
	assert.InDelta(t, 1.25, AverageCTR(ads), 1e-9)
	assert.Equal(t, "1.25", FormatCTR(ads))
	assert.Equal(t, "2.00", FormatCTR([]AdMetrics{{CTR: money(2)}}))
}

func TestBudgetAlert(t *testing.T) {
	assert.True(t, BudgetAlert([]AdMetrics{ad("a", 100000, 95000)}))
	assert.False(t, BudgetAlert([]AdMetrics{ad("a", 100000, 80000)}))
	assert.False(t, BudgetAlert([]AdMetrics{ad("a", 100000, 90000)}))
	assert.False(t, BudgetAlert([]AdMetrics{ad("a", 0, 500)}))
	assert.False(t, BudgetAlert(nil))
	assert.True(t, BudgetAlert([]AdMetrics{
		ad("a", 100, 10),
		ad("b", 100, 91),
	}))
}

func TestFilterByClient(t *testing.T) {
	ads := []AdMetrics{ad("a", 1, 1), ad("b", 2, 2), ad("a", 3, 3)}

	filtered := FilterByClient(ads, "a")
	require.Len(t, filtered, 2)
	for _, a := range filtered {
		assert.Equal(t, "a", a.ClientID)
	}
	assert.Len(t, FilterByClient(ads, ""), 3)
	assert.Empty(t, FilterByClient(ads, "missing"))
}
