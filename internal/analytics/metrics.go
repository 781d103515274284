// AngelaMos | 2026
// metrics.go

// Package analytics reduces ad rows into dashboard figures.
package analytics

import (
	"database/sql"
	"math"
	"strconv"
)

// AlertThreshold is the spend-to-budget ratio above which an ad raises the
// budget alert.
const AlertThreshold = 0.9

// AdMetrics is the slice of an ad row the reductions need. Null columns
// count as zero.
type AdMetrics struct {
	ID       string          `db:"id"        json:"id"`
	ClientID string          `db:"client_id" json:"client_id"`
	Status   string          `db:"status"    json:"status"`
	Budget   sql.NullFloat64 `db:"budget"    json:"-"`
	Spent    sql.NullFloat64 `db:"spent"     json:"-"`
	Leads    sql.NullInt64   `db:"leads"     json:"-"`
	Reach    sql.NullInt64   `db:"reach"     json:"-"`
	CTR      sql.NullFloat64 `db:"ctr"       json:"-"`
}

func (a AdMetrics) budget() float64 { return a.Budget.Float64 }
func (a AdMetrics) spent() float64  { return a.Spent.Float64 }
func (a AdMetrics) leads() int64    { return a.Leads.Int64 }
func (a AdMetrics) reach() int64    { return a.Reach.Int64 }
func (a AdMetrics) ctr() float64    { return a.CTR.Float64 }

func TotalSpent(ads []AdMetrics) float64 {
	var total float64
	for _, ad := range ads {
		total += ad.spent()
	}
	return total
}

func TotalBudget(ads []AdMetrics) float64 {
	var total float64
	for _, ad := range ads {
		total += ad.budget()
	}
	return total
}

func TotalLeads(ads []AdMetrics) int64 {
	var total int64
	for _, ad := range ads {
		total += ad.leads()
	}
	return total
}

func TotalReach(ads []AdMetrics) int64 {
	var total int64
	for _, ad := range ads {
		total += ad.reach()
	}
	return total
}

// Utilization is spent as a whole percentage of budget, or 0 without a
// budget.
func Utilization(spent, budget float64) int {
	if budget <= 0 {
		return 0
	}
	return round(spent / budget * 100)
}

// UnderBudget is the negated percentage of budget left unspent. Overspend
// yields a positive value.
func UnderBudget(spent, budget float64) int {
	if budget <= 0 {
		return 0
	}
	return -round((budget - spent) / budget * 100)
}

func AverageCTR(ads []AdMetrics) float64 {
	if len(ads) == 0 {
		return 0
	}
	var sum float64
	for _, ad := range ads {
		sum += ad.ctr()
	}
	return sum / float64(len(ads))
}

// FormatCTR renders the average click-through rate with two decimals, or
// "0" when there are no ads.
func FormatCTR(ads []AdMetrics) string {
	if len(ads) == 0 {
		return "0"
	}
	return strconv.FormatFloat(AverageCTR(ads), 'f', 2, 64)
}

// CostPerLead is spent divided by leads, rounded. ok is false when there
// are no leads to divide by.
func CostPerLead(spent float64, leads int64) (int, bool) {
	if leads <= 0 {
		return 0, false
	}
	return round(spent / float64(leads)), true
}

// OverThreshold reports whether a single ad has spent more than
// AlertThreshold of its budget.
func OverThreshold(ad AdMetrics) bool {
	budget := ad.budget()
	if budget <= 0 {
		return false
	}
	return ad.spent()/budget > AlertThreshold
}

func BudgetAlert(ads []AdMetrics) bool {
	for _, ad := range ads {
		if OverThreshold(ad) {
			return true
		}
	}
	return false
}

func FilterByClient(ads []AdMetrics, clientID string) []AdMetrics {
	if clientID == "" {
		return ads
	}
	out := make([]AdMetrics, 0, len(ads))
	for _, ad := range ads {
		if ad.ClientID == clientID {
			out = append(out, ad)
		}
	}
	return out
}

// round rounds half up, so -2.5 becomes -2 and 2.5 becomes 3.
func round(x float64) int {
	return int(math.Floor(x + 0.5))
}
