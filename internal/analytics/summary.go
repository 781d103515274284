// AngelaMos | 2026
// summary.go

package analytics

import (
	"github.com/marketflow/agency-api/internal/workflow"
)

type ClientRow struct {
	ID            string  `db:"id"`
	Name          string  `db:"name"`
	MonthlyBudget float64 `db:"monthly_budget"`
	IsActive      bool    `db:"is_active"`
}

type BriefRow struct {
	ID       string          `db:"id"`
	ClientID string          `db:"client_id"`
	Status   workflow.Status `db:"status"`
}

type TaskRow struct {
	ID     string          `db:"id"`
	Status workflow.Status `db:"status"`
}

type AdSummary struct {
	Count       int     `json:"count"`
	TotalSpent  float64 `json:"total_spent"`
	TotalBudget float64 `json:"total_budget"`
	Utilization int     `json:"utilization"`
	UnderBudget int     `json:"under_budget"`
	TotalLeads  int64   `json:"total_leads"`
	TotalReach  int64   `json:"total_reach"`
	AverageCTR  string  `json:"average_ctr"`
	CostPerLead *int    `json:"cost_per_lead"`
	BudgetAlert bool    `json:"budget_alert"`
	OverBudget  []AdRow `json:"over_threshold"`
}

type AdRow struct {
	ID          string  `json:"id"`
	ClientID    string  `json:"client_id"`
	Spent       float64 `json:"spent"`
	Budget      float64 `json:"budget"`
	Utilization int     `json:"utilization"`
	CostPerLead *int    `json:"cost_per_lead"`
}

func SummarizeAds(ads []AdMetrics) AdSummary {
	spent := TotalSpent(ads)
	budget := TotalBudget(ads)
	leads := TotalLeads(ads)

	s := AdSummary{
		Count:       len(ads),
		TotalSpent:  spent,
		TotalBudget: budget,
		Utilization: Utilization(spent, budget),
		UnderBudget: UnderBudget(spent, budget),
		TotalLeads:  leads,
		TotalReach:  TotalReach(ads),
		AverageCTR:  FormatCTR(ads),
		BudgetAlert: BudgetAlert(ads),
		OverBudget:  []AdRow{},
	}
	if cpl, ok := CostPerLead(spent, leads); ok {
		s.CostPerLead = &cpl
	}

	for _, ad := range ads {
		if OverThreshold(ad) {
			s.OverBudget = append(s.OverBudget, toAdRow(ad))
		}
	}

	return s
}

func toAdRow(ad AdMetrics) AdRow {
	row := AdRow{
		ID:          ad.ID,
		ClientID:    ad.ClientID,
		Spent:       ad.spent(),
		Budget:      ad.budget(),
		Utilization: Utilization(ad.spent(), ad.budget()),
	}
	if cpl, ok := CostPerLead(ad.spent(), ad.leads()); ok {
		row.CostPerLead = &cpl
	}
	return row
}

type ClientSummary struct {
	ClientID      string  `json:"client_id"`
	Name          string  `json:"name"`
	IsActive      bool    `json:"is_active"`
	Briefs        int     `json:"briefs"`
	Spent         float64 `json:"spent"`
	Leads         int64   `json:"leads"`
	MonthlyBudget float64 `json:"monthly_budget"`
	Utilization   int     `json:"utilization"`
}

// SummarizeClients totals briefs and ad results per client, in the order
// the clients are given.
func SummarizeClients(
	clients []ClientRow,
	briefs []BriefRow,
	ads []AdMetrics,
) []ClientSummary {
	briefCount := make(map[string]int, len(clients))
	for _, b := range briefs {
		briefCount[b.ClientID]++
	}

	byClient := make(map[string][]AdMetrics, len(clients))
	for _, ad := range ads {
		byClient[ad.ClientID] = append(byClient[ad.ClientID], ad)
	}

	out := make([]ClientSummary, 0, len(clients))
	for _, c := range clients {
		clientAds := byClient[c.ID]
		spent := TotalSpent(clientAds)
		out = append(out, ClientSummary{
			ClientID:      c.ID,
			Name:          c.Name,
			IsActive:      c.IsActive,
			Briefs:        briefCount[c.ID],
			Spent:         spent,
			Leads:         TotalLeads(clientAds),
			MonthlyBudget: c.MonthlyBudget,
			Utilization:   Utilization(spent, c.MonthlyBudget),
		})
	}
	return out
}

type DashboardSummary struct {
	ActiveCampaigns int     `json:"active_campaigns"`
	TasksPending    int     `json:"tasks_pending"`
	TasksInReview   int     `json:"tasks_in_review"`
	TasksCompleted  int     `json:"tasks_completed"`
	TotalTasks      int     `json:"total_tasks"`
	TotalSpent      float64 `json:"total_spent"`
	TotalBudget     float64 `json:"total_budget"`
	UnderBudget     int     `json:"under_budget"`
	BudgetAlert     bool    `json:"budget_alert"`
}

func Dashboard(
	tasks []TaskRow,
	briefs []BriefRow,
	ads []AdMetrics,
) DashboardSummary {
	statuses := make([]workflow.Status, 0, len(tasks))
	for _, t := range tasks {
		statuses = append(statuses, t.Status)
	}
	counts := workflow.StatusCounts(statuses)

	active := 0
	for _, b := range briefs {
		if b.Status != workflow.StatusPublished {
			active++
		}
	}

	spent := TotalSpent(ads)
	budget := TotalBudget(ads)

	return DashboardSummary{
		ActiveCampaigns: active,
		TasksPending: counts[workflow.StatusPending] +
			counts[workflow.StatusInProgress],
		TasksInReview: counts[workflow.StatusReview],
		TasksCompleted: counts[workflow.StatusApproved] +
			counts[workflow.StatusPublished],
		TotalTasks:  len(tasks),
		TotalSpent:  spent,
		TotalBudget: budget,
		UnderBudget: UnderBudget(spent, budget),
		BudgetAlert: BudgetAlert(ads),
	}
}
